package router

import (
	"github.com/labstack/echo/v4"

	"annoncia/internal/adapter/api/handler"
	"annoncia/internal/adapter/api/middleware"
)

func SetupFileRouter(e *echo.Echo, fileHandler *handler.FileHandler, authMiddleware *middleware.AuthMiddleware) {
	files := e.Group("/v1/files")
	files.Use(authMiddleware.Authenticate)

	files.POST("/upload", fileHandler.UploadAttachment)
}
