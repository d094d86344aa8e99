package router

import (
	"github.com/labstack/echo/v4"

	"annoncia/internal/adapter/api/handler"
	"annoncia/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler, authMiddleware *middleware.AuthMiddleware) {
	userGroup := e.Group("/v1/users")
	userGroup.Use(authMiddleware.Authenticate)

	userGroup.GET("/me", userHandler.GetProfile)
	userGroup.PUT("/me/device", userHandler.RegisterDevice)
	userGroup.DELETE("/me/device", userHandler.UnregisterDevice)
}
