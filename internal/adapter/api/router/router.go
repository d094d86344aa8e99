package router

import (
	"github.com/labstack/echo/v4"

	"annoncia/internal/adapter/api/handler"
	"annoncia/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	chatHandler *handler.ChatHandler,
	userHandler *handler.UserHandler,
	fileHandler *handler.FileHandler,
	wsHandler *handler.WebSocketHandler,
) {
	SetupChatRouter(e, chatHandler, authMiddleware)
	SetupUserRouter(e, userHandler, authMiddleware)
	SetupFileRouter(e, fileHandler, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e)
}
