package router

import (
	"github.com/labstack/echo/v4"

	"annoncia/internal/adapter/api/handler"
	"annoncia/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	// Chat management
	chatGroup.POST("", chatHandler.CreateChat)
	chatGroup.GET("", chatHandler.GetUserChats)
	chatGroup.GET("/:id", chatHandler.GetChatByID)
	chatGroup.DELETE("/:id", chatHandler.DeleteChat)
	chatGroup.PUT("/:id/read", chatHandler.MarkChatAsRead)

	// Message management
	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages)
	chatGroup.PUT("/:id/messages/:messageId", chatHandler.EditMessage)
	chatGroup.DELETE("/:id/messages/:messageId", chatHandler.DeleteMessage)
}
