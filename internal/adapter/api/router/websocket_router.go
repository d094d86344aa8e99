package router

import (
	"github.com/labstack/echo/v4"

	"annoncia/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes. Auth happens inside the
// handler because upgrade requests carry the token as a query parameter.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
