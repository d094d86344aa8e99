package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"annoncia/internal/adapter/api/middleware"
	"annoncia/internal/domain/repository"
	ws "annoncia/internal/infrastructure/websocket"
	"annoncia/internal/usecase"
	"annoncia/pkg/errors"
	"annoncia/pkg/logger"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	chatRepo       repository.ChatRepository
	chatUseCase    *usecase.ChatUseCase
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Restrict this in production
	},
}

func NewWebSocketHandler(
	wsManager *ws.Manager,
	authMiddleware *middleware.AuthMiddleware,
	chatRepo repository.ChatRepository,
	chatUseCase *usecase.ChatUseCase,
) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		chatRepo:       chatRepo,
		chatUseCase:    chatUseCase,
	}
}

// HandleWebSocket upgrades the connection and binds it to a chat session.
// Browsers cannot set headers on upgrade requests, so the token arrives as a
// query parameter instead.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication token is required", nil)
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	session := usecase.NewChatSession(userID, h.chatRepo, h.chatUseCase)

	bridgeCtx, cancelBridge := context.WithCancel(context.Background())
	go h.forwardEvents(bridgeCtx, session, client)

	go client.WritePump()
	go func() {
		client.ReadPump(h.wsManager, func(message []byte) {
			h.handleFrame(session, client, message)
		})
		// The read loop only returns when the connection is gone. This is the
		// page-unload signal and must tear the session down exactly once.
		cancelBridge()
		session.Close(context.Background())
	}()

	// The session starts unfiltered; the client's first set_filter frame
	// drives the initial subscription.
	return nil
}

// forwardEvents serializes session events into frames on the client's send
// channel. Delivery goes to this connection directly, not through the
// manager's user index, so a second connection from the same user cannot
// steal another session's events.
func (h *WebSocketHandler) forwardEvents(ctx context.Context, session *usecase.ChatSession, client *ws.Client) {
	for {
		select {
		case event := <-session.Events():
			data, err := json.Marshal(event.Data)
			if err != nil {
				logger.Error("Failed to marshal %s event for %s: %v", event.Type, client.UserID, err)
				continue
			}

			frame := ws.Frame{
				Type:      event.Type,
				Data:      data,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}
			frameJSON, _ := json.Marshal(frame)
			deliver(client, frameJSON)

		case <-ctx.Done():
			return
		}
	}
}

func deliver(client *ws.Client, frame []byte) {
	select {
	case client.Send <- frame:
	default:
		logger.Warn("Send channel full for client %s, dropping frame", client.UserID)
	}
}

func (h *WebSocketHandler) handleFrame(session *usecase.ChatSession, client *ws.Client, message []byte) {
	var frame ws.Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		logger.Warn("Malformed frame from %s: %v", client.UserID, err)
		h.sendError(client, "Malformed frame")
		return
	}

	ctx := context.Background()

	switch frame.Type {
	case ws.FrameTypePing:
		pong, _ := json.Marshal(ws.Frame{Type: ws.FrameTypePong, Timestamp: time.Now().UTC().Format(time.RFC3339)})
		deliver(client, pong)

	case ws.FrameTypeSetFilter:
		var data ws.SetFilterData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			h.sendError(client, "Malformed set_filter frame")
			return
		}
		session.SetFilter(data.ChatType)

	case ws.FrameTypeSelectChat:
		var data ws.SelectChatData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			h.sendError(client, "Malformed select_chat frame")
			return
		}
		session.SelectChat(ctx, data.ChatID)

	case ws.FrameTypeCompose:
		var data ws.ComposeData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			h.sendError(client, "Malformed compose frame")
			return
		}
		session.ComposeChange(ctx, data.Text)

	case ws.FrameTypeSend:
		var data ws.SendData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			h.sendError(client, "Malformed send_message frame")
			return
		}
		// Send failures surface on the session's own error event.
		_ = session.Send(ctx, usecase.SendInput{
			Type:      data.Type,
			Text:      data.Text,
			FileURL:   data.FileURL,
			FileName:  data.FileName,
			Latitude:  data.Latitude,
			Longitude: data.Longitude,
		})

	case ws.FrameTypeMarkRead:
		session.MarkRead(ctx)

	default:
		logger.Warn("Unknown frame type %q from %s", frame.Type, client.UserID)
		h.sendError(client, "Unknown frame type")
	}
}

func (h *WebSocketHandler) sendError(client *ws.Client, message string) {
	data, _ := json.Marshal(ws.ErrorData{Message: message})
	frame, _ := json.Marshal(ws.Frame{
		Type:      ws.FrameTypeError,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	deliver(client, frame)
}
