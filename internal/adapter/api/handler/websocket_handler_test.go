package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"annoncia/internal/domain/entity"
	ws "annoncia/internal/infrastructure/websocket"
	"annoncia/internal/usecase"
)

func TestSessionEventsStayBoundToTheirConnection(t *testing.T) {
	manager := ws.NewManager()
	h := NewWebSocketHandler(manager, nil, nil, nil)

	first := &ws.Client{UserID: "alice", Send: make(chan []byte, 8)}
	second := &ws.Client{UserID: "alice", Send: make(chan []byte, 8)}

	session := usecase.NewChatSession("", nil, nil)
	t.Cleanup(func() { session.Close(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.forwardEvents(ctx, session, first)

	// An unidentified session still emits an empty chat list.
	session.SetFilter(entity.ChatTypeAd)

	select {
	case frame := <-first.Send:
		assert.Contains(t, string(frame), `"chat_list"`)
	case <-time.After(time.Second):
		t.Fatal("expected a frame on the owning connection")
	}

	select {
	case frame := <-second.Send:
		t.Fatalf("frame leaked to another connection: %s", frame)
	default:
	}
}

func TestSendErrorTargetsGivenClient(t *testing.T) {
	manager := ws.NewManager()
	manager.Start(context.Background())
	h := NewWebSocketHandler(manager, nil, nil, nil)

	first := &ws.Client{UserID: "alice", Send: make(chan []byte, 8)}
	second := &ws.Client{UserID: "alice", Send: make(chan []byte, 8)}

	// The second registration replaces the first in the manager's user index.
	manager.Register <- first
	manager.Register <- second

	h.sendError(first, "bad frame")

	select {
	case frame := <-first.Send:
		assert.Contains(t, string(frame), "bad frame")
	case <-time.After(time.Second):
		t.Fatal("expected the error frame on the client it was addressed to")
	}

	select {
	case frame := <-second.Send:
		t.Fatalf("error frame rerouted to the newer connection: %s", frame)
	default:
	}
}
