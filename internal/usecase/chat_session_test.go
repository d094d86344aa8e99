package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annoncia/internal/domain/entity"
	"annoncia/pkg/errors"
)

func testChat(id string) *entity.Chat {
	return &entity.Chat{
		ID:           id,
		Type:         entity.ChatTypeAd,
		Participants: []string{"alice", "bob"},
		Profiles: map[string]entity.ParticipantProfile{
			"alice": {DisplayName: "Alice"},
			"bob":   {DisplayName: "Bob"},
		},
		InitiatorID:  "alice",
		Subject:      entity.ChatSubject{AdID: "ad-1", AdTitle: "Mountain bike"},
		UnreadCount:  map[string]int{},
		OnlineStatus: map[string]bool{},
		LastSeenAt:   map[string]time.Time{},
	}
}

func newTestSession(t *testing.T, userID string) (*ChatSession, *fakeChatRepo, *fakeNotifier) {
	t.Helper()

	repo := newFakeChatRepo()
	users := newFakeUserRepo(
		&entity.User{ID: "alice", Username: "alice", FCMToken: "token-alice"},
		&entity.User{ID: "bob", Username: "bob", FCMToken: "token-bob"},
	)
	notifier := &fakeNotifier{}
	uc := NewChatUseCase(repo, users, &fakeAdRepo{}, &fakeOrgRepo{}, nil, notifier, true)

	session := NewChatSession(userID, repo, uc)
	t.Cleanup(func() { session.Close(context.Background()) })

	return session, repo, notifier
}

func drainEvents(s *ChatSession) []SessionEvent {
	var events []SessionEvent
	for {
		select {
		case event := <-s.Events():
			events = append(events, event)
		default:
			return events
		}
	}
}

func eventsOfType(events []SessionEvent, eventType string) []SessionEvent {
	var matched []SessionEvent
	for _, event := range events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func TestSetFilterTearsDownPreviousSubscription(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")

	session.SetFilter(entity.ChatTypeAd)
	session.SetFilter(entity.ChatTypeDirect)

	ops := repo.opLog()
	require.Equal(t, []string{
		"subscribe_chats:ad",
		"unsubscribe_chats:ad",
		"subscribe_chats:dm",
	}, ops)
}

func TestSetFilterWithoutIdentityIsInert(t *testing.T) {
	session, repo, _ := newTestSession(t, "")

	session.SetFilter(entity.ChatTypeAd)

	assert.Empty(t, repo.opLog())

	events := drainEvents(session)
	lists := eventsOfType(events, EventChatList)
	require.Len(t, lists, 1)
	assert.Empty(t, lists[0].Data)
}

func TestChatListDelivery(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")

	session.SetFilter(entity.ChatTypeAd)
	drainEvents(session)

	chat := testChat("chat-1")
	chat.UnreadCount["alice"] = 3
	repo.pushChats([]*entity.Chat{chat})

	events := drainEvents(session)
	lists := eventsOfType(events, EventChatList)
	require.Len(t, lists, 1)

	viewModels, ok := lists[0].Data.([]ChatViewModel)
	require.True(t, ok)
	require.Len(t, viewModels, 1)
	assert.Equal(t, "chat-1", viewModels[0].ID)
	assert.Equal(t, "Bob", viewModels[0].DisplayName)
	assert.Equal(t, 3, viewModels[0].UnreadCount)
}

func TestChatListErrorFallsBackToEmpty(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")

	session.SetFilter(entity.ChatTypeAd)
	repo.pushChats([]*entity.Chat{testChat("chat-1")})
	drainEvents(session)

	repo.pushChatsError(errors.Internal("stream broken", nil))

	events := drainEvents(session)
	lists := eventsOfType(events, EventChatList)
	require.Len(t, lists, 1)
	assert.Empty(t, lists[0].Data)
}

func TestStaleCallbackAfterFilterSwitchIsDropped(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")

	session.SetFilter(entity.ChatTypeAd)
	staleOnData := repo.chatsOnData

	session.SetFilter(entity.ChatTypeDirect)
	drainEvents(session)

	// A late snapshot from the disposed subscription must not surface.
	staleOnData([]*entity.Chat{testChat("chat-stale")})

	events := drainEvents(session)
	assert.Empty(t, eventsOfType(events, EventChatList))
}

func TestSelectChatResolvesFromList(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")

	session.SetFilter(entity.ChatTypeAd)
	repo.pushChats([]*entity.Chat{testChat("chat-1")})
	drainEvents(session)

	session.SelectChat(context.Background(), "chat-1")

	ops := repo.opLog()
	assert.NotContains(t, ops, "get_chat:chat-1")
	assert.Contains(t, ops, "visit:chat-1:alice")
	assert.Contains(t, ops, "subscribe_messages:chat-1")
	assert.Contains(t, ops, "subscribe_typing:chat-1")

	events := drainEvents(session)
	require.Len(t, eventsOfType(events, EventActiveChat), 1)
	assert.Equal(t, "chat-1", session.ActiveChatID())
}

func TestSelectChatFallsBackToFetch(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")
	repo.chats["chat-1"] = testChat("chat-1")

	session.SetFilter(entity.ChatTypeAd)
	drainEvents(session)

	// Deep link arrives before any list snapshot.
	session.SelectChat(context.Background(), "chat-1")

	ops := repo.opLog()
	assert.Contains(t, ops, "get_chat:chat-1")
	assert.Contains(t, ops, "visit:chat-1:alice")
	assert.Equal(t, "chat-1", session.ActiveChatID())
}

func TestSelectChatTreatsUndefinedAsNoSelection(t *testing.T) {
	for _, chatID := range []string{"", "undefined"} {
		session, repo, _ := newTestSession(t, "alice")

		session.SelectChat(context.Background(), chatID)

		ops := repo.opLog()
		assert.Empty(t, ops, "chatID %q should not touch the backend", chatID)
		assert.Equal(t, "", session.ActiveChatID())

		events := drainEvents(session)
		require.Len(t, eventsOfType(events, EventActiveChat), 1)
	}
}

func TestSelectChatUnknownIDEmitsEmptyStateWithoutError(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")

	session.SetFilter(entity.ChatTypeAd)
	drainEvents(session)

	session.SelectChat(context.Background(), "missing")

	ops := repo.opLog()
	assert.Contains(t, ops, "get_chat:missing")
	assert.NotContains(t, ops, "visit:missing:alice")
	assert.Equal(t, "", session.ActiveChatID())

	events := drainEvents(session)
	assert.Empty(t, eventsOfType(events, EventError))
	require.Len(t, eventsOfType(events, EventActiveChat), 1)
}

func TestSelectChatDisposesPriorStreams(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")
	repo.chats["chat-1"] = testChat("chat-1")
	repo.chats["chat-2"] = testChat("chat-2")

	session.SelectChat(context.Background(), "chat-1")
	session.SelectChat(context.Background(), "chat-2")

	ops := repo.opLog()

	indexOf := func(op string) int {
		for i, logged := range ops {
			if logged == op {
				return i
			}
		}
		t.Fatalf("op %q not found in %v", op, ops)
		return -1
	}

	assert.Less(t, indexOf("unsubscribe_messages:chat-1"), indexOf("subscribe_messages:chat-2"))
	assert.Less(t, indexOf("unsubscribe_typing:chat-1"), indexOf("subscribe_typing:chat-2"))
	assert.Contains(t, ops, "online:chat-1:alice:false")
}

func TestCloseMarksOfflineExactlyOnce(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")
	repo.chats["chat-1"] = testChat("chat-1")

	session.SetFilter(entity.ChatTypeAd)
	session.SelectChat(context.Background(), "chat-1")

	session.Close(context.Background())
	session.Close(context.Background())

	assert.Equal(t, 1, repo.countOps("online:chat-1:alice:false"))
	assert.Contains(t, repo.opLog(), "unsubscribe_chats:ad")
	assert.Contains(t, repo.opLog(), "unsubscribe_messages:chat-1")
}

func TestComposeTypingTransitions(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")
	repo.chats["chat-1"] = testChat("chat-1")
	session.SelectChat(context.Background(), "chat-1")

	ctx := context.Background()
	session.ComposeChange(ctx, "h")
	session.ComposeChange(ctx, "he")
	session.ComposeChange(ctx, "hel")
	session.ComposeChange(ctx, "")

	assert.Equal(t, 1, repo.countOps("typing:chat-1:alice:true"))
	assert.Equal(t, 1, repo.countOps("typing:chat-1:alice:false"))
}

func TestSendWhitespaceIsNoOp(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")
	repo.chats["chat-1"] = testChat("chat-1")
	session.SelectChat(context.Background(), "chat-1")

	session.ComposeChange(context.Background(), "   ")
	err := session.Send(context.Background(), SendInput{Type: entity.MessageTypeText})

	assert.NoError(t, err)
	assert.Equal(t, 0, repo.countOps("create_message:chat-1"))
}

func TestSendClearsBufferAndTypingFlag(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")
	repo.chats["chat-1"] = testChat("chat-1")
	session.SelectChat(context.Background(), "chat-1")

	session.ComposeChange(context.Background(), "hello there")
	err := session.Send(context.Background(), SendInput{Type: entity.MessageTypeText})

	require.NoError(t, err)
	assert.Equal(t, 1, repo.countOps("create_message:chat-1"))
	assert.Equal(t, "", session.ComposeText())
	assert.Equal(t, 1, repo.countOps("typing:chat-1:alice:false"))
}

func TestSendFailureKeepsBufferAndSurfacesError(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")
	repo.chats["chat-1"] = testChat("chat-1")
	session.SelectChat(context.Background(), "chat-1")
	drainEvents(session)

	repo.createMessageErr = errors.Internal("write failed", nil)

	session.ComposeChange(context.Background(), "do not lose me")
	err := session.Send(context.Background(), SendInput{Type: entity.MessageTypeText})

	require.Error(t, err)
	assert.Equal(t, "do not lose me", session.ComposeText())

	events := drainEvents(session)
	require.Len(t, eventsOfType(events, EventError), 1)
}

func TestSendPayloadlessNonTextIsNoOp(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")
	repo.chats["chat-1"] = testChat("chat-1")
	session.SelectChat(context.Background(), "chat-1")
	drainEvents(session)

	err := session.Send(context.Background(), SendInput{Type: entity.MessageTypeFile})
	assert.NoError(t, err)

	err = session.Send(context.Background(), SendInput{Type: entity.MessageTypeLocation})
	assert.NoError(t, err)

	assert.Equal(t, 0, repo.countOps("create_message:chat-1"))
	assert.Empty(t, eventsOfType(drainEvents(session), EventError))
}

func TestSendWithoutSelectionIsNoOp(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")

	err := session.Send(context.Background(), SendInput{Type: entity.MessageTypeText, Text: "hello"})

	assert.NoError(t, err)
	assert.Empty(t, repo.opLog())
}

func TestTypingEventReflectsCounterpartOnly(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")
	repo.chats["chat-1"] = testChat("chat-1")
	session.SelectChat(context.Background(), "chat-1")
	drainEvents(session)

	repo.typingOnData(map[string]bool{"alice": true, "bob": false})
	repo.typingOnData(map[string]bool{"bob": true})

	events := eventsOfType(drainEvents(session), EventTyping)
	require.Len(t, events, 2)

	first, ok := events[0].Data.(TypingInfo)
	require.True(t, ok)
	assert.False(t, first.OtherUserTyping)

	second := events[1].Data.(TypingInfo)
	assert.True(t, second.OtherUserTyping)
}

func TestIsOtherUserOnline(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")

	chat := testChat("chat-1")
	chat.OnlineStatus["bob"] = true
	repo.chats["chat-1"] = chat

	assert.False(t, session.IsOtherUserOnline())

	session.SelectChat(context.Background(), "chat-1")
	assert.True(t, session.IsOtherUserOnline())
}

func TestMarkRead(t *testing.T) {
	session, repo, _ := newTestSession(t, "alice")
	repo.chats["chat-1"] = testChat("chat-1")
	session.SelectChat(context.Background(), "chat-1")

	session.MarkRead(context.Background())

	assert.Equal(t, 2, repo.countOps("visit:chat-1:alice"))
}
