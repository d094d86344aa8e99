package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"annoncia/internal/domain/entity"
	"annoncia/internal/domain/repository"
	"annoncia/pkg/logger"
)

// Session event types forwarded to the connected client.
const (
	EventChatList   = "chat_list"
	EventActiveChat = "active_chat"
	EventMessages   = "messages"
	EventTyping     = "typing"
	EventPresence   = "presence"
	EventError      = "error"
)

type SessionEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type PresenceInfo struct {
	OtherUserOnline bool   `json:"other_user_online"`
	LastSeen        string `json:"last_seen"`
}

type TypingInfo struct {
	OtherUserTyping bool `json:"other_user_typing"`
}

type SendInput struct {
	Type      string
	Text      string
	FileURL   string
	FileName  string
	Latitude  float64
	Longitude float64
}

// ChatSession owns the live chat state for one authenticated connection: the
// filtered chat list, the selected conversation with its message and typing
// streams, the viewer's presence in that conversation, and the compose buffer.
// Identity is injected at construction; a session with an empty user id is
// inert and never touches the backend.
//
// Invariants: at most one chat-list subscription per (user, filter) and one
// message/typing subscription pair per selected chat; the previous
// subscription is always disposed before the next one is created; closing the
// session marks the viewer offline exactly once.
type ChatSession struct {
	userID   string
	chatRepo repository.ChatRepository
	chatUC   *ChatUseCase

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	// chat list state
	chatType   string
	chats      []*entity.Chat
	loading    bool
	listGen    int
	unsubChats func()

	// active chat state
	activeChat     *entity.Chat
	messages       []*entity.Message
	typing         map[string]bool
	chatGen        int
	unsubMessages  func()
	unsubTyping    func()
	presenceChatID string

	// compose state
	composeBuffer string
	typingFlag    bool

	events chan SessionEvent
}

func NewChatSession(userID string, chatRepo repository.ChatRepository, chatUC *ChatUseCase) *ChatSession {
	ctx, cancel := context.WithCancel(context.Background())

	return &ChatSession{
		userID:   userID,
		chatRepo: chatRepo,
		chatUC:   chatUC,
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan SessionEvent, 64),
	}
}

// Events is the stream the transport bridge forwards to the client. It is
// never closed; consumers should select against their own done signal.
func (s *ChatSession) Events() <-chan SessionEvent {
	return s.events
}

func (s *ChatSession) emit(event SessionEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ch := s.events
	s.mu.Unlock()

	select {
	case ch <- event:
	default:
		logger.Warn("Session event buffer full for user %s, dropping %s", s.userID, event.Type)
	}
}

// SetFilter re-points the chat list at the given chat type. The previous list
// subscription is disposed before the new one is created.
func (s *ChatSession) SetFilter(chatType string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.unsubChats != nil {
		s.unsubChats()
		s.unsubChats = nil
	}
	s.listGen++
	gen := s.listGen
	s.chatType = chatType
	s.chats = nil
	s.loading = true
	userID := s.userID
	s.mu.Unlock()

	if userID == "" {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.emit(SessionEvent{Type: EventChatList, Data: []ChatViewModel{}})
		return
	}

	unsub := s.chatRepo.SubscribeUserChats(s.ctx, userID, chatType,
		func(chats []*entity.Chat) { s.handleChats(gen, chats) },
		func(err error) { s.handleChatListError(gen, err) },
	)

	s.mu.Lock()
	if gen != s.listGen || s.closed {
		s.mu.Unlock()
		unsub()
		return
	}
	s.unsubChats = unsub
	s.mu.Unlock()
}

func (s *ChatSession) handleChats(gen int, chats []*entity.Chat) {
	now := time.Now()

	s.mu.Lock()
	if gen != s.listGen || s.closed {
		s.mu.Unlock()
		return
	}
	s.chats = chats
	s.loading = false

	var refreshedActive *entity.Chat
	if s.activeChat != nil {
		for _, chat := range chats {
			if chat.ID == s.activeChat.ID {
				s.activeChat = chat
				refreshedActive = chat
				break
			}
		}
	}
	userID := s.userID
	s.mu.Unlock()

	viewModels := make([]ChatViewModel, 0, len(chats))
	for _, chat := range chats {
		viewModels = append(viewModels, BuildChatViewModel(chat, userID, now))
	}
	s.emit(SessionEvent{Type: EventChatList, Data: viewModels})

	if refreshedActive != nil {
		s.emit(SessionEvent{Type: EventPresence, Data: presenceOf(refreshedActive, userID, now)})
	}
}

// Subscription errors fail open to an empty list; the backend's own retry
// semantics are trusted to repair the stream on a later SetFilter.
func (s *ChatSession) handleChatListError(gen int, err error) {
	logger.Error("Chat list subscription failed for user %s: %v", s.userID, err)

	s.mu.Lock()
	if gen != s.listGen || s.closed {
		s.mu.Unlock()
		return
	}
	s.chats = nil
	s.loading = false
	s.mu.Unlock()

	s.emit(SessionEvent{Type: EventChatList, Data: []ChatViewModel{}})
}

// SelectChat switches the active conversation. The literal string "undefined"
// is treated the same as no selection; routing layers have been observed to
// stringify a missing query value.
func (s *ChatSession) SelectChat(ctx context.Context, chatID string) {
	if chatID == "undefined" {
		chatID = ""
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.chatGen++
	gen := s.chatGen
	if s.unsubMessages != nil {
		s.unsubMessages()
		s.unsubMessages = nil
	}
	if s.unsubTyping != nil {
		s.unsubTyping()
		s.unsubTyping = nil
	}
	prevPresence := s.presenceChatID
	s.presenceChatID = ""
	s.activeChat = nil
	s.messages = nil
	s.typing = nil
	s.composeBuffer = ""
	s.typingFlag = false
	userID := s.userID

	var resolved *entity.Chat
	if chatID != "" {
		for _, chat := range s.chats {
			if chat.ID == chatID {
				resolved = chat
				break
			}
		}
	}
	s.mu.Unlock()

	if prevPresence != "" && userID != "" {
		if err := s.chatRepo.SetOnlineStatus(ctx, prevPresence, userID, false); err != nil {
			logger.Warn("Failed to mark user %s offline in chat %s: %v", userID, prevPresence, err)
		}
	}

	if chatID == "" || userID == "" {
		s.emitEmptySelection()
		return
	}

	if resolved == nil {
		// Deep link before the list snapshot arrived; fall back to a one-shot fetch.
		chat, err := s.chatRepo.GetByID(ctx, chatID)
		if err != nil {
			logger.Warn("SelectChat: Chat %s not resolvable for user %s: %v", chatID, userID, err)
			s.emitEmptySelection()
			return
		}
		resolved = chat
	}

	if !resolved.HasParticipant(userID) {
		logger.Warn("SelectChat: User %s is not a participant in chat %s", userID, chatID)
		s.emitEmptySelection()
		return
	}

	s.mu.Lock()
	if gen != s.chatGen || s.closed {
		s.mu.Unlock()
		return
	}
	s.activeChat = resolved
	s.presenceChatID = resolved.ID
	s.mu.Unlock()

	// Presence writes are advisory; a failed visit never blocks the selection.
	if err := s.chatRepo.Visit(ctx, resolved.ID, userID); err != nil {
		logger.Warn("Failed to record visit for chat %s: %v", resolved.ID, err)
	}

	unsubMessages := s.chatRepo.SubscribeMessages(s.ctx, resolved.ID,
		func(messages []*entity.Message) { s.handleMessages(gen, messages) })
	unsubTyping := s.chatRepo.SubscribeTyping(s.ctx, resolved.ID,
		func(typing map[string]bool) { s.handleTyping(gen, typing) })

	s.mu.Lock()
	if gen != s.chatGen || s.closed {
		s.mu.Unlock()
		unsubMessages()
		unsubTyping()
		return
	}
	s.unsubMessages = unsubMessages
	s.unsubTyping = unsubTyping
	s.mu.Unlock()

	now := time.Now()
	vm := BuildChatViewModel(resolved, userID, now)
	s.emit(SessionEvent{Type: EventActiveChat, Data: &vm})
	s.emit(SessionEvent{Type: EventPresence, Data: presenceOf(resolved, userID, now)})
}

func (s *ChatSession) emitEmptySelection() {
	s.emit(SessionEvent{Type: EventActiveChat, Data: (*ChatViewModel)(nil)})
	s.emit(SessionEvent{Type: EventMessages, Data: []MessageViewModel{}})
	s.emit(SessionEvent{Type: EventTyping, Data: TypingInfo{}})
}

func (s *ChatSession) handleMessages(gen int, messages []*entity.Message) {
	now := time.Now()

	s.mu.Lock()
	if gen != s.chatGen || s.closed {
		s.mu.Unlock()
		return
	}
	s.messages = messages
	userID := s.userID
	s.mu.Unlock()

	viewModels := make([]MessageViewModel, 0, len(messages))
	for _, message := range messages {
		viewModels = append(viewModels, BuildMessageViewModel(message, userID, now))
	}
	s.emit(SessionEvent{Type: EventMessages, Data: viewModels})
}

func (s *ChatSession) handleTyping(gen int, typing map[string]bool) {
	s.mu.Lock()
	if gen != s.chatGen || s.closed {
		s.mu.Unlock()
		return
	}
	s.typing = typing

	otherTyping := false
	if s.activeChat != nil {
		if other := s.activeChat.OtherParticipant(s.userID); other != "" {
			otherTyping = typing[other]
		}
	}
	s.mu.Unlock()

	s.emit(SessionEvent{Type: EventTyping, Data: TypingInfo{OtherUserTyping: otherTyping}})
}

// ComposeChange records the compose buffer and pushes the typing flag on
// has-content transitions.
func (s *ChatSession) ComposeChange(ctx context.Context, text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	chat := s.activeChat
	s.composeBuffer = text
	hasContent := strings.TrimSpace(text) != ""
	changed := hasContent != s.typingFlag
	s.typingFlag = hasContent
	userID := s.userID
	s.mu.Unlock()

	if chat == nil || userID == "" || !changed {
		return
	}

	if err := s.chatUC.SetTypingStatus(ctx, userID, chat.ID, hasContent); err != nil {
		logger.Warn("Failed to push typing status for chat %s: %v", chat.ID, err)
	}
}

// Send runs the outbound pipeline for the active chat. Messages with no
// payload are a silent no-op: blank text, a file message without an
// attachment, a location without coordinates. The compose buffer is cleared
// only after the message is confirmed persisted, so a failed send never loses
// the draft.
func (s *ChatSession) Send(ctx context.Context, input SendInput) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	chat := s.activeChat
	userID := s.userID
	if chat == nil || userID == "" {
		s.mu.Unlock()
		return nil
	}

	if input.Type == "" {
		input.Type = entity.MessageTypeText
	}
	text := input.Text
	switch input.Type {
	case entity.MessageTypeText:
		if text == "" {
			text = s.composeBuffer
		}
		if strings.TrimSpace(text) == "" {
			s.mu.Unlock()
			return nil
		}
	case entity.MessageTypeFile:
		if input.FileURL == "" {
			s.mu.Unlock()
			return nil
		}
	case entity.MessageTypeLocation:
		if input.Latitude == 0 && input.Longitude == 0 {
			s.mu.Unlock()
			return nil
		}
	}
	s.mu.Unlock()

	_, err := s.chatUC.SendMessage(ctx, userID, SendMessageInput{
		ChatID:    chat.ID,
		Type:      input.Type,
		Text:      text,
		FileURL:   input.FileURL,
		FileName:  input.FileName,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	})
	if err != nil {
		logger.Error("Send failed for chat %s: %v", chat.ID, err)
		s.emit(SessionEvent{Type: EventError, Data: "Failed to send message"})
		return err
	}

	s.mu.Lock()
	if input.Type == entity.MessageTypeText {
		s.composeBuffer = ""
	}
	s.typingFlag = false
	s.mu.Unlock()

	if err := s.chatUC.SetTypingStatus(ctx, userID, chat.ID, false); err != nil {
		logger.Warn("Failed to clear typing status for chat %s: %v", chat.ID, err)
	}

	return nil
}

// MarkRead re-runs the visit write for the active chat, clearing the viewer's
// unread counter.
func (s *ChatSession) MarkRead(ctx context.Context) {
	s.mu.Lock()
	chat := s.activeChat
	userID := s.userID
	s.mu.Unlock()

	if chat == nil || userID == "" {
		return
	}

	if err := s.chatRepo.Visit(ctx, chat.ID, userID); err != nil {
		logger.Warn("Failed to mark chat %s read: %v", chat.ID, err)
	}
}

// IsOtherUserOnline reflects the online flag of the participant that is not
// the viewer; degenerate chats report false.
func (s *ChatSession) IsOtherUserOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeChat == nil {
		return false
	}
	other := s.activeChat.OtherParticipant(s.userID)
	if other == "" {
		return false
	}
	return s.activeChat.OnlineStatus[other]
}

// ComposeText returns the current compose buffer.
func (s *ChatSession) ComposeText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composeBuffer
}

// ActiveChatID returns the selected chat id, or "".
func (s *ChatSession) ActiveChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeChat == nil {
		return ""
	}
	return s.activeChat.ID
}

// Close disposes every subscription and marks the viewer offline in the
// active chat. It is idempotent; the offline write happens at most once.
func (s *ChatSession) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.unsubChats != nil {
		s.unsubChats()
		s.unsubChats = nil
	}
	if s.unsubMessages != nil {
		s.unsubMessages()
		s.unsubMessages = nil
	}
	if s.unsubTyping != nil {
		s.unsubTyping()
		s.unsubTyping = nil
	}
	presenceChatID := s.presenceChatID
	s.presenceChatID = ""
	userID := s.userID
	s.mu.Unlock()

	s.cancel()

	if presenceChatID != "" && userID != "" {
		if err := s.chatRepo.SetOnlineStatus(ctx, presenceChatID, userID, false); err != nil {
			logger.Warn("Failed to mark user %s offline in chat %s: %v", userID, presenceChatID, err)
		}
	}
}

func presenceOf(chat *entity.Chat, viewerID string, now time.Time) PresenceInfo {
	other := chat.OtherParticipant(viewerID)
	if other == "" {
		return PresenceInfo{LastSeen: FormatLastSeen(time.Time{}, now)}
	}
	return PresenceInfo{
		OtherUserOnline: chat.OnlineStatus[other],
		LastSeen:        FormatLastSeen(chat.LastSeenAt[other], now),
	}
}
