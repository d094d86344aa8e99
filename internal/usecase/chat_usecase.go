package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"annoncia/internal/domain/entity"
	"annoncia/internal/domain/repository"
	"annoncia/internal/infrastructure/ratelimit"
	ws "annoncia/internal/infrastructure/websocket"
	"annoncia/pkg/errors"
	"annoncia/pkg/logger"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	adRepo      repository.AdRepository
	orgRepo     repository.OrganisationRepository
	wsManager   *ws.Manager
	notifier    NotificationSender
	rateLimiter *ratelimit.RateLimiter
	pushEnabled bool
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	adRepo repository.AdRepository,
	orgRepo repository.OrganisationRepository,
	wsManager *ws.Manager,
	notifier NotificationSender,
	pushEnabled bool,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		adRepo:      adRepo,
		orgRepo:     orgRepo,
		wsManager:   wsManager,
		notifier:    notifier,
		rateLimiter: rateLimiter,
		pushEnabled: pushEnabled,
	}
}

type CreateChatInput struct {
	Type           string
	RecipientID    string
	AdID           string
	OrganisationID string
	InitialMessage string
}

type SendMessageInput struct {
	ChatID    string
	Type      string // "text", "file", "location"
	Text      string
	FileURL   string
	FileName  string
	Latitude  float64
	Longitude float64
}

// CreateChat finds or creates the conversation for the given contact context.
// The caller becomes the initiator of a newly created chat.
func (uc *ChatUseCase) CreateChat(ctx context.Context, userID string, input CreateChatInput) (*entity.Chat, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "create_chat")
	if !allowed {
		logger.Warn("CreateChat Rate Limited: User %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another conversation", waitTime)
	}

	recipientID := input.RecipientID
	subject := entity.ChatSubject{}

	switch input.Type {
	case entity.ChatTypeAd:
		ad, err := uc.adRepo.GetByID(ctx, input.AdID)
		if err != nil {
			logger.Error("CreateChat Error: Ad %s not found: %v", input.AdID, err)
			return nil, errors.NotFound("Ad", err)
		}
		if recipientID == "" {
			recipientID = ad.OwnerID
		}
		subject = entity.ChatSubject{AdID: ad.ID, AdTitle: ad.Title, ImageURL: ad.ImageURL}
	case entity.ChatTypeOrganisation:
		org, err := uc.orgRepo.GetByID(ctx, input.OrganisationID)
		if err != nil {
			logger.Error("CreateChat Error: Organisation %s not found: %v", input.OrganisationID, err)
			return nil, errors.NotFound("Organisation", err)
		}
		if recipientID == "" {
			recipientID = org.OwnerID
		}
		subject = entity.ChatSubject{OrganisationID: org.ID, TradeName: org.TradeName, ImageURL: org.ImageURL}
	case entity.ChatTypeDirect:
		if recipientID == "" {
			return nil, errors.BadRequest("Recipient is required for direct chats", nil)
		}
	default:
		return nil, errors.BadRequest("Unknown chat type", nil)
	}

	if userID == recipientID {
		logger.Warn("CreateChat Error: User %s attempted to start a chat with themselves", userID)
		return nil, errors.BadRequest("You cannot start a chat with yourself", nil)
	}

	recipient, err := uc.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		logger.Error("CreateChat Error: Recipient %s not found: %v", recipientID, err)
		return nil, errors.NotFound("Recipient", err)
	}

	initiator, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error("CreateChat Error: Initiator %s not found: %v", userID, err)
		return nil, errors.NotFound("User", err)
	}

	existing, err := uc.findExistingChat(ctx, userID, recipientID, input.Type, subject)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		logger.Error("CreateChat Error: Failed to search for existing chat: %v", err)
		return nil, err
	}

	chat := existing
	if chat == nil {
		chat = &entity.Chat{
			Type:         input.Type,
			Participants: []string{userID, recipientID},
			Profiles: map[string]entity.ParticipantProfile{
				userID:      profileOf(initiator),
				recipientID: profileOf(recipient),
			},
			InitiatorID:  userID,
			Subject:      subject,
			UnreadCount:  make(map[string]int),
			OnlineStatus: make(map[string]bool),
			LastSeenAt:   make(map[string]time.Time),
		}

		if err := uc.chatRepo.Create(ctx, chat); err != nil {
			logger.Error("CreateChat Error: Failed to create chat: %v", err)
			return nil, err
		}
	}

	if input.InitialMessage != "" {
		if _, err := uc.SendMessage(ctx, userID, SendMessageInput{
			ChatID: chat.ID,
			Type:   entity.MessageTypeText,
			Text:   input.InitialMessage,
		}); err != nil {
			logger.Error("CreateChat Error: Failed to send initial message for chat %s: %v", chat.ID, err)
			return nil, err
		}
	}

	return chat, nil
}

func profileOf(user *entity.User) entity.ParticipantProfile {
	name := user.FullName
	if name == "" {
		name = user.Username
	}
	return entity.ParticipantProfile{
		DisplayName: name,
		AvatarURL:   user.AvatarURL,
		Verified:    user.Verified,
	}
}

func (uc *ChatUseCase) findExistingChat(ctx context.Context, userID, recipientID, chatType string, subject entity.ChatSubject) (*entity.Chat, error) {
	chats, _, err := uc.chatRepo.ListByUserID(ctx, userID, chatType, -1, 0)
	if err != nil {
		logger.Error("findExistingChat Error: Failed to list chats for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to list chats for user", err)
	}

	for _, chat := range chats {
		if len(chat.Participants) != 2 || !chat.HasParticipant(recipientID) {
			continue
		}
		switch chatType {
		case entity.ChatTypeAd:
			if chat.Subject.AdID == subject.AdID {
				return chat, nil
			}
		case entity.ChatTypeOrganisation:
			if chat.Subject.OrganisationID == subject.OrganisationID {
				return chat, nil
			}
		default:
			return chat, nil
		}
	}

	return nil, errors.NotFound("Chat", nil)
}

// SendMessage persists the message, bumps the counterpart's unread counter,
// refreshes the chat's last-message snapshot, and pushes a notification to the
// counterpart if they are not online in this chat.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*entity.Message, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "send_message")
	if !allowed {
		logger.Warn("SendMessage Rate Limited: User %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	if input.Type == "" {
		input.Type = entity.MessageTypeText
	}
	switch input.Type {
	case entity.MessageTypeText:
		if strings.TrimSpace(input.Text) == "" {
			return nil, errors.BadRequest("Message text is required", nil)
		}
	case entity.MessageTypeFile:
		if input.FileURL == "" {
			return nil, errors.BadRequest("File attachment is required", nil)
		}
	case entity.MessageTypeLocation:
		if input.Latitude == 0 && input.Longitude == 0 {
			return nil, errors.BadRequest("Location coordinates are required", nil)
		}
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		logger.Error("SendMessage Error: Chat %s not found: %v", input.ChatID, err)
		return nil, err
	}

	if !chat.HasParticipant(userID) {
		logger.Warn("SendMessage Error: User %s is not a participant in chat %s", userID, input.ChatID)
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	message := &entity.Message{
		ChatID:    input.ChatID,
		SenderID:  userID,
		Type:      input.Type,
		Text:      input.Text,
		FileURL:   input.FileURL,
		FileName:  input.FileName,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		CreatedAt: time.Now(),
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		logger.Error("SendMessage Error: Failed to create message for chat %s: %v", input.ChatID, err)
		return nil, err
	}

	chat.LastMessage = &entity.LastMessage{
		Text:     messageSummary(message),
		SenderID: userID,
		At:       message.CreatedAt,
	}
	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}
	for _, participantID := range chat.Participants {
		if participantID != userID {
			chat.UnreadCount[participantID]++
		}
	}

	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		logger.Error("SendMessage Error: Failed to update chat %s with last message: %v", chat.ID, err)
		return nil, err
	}

	counterpart := chat.OtherParticipant(userID)
	if counterpart != "" {
		uc.nudgeCounterpart(counterpart, chat, message)

		if !chat.OnlineStatus[counterpart] {
			uc.notifyCounterpart(ctx, chat, counterpart, message)
		}
	}

	return message, nil
}

// messageSummary is the text shown in chat lists and notifications.
func messageSummary(message *entity.Message) string {
	if message.Type == entity.MessageTypeText {
		return message.Text
	}
	return fmt.Sprintf("Sent a %s", message.Type)
}

// nudgeCounterpart pushes a lightweight chat-list update over an open socket,
// so list pages refresh without waiting for their own snapshot.
func (uc *ChatUseCase) nudgeCounterpart(counterpart string, chat *entity.Chat, message *entity.Message) {
	if uc.wsManager == nil {
		return
	}

	update := map[string]interface{}{
		"type":            "chat_list_update",
		"chat_id":         chat.ID,
		"last_message":    messageSummary(message),
		"last_message_at": message.CreatedAt.Format(time.RFC3339),
		"sender_id":       message.SenderID,
	}
	updateJSON, _ := json.Marshal(update)
	uc.wsManager.SendToUser(counterpart, updateJSON)
}

// notifyCounterpart is best-effort; the message write is already the source of
// truth and dispatch failures are only logged.
func (uc *ChatUseCase) notifyCounterpart(ctx context.Context, chat *entity.Chat, counterpart string, message *entity.Message) {
	if !uc.pushEnabled || uc.notifier == nil {
		return
	}

	recipient, err := uc.userRepo.GetByID(ctx, counterpart)
	if err != nil {
		logger.Warn("notifyCounterpart: Recipient %s not found for chat %s: %v", counterpart, chat.ID, err)
		return
	}
	if recipient.FCMToken == "" {
		return
	}

	senderName := ""
	if profile, ok := chat.Profiles[message.SenderID]; ok {
		senderName = profile.DisplayName
	}

	err = uc.notifier.Send(ctx, recipient.FCMToken, senderName, messageSummary(message), map[string]string{
		"type":    "chat_message",
		"chat_id": chat.ID,
	})
	if err != nil {
		logger.Warn("notifyCounterpart: Failed to notify %s for chat %s: %v", counterpart, chat.ID, err)
	}
}

// EditMessage rewrites the text of a message the user authored.
func (uc *ChatUseCase) EditMessage(ctx context.Context, userID, chatID, messageID, newText string) (*entity.Message, error) {
	if strings.TrimSpace(newText) == "" {
		return nil, errors.BadRequest("Message text is required", nil)
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != userID {
		return nil, errors.Forbidden("Only the author can edit a message", nil)
	}
	if message.Type != entity.MessageTypeText {
		return nil, errors.BadRequest("Only text messages can be edited", nil)
	}

	message.Text = newText
	message.Edited = true

	if err := uc.chatRepo.UpdateMessage(ctx, chatID, message); err != nil {
		logger.Error("EditMessage Error: Failed to update message %s in chat %s: %v", messageID, chatID, err)
		return nil, err
	}

	return message, nil
}

func (uc *ChatUseCase) DeleteMessage(ctx context.Context, userID, chatID, messageID string) error {
	message, err := uc.chatRepo.GetMessageByID(ctx, chatID, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != userID {
		return errors.Forbidden("Only the author can delete a message", nil)
	}

	if err := uc.chatRepo.DeleteMessage(ctx, chatID, messageID); err != nil {
		logger.Error("DeleteMessage Error: Failed to delete message %s in chat %s: %v", messageID, chatID, err)
		return err
	}

	return nil
}

// DeleteChat is terminal; the conversation and its messages are gone for both
// participants.
func (uc *ChatUseCase) DeleteChat(ctx context.Context, userID, chatID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this chat", nil)
	}

	if err := uc.chatRepo.Delete(ctx, chatID); err != nil {
		logger.Error("DeleteChat Error: Failed to delete chat %s: %v", chatID, err)
		return err
	}

	return nil
}

func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID, chatType string, limit, offset int) ([]*entity.Chat, int64, error) {
	chats, total, err := uc.chatRepo.ListByUserID(ctx, userID, chatType, limit, offset)
	if err != nil {
		logger.Error("GetUserChats Error: Failed to list chats for user %s: %v", userID, err)
		return nil, 0, err
	}

	return chats, total, nil
}

func (uc *ChatUseCase) GetChatByID(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !chat.HasParticipant(userID) {
		logger.Warn("GetChatByID Error: User %s is not a participant in chat %s", userID, chatID)
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	return chat, nil
}

func (uc *ChatUseCase) GetChatMessages(ctx context.Context, userID, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, 0, err
	}

	if !chat.HasParticipant(userID) {
		logger.Warn("GetChatMessages Error: User %s is not a participant in chat %s", userID, chatID)
		return nil, 0, errors.Forbidden("User is not a participant in this chat", nil)
	}

	return uc.chatRepo.GetMessagesByChat(ctx, chatID, limit, offset)
}

// SetTypingStatus forwards the advisory typing flag, metered per user so a
// misbehaving client cannot flood the typing document. Rate-limited writes are
// dropped, not errored; typing state is best-effort.
func (uc *ChatUseCase) SetTypingStatus(ctx context.Context, userID, chatID string, isTyping bool) error {
	allowed, _ := uc.rateLimiter.Allow(userID, "typing")
	if !allowed {
		logger.Debug("Typing write dropped for user %s in chat %s", userID, chatID)
		return nil
	}

	return uc.chatRepo.SetTypingStatus(ctx, chatID, userID, isTyping)
}

// Visit marks the chat read for the user and refreshes their presence.
func (uc *ChatUseCase) Visit(ctx context.Context, userID, chatID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}

	if !chat.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this chat", nil)
	}

	return uc.chatRepo.Visit(ctx, chatID, userID)
}
