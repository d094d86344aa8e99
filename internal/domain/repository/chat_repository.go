package repository

import (
	"context"

	"annoncia/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID, chatType string, limit, offset int) ([]*entity.Chat, int64, error)
	Update(ctx context.Context, chat *entity.Chat) error
	Delete(ctx context.Context, id string) error

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error)
	GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error)
	UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error
	DeleteMessage(ctx context.Context, chatID, messageID string) error

	// Live subscriptions. Each returns an unsubscribe func; after it is called
	// no further callbacks are delivered for that subscription.
	SubscribeUserChats(ctx context.Context, userID, chatType string, onData func([]*entity.Chat), onError func(error)) func()
	SubscribeMessages(ctx context.Context, chatID string, onData func([]*entity.Message)) func()
	SubscribeTyping(ctx context.Context, chatID string, onData func(map[string]bool)) func()

	// Presence and typing writes, advisory last-write-wins state.
	SetTypingStatus(ctx context.Context, chatID, userID string, isTyping bool) error
	SetOnlineStatus(ctx context.Context, chatID, userID string, online bool) error
	Visit(ctx context.Context, chatID, userID string) error
}
