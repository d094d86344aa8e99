package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"annoncia/internal/domain/entity"
	"annoncia/internal/domain/repository"
	"annoncia/pkg/errors"
	"annoncia/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

// typingDoc is the ephemeral per-chat typing state document.
type typingDoc struct {
	Users map[string]bool `firestore:"users"`
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID, chatType string, limit, offset int) ([]*entity.Chat, int64, error) {
	query := r.client.Collection("chats").Where("participants", "array-contains", userID)
	if chatType != "" {
		query = query.Where("type", "==", chatType)
	}
	query = query.OrderBy("updatedAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching chats for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch chats", err)
	}

	total := int64(len(allDocs))

	start := offset
	end := len(allDocs)
	if limit > 0 {
		end = start + limit
		if end > len(allDocs) {
			end = len(allDocs)
		}
	}
	if start > len(allDocs) {
		start = len(allDocs)
	}

	var chats []*entity.Chat
	for i := start; i < end; i++ {
		var chat entity.Chat
		if err := allDocs[i].DataTo(&chat); err != nil {
			logger.Warn("Skipping malformed chat document for user %s: %v", userID, err)
			continue
		}
		chats = append(chats, &chat)
	}

	return chats, total, nil
}

func (r *firestoreChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	chat.UpdatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.Internal("Failed to update chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("chats").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	message.CreatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(message.ChatID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("chats").Doc(chatID).Collection("messages").OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while counting messages for chat %s: %v", chatID, err)
		return nil, 0, errors.Internal("Failed to count messages for chat", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message data for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, total, nil
}

func (r *firestoreChatRepository) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	doc, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreChatRepository) UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error {
	_, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}
	return nil
}

func (r *firestoreChatRepository) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	_, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete message", err)
	}
	return nil
}

// SubscribeUserChats attaches a snapshot listener for the user's chats of the
// given type. The returned func cancels the listener; Firestore stops
// delivering snapshots once the listener context is done.
func (r *firestoreChatRepository) SubscribeUserChats(ctx context.Context, userID, chatType string, onData func([]*entity.Chat), onError func(error)) func() {
	listenCtx, cancel := context.WithCancel(ctx)

	query := r.client.Collection("chats").
		Where("participants", "array-contains", userID).
		Where("type", "==", chatType).
		OrderBy("updatedAt", firestore.Desc)

	go func() {
		snapIter := query.Snapshots(listenCtx)
		defer snapIter.Stop()

		for {
			snap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				logger.Error("Chat list listener failed for user %s: %v", userID, err)
				onError(err)
				return
			}

			var chats []*entity.Chat
			for {
				doc, err := snap.Documents.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					logger.Error("Chat list snapshot iteration failed for user %s: %v", userID, err)
					onError(err)
					return
				}

				var chat entity.Chat
				if err := doc.DataTo(&chat); err != nil {
					logger.Warn("Skipping malformed chat document in snapshot: %v", err)
					continue
				}
				chats = append(chats, &chat)
			}

			onData(chats)
		}
	}()

	return cancel
}

// SubscribeMessages streams the chat's messages ordered by creation time.
func (r *firestoreChatRepository) SubscribeMessages(ctx context.Context, chatID string, onData func([]*entity.Message)) func() {
	listenCtx, cancel := context.WithCancel(ctx)

	query := r.client.Collection("chats").Doc(chatID).Collection("messages").
		OrderBy("createdAt", firestore.Asc)

	go func() {
		snapIter := query.Snapshots(listenCtx)
		defer snapIter.Stop()

		for {
			snap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Message listener failed for chat %s: %v", chatID, err)
				}
				return
			}

			var messages []*entity.Message
			for {
				doc, err := snap.Documents.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					logger.Error("Message snapshot iteration failed for chat %s: %v", chatID, err)
					return
				}

				var message entity.Message
				if err := doc.DataTo(&message); err != nil {
					logger.Warn("Skipping malformed message document in chat %s: %v", chatID, err)
					continue
				}
				messages = append(messages, &message)
			}

			onData(messages)
		}
	}()

	return cancel
}

// SubscribeTyping watches the chat's typing state document.
func (r *firestoreChatRepository) SubscribeTyping(ctx context.Context, chatID string, onData func(map[string]bool)) func() {
	listenCtx, cancel := context.WithCancel(ctx)

	docRef := r.client.Collection("chats").Doc(chatID).Collection("typing").Doc("state")

	go func() {
		snapIter := docRef.Snapshots(listenCtx)
		defer snapIter.Stop()

		for {
			snap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Typing listener failed for chat %s: %v", chatID, err)
				}
				return
			}

			if !snap.Exists() {
				onData(map[string]bool{})
				continue
			}

			var state typingDoc
			if err := snap.DataTo(&state); err != nil {
				logger.Warn("Skipping malformed typing document for chat %s: %v", chatID, err)
				continue
			}
			onData(state.Users)
		}
	}()

	return cancel
}

func (r *firestoreChatRepository) SetTypingStatus(ctx context.Context, chatID, userID string, isTyping bool) error {
	docRef := r.client.Collection("chats").Doc(chatID).Collection("typing").Doc("state")

	_, err := docRef.Set(ctx, map[string]interface{}{
		"users": map[string]bool{userID: isTyping},
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to set typing status", err)
	}
	return nil
}

func (r *firestoreChatRepository) SetOnlineStatus(ctx context.Context, chatID, userID string, online bool) error {
	_, err := r.client.Collection("chats").Doc(chatID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"onlineStatus", userID}, Value: online},
		{FieldPath: firestore.FieldPath{"lastSeenAt", userID}, Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return errors.Internal("Failed to set online status", err)
	}
	return nil
}

// Visit marks the chat read for the user, refreshes their last-seen timestamp
// and flips them online, in a single update.
func (r *firestoreChatRepository) Visit(ctx context.Context, chatID, userID string) error {
	_, err := r.client.Collection("chats").Doc(chatID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
		{FieldPath: firestore.FieldPath{"onlineStatus", userID}, Value: true},
		{FieldPath: firestore.FieldPath{"lastSeenAt", userID}, Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return errors.Internal("Failed to record chat visit", err)
	}
	return nil
}
