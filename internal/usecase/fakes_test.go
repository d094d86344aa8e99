package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"annoncia/internal/domain/entity"
	"annoncia/pkg/errors"
)

// fakeChatRepo is an in-memory ChatRepository that records every call in an
// ordered op log, so tests can assert teardown ordering and write counts.
type fakeChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	messages map[string][]*entity.Message

	ops []string

	chatsOnData  func([]*entity.Chat)
	chatsOnError func(error)
	msgOnData    func([]*entity.Message)
	typingOnData func(map[string]bool)

	getByIDErr       error
	createMessageErr error
	updateErr        error
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:    make(map[string]*entity.Chat),
		messages: make(map[string][]*entity.Message),
	}
}

func (r *fakeChatRepo) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *fakeChatRepo) opLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	log := make([]string, len(r.ops))
	copy(log, r.ops)
	return log
}

func (r *fakeChatRepo) countOps(op string) int {
	count := 0
	for _, logged := range r.opLog() {
		if logged == op {
			count++
		}
	}
	return count
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat.ID == "" {
		chat.ID = fmt.Sprintf("chat-%d", len(r.chats)+1)
	}
	chat.CreatedAt = time.Now()
	r.chats[chat.ID] = chat
	r.ops = append(r.ops, "create_chat:"+chat.ID)
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.record("get_chat:" + id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getByIDErr != nil {
		return nil, r.getByIDErr
	}
	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return chat, nil
}

func (r *fakeChatRepo) ListByUserID(ctx context.Context, userID, chatType string, limit, offset int) ([]*entity.Chat, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Chat
	for _, chat := range r.chats {
		if !chat.HasParticipant(userID) {
			continue
		}
		if chatType != "" && chat.Type != chatType {
			continue
		}
		result = append(result, chat)
	}
	return result, int64(len(result)), nil
}

func (r *fakeChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	r.record("update_chat:" + chat.ID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.chats[chat.ID] = chat
	return nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, id string) error {
	r.record("delete_chat:" + id)
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats, id)
	return nil
}

func (r *fakeChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createMessageErr != nil {
		return r.createMessageErr
	}
	if message.ID == "" {
		message.ID = fmt.Sprintf("msg-%d", len(r.messages[message.ChatID])+1)
	}
	r.messages[message.ChatID] = append(r.messages[message.ChatID], message)
	r.ops = append(r.ops, "create_message:"+message.ChatID)
	return nil
}

func (r *fakeChatRepo) GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[chatID]
	return msgs, int64(len(msgs)), nil
}

func (r *fakeChatRepo) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages[chatID] {
		if msg.ID == messageID {
			return msg, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *fakeChatRepo) UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, msg := range r.messages[chatID] {
		if msg.ID == message.ID {
			r.messages[chatID][i] = message
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *fakeChatRepo) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, msg := range r.messages[chatID] {
		if msg.ID == messageID {
			r.messages[chatID] = append(r.messages[chatID][:i], r.messages[chatID][i+1:]...)
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *fakeChatRepo) SubscribeUserChats(ctx context.Context, userID, chatType string, onData func([]*entity.Chat), onError func(error)) func() {
	r.mu.Lock()
	r.chatsOnData = onData
	r.chatsOnError = onError
	r.ops = append(r.ops, "subscribe_chats:"+chatType)
	r.mu.Unlock()
	return func() { r.record("unsubscribe_chats:" + chatType) }
}

func (r *fakeChatRepo) SubscribeMessages(ctx context.Context, chatID string, onData func([]*entity.Message)) func() {
	r.mu.Lock()
	r.msgOnData = onData
	r.ops = append(r.ops, "subscribe_messages:"+chatID)
	r.mu.Unlock()
	return func() { r.record("unsubscribe_messages:" + chatID) }
}

func (r *fakeChatRepo) SubscribeTyping(ctx context.Context, chatID string, onData func(map[string]bool)) func() {
	r.mu.Lock()
	r.typingOnData = onData
	r.ops = append(r.ops, "subscribe_typing:"+chatID)
	r.mu.Unlock()
	return func() { r.record("unsubscribe_typing:" + chatID) }
}

func (r *fakeChatRepo) SetTypingStatus(ctx context.Context, chatID, userID string, isTyping bool) error {
	r.record(fmt.Sprintf("typing:%s:%s:%t", chatID, userID, isTyping))
	return nil
}

func (r *fakeChatRepo) SetOnlineStatus(ctx context.Context, chatID, userID string, online bool) error {
	r.record(fmt.Sprintf("online:%s:%s:%t", chatID, userID, online))
	return nil
}

func (r *fakeChatRepo) Visit(ctx context.Context, chatID, userID string) error {
	r.record(fmt.Sprintf("visit:%s:%s", chatID, userID))
	return nil
}

func (r *fakeChatRepo) pushChats(chats []*entity.Chat) {
	r.mu.Lock()
	onData := r.chatsOnData
	r.mu.Unlock()
	if onData != nil {
		onData(chats)
	}
}

func (r *fakeChatRepo) pushChatsError(err error) {
	r.mu.Lock()
	onError := r.chatsOnError
	r.mu.Unlock()
	if onError != nil {
		onError(err)
	}
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateFCMToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	user.FCMToken = token
	return nil
}

type fakeAdRepo struct {
	ads map[string]*entity.Ad
}

func (r *fakeAdRepo) GetByID(ctx context.Context, id string) (*entity.Ad, error) {
	ad, ok := r.ads[id]
	if !ok {
		return nil, errors.NotFound("Ad", nil)
	}
	return ad, nil
}

type fakeOrgRepo struct {
	orgs map[string]*entity.Organisation
}

func (r *fakeOrgRepo) GetByID(ctx context.Context, id string) (*entity.Organisation, error) {
	org, ok := r.orgs[id]
	if !ok {
		return nil, errors.NotFound("Organisation", nil)
	}
	return org, nil
}

type sentNotification struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotification{Token: token, Title: title, Body: body, Data: data})
	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
