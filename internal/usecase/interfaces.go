package usecase

import "context"

// NotificationSender dispatches a push notification to a device token.
type NotificationSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}
