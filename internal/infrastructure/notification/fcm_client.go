package notification

import (
	"context"

	"firebase.google.com/go/v4/messaging"

	"annoncia/pkg/errors"
	"annoncia/pkg/logger"
)

// FCMClient dispatches push notifications through Firebase Cloud Messaging.
type FCMClient struct {
	client *messaging.Client
}

func NewFCMClient(client *messaging.Client) *FCMClient {
	return &FCMClient{
		client: client,
	}
}

func (f *FCMClient) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return errors.BadRequest("Missing notification token", nil)
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	id, err := f.client.Send(ctx, msg)
	if err != nil {
		return errors.Internal("Failed to dispatch notification", err)
	}

	logger.Debug("Notification %s dispatched", id)
	return nil
}
