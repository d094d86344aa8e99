package repository

import (
	"context"

	"annoncia/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdateFCMToken(ctx context.Context, userID, token string) error
}
