package usecase

import (
	"context"

	"annoncia/internal/domain/entity"
	"annoncia/internal/domain/repository"
	"annoncia/pkg/errors"
	"annoncia/pkg/logger"
)

type UserUseCase struct {
	userRepo repository.UserRepository
}

func NewUserUseCase(userRepo repository.UserRepository) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
	}
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error("GetProfile Error: User %s not found: %v", userID, err)
		return nil, err
	}

	return user, nil
}

// RegisterDevice stores the device's push token so offline users can still be
// reached about new messages.
func (uc *UserUseCase) RegisterDevice(ctx context.Context, userID, fcmToken string) error {
	if fcmToken == "" {
		return errors.BadRequest("Device token is required", nil)
	}

	if err := uc.userRepo.UpdateFCMToken(ctx, userID, fcmToken); err != nil {
		logger.Error("RegisterDevice Error: Failed to update token for user %s: %v", userID, err)
		return err
	}

	return nil
}

// UnregisterDevice clears the push token, typically on logout.
func (uc *UserUseCase) UnregisterDevice(ctx context.Context, userID string) error {
	if err := uc.userRepo.UpdateFCMToken(ctx, userID, ""); err != nil {
		logger.Error("UnregisterDevice Error: Failed to clear token for user %s: %v", userID, err)
		return err
	}

	return nil
}
