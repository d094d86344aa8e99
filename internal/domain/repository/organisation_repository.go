package repository

import (
	"context"

	"annoncia/internal/domain/entity"
)

type OrganisationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Organisation, error)
}
