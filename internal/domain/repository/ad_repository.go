package repository

import (
	"context"

	"annoncia/internal/domain/entity"
)

// AdRepository is read-only here; listing CRUD belongs to the catalog service.
type AdRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Ad, error)
}
