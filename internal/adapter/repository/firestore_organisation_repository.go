package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"annoncia/internal/domain/entity"
	"annoncia/internal/domain/repository"
	"annoncia/pkg/errors"
)

type firestoreOrganisationRepository struct {
	client *firestore.Client
}

func NewFirestoreOrganisationRepository(client *firestore.Client) repository.OrganisationRepository {
	return &firestoreOrganisationRepository{
		client: client,
	}
}

func (r *firestoreOrganisationRepository) GetByID(ctx context.Context, id string) (*entity.Organisation, error) {
	doc, err := r.client.Collection("organisations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Organisation", nil)
		}
		return nil, errors.Internal("Failed to get organisation", err)
	}

	var org entity.Organisation
	if err := doc.DataTo(&org); err != nil {
		return nil, errors.Internal("Failed to parse organisation data", err)
	}

	return &org, nil
}
