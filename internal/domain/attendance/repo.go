package attendance

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create fails with ErrAlreadyRecorded when the reservation already has
	// a record and ErrUnknownReservation when it does not exist.
	Create(ctx context.Context, v *VisitRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*VisitRecord, error)
	Search(ctx context.Context, f Filter, limit, offset int) ([]*VisitRecord, int, error)
}
