package booking

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Repository is the reservation store. Create must fail with ErrConflict
// when DateTime is already taken, atomically with the insert.
type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	GetByDateTime(ctx context.Context, dt civil.DateTime) (*Reservation, error)
	// ListBetween returns reservations in [from, to) ordered by date-time.
	ListBetween(ctx context.Context, from, to civil.DateTime) ([]*Reservation, error)
	Search(ctx context.Context, f ReservationFilter, limit, offset int) ([]*Reservation, int, error)
}
