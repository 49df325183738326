package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agenda/agenda/pkg/wallclock"
)

var (
	ErrNotFound           = errors.New("visit record not found")
	ErrAlreadyRecorded    = errors.New("reservation already has a visit record")
	ErrUnknownReservation = errors.New("reservation does not exist")
	ErrReservationMissing = errors.New("reservation_id is required")
)

type Service struct {
	visits Repository
	now    func() time.Time
}

func NewService(visits Repository) *Service {
	return &Service{visits: visits, now: time.Now}
}

// Record stores a visit for a reservation, stamped with the current UTC
// wall-clock time. Blank notes are stored as absent.
func (s *Service) Record(ctx context.Context, reservationID uuid.UUID, notes string) (*VisitRecord, error) {
	if reservationID == uuid.Nil {
		return nil, ErrReservationMissing
	}
	v := &VisitRecord{
		ReservationID:  reservationID,
		VisitTimestamp: wallclock.FromTime(s.now().UTC()),
	}
	if n := strings.TrimSpace(notes); n != "" {
		v.Notes = &n
	}
	if err := s.visits.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*VisitRecord, error) {
	return s.visits.GetByID(ctx, id)
}

func (s *Service) ListVisits(ctx context.Context, f Filter, limit, offset int) ([]*VisitRecord, int, error) {
	return s.visits.Search(ctx, f, limit, offset)
}
