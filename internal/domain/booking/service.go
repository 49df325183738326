package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agenda/agenda/internal/domain/availability"
	"github.com/agenda/agenda/internal/platform/db"
	"github.com/agenda/agenda/internal/platform/lock"
	"github.com/agenda/agenda/internal/platform/metrics"
	"github.com/agenda/agenda/pkg/wallclock"
)

var (
	ErrConflict    = errors.New("time slot already reserved")
	ErrInvalidSlot = errors.New("time not available")
	ErrNotFound    = errors.New("reservation not found")
	ErrLockTimeout = errors.New("booking is busy for this time, retry shortly")
)

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// BlockSource resolves the availability blocks of a specialty on a weekday
// in a stable order.
type BlockSource interface {
	BlocksFor(ctx context.Context, specialtyID uuid.UUID, wd time.Weekday, practitioner string) ([]*availability.Block, error)
}

type Service struct {
	blocks       BlockSource
	reservations Repository
	locker       lock.Locker
	metrics      *metrics.AgendaMetrics
	logger       zerolog.Logger
}

func NewService(blocks BlockSource, reservations Repository, locker lock.Locker, m *metrics.AgendaMetrics, logger zerolog.Logger) *Service {
	return &Service{
		blocks:       blocks,
		reservations: reservations,
		locker:       locker,
		metrics:      m,
		logger:       logger.With().Str("component", "booking").Logger(),
	}
}

// CreateReservation books req.DateTime if it is free and covered by a block
// of the specialty. The collision check and the insert run inside a
// critical section keyed on the date-time; the store's unique constraint
// still rejects a concurrent duplicate with ErrConflict.
func (s *Service) CreateReservation(ctx context.Context, req ReservationRequest) (res *Reservation, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveBooking(bookingOutcome(err), time.Since(started).Seconds())
	}()

	req.PatientName = strings.TrimSpace(req.PatientName)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, lockKey(ctx, req.DateTime))
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("enter booking critical section: %w", err)
	}
	defer release()

	if existing, err := s.reservations.GetByDateTime(ctx, req.DateTime); err == nil {
		s.logger.Debug().Str("reservation_id", existing.ID.String()).
			Str("date_time", req.DateTime.String()).Msg("booking rejected: slot taken")
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing reservation: %w", err)
	}

	block, err := s.coveringBlock(ctx, req.SpecialtyID, req.DateTime)
	if err != nil {
		return nil, err
	}
	if block == nil {
		s.logger.Debug().Str("specialty_id", req.SpecialtyID.String()).
			Str("date_time", req.DateTime.String()).Msg("booking rejected: not covered by availability")
		return nil, ErrInvalidSlot
	}

	res = &Reservation{
		PatientName:      req.PatientName,
		SpecialtyID:      req.SpecialtyID,
		InsurerID:        req.InsurerID,
		DateTime:         req.DateTime,
		PractitionerName: block.PractitionerName,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.Debug().Str("date_time", req.DateTime.String()).Msg("booking rejected by unique constraint")
		}
		return nil, err
	}

	s.logger.Info().
		Str("reservation_id", res.ID.String()).
		Str("specialty_id", res.SpecialtyID.String()).
		Str("date_time", res.DateTime.String()).
		Msg("reservation created")
	return res, nil
}

// coveringBlock returns the first block, in declaration order, whose window
// fits a full slot starting at dt. It returns nil when none does.
func (s *Service) coveringBlock(ctx context.Context, specialtyID uuid.UUID, dt civil.DateTime) (*availability.Block, error) {
	wd := wallclock.Weekday(dt.Date)
	blocks, err := s.blocks.BlocksFor(ctx, specialtyID, wd, "")
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	offset := wallclock.OffsetOf(dt)
	for _, b := range blocks {
		if b.OnWeekday(wd) && b.Covers(offset) {
			return b, nil
		}
	}
	return nil, nil
}

func (s *Service) GetReservation(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// ListReservations returns reservations matching f ordered by date-time,
// plus the total number of matches.
func (s *Service) ListReservations(ctx context.Context, f ReservationFilter, limit, offset int) ([]*Reservation, int, error) {
	return s.reservations.Search(ctx, f, limit, offset)
}

func validateRequest(req ReservationRequest) error {
	if req.PatientName == "" {
		return &ValidationError{Field: "patient_name", Message: "is required"}
	}
	if req.SpecialtyID == uuid.Nil {
		return &ValidationError{Field: "specialty_id", Message: "is required"}
	}
	if req.InsurerID == uuid.Nil {
		return &ValidationError{Field: "insurer_id", Message: "is required"}
	}
	if !req.DateTime.IsValid() {
		return &ValidationError{Field: "date_time", Message: "is required"}
	}
	return nil
}

func lockKey(ctx context.Context, dt civil.DateTime) string {
	clinic := db.NormalizeClinicID(db.ClinicFromContext(ctx))
	if clinic == "" {
		clinic = "default"
	}
	return fmt.Sprintf("agenda:booking:%s:%s", clinic, dt.String())
}

func bookingOutcome(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return metrics.OutcomeCreated
	case errors.Is(err, ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrInvalidSlot):
		return metrics.OutcomeInvalidSlot
	case errors.Is(err, ErrLockTimeout):
		return metrics.OutcomeLockTimeout
	case errors.As(err, &ve):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
