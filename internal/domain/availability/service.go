package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agenda/agenda/pkg/wallclock"
)

var ErrNotFound = errors.New("availability block not found")

// ValidationError reports a rejected field of a declaration.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Service struct {
	blocks Repository
}

func NewService(blocks Repository) *Service {
	return &Service{blocks: blocks}
}

// Declare validates and stores a new block. The weekday keeps the casing it
// was declared with.
func (s *Service) Declare(ctx context.Context, b *Block) error {
	b.PractitionerName = strings.TrimSpace(b.PractitionerName)
	b.Weekday = strings.TrimSpace(b.Weekday)

	if b.PractitionerName == "" {
		return &ValidationError{Field: "practitioner_name", Message: "is required"}
	}
	if b.SpecialtyID == uuid.Nil {
		return &ValidationError{Field: "specialty_id", Message: "is required"}
	}
	if b.Weekday == "" {
		return &ValidationError{Field: "weekday", Message: "is required"}
	}
	if _, err := wallclock.ParseWeekday(b.Weekday); err != nil {
		return &ValidationError{Field: "weekday", Message: "must name a day of the week"}
	}
	if b.StartTime >= b.EndTime {
		return &ValidationError{Field: "end_time", Message: "must be after start_time"}
	}
	if b.SlotDurationMinutes <= 0 {
		return &ValidationError{Field: "slot_duration_minutes", Message: "must be positive"}
	}
	return s.blocks.Create(ctx, b)
}

func (s *Service) GetBlock(ctx context.Context, id uuid.UUID) (*Block, error) {
	return s.blocks.GetByID(ctx, id)
}

func (s *Service) ListBlocks(ctx context.Context, f Filter) ([]*Block, error) {
	return s.blocks.Find(ctx, f)
}

// BlocksFor returns the blocks of a specialty that recur on wd, optionally
// narrowed to one practitioner, in declaration order.
func (s *Service) BlocksFor(ctx context.Context, specialtyID uuid.UUID, wd time.Weekday, practitioner string) ([]*Block, error) {
	return s.blocks.Find(ctx, Filter{
		SpecialtyID:      specialtyID,
		Weekday:          wd.String(),
		PractitionerName: practitioner,
	})
}
