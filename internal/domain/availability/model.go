package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/agenda/agenda/pkg/wallclock"
)

// Block is a recurring weekly availability declaration: a practitioner
// offers appointments of SlotDurationMinutes for a specialty between
// StartTime and EndTime on every Weekday.
type Block struct {
	ID                  uuid.UUID       `json:"id"`
	PractitionerName    string          `json:"practitioner_name"`
	SpecialtyID         uuid.UUID       `json:"specialty_id"`
	Weekday             string          `json:"weekday"`
	StartTime           wallclock.Clock `json:"start_time"`
	EndTime             wallclock.Clock `json:"end_time"`
	SlotDurationMinutes int             `json:"slot_duration_minutes"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Covers reports whether a slot of the block's duration starting at the
// given offset from midnight fits entirely inside the block window. The end
// bound is inclusive.
func (b *Block) Covers(start time.Duration) bool {
	end := start + time.Duration(b.SlotDurationMinutes)*time.Minute
	return b.StartTime.SinceMidnight() <= start && end <= b.EndTime.SinceMidnight()
}

// OnWeekday reports whether the block recurs on wd, ignoring the casing the
// weekday was declared with.
func (b *Block) OnWeekday(wd time.Weekday) bool {
	return wallclock.SameWeekday(b.Weekday, wd)
}

// Filter narrows block lookups. Zero fields are ignored; Weekday matches
// case-insensitively and PractitionerName exactly.
type Filter struct {
	SpecialtyID      uuid.UUID
	Weekday          string
	PractitionerName string
}
