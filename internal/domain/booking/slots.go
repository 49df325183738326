package booking

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/agenda/agenda/pkg/wallclock"
)

// GenerateSlots expands the matching blocks of q.Date's weekday into slots.
// Blocks are walked in declaration order and each contributes
// floor((end-start)/duration) slots; a trailing partial interval is
// dropped. Overlapping blocks yield overlapping slots. A slot is taken when
// a reservation exists at exactly its start date-time.
func (s *Service) GenerateSlots(ctx context.Context, q SlotQuery) ([]Slot, error) {
	if q.SpecialtyID == uuid.Nil {
		return nil, &ValidationError{Field: "specialty_id", Message: "is required"}
	}
	if !q.Date.IsValid() {
		return nil, &ValidationError{Field: "date", Message: "is required"}
	}

	wd := wallclock.Weekday(q.Date)
	blocks, err := s.blocks.BlocksFor(ctx, q.SpecialtyID, wd, q.Practitioner)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	slots := []Slot{}
	if len(blocks) == 0 {
		s.metrics.ObserveSlotQuery(0)
		return slots, nil
	}

	dayStart := civil.DateTime{Date: q.Date}
	dayEnd := civil.DateTime{Date: q.Date.AddDays(1)}
	reservations, err := s.reservations.ListBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	taken := make(map[civil.DateTime]*Reservation, len(reservations))
	for _, r := range reservations {
		if _, ok := taken[r.DateTime]; !ok {
			taken[r.DateTime] = r
		}
	}

	for _, b := range blocks {
		if !b.OnWeekday(wd) || (q.Practitioner != "" && b.PractitionerName != q.Practitioner) {
			continue
		}
		step := b.SlotDurationMinutes
		if step <= 0 {
			continue
		}
		for cur := b.StartTime; cur.Add(step) <= b.EndTime; cur = cur.Add(step) {
			slot := Slot{StartTime: cur, EndTime: cur.Add(step), IsFree: true}
			if r, ok := taken[wallclock.At(q.Date, cur)]; ok {
				id := r.ID
				slot.IsFree = false
				slot.ReservationID = &id
				slot.PatientName = r.PatientName
			}
			slots = append(slots, slot)
		}
	}

	s.metrics.ObserveSlotQuery(len(slots))
	return slots, nil
}
