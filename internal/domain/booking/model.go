package booking

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/agenda/agenda/pkg/wallclock"
)

// Reservation is one patient's claim on a slot. DateTime is naive wall-clock
// time and unique across reservations.
type Reservation struct {
	ID               uuid.UUID      `json:"id"`
	PatientName      string         `json:"patient_name"`
	SpecialtyID      uuid.UUID      `json:"specialty_id"`
	InsurerID        uuid.UUID      `json:"insurer_id"`
	DateTime         civil.DateTime `json:"date_time"`
	PractitionerName string         `json:"practitioner_name"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Slot is a derived interval of an availability block, free or taken.
type Slot struct {
	StartTime     wallclock.Clock `json:"start_time"`
	EndTime       wallclock.Clock `json:"end_time"`
	IsFree        bool            `json:"is_free"`
	ReservationID *uuid.UUID      `json:"reservation_id,omitempty"`
	PatientName   string          `json:"patient_name,omitempty"`
}

// SlotQuery selects the blocks to expand. Practitioner is optional and
// matched exactly.
type SlotQuery struct {
	Date         civil.Date
	SpecialtyID  uuid.UUID
	Practitioner string
}

// ReservationRequest carries what a caller may choose; the practitioner is
// always taken from the covering block.
type ReservationRequest struct {
	PatientName string
	SpecialtyID uuid.UUID
	InsurerID   uuid.UUID
	DateTime    civil.DateTime
}

// ReservationFilter narrows reservation listings. Bounds are inclusive and
// PatientName must match exactly; nil or empty fields are ignored.
type ReservationFilter struct {
	DateFrom    *civil.DateTime
	DateTo      *civil.DateTime
	PatientName string
}
