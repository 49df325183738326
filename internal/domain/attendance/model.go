package attendance

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// VisitRecord marks a reservation as attended. A reservation has at most
// one record.
type VisitRecord struct {
	ID             uuid.UUID      `json:"id"`
	ReservationID  uuid.UUID      `json:"reservation_id"`
	VisitTimestamp civil.DateTime `json:"visit_timestamp"`
	Notes          *string        `json:"notes,omitempty"`
	PatientName    string         `json:"patient_name,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Filter narrows visit listings. Date bounds apply to VisitTimestamp and
// are inclusive; PatientName matches the linked reservation exactly.
type Filter struct {
	DateFrom    *civil.DateTime
	DateTo      *civil.DateTime
	PatientName string
}
