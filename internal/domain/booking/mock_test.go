package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agenda/agenda/internal/domain/availability"
	"github.com/agenda/agenda/internal/platform/lock"
	"github.com/agenda/agenda/pkg/wallclock"
)

// mockRepo enforces date-time uniqueness inside Create, like the table's
// unique constraint.
type mockRepo struct {
	mu    sync.Mutex
	items []*Reservation
}

func newMockRepo() *mockRepo {
	return &mockRepo{}
}

func (m *mockRepo) Create(_ context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.DateTime == r.DateTime {
			return ErrConflict
		}
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	cp := *r
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByDateTime(_ context.Context, dt civil.DateTime) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.DateTime == dt {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListBetween(_ context.Context, from, to civil.DateTime) ([]*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Reservation
	for _, r := range m.items {
		if !r.DateTime.Before(from) && r.DateTime.Before(to) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (m *mockRepo) Search(_ context.Context, f ReservationFilter, limit, offset int) ([]*Reservation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*Reservation
	for _, r := range m.items {
		if f.DateFrom != nil && r.DateTime.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && r.DateTime.After(*f.DateTo) {
			continue
		}
		if f.PatientName != "" && r.PatientName != f.PatientName {
			continue
		}
		cp := *r
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].DateTime.Before(matched[j].DateTime) })
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *mockRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// stubBlocks serves blocks in declaration order, matching the weekday
// case-insensitively.
type stubBlocks struct {
	blocks []*availability.Block
}

func (s *stubBlocks) add(practitioner string, specialty uuid.UUID, weekday, start, end string, minutes int) *availability.Block {
	b := &availability.Block{
		ID:                  uuid.New(),
		PractitionerName:    practitioner,
		SpecialtyID:         specialty,
		Weekday:             weekday,
		StartTime:           wallclock.MustClock(start),
		EndTime:             wallclock.MustClock(end),
		SlotDurationMinutes: minutes,
	}
	s.blocks = append(s.blocks, b)
	return b
}

func (s *stubBlocks) BlocksFor(_ context.Context, specialtyID uuid.UUID, wd time.Weekday, practitioner string) ([]*availability.Block, error) {
	var out []*availability.Block
	for _, b := range s.blocks {
		if b.SpecialtyID != specialtyID || !strings.EqualFold(b.Weekday, wd.String()) {
			continue
		}
		if practitioner != "" && b.PractitionerName != practitioner {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// passLocker never blocks, leaving the store as the only guard.
type passLocker struct{}

func (passLocker) Acquire(context.Context, string) (lock.Release, error) {
	return func() {}, nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (lock.Release, error) {
	return nil, lock.ErrTimeout
}

func newTestService(blocks *stubBlocks, repo *mockRepo) *Service {
	return NewService(blocks, repo, lock.NewKeyedMutex(time.Second), nil, zerolog.Nop())
}

// monday is 2024-01-15.
var monday = civil.Date{Year: 2024, Month: time.January, Day: 15}

func at(d civil.Date, clock string) civil.DateTime {
	return wallclock.At(d, wallclock.MustClock(clock))
}
