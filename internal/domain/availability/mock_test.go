package availability

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	mu     sync.Mutex
	blocks []*Block
}

func newMockRepo() *mockRepo {
	return &mockRepo{}
}

func (m *mockRepo) Create(_ context.Context, b *Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	cp := *b
	m.blocks = append(m.blocks, &cp)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.blocks {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Find(_ context.Context, f Filter) ([]*Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Block
	for _, b := range m.blocks {
		if f.SpecialtyID != uuid.Nil && b.SpecialtyID != f.SpecialtyID {
			continue
		}
		if f.Weekday != "" && !strings.EqualFold(b.Weekday, f.Weekday) {
			continue
		}
		if f.PractitionerName != "" && b.PractitionerName != f.PractitionerName {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}
