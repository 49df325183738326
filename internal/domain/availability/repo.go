package availability

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores blocks. Find returns blocks in declaration order.
type Repository interface {
	Create(ctx context.Context, b *Block) error
	GetByID(ctx context.Context, id uuid.UUID) (*Block, error)
	Find(ctx context.Context, f Filter) ([]*Block, error)
}
