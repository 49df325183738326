package registry

import (
	"context"

	"github.com/google/uuid"
)

type SpecialtyRepository interface {
	Create(ctx context.Context, s *Specialty) error
	GetByID(ctx context.Context, id uuid.UUID) (*Specialty, error)
	List(ctx context.Context) ([]*Specialty, error)
}

type InsurerRepository interface {
	Create(ctx context.Context, i *Insurer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Insurer, error)
	List(ctx context.Context) ([]*Insurer, error)
}
