package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("record not found")

type Service struct {
	specialties SpecialtyRepository
	insurers    InsurerRepository
}

func NewService(spec SpecialtyRepository, ins InsurerRepository) *Service {
	return &Service{specialties: spec, insurers: ins}
}

// -- Specialty --

func (s *Service) CreateSpecialty(ctx context.Context, sp *Specialty) error {
	sp.Name = strings.TrimSpace(sp.Name)
	if sp.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.specialties.Create(ctx, sp)
}

func (s *Service) GetSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	return s.specialties.GetByID(ctx, id)
}

func (s *Service) ListSpecialties(ctx context.Context) ([]*Specialty, error) {
	return s.specialties.List(ctx)
}

// -- Insurer --

func (s *Service) CreateInsurer(ctx context.Context, in *Insurer) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.insurers.Create(ctx, in)
}

func (s *Service) GetInsurer(ctx context.Context, id uuid.UUID) (*Insurer, error) {
	return s.insurers.GetByID(ctx, id)
}

func (s *Service) ListInsurers(ctx context.Context) ([]*Insurer, error) {
	return s.insurers.List(ctx)
}
