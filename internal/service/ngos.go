package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"server/internal/domain"
)

// CreateNGO registers an organization. Identity is immutable once
// created; the verification flag is flipped out of band.
func (s *Service) CreateNGO(ctx context.Context, name, description, location string) (*domain.NGO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("description is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("location is required: %w", domain.ErrValidation)
	}

	ngo := &domain.NGO{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Location:    strings.TrimSpace(location),
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateNGO(ctx, ngo); err != nil {
		return nil, err
	}
	s.log.Info().Str("ngo_id", ngo.ID).Str("name", ngo.Name).Msg("ngo registered")
	return ngo, nil
}

// GetNGO returns one organization by id.
func (s *Service) GetNGO(ctx context.Context, id string) (*domain.NGO, error) {
	return s.store.GetNGO(ctx, id)
}

// ListNGOs returns all organizations ordered by registration time.
func (s *Service) ListNGOs(ctx context.Context) ([]domain.NGO, error) {
	return s.store.ListNGOs(ctx)
}
