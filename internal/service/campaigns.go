package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
)

// CreateCampaignInput carries the fields of a new campaign.
type CreateCampaignInput struct {
	NGOID        string
	Title        string
	Description  string
	Purpose      string
	Location     string
	TargetAmount int64
	StartDate    time.Time
	EndDate      time.Time
}

// CreateCampaign opens a fundraising campaign for an existing NGO.
func (s *Service) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*domain.Campaign, error) {
	if strings.TrimSpace(in.NGOID) == "" {
		return nil, fmt.Errorf("ngo id is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if in.TargetAmount <= 0 {
		return nil, fmt.Errorf("target amount must be positive: %w", domain.ErrValidation)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, fmt.Errorf("start and end dates are required: %w", domain.ErrValidation)
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, fmt.Errorf("end date must be after start date: %w", domain.ErrValidation)
	}

	if _, err := s.store.GetNGO(ctx, in.NGOID); err != nil {
		return nil, err
	}

	c := &domain.Campaign{
		ID:           uuid.NewString(),
		NGOID:        in.NGOID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Purpose:      strings.TrimSpace(in.Purpose),
		Location:     strings.TrimSpace(in.Location),
		TargetAmount: in.TargetAmount,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Status:       domain.CampaignActive,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info().Str("campaign_id", c.ID).Str("ngo_id", c.NGOID).Int64("target", c.TargetAmount).Msg("campaign created")
	return c, nil
}

// GetCampaign returns one campaign. An active campaign whose end date
// has passed is reported as completed; the stored row is left alone and
// settles whenever a write next touches it.
func (s *Service) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	s.normalizeCampaign(c)
	return c, nil
}

// ListCampaigns returns all campaigns ordered by creation time.
func (s *Service) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	items, err := s.store.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		s.normalizeCampaign(&items[i])
	}
	return items, nil
}

// CancelCampaign moves an active campaign to cancelled. Requests
// already in voting run their course; new spending requests are no
// longer accepted.
func (s *Service) CancelCampaign(ctx context.Context, id string) error {
	if err := s.store.TransitionCampaign(ctx, id, domain.CampaignActive, domain.CampaignCancelled); err != nil {
		return err
	}
	s.log.Info().Str("campaign_id", id).Msg("campaign cancelled")
	return nil
}

func (s *Service) normalizeCampaign(c *domain.Campaign) {
	if c.Status == domain.CampaignActive && c.Ended(s.now()) {
		c.Status = domain.CampaignCompleted
	}
}
