package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"server/internal/domain"
)

// Donate records a contribution against an active campaign, updates the
// raised total and, on the donor's first donation to the campaign,
// makes them eligible to vote on its future withdrawal requests.
// Reaching the target completes the campaign; requests already in
// voting are unaffected.
func (s *Service) Donate(ctx context.Context, campaignID, donorID string, amount int64, anonymous bool, country string) (*domain.Campaign, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(donorID) == "" {
		return nil, fmt.Errorf("donor identity is required: %w", domain.ErrValidation)
	}

	for attempt := 0; ; attempt++ {
		c, err := s.store.GetCampaign(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		now := s.now()
		if !c.AcceptsDonations(now) {
			return nil, fmt.Errorf("campaign %s no longer accepts donations: %w", campaignID, domain.ErrStateConflict)
		}

		d := &domain.Donation{
			ID:         uuid.NewString(),
			CampaignID: campaignID,
			DonorID:    donorID,
			Amount:     amount,
			Anonymous:  anonymous,
			Country:    country,
			CreatedAt:  now,
		}
		c.RaisedAmount += amount
		if c.RaisedAmount >= c.TargetAmount {
			c.Status = domain.CampaignCompleted
		}

		err = s.store.RecordDonation(ctx, d, c)
		if err == nil {
			c.Version++
			s.log.Info().
				Str("campaign_id", campaignID).
				Str("donation_id", d.ID).
				Int64("amount", amount).
				Int64("raised", c.RaisedAmount).
				Msg("donation recorded")
			return c, nil
		}
		if errors.Is(err, domain.ErrVersionConflict) && attempt < maxWriteRetries {
			continue
		}
		return nil, err
	}
}

// ListDonations returns a campaign's donations. Anonymous donations
// keep their donor identity in the store but are masked here before the
// listing leaves the core.
func (s *Service) ListDonations(ctx context.Context, campaignID string) ([]domain.Donation, error) {
	items, err := s.store.ListDonations(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Anonymous {
			items[i].DonorID = ""
		}
	}
	return items, nil
}
