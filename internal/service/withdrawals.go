package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"server/internal/domain"
)

// CreateWithdrawal opens a spending request against a campaign and
// reserves the amount for the duration of voting. The withdrawable
// balance is raised minus executed minus the amounts held by other open
// requests; the version handed to the store serializes concurrent
// reservations on the same campaign.
func (s *Service) CreateWithdrawal(ctx context.Context, campaignID string, amount int64, purpose string) (*domain.WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(purpose) == "" {
		return nil, fmt.Errorf("purpose is required: %w", domain.ErrValidation)
	}

	for attempt := 0; ; attempt++ {
		c, err := s.store.GetCampaign(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		// Completed campaigns still hold donated funds, so spending
		// requests stay possible; only cancellation closes the door.
		if c.Status == domain.CampaignCancelled {
			return nil, fmt.Errorf("campaign %s is cancelled: %w", campaignID, domain.ErrStateConflict)
		}

		withdrawable, err := s.withdrawable(ctx, c)
		if err != nil {
			return nil, err
		}
		if amount > withdrawable {
			return nil, fmt.Errorf("requested %d exceeds withdrawable %d: %w", amount, withdrawable, domain.ErrInsufficientBalance)
		}

		now := s.now()
		voters, err := s.store.EligibleDonors(ctx, campaignID, now)
		if err != nil {
			return nil, err
		}

		r := &domain.WithdrawalRequest{
			ID:             uuid.NewString(),
			CampaignID:     campaignID,
			Amount:         amount,
			Purpose:        strings.TrimSpace(purpose),
			Status:         domain.WithdrawalVoting,
			CreatedAt:      now,
			VoteDeadline:   now.Add(s.votingWindow),
			EligibleVoters: voters,
		}

		err = s.store.CreateWithdrawal(ctx, r, c.Version)
		if err == nil {
			s.log.Info().
				Str("campaign_id", campaignID).
				Str("request_id", r.ID).
				Int64("amount", amount).
				Int("eligible_voters", len(voters)).
				Time("deadline", r.VoteDeadline).
				Msg("withdrawal request opened")
			return r, nil
		}
		if errors.Is(err, domain.ErrVersionConflict) && attempt < maxWriteRetries {
			continue
		}
		return nil, err
	}
}

// GetWithdrawal returns the request with its current tally. A request
// sitting past its deadline is resolved on the way out, so reads always
// observe the settled outcome.
func (s *Service) GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, domain.Tally, error) {
	r, err := s.store.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, domain.Tally{}, err
	}
	if r.Status == domain.WithdrawalVoting && !s.now().Before(r.VoteDeadline) {
		if _, err := s.Resolve(ctx, id); err != nil {
			return nil, domain.Tally{}, err
		}
		if r, err = s.store.GetWithdrawal(ctx, id); err != nil {
			return nil, domain.Tally{}, err
		}
	}
	tally, err := s.tally(ctx, r)
	if err != nil {
		return nil, domain.Tally{}, err
	}
	return r, tally, nil
}

// ListCampaignWithdrawals returns a campaign's requests with tallies.
func (s *Service) ListCampaignWithdrawals(ctx context.Context, campaignID string) ([]domain.WithdrawalRequest, []domain.Tally, error) {
	items, err := s.store.ListWithdrawalsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	tallies := make([]domain.Tally, len(items))
	for i := range items {
		t, err := s.tally(ctx, &items[i])
		if err != nil {
			return nil, nil, err
		}
		tallies[i] = t
	}
	return items, tallies, nil
}

// CancelWithdrawal lets the NGO withdraw a request before the deadline.
// Only a request with zero votes may be cancelled, so donor decisions
// are never invalidated; the reservation is released immediately.
func (s *Service) CancelWithdrawal(ctx context.Context, id string) error {
	if err := s.store.CancelWithdrawal(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("request_id", id).Msg("withdrawal request cancelled")
	return nil
}

// Resolve settles a request whose quorum window has closed. Approval
// requires strictly more than half of the respondents and at least one
// approval, so a request nobody voted on rejects and its reservation is
// released. Resolving an already-settled request is a no-op that
// returns the existing status, and losing the transition race to a
// concurrent resolver converges on the winner's outcome. The tally and
// the terminal transition commit as one store operation, so a ballot
// racing the settlement is either counted or refused, never recorded
// yet ignored.
func (s *Service) Resolve(ctx context.Context, id string) (domain.WithdrawalStatus, error) {
	r, err := s.store.GetWithdrawal(ctx, id)
	if err != nil {
		return "", err
	}
	if r.Status != domain.WithdrawalVoting {
		return r.Status, nil
	}
	if s.now().Before(r.VoteDeadline) {
		return r.Status, nil
	}

	outcome, tally, err := s.store.ResolveWithdrawal(ctx, id, func(t domain.Tally) domain.WithdrawalStatus {
		if t.Passed() {
			return domain.WithdrawalApproved
		}
		return domain.WithdrawalRejected
	})
	if errors.Is(err, domain.ErrStateConflict) {
		settled, getErr := s.store.GetWithdrawal(ctx, id)
		if getErr != nil {
			return "", getErr
		}
		return settled.Status, nil
	}
	if err != nil {
		return "", err
	}
	s.log.Info().
		Str("request_id", id).
		Int("approve", tally.Approve).
		Int("reject", tally.Reject).
		Int("abstain", tally.Abstain).
		Str("outcome", string(outcome)).
		Msg("withdrawal request resolved")
	return outcome, nil
}

// Execute releases the funds of an approved request to the NGO exactly
// once. The status swap Approved -> Executed is the linearization
// point; a concurrent or repeated call loses the swap and fails with a
// state conflict instead of paying twice.
func (s *Service) Execute(ctx context.Context, id string) error {
	r, err := s.store.GetWithdrawal(ctx, id)
	if err != nil {
		return err
	}
	if r.Status == domain.WithdrawalVoting && !s.now().Before(r.VoteDeadline) {
		if _, err := s.Resolve(ctx, id); err != nil {
			return err
		}
		if r, err = s.store.GetWithdrawal(ctx, id); err != nil {
			return err
		}
	}
	if r.Status == domain.WithdrawalExecuted {
		return fmt.Errorf("withdrawal %s already executed: %w", id, domain.ErrStateConflict)
	}
	if r.Status != domain.WithdrawalApproved {
		return fmt.Errorf("withdrawal %s is %s, not approved: %w", id, r.Status, domain.ErrStateConflict)
	}

	for attempt := 0; ; attempt++ {
		c, err := s.store.GetCampaign(ctx, r.CampaignID)
		if err != nil {
			return err
		}
		c.ExecutedAmount += r.Amount

		err = s.store.ExecuteWithdrawal(ctx, r, c)
		if err == nil {
			s.log.Info().
				Str("request_id", id).
				Str("campaign_id", r.CampaignID).
				Int64("amount", r.Amount).
				Msg("withdrawal executed")
			return nil
		}
		if errors.Is(err, domain.ErrVersionConflict) && attempt < maxWriteRetries {
			continue
		}
		return err
	}
}

// ResolveDue settles every voting request whose deadline has passed and
// returns how many were settled. The resolver binary drives this on a
// poll interval; the lazy read-path resolution covers whatever it has
// not reached yet.
func (s *Service) ResolveDue(ctx context.Context) (int, error) {
	items, err := s.store.ListWithdrawals(ctx)
	if err != nil {
		return 0, err
	}
	resolved := 0
	for i := range items {
		r := &items[i]
		if r.Status != domain.WithdrawalVoting || s.now().Before(r.VoteDeadline) {
			continue
		}
		status, err := s.Resolve(ctx, r.ID)
		if err != nil {
			s.log.Error().Err(err).Str("request_id", r.ID).Msg("resolve failed")
			continue
		}
		if status != domain.WithdrawalVoting {
			resolved++
		}
	}
	return resolved, nil
}

func (s *Service) withdrawable(ctx context.Context, c *domain.Campaign) (int64, error) {
	requests, err := s.store.ListWithdrawalsByCampaign(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	var reserved int64
	for _, r := range requests {
		if r.Status.Open() {
			reserved += r.Amount
		}
	}
	return c.RaisedAmount - c.ExecutedAmount - reserved, nil
}

func (s *Service) tally(ctx context.Context, r *domain.WithdrawalRequest) (domain.Tally, error) {
	votes, err := s.store.ListVotes(ctx, r.ID)
	if err != nil {
		return domain.Tally{}, err
	}
	var t domain.Tally
	for _, v := range votes {
		switch v.Choice {
		case domain.VoteApprove:
			t.Approve++
		case domain.VoteReject:
			t.Reject++
		}
	}
	t.Abstain = len(r.EligibleVoters) - t.Respondents()
	if t.Abstain < 0 {
		t.Abstain = 0
	}
	return t, nil
}
