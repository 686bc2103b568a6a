package service

import (
	"context"
	"fmt"
	"strings"

	"server/internal/domain"
)

// CastVote records a donor's choice on a voting request. Eligibility is
// the snapshot frozen at request creation, so donating after a request
// opened buys no say in it. A donor's later vote overwrites their
// earlier one while voting is open.
func (s *Service) CastVote(ctx context.Context, requestID, donorID string, choice domain.VoteChoice) error {
	if strings.TrimSpace(donorID) == "" {
		return fmt.Errorf("donor identity is required: %w", domain.ErrValidation)
	}
	if !choice.Valid() {
		return fmt.Errorf("unknown vote choice %q: %w", choice, domain.ErrValidation)
	}

	r, err := s.store.GetWithdrawal(ctx, requestID)
	if err != nil {
		return err
	}
	now := s.now()
	if r.Status == domain.WithdrawalVoting && !now.Before(r.VoteDeadline) {
		// Deadline passed but nobody resolved yet; settle before
		// rejecting the vote so the caller sees the final state.
		if _, err := s.Resolve(ctx, requestID); err != nil {
			return err
		}
		return fmt.Errorf("voting closed on withdrawal %s: %w", requestID, domain.ErrStateConflict)
	}
	if !r.VotingOpen(now) {
		return fmt.Errorf("withdrawal %s is %s: %w", requestID, r.Status, domain.ErrStateConflict)
	}
	if !r.Eligible(donorID) {
		return fmt.Errorf("donor has no donation on campaign %s before the request: %w", r.CampaignID, domain.ErrNotEligible)
	}

	v := &domain.Vote{
		RequestID: requestID,
		DonorID:   donorID,
		Choice:    choice,
		CastAt:    now,
	}
	if err := s.store.UpsertVote(ctx, v); err != nil {
		return err
	}
	s.log.Info().Str("request_id", requestID).Str("choice", string(choice)).Msg("vote cast")
	return nil
}
