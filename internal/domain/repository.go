package domain

import (
	"context"
	"time"
)

// LedgerStore is durable keyed storage for NGOs, campaigns, donations,
// withdrawal requests, and votes. It carries no business rules beyond
// referential existence and the atomicity of its composite operations;
// validation and state-machine decisions live in the service layer.
//
// Mutating operations that touch more than one entity commit atomically
// or not at all. Operations taking an expected campaign version fail
// with ErrVersionConflict when the campaign changed since the caller's
// read; the caller re-reads, re-validates, and retries.
type LedgerStore interface {
	CreateNGO(ctx context.Context, ngo *NGO) error
	GetNGO(ctx context.Context, id string) (*NGO, error)
	ListNGOs(ctx context.Context) ([]NGO, error)

	CreateCampaign(ctx context.Context, c *Campaign) error
	GetCampaign(ctx context.Context, id string) (*Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	// TransitionCampaign flips status from -> to, failing with
	// ErrStateConflict when the campaign is not in the from state.
	TransitionCampaign(ctx context.Context, id string, from, to CampaignStatus) error

	// RecordDonation appends the donation, applies the campaign's new
	// raised total and status carried on c (checked against c.Version as
	// read), and adds d.Amount to the owning NGO's total raised.
	RecordDonation(ctx context.Context, d *Donation, c *Campaign) error
	ListDonations(ctx context.Context, campaignID string) ([]Donation, error)
	// EligibleDonors returns the distinct donor identities with a
	// donation on the campaign created strictly before the cutoff.
	EligibleDonors(ctx context.Context, campaignID string, before time.Time) (map[string]struct{}, error)

	// CreateWithdrawal inserts the request, including its frozen
	// eligible-voter snapshot, and bumps the campaign version. The
	// version check serializes concurrent reservations against the same
	// campaign's withdrawable balance.
	CreateWithdrawal(ctx context.Context, r *WithdrawalRequest, campaignVersion int64) error
	GetWithdrawal(ctx context.Context, id string) (*WithdrawalRequest, error)
	ListWithdrawalsByCampaign(ctx context.Context, campaignID string) ([]WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context) ([]WithdrawalRequest, error)
	// TransitionWithdrawal flips status from -> to with compare-and-swap
	// semantics: it fails with ErrStateConflict when the request is no
	// longer in the from state.
	TransitionWithdrawal(ctx context.Context, id string, from, to WithdrawalStatus) error
	// ResolveWithdrawal settles a voting request in one atomic step: it
	// tallies the recorded votes against the frozen voter snapshot,
	// hands the tally to decide, and commits the returned terminal
	// status. The tally and the transition share one critical section,
	// so a concurrent vote either precedes the tally or is refused by
	// UpsertVote's voting-state guard; no recorded vote is ever left out
	// of the outcome. Fails with ErrStateConflict when the request has
	// already left the voting state.
	ResolveWithdrawal(ctx context.Context, id string, decide func(Tally) WithdrawalStatus) (WithdrawalStatus, Tally, error)
	// CancelWithdrawal cancels a voting request atomically with the
	// zero-votes guard, failing with ErrVotesCast otherwise.
	CancelWithdrawal(ctx context.Context, id string) error
	// ExecuteWithdrawal performs the at-most-once release: status CAS
	// Approved -> Executed, campaign executed-total update checked
	// against c.Version, and the NGO counter increments.
	ExecuteWithdrawal(ctx context.Context, r *WithdrawalRequest, c *Campaign) error

	// UpsertVote writes the donor's current choice, overwriting any
	// earlier vote, and fails with ErrStateConflict once the request has
	// left the voting state.
	UpsertVote(ctx context.Context, v *Vote) error
	ListVotes(ctx context.Context, requestID string) ([]Vote, error)
}
