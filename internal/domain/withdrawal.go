package domain

import "time"

// WithdrawalStatus enumerates withdrawal request states.
type WithdrawalStatus string

const (
	WithdrawalVoting    WithdrawalStatus = "voting"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalExecuted  WithdrawalStatus = "executed"
	WithdrawalCancelled WithdrawalStatus = "cancelled"
)

// Open reports whether the status still reserves campaign balance.
// Approved requests keep their reservation until executed.
func (s WithdrawalStatus) Open() bool {
	return s == WithdrawalVoting || s == WithdrawalApproved
}

// Terminal reports whether the status can no longer change, except for
// the Approved -> Executed transition performed by the executor.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalRejected || s == WithdrawalExecuted || s == WithdrawalCancelled
}

// WithdrawalRequest is a spending request an NGO raises against the
// funds donated to one of its campaigns.
type WithdrawalRequest struct {
	ID         string
	CampaignID string
	Amount     int64
	Purpose    string
	Status     WithdrawalStatus
	CreatedAt  time.Time
	// VoteDeadline closes the quorum window, CreatedAt plus the
	// configured voting window (72h by default).
	VoteDeadline time.Time
	// EligibleVoters is the set of distinct donors who had donated to
	// the campaign strictly before CreatedAt. Frozen at creation.
	EligibleVoters map[string]struct{}
}

// VotingOpen reports whether a vote may still be cast at now.
func (r WithdrawalRequest) VotingOpen(now time.Time) bool {
	return r.Status == WithdrawalVoting && now.Before(r.VoteDeadline)
}

// Eligible reports whether the donor belonged to the eligibility
// snapshot taken at creation time.
func (r WithdrawalRequest) Eligible(donorID string) bool {
	_, ok := r.EligibleVoters[donorID]
	return ok
}
