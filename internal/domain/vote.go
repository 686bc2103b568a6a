package domain

import "time"

// VoteChoice is a donor's stance on a withdrawal request.
type VoteChoice string

const (
	VoteApprove VoteChoice = "approve"
	VoteReject  VoteChoice = "reject"
)

// Valid reports whether the choice is one of the known values.
func (c VoteChoice) Valid() bool {
	return c == VoteApprove || c == VoteReject
}

// Vote is one donor's current choice on one withdrawal request. A later
// vote by the same donor overwrites the earlier one while voting is
// open; votes freeze once the request leaves the voting state.
type Vote struct {
	RequestID string
	DonorID   string
	Choice    VoteChoice
	CastAt    time.Time
}

// Tally aggregates votes over one withdrawal request. Abstentions are
// eligible voters with no recorded vote; they are excluded from the
// approval-rate denominator.
type Tally struct {
	Approve int
	Reject  int
	Abstain int
}

// Respondents returns the approval-rate denominator.
func (t Tally) Respondents() int { return t.Approve + t.Reject }

// ApprovalRate returns approvals over respondents, zero when nobody
// voted.
func (t Tally) ApprovalRate() float64 {
	if t.Respondents() == 0 {
		return 0
	}
	return float64(t.Approve) / float64(t.Respondents())
}

// Passed applies the approval rule: strictly more than half of the
// respondents approved and at least one approval exists, so the 0/0
// case rejects.
func (t Tally) Passed() bool {
	return t.Approve >= 1 && t.ApprovalRate() > 0.50
}
