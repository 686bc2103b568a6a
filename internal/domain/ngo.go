package domain

import "time"

// NGO represents a registered receiving organization.
type NGO struct {
	ID          string
	Name        string
	Description string
	Location    string
	Verified    bool

	// Aggregate counters, mutated only by the donation recorder and the
	// fund release executor.
	CompletedWithdrawals int
	RejectedWithdrawals  int
	TotalRaised          int64

	CreatedAt time.Time
}

// ApprovalRate returns the executed share among terminally decided
// withdrawal requests. The second return value is false when the NGO has
// no decided requests yet.
func (n NGO) ApprovalRate() (float64, bool) {
	decided := n.CompletedWithdrawals + n.RejectedWithdrawals
	if decided == 0 {
		return 0, false
	}
	return float64(n.CompletedWithdrawals) / float64(decided), true
}
