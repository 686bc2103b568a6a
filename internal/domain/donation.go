package domain

import "time"

// Donation is an immutable contribution record against a campaign.
type Donation struct {
	ID         string
	CampaignID string
	// DonorID is the opaque, already-authenticated donor identity. It is
	// always stored, anonymous or not, because voting eligibility is
	// keyed on it.
	DonorID   string
	Amount    int64
	Anonymous bool
	// Country is the ISO code attributed from the client IP, empty when
	// unresolved.
	Country   string
	CreatedAt time.Time
}
