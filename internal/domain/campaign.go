package domain

import "time"

// CampaignStatus enumerates campaign lifecycle states.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Campaign is a time-boxed fundraising effort owned by one NGO.
type Campaign struct {
	ID          string
	NGOID       string
	Title       string
	Description string
	Purpose     string
	Location    string

	TargetAmount int64
	// RaisedAmount is derived from donations and never decreases.
	RaisedAmount int64
	// ExecutedAmount is the sum of executed withdrawal amounts. The
	// invariant ExecutedAmount <= RaisedAmount holds at all times.
	ExecutedAmount int64

	StartDate time.Time
	EndDate   time.Time
	Status    CampaignStatus
	CreatedAt time.Time

	// Version guards optimistic updates. Every committed write to the
	// campaign row, including withdrawal-request creation against it,
	// increments it.
	Version int64
}

// Ended reports whether the campaign's end date has passed at now.
func (c Campaign) Ended(now time.Time) bool {
	return !c.EndDate.IsZero() && now.After(c.EndDate)
}

// AcceptsDonations reports whether a donation may be recorded at now.
func (c Campaign) AcceptsDonations(now time.Time) bool {
	return c.Status == CampaignActive && !c.Ended(now)
}
