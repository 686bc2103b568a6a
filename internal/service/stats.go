package service

import (
	"context"

	"server/internal/domain"
)

// Summary holds the platform totals the landing pages render.
type Summary struct {
	NGOs            int   `json:"ngos"`
	Campaigns       int   `json:"campaigns"`
	ActiveCampaigns int   `json:"active_campaigns"`
	TotalRaised     int64 `json:"total_raised"`
	TotalReleased   int64 `json:"total_released"`
}

// Stats recomputes the platform summary from the current snapshot.
func (s *Service) Stats(ctx context.Context) (*Summary, error) {
	ngos, err := s.store.ListNGOs(ctx)
	if err != nil {
		return nil, err
	}
	campaigns, err := s.store.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{NGOs: len(ngos), Campaigns: len(campaigns)}
	now := s.now()
	for _, c := range campaigns {
		if c.Status == domain.CampaignActive && !c.Ended(now) {
			sum.ActiveCampaigns++
		}
		sum.TotalRaised += c.RaisedAmount
		sum.TotalReleased += c.ExecutedAmount
	}
	return sum, nil
}
