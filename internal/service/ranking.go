package service

import (
	"context"
	"sort"

	"server/internal/domain"
)

// TopNGOs returns the n best-ranked organizations. The ranking is a
// read-side projection recomputed from the current snapshot: approval
// rate over decided requests first, then total funds raised, then
// completed-request count, tie-broken by earliest registration and
// finally id, so identical snapshots always rank identically. NGOs with
// no decided requests sort after every NGO that has a rate.
func (s *Service) TopNGOs(ctx context.Context, n int) ([]domain.NGO, error) {
	if n <= 0 {
		return nil, nil
	}

	ngos, err := s.store.ListNGOs(ctx)
	if err != nil {
		return nil, err
	}
	campaigns, err := s.store.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	withdrawals, err := s.store.ListWithdrawals(ctx)
	if err != nil {
		return nil, err
	}

	campaignOwner := make(map[string]string, len(campaigns))
	for _, c := range campaigns {
		campaignOwner[c.ID] = c.NGOID
	}

	executed := make(map[string]int)
	rejected := make(map[string]int)
	for _, r := range withdrawals {
		ngoID, ok := campaignOwner[r.CampaignID]
		if !ok {
			continue
		}
		switch r.Status {
		case domain.WithdrawalExecuted:
			executed[ngoID]++
		case domain.WithdrawalRejected:
			rejected[ngoID]++
		}
	}

	// Project the decided-request counters onto the snapshot copies so
	// ApprovalRate works over the same numbers the ordering uses.
	for i := range ngos {
		ngos[i].CompletedWithdrawals = executed[ngos[i].ID]
		ngos[i].RejectedWithdrawals = rejected[ngos[i].ID]
	}

	sort.SliceStable(ngos, func(i, j int) bool {
		return rankLess(ngos[i], ngos[j])
	})

	if n > len(ngos) {
		n = len(ngos)
	}
	return ngos[:n], nil
}

func rankLess(a, b domain.NGO) bool {
	ra, aOK := a.ApprovalRate()
	rb, bOK := b.ApprovalRate()
	if aOK != bOK {
		return aOK
	}
	if aOK && ra != rb {
		return ra > rb
	}
	if a.TotalRaised != b.TotalRaised {
		return a.TotalRaised > b.TotalRaised
	}
	if a.CompletedWithdrawals != b.CompletedWithdrawals {
		return a.CompletedWithdrawals > b.CompletedWithdrawals
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
