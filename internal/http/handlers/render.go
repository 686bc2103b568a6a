package handlers

import (
	"time"

	"server/internal/domain"
	"server/internal/service"
)

// All timestamps leave the API as integer nanoseconds since epoch and
// all amounts as integer smallest-denomination units.

func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func ngoJSON(n domain.NGO) map[string]any {
	return map[string]any{
		"id":                    n.ID,
		"name":                  n.Name,
		"description":           n.Description,
		"location":              n.Location,
		"verified":              n.Verified,
		"completed_withdrawals": n.CompletedWithdrawals,
		"total_raised":          n.TotalRaised,
		"created_at":            nanos(n.CreatedAt),
	}
}

func campaignJSON(c domain.Campaign) map[string]any {
	return map[string]any{
		"id":              c.ID,
		"ngo_id":          c.NGOID,
		"title":           c.Title,
		"description":     c.Description,
		"purpose":         c.Purpose,
		"location":        c.Location,
		"target_amount":   c.TargetAmount,
		"raised_amount":   c.RaisedAmount,
		"executed_amount": c.ExecutedAmount,
		"status":          string(c.Status),
		"start_date":      nanos(c.StartDate),
		"end_date":        nanos(c.EndDate),
		"created_at":      nanos(c.CreatedAt),
	}
}

func donationJSON(d domain.Donation) map[string]any {
	var donor any
	if !d.Anonymous {
		donor = d.DonorID
	}
	return map[string]any{
		"id":          d.ID,
		"campaign_id": d.CampaignID,
		"donor_id":    donor,
		"amount":      d.Amount,
		"anonymous":   d.Anonymous,
		"country":     d.Country,
		"created_at":  nanos(d.CreatedAt),
	}
}

func withdrawalJSON(r domain.WithdrawalRequest, t domain.Tally) map[string]any {
	return map[string]any{
		"id":              r.ID,
		"campaign_id":     r.CampaignID,
		"amount":          r.Amount,
		"purpose":         r.Purpose,
		"status":          string(r.Status),
		"created_at":      nanos(r.CreatedAt),
		"vote_deadline":   nanos(r.VoteDeadline),
		"eligible_voters": len(r.EligibleVoters),
		"tally": map[string]any{
			"approve":       t.Approve,
			"reject":        t.Reject,
			"abstain":       t.Abstain,
			"approval_rate": t.ApprovalRate(),
		},
	}
}

func summaryJSON(s *service.Summary) map[string]any {
	return map[string]any{
		"ngos":             s.NGOs,
		"campaigns":        s.Campaigns,
		"active_campaigns": s.ActiveCampaigns,
		"total_raised":     s.TotalRaised,
		"total_released":   s.TotalReleased,
	}
}
