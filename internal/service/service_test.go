package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/ledger"
)

// fixture wires a Service to the in-memory ledger with a controllable
// clock so tests can step across the vote deadline.
type fixture struct {
	svc   *Service
	store *ledger.MemoryStore
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: ledger.NewMemoryStore(),
		now:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.store, zerolog.Nop()).WithClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) ngo(t *testing.T) *domain.NGO {
	t.Helper()
	ngo, err := f.svc.CreateNGO(context.Background(), "Helping Hands", "community relief", "Pune")
	if err != nil {
		t.Fatalf("create ngo: %v", err)
	}
	return ngo
}

func (f *fixture) campaign(t *testing.T, ngoID string, target int64) *domain.Campaign {
	t.Helper()
	c, err := f.svc.CreateCampaign(context.Background(), CreateCampaignInput{
		NGOID:        ngoID,
		Title:        "Clean Water",
		Description:  "wells for two villages",
		Purpose:      "infrastructure",
		Location:     "Pune",
		TargetAmount: target,
		StartDate:    f.now,
		EndDate:      f.now.Add(90 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return c
}

func (f *fixture) donate(t *testing.T, campaignID, donorID string, amount int64) *domain.Campaign {
	t.Helper()
	c, err := f.svc.Donate(context.Background(), campaignID, donorID, amount, false, "")
	if err != nil {
		t.Fatalf("donate %s %d: %v", donorID, amount, err)
	}
	return c
}

// twoDonorRequest builds the recurring scenario: target 1000, donor A
// 600, donor B 400, NGO requests 500.
func twoDonorRequest(t *testing.T, f *fixture) *domain.WithdrawalRequest {
	t.Helper()
	ngo := f.ngo(t)
	c := f.campaign(t, ngo.ID, 1000)
	f.donate(t, c.ID, "donor-a", 600)
	f.advance(time.Minute)
	f.donate(t, c.ID, "donor-b", 400)
	f.advance(time.Minute)
	r, err := f.svc.CreateWithdrawal(context.Background(), c.ID, 500, "field equipment")
	if err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	return r
}
