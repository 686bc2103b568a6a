package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"server/internal/domain"
)

func seed(t *testing.T) (*MemoryStore, *domain.Campaign) {
	t.Helper()
	s := NewMemoryStore()
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.CreateNGO(ctx, &domain.NGO{ID: "ngo-1", Name: "Helping Hands", CreatedAt: created}); err != nil {
		t.Fatalf("create ngo: %v", err)
	}
	c := &domain.Campaign{
		ID:           "camp-1",
		NGOID:        "ngo-1",
		Title:        "Clean Water",
		TargetAmount: 1000,
		Status:       domain.CampaignActive,
		StartDate:    created,
		EndDate:      created.Add(90 * 24 * time.Hour),
		CreatedAt:    created,
	}
	if err := s.CreateCampaign(ctx, c); err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return s, c
}

func TestCreateCampaignRequiresNGO(t *testing.T) {
	s := NewMemoryStore()
	err := s.CreateCampaign(context.Background(), &domain.Campaign{ID: "c", NGOID: "missing"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRecordDonationVersionCheck(t *testing.T) {
	s, c := seed(t)
	ctx := context.Background()

	d := &domain.Donation{ID: "don-1", CampaignID: c.ID, DonorID: "donor-a", Amount: 100, CreatedAt: time.Now()}
	upd := *c
	upd.RaisedAmount = 100
	if err := s.RecordDonation(ctx, d, &upd); err != nil {
		t.Fatalf("record donation: %v", err)
	}

	// Same stale version again must conflict.
	stale := *c
	stale.RaisedAmount = 200
	err := s.RecordDonation(ctx, &domain.Donation{ID: "don-2", CampaignID: c.ID, DonorID: "donor-b", Amount: 100}, &stale)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("stale write: got %v, want ErrVersionConflict", err)
	}

	got, err := s.GetCampaign(ctx, c.ID)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if got.RaisedAmount != 100 {
		t.Fatalf("raised = %d, want the single committed donation", got.RaisedAmount)
	}
	if got.Version != c.Version+1 {
		t.Fatalf("version = %d, want %d", got.Version, c.Version+1)
	}
}

func TestCreateWithdrawalBumpsCampaignVersion(t *testing.T) {
	s, c := seed(t)
	ctx := context.Background()

	r := &domain.WithdrawalRequest{
		ID:             "wr-1",
		CampaignID:     c.ID,
		Amount:         100,
		Status:         domain.WithdrawalVoting,
		EligibleVoters: map[string]struct{}{"donor-a": {}},
	}
	if err := s.CreateWithdrawal(ctx, r, c.Version); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}

	// The stale version loses, as a concurrent second reservation would.
	err := s.CreateWithdrawal(ctx, &domain.WithdrawalRequest{ID: "wr-2", CampaignID: c.ID}, c.Version)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("stale reserve: got %v, want ErrVersionConflict", err)
	}

	// Mutating the caller's voter set must not leak into the store.
	r.EligibleVoters["intruder"] = struct{}{}
	got, err := s.GetWithdrawal(ctx, "wr-1")
	if err != nil {
		t.Fatalf("get withdrawal: %v", err)
	}
	if _, ok := got.EligibleVoters["intruder"]; ok {
		t.Fatal("eligible-voter snapshot aliased caller memory")
	}
}

func TestTransitionWithdrawalCAS(t *testing.T) {
	s, c := seed(t)
	ctx := context.Background()
	r := &domain.WithdrawalRequest{ID: "wr-1", CampaignID: c.ID, Status: domain.WithdrawalVoting}
	if err := s.CreateWithdrawal(ctx, r, c.Version); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}

	if err := s.TransitionWithdrawal(ctx, "wr-1", domain.WithdrawalVoting, domain.WithdrawalApproved); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	err := s.TransitionWithdrawal(ctx, "wr-1", domain.WithdrawalVoting, domain.WithdrawalRejected)
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("second transition: got %v, want ErrStateConflict", err)
	}
	got, _ := s.GetWithdrawal(ctx, "wr-1")
	if got.Status != domain.WithdrawalApproved {
		t.Fatalf("status = %s, want the first writer's approved", got.Status)
	}
}

func TestResolveWithdrawalSettlesOnce(t *testing.T) {
	s, c := seed(t)
	ctx := context.Background()
	r := &domain.WithdrawalRequest{
		ID:             "wr-1",
		CampaignID:     c.ID,
		Status:         domain.WithdrawalVoting,
		EligibleVoters: map[string]struct{}{"donor-a": {}, "donor-b": {}},
	}
	if err := s.CreateWithdrawal(ctx, r, c.Version); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	if err := s.UpsertVote(ctx, &domain.Vote{RequestID: "wr-1", DonorID: "donor-a", Choice: domain.VoteApprove}); err != nil {
		t.Fatalf("vote: %v", err)
	}

	decide := func(tally domain.Tally) domain.WithdrawalStatus {
		if tally.Passed() {
			return domain.WithdrawalApproved
		}
		return domain.WithdrawalRejected
	}
	out, tally, err := s.ResolveWithdrawal(ctx, "wr-1", decide)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out != domain.WithdrawalApproved {
		t.Fatalf("outcome = %s, want approved", out)
	}
	if tally.Approve != 1 || tally.Reject != 0 || tally.Abstain != 1 {
		t.Fatalf("tally = %+v, want 1 approve, 1 abstain", tally)
	}

	// A second settlement attempt loses to the first.
	if _, _, err := s.ResolveWithdrawal(ctx, "wr-1", decide); !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("re-resolve: got %v, want ErrStateConflict", err)
	}
	// And the vote set is frozen with the outcome.
	err = s.UpsertVote(ctx, &domain.Vote{RequestID: "wr-1", DonorID: "donor-b", Choice: domain.VoteReject})
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("vote after settlement: got %v, want ErrStateConflict", err)
	}
}

func TestUpsertVoteFrozenOutsideVoting(t *testing.T) {
	s, c := seed(t)
	ctx := context.Background()
	r := &domain.WithdrawalRequest{ID: "wr-1", CampaignID: c.ID, Status: domain.WithdrawalVoting}
	if err := s.CreateWithdrawal(ctx, r, c.Version); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}

	v := &domain.Vote{RequestID: "wr-1", DonorID: "donor-a", Choice: domain.VoteApprove}
	if err := s.UpsertVote(ctx, v); err != nil {
		t.Fatalf("vote while voting: %v", err)
	}
	if err := s.TransitionWithdrawal(ctx, "wr-1", domain.WithdrawalVoting, domain.WithdrawalRejected); err != nil {
		t.Fatalf("transition: %v", err)
	}
	err := s.UpsertVote(ctx, &domain.Vote{RequestID: "wr-1", DonorID: "donor-a", Choice: domain.VoteReject})
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("vote after resolution: got %v, want ErrStateConflict", err)
	}

	votes, err := s.ListVotes(ctx, "wr-1")
	if err != nil {
		t.Fatalf("list votes: %v", err)
	}
	if len(votes) != 1 || votes[0].Choice != domain.VoteApprove {
		t.Fatalf("votes = %v, want the single frozen approve", votes)
	}
}

func TestCancelWithdrawalGuards(t *testing.T) {
	s, c := seed(t)
	ctx := context.Background()
	r := &domain.WithdrawalRequest{ID: "wr-1", CampaignID: c.ID, Status: domain.WithdrawalVoting}
	if err := s.CreateWithdrawal(ctx, r, c.Version); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	if err := s.UpsertVote(ctx, &domain.Vote{RequestID: "wr-1", DonorID: "donor-a", Choice: domain.VoteApprove}); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := s.CancelWithdrawal(ctx, "wr-1"); !errors.Is(err, domain.ErrVotesCast) {
		t.Fatalf("cancel with votes: got %v, want ErrVotesCast", err)
	}
}

func TestExecuteWithdrawalAtomicity(t *testing.T) {
	s, c := seed(t)
	ctx := context.Background()

	d := &domain.Donation{ID: "don-1", CampaignID: c.ID, DonorID: "donor-a", Amount: 500}
	upd := *c
	upd.RaisedAmount = 500
	if err := s.RecordDonation(ctx, d, &upd); err != nil {
		t.Fatalf("record donation: %v", err)
	}
	cur, _ := s.GetCampaign(ctx, c.ID)

	r := &domain.WithdrawalRequest{ID: "wr-1", CampaignID: c.ID, Amount: 300, Status: domain.WithdrawalVoting}
	if err := s.CreateWithdrawal(ctx, r, cur.Version); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	if err := s.TransitionWithdrawal(ctx, "wr-1", domain.WithdrawalVoting, domain.WithdrawalApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	cur, _ = s.GetCampaign(ctx, c.ID)
	cur.ExecutedAmount += 300
	if err := s.ExecuteWithdrawal(ctx, r, cur); err != nil {
		t.Fatalf("execute: %v", err)
	}

	// Re-execution conflicts and changes nothing.
	again, _ := s.GetCampaign(ctx, c.ID)
	again.ExecutedAmount += 300
	if err := s.ExecuteWithdrawal(ctx, r, again); !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("re-execute: got %v, want ErrStateConflict", err)
	}

	got, _ := s.GetCampaign(ctx, c.ID)
	if got.ExecutedAmount != 300 {
		t.Fatalf("executed = %d, want 300", got.ExecutedAmount)
	}
	ngo, err := s.GetNGO(ctx, "ngo-1")
	if err != nil {
		t.Fatalf("get ngo: %v", err)
	}
	if ngo.CompletedWithdrawals != 1 {
		t.Fatalf("completed withdrawals = %d, want 1", ngo.CompletedWithdrawals)
	}
}
