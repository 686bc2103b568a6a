package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"server/internal/domain"
)

// MemoryStore is an in-memory domain.LedgerStore. It backs tests and
// the memory store driver; all composite operations commit under one
// mutex, so they are atomic with respect to each other.
type MemoryStore struct {
	mu          sync.RWMutex
	ngos        map[string]*domain.NGO
	campaigns   map[string]*domain.Campaign
	donations   map[string][]domain.Donation // keyed by campaign id
	withdrawals map[string]*domain.WithdrawalRequest
	votes       map[string]map[string]domain.Vote // request id -> donor id
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ngos:        make(map[string]*domain.NGO),
		campaigns:   make(map[string]*domain.Campaign),
		donations:   make(map[string][]domain.Donation),
		withdrawals: make(map[string]*domain.WithdrawalRequest),
		votes:       make(map[string]map[string]domain.Vote),
	}
}

func (s *MemoryStore) CreateNGO(_ context.Context, ngo *domain.NGO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ngos[ngo.ID]; ok {
		return fmt.Errorf("ngo %s: %w", ngo.ID, domain.ErrStateConflict)
	}
	cp := *ngo
	s.ngos[ngo.ID] = &cp
	return nil
}

func (s *MemoryStore) GetNGO(_ context.Context, id string) (*domain.NGO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ngo, ok := s.ngos[id]
	if !ok {
		return nil, fmt.Errorf("ngo %s: %w", id, domain.ErrNotFound)
	}
	cp := *ngo
	return &cp, nil
}

func (s *MemoryStore) ListNGOs(_ context.Context) ([]domain.NGO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.NGO, 0, len(s.ngos))
	for _, ngo := range s.ngos {
		out = append(out, *ngo)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CreateCampaign(_ context.Context, c *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ngos[c.NGOID]; !ok {
		return fmt.Errorf("ngo %s: %w", c.NGOID, domain.ErrNotFound)
	}
	if _, ok := s.campaigns[c.ID]; ok {
		return fmt.Errorf("campaign %s: %w", c.ID, domain.ErrStateConflict)
	}
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *MemoryStore) GetCampaign(_ context.Context, id string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.campaignLocked(id)
}

func (s *MemoryStore) campaignLocked(id string) (*domain.Campaign, error) {
	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %s: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListCampaigns(_ context.Context) ([]domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) TransitionCampaign(_ context.Context, id string, from, to domain.CampaignStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign %s: %w", id, domain.ErrNotFound)
	}
	if c.Status != from {
		return fmt.Errorf("campaign %s is %s: %w", id, c.Status, domain.ErrStateConflict)
	}
	c.Status = to
	c.Version++
	return nil
}

func (s *MemoryStore) RecordDonation(_ context.Context, d *domain.Donation, c *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.campaigns[c.ID]
	if !ok {
		return fmt.Errorf("campaign %s: %w", c.ID, domain.ErrNotFound)
	}
	if cur.Version != c.Version {
		return fmt.Errorf("campaign %s: %w", c.ID, domain.ErrVersionConflict)
	}
	ngo, ok := s.ngos[cur.NGOID]
	if !ok {
		return fmt.Errorf("ngo %s: %w", cur.NGOID, domain.ErrNotFound)
	}
	cur.RaisedAmount = c.RaisedAmount
	cur.Status = c.Status
	cur.Version++
	ngo.TotalRaised += d.Amount
	s.donations[d.CampaignID] = append(s.donations[d.CampaignID], *d)
	return nil
}

func (s *MemoryStore) ListDonations(_ context.Context, campaignID string) ([]domain.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.campaigns[campaignID]; !ok {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, domain.ErrNotFound)
	}
	out := make([]domain.Donation, len(s.donations[campaignID]))
	copy(out, s.donations[campaignID])
	return out, nil
}

func (s *MemoryStore) EligibleDonors(_ context.Context, campaignID string, before time.Time) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donors := make(map[string]struct{})
	for _, d := range s.donations[campaignID] {
		if d.CreatedAt.Before(before) {
			donors[d.DonorID] = struct{}{}
		}
	}
	return donors, nil
}

func (s *MemoryStore) CreateWithdrawal(_ context.Context, r *domain.WithdrawalRequest, campaignVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[r.CampaignID]
	if !ok {
		return fmt.Errorf("campaign %s: %w", r.CampaignID, domain.ErrNotFound)
	}
	if c.Version != campaignVersion {
		return fmt.Errorf("campaign %s: %w", r.CampaignID, domain.ErrVersionConflict)
	}
	if _, ok := s.withdrawals[r.ID]; ok {
		return fmt.Errorf("withdrawal %s: %w", r.ID, domain.ErrStateConflict)
	}
	cp := *r
	cp.EligibleVoters = copyVoterSet(r.EligibleVoters)
	s.withdrawals[r.ID] = &cp
	s.votes[r.ID] = make(map[string]domain.Vote)
	c.Version++
	return nil
}

func (s *MemoryStore) GetWithdrawal(_ context.Context, id string) (*domain.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("withdrawal %s: %w", id, domain.ErrNotFound)
	}
	cp := *r
	cp.EligibleVoters = copyVoterSet(r.EligibleVoters)
	return &cp, nil
}

func (s *MemoryStore) ListWithdrawalsByCampaign(_ context.Context, campaignID string) ([]domain.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.campaigns[campaignID]; !ok {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, domain.ErrNotFound)
	}
	var out []domain.WithdrawalRequest
	for _, r := range s.withdrawals {
		if r.CampaignID != campaignID {
			continue
		}
		cp := *r
		cp.EligibleVoters = copyVoterSet(r.EligibleVoters)
		out = append(out, cp)
	}
	sortWithdrawals(out)
	return out, nil
}

func (s *MemoryStore) ListWithdrawals(_ context.Context) ([]domain.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WithdrawalRequest, 0, len(s.withdrawals))
	for _, r := range s.withdrawals {
		cp := *r
		cp.EligibleVoters = copyVoterSet(r.EligibleVoters)
		out = append(out, cp)
	}
	sortWithdrawals(out)
	return out, nil
}

func (s *MemoryStore) TransitionWithdrawal(_ context.Context, id string, from, to domain.WithdrawalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.withdrawals[id]
	if !ok {
		return fmt.Errorf("withdrawal %s: %w", id, domain.ErrNotFound)
	}
	if r.Status != from {
		return fmt.Errorf("withdrawal %s is %s: %w", id, r.Status, domain.ErrStateConflict)
	}
	r.Status = to
	return nil
}

// ResolveWithdrawal tallies and settles under a single lock hold, so a
// concurrent vote either lands before the tally or hits UpsertVote's
// voting-state guard after the status flip.
func (s *MemoryStore) ResolveWithdrawal(_ context.Context, id string, decide func(domain.Tally) domain.WithdrawalStatus) (domain.WithdrawalStatus, domain.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.withdrawals[id]
	if !ok {
		return "", domain.Tally{}, fmt.Errorf("withdrawal %s: %w", id, domain.ErrNotFound)
	}
	if r.Status != domain.WithdrawalVoting {
		return "", domain.Tally{}, fmt.Errorf("withdrawal %s is %s: %w", id, r.Status, domain.ErrStateConflict)
	}
	var t domain.Tally
	for _, v := range s.votes[id] {
		switch v.Choice {
		case domain.VoteApprove:
			t.Approve++
		case domain.VoteReject:
			t.Reject++
		}
	}
	t.Abstain = len(r.EligibleVoters) - t.Respondents()
	if t.Abstain < 0 {
		t.Abstain = 0
	}
	out := decide(t)
	r.Status = out
	return out, t, nil
}

func (s *MemoryStore) CancelWithdrawal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.withdrawals[id]
	if !ok {
		return fmt.Errorf("withdrawal %s: %w", id, domain.ErrNotFound)
	}
	if r.Status != domain.WithdrawalVoting {
		return fmt.Errorf("withdrawal %s is %s: %w", id, r.Status, domain.ErrStateConflict)
	}
	if len(s.votes[id]) > 0 {
		return fmt.Errorf("withdrawal %s: %w", id, domain.ErrVotesCast)
	}
	r.Status = domain.WithdrawalCancelled
	return nil
}

func (s *MemoryStore) ExecuteWithdrawal(_ context.Context, r *domain.WithdrawalRequest, c *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.withdrawals[r.ID]
	if !ok {
		return fmt.Errorf("withdrawal %s: %w", r.ID, domain.ErrNotFound)
	}
	if cur.Status != domain.WithdrawalApproved {
		return fmt.Errorf("withdrawal %s is %s: %w", r.ID, cur.Status, domain.ErrStateConflict)
	}
	camp, ok := s.campaigns[c.ID]
	if !ok {
		return fmt.Errorf("campaign %s: %w", c.ID, domain.ErrNotFound)
	}
	if camp.Version != c.Version {
		return fmt.Errorf("campaign %s: %w", c.ID, domain.ErrVersionConflict)
	}
	ngo, ok := s.ngos[camp.NGOID]
	if !ok {
		return fmt.Errorf("ngo %s: %w", camp.NGOID, domain.ErrNotFound)
	}
	cur.Status = domain.WithdrawalExecuted
	camp.ExecutedAmount = c.ExecutedAmount
	camp.Version++
	ngo.CompletedWithdrawals++
	return nil
}

func (s *MemoryStore) UpsertVote(_ context.Context, v *domain.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.withdrawals[v.RequestID]
	if !ok {
		return fmt.Errorf("withdrawal %s: %w", v.RequestID, domain.ErrNotFound)
	}
	if r.Status != domain.WithdrawalVoting {
		return fmt.Errorf("withdrawal %s is %s: %w", v.RequestID, r.Status, domain.ErrStateConflict)
	}
	s.votes[v.RequestID][v.DonorID] = *v
	return nil
}

func (s *MemoryStore) ListVotes(_ context.Context, requestID string) ([]domain.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.withdrawals[requestID]; !ok {
		return nil, fmt.Errorf("withdrawal %s: %w", requestID, domain.ErrNotFound)
	}
	out := make([]domain.Vote, 0, len(s.votes[requestID]))
	for _, v := range s.votes[requestID] {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonorID < out[j].DonorID })
	return out, nil
}

func copyVoterSet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func sortWithdrawals(items []domain.WithdrawalRequest) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

var _ domain.LedgerStore = (*MemoryStore)(nil)
