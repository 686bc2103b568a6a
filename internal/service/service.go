package service

import (
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

const (
	// DefaultVotingWindow is the quorum window for withdrawal requests.
	DefaultVotingWindow = 72 * time.Hour

	// maxWriteRetries bounds the optimistic-retry loops. Conflicts only
	// occur between writers on the same campaign, so a handful of
	// attempts is plenty.
	maxWriteRetries = 5
)

// Service implements the fund-release engine on top of a LedgerStore:
// donation recording, the withdrawal voting state machine, fund release
// and the NGO ranking projection.
type Service struct {
	store        domain.LedgerStore
	log          zerolog.Logger
	now          func() time.Time
	votingWindow time.Duration
}

// New constructs a Service with the default clock and voting window.
func New(store domain.LedgerStore, logger zerolog.Logger) *Service {
	return &Service{
		store:        store,
		log:          logger,
		now:          time.Now,
		votingWindow: DefaultVotingWindow,
	}
}

// WithVotingWindow overrides the quorum window. Zero or negative values
// keep the default.
func (s *Service) WithVotingWindow(d time.Duration) *Service {
	if d > 0 {
		s.votingWindow = d
	}
	return s
}

// WithClock overrides the time source, used by tests to step across the
// vote deadline.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}
