package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// LedgerPG implements domain.LedgerStore on PostgreSQL. Single-row
// reads and writes go through the logging SQL runner; composite
// operations run inside one transaction so they commit atomically.
// Version predicates on the campaign row provide the optimistic
// concurrency the service retries on.
type LedgerPG struct {
	pool *pgxpool.Pool
	sql  *infra.SQLRunner
}

// NewLedgerPG creates the Postgres ledger store.
func NewLedgerPG(pool *pgxpool.Pool, logger zerolog.Logger) *LedgerPG {
	return &LedgerPG{pool: pool, sql: infra.NewSQLRunner(pool, logger)}
}

func (s *LedgerPG) CreateNGO(ctx context.Context, ngo *domain.NGO) error {
	_, err := s.sql.Exec(ctx, sqlinline.QInsertNGO,
		ngo.ID, ngo.Name, ngo.Description, ngo.Location, ngo.CreatedAt)
	return err
}

func (s *LedgerPG) GetNGO(ctx context.Context, id string) (*domain.NGO, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QGetNGO, id)
	ngo, err := scanNGO(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ngo %s: %w", id, domain.ErrNotFound)
	}
	return ngo, err
}

func (s *LedgerPG) ListNGOs(ctx context.Context) ([]domain.NGO, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListNGOs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.NGO
	for rows.Next() {
		ngo, err := scanNGO(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *ngo)
	}
	return items, rows.Err()
}

func (s *LedgerPG) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	if _, err := s.GetNGO(ctx, c.NGOID); err != nil {
		return err
	}
	_, err := s.sql.Exec(ctx, sqlinline.QInsertCampaign,
		c.ID, c.NGOID, c.Title, c.Description, c.Purpose, c.Location,
		c.TargetAmount, c.StartDate, c.EndDate, string(c.Status), c.CreatedAt)
	return err
}

func (s *LedgerPG) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QGetCampaign, id)
	c, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campaign %s: %w", id, domain.ErrNotFound)
	}
	return c, err
}

func (s *LedgerPG) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListCampaigns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

func (s *LedgerPG) TransitionCampaign(ctx context.Context, id string, from, to domain.CampaignStatus) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QTransitionCampaign, id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetCampaign(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("campaign %s is not %s: %w", id, from, domain.ErrStateConflict)
	}
	return nil
}

func (s *LedgerPG) RecordDonation(ctx context.Context, d *domain.Donation, c *domain.Campaign) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, infra.TrimMarker(sqlinline.QApplyCampaignDonation),
			c.ID, c.RaisedAmount, string(c.Status), c.Version)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return s.campaignWriteConflict(ctx, c.ID)
		}
		if _, err := tx.Exec(ctx, infra.TrimMarker(sqlinline.QInsertDonation),
			d.ID, d.CampaignID, d.DonorID, d.Amount, d.Anonymous, d.Country, d.CreatedAt); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, infra.TrimMarker(sqlinline.QAddNGORaised), c.NGOID, d.Amount)
		return err
	})
}

func (s *LedgerPG) ListDonations(ctx context.Context, campaignID string) ([]domain.Donation, error) {
	if _, err := s.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	rows, err := s.sql.Query(ctx, sqlinline.QListDonations, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.CampaignID, &d.DonorID, &d.Amount, &d.Anonymous, &d.Country, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (s *LedgerPG) EligibleDonors(ctx context.Context, campaignID string, before time.Time) (map[string]struct{}, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QEligibleDonors, campaignID, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donors := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		donors[id] = struct{}{}
	}
	return donors, rows.Err()
}

func (s *LedgerPG) CreateWithdrawal(ctx context.Context, r *domain.WithdrawalRequest, campaignVersion int64) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, infra.TrimMarker(sqlinline.QBumpCampaignVersion), r.CampaignID, campaignVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return s.campaignWriteConflict(ctx, r.CampaignID)
		}
		if _, err := tx.Exec(ctx, infra.TrimMarker(sqlinline.QInsertWithdrawal),
			r.ID, r.CampaignID, r.Amount, r.Purpose, string(r.Status), r.CreatedAt, r.VoteDeadline); err != nil {
			return err
		}
		for donor := range r.EligibleVoters {
			if _, err := tx.Exec(ctx, infra.TrimMarker(sqlinline.QInsertWithdrawalVoter), r.ID, donor); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *LedgerPG) GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QGetWithdrawal, id)
	r, err := scanWithdrawal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("withdrawal %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if r.EligibleVoters, err = s.withdrawalVoters(ctx, id); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *LedgerPG) ListWithdrawalsByCampaign(ctx context.Context, campaignID string) ([]domain.WithdrawalRequest, error) {
	if _, err := s.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.listWithdrawals(ctx, sqlinline.QListWithdrawalsByCampaign, campaignID)
}

func (s *LedgerPG) ListWithdrawals(ctx context.Context) ([]domain.WithdrawalRequest, error) {
	return s.listWithdrawals(ctx, sqlinline.QListWithdrawals)
}

func (s *LedgerPG) listWithdrawals(ctx context.Context, query string, args ...any) ([]domain.WithdrawalRequest, error) {
	rows, err := s.sql.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.WithdrawalRequest
	for rows.Next() {
		r, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].EligibleVoters, err = s.withdrawalVoters(ctx, items[i].ID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *LedgerPG) TransitionWithdrawal(ctx context.Context, id string, from, to domain.WithdrawalStatus) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QTransitionWithdrawal, id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		r, err := s.GetWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("withdrawal %s is %s: %w", id, r.Status, domain.ErrStateConflict)
	}
	return nil
}

func (s *LedgerPG) CancelWithdrawal(ctx context.Context, id string) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QCancelWithdrawal, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	r, err := s.GetWithdrawal(ctx, id)
	if err != nil {
		return err
	}
	if r.Status != domain.WithdrawalVoting {
		return fmt.Errorf("withdrawal %s is %s: %w", id, r.Status, domain.ErrStateConflict)
	}
	return fmt.Errorf("withdrawal %s: %w", id, domain.ErrVotesCast)
}

func (s *LedgerPG) ExecuteWithdrawal(ctx context.Context, r *domain.WithdrawalRequest, c *domain.Campaign) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, infra.TrimMarker(sqlinline.QTransitionWithdrawal),
			r.ID, string(domain.WithdrawalApproved), string(domain.WithdrawalExecuted))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			cur, err := s.GetWithdrawal(ctx, r.ID)
			if err != nil {
				return err
			}
			return fmt.Errorf("withdrawal %s is %s: %w", r.ID, cur.Status, domain.ErrStateConflict)
		}
		tag, err = tx.Exec(ctx, infra.TrimMarker(sqlinline.QApplyCampaignExecution),
			c.ID, c.ExecutedAmount, c.Version)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return s.campaignWriteConflict(ctx, c.ID)
		}
		_, err = tx.Exec(ctx, infra.TrimMarker(sqlinline.QIncrementNGOCompleted), c.NGOID)
		return err
	})
}

func (s *LedgerPG) UpsertVote(ctx context.Context, v *domain.Vote) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		status, err := lockWithdrawal(ctx, tx, v.RequestID)
		if err != nil {
			return err
		}
		if status != domain.WithdrawalVoting {
			return fmt.Errorf("withdrawal %s is %s: %w", v.RequestID, status, domain.ErrStateConflict)
		}
		_, err = tx.Exec(ctx, infra.TrimMarker(sqlinline.QUpsertVote),
			v.RequestID, v.DonorID, string(v.Choice), v.CastAt)
		return err
	})
}

// ResolveWithdrawal holds the request row lock from the tally through
// the status write. Vote writes take the same lock, so a ballot either
// commits before the tally and is counted, or waits and then fails the
// voting-state check once the outcome is in.
func (s *LedgerPG) ResolveWithdrawal(ctx context.Context, id string, decide func(domain.Tally) domain.WithdrawalStatus) (domain.WithdrawalStatus, domain.Tally, error) {
	var outcome domain.WithdrawalStatus
	var tally domain.Tally
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		status, err := lockWithdrawal(ctx, tx, id)
		if err != nil {
			return err
		}
		if status != domain.WithdrawalVoting {
			return fmt.Errorf("withdrawal %s is %s: %w", id, status, domain.ErrStateConflict)
		}
		var eligible int
		if err := tx.QueryRow(ctx, infra.TrimMarker(sqlinline.QCountWithdrawalVoters), id).Scan(&eligible); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, infra.TrimMarker(sqlinline.QListVotes), id)
		if err != nil {
			return err
		}
		for rows.Next() {
			var requestID, donorID, choice string
			var castAt time.Time
			if err := rows.Scan(&requestID, &donorID, &choice, &castAt); err != nil {
				rows.Close()
				return err
			}
			switch domain.VoteChoice(choice) {
			case domain.VoteApprove:
				tally.Approve++
			case domain.VoteReject:
				tally.Reject++
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		tally.Abstain = eligible - tally.Respondents()
		if tally.Abstain < 0 {
			tally.Abstain = 0
		}
		outcome = decide(tally)
		_, err = tx.Exec(ctx, infra.TrimMarker(sqlinline.QSetWithdrawalStatus), id, string(outcome))
		return err
	})
	if err != nil {
		return "", domain.Tally{}, err
	}
	return outcome, tally, nil
}

func lockWithdrawal(ctx context.Context, tx pgx.Tx, id string) (domain.WithdrawalStatus, error) {
	var status string
	err := tx.QueryRow(ctx, infra.TrimMarker(sqlinline.QLockWithdrawal), id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("withdrawal %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return domain.WithdrawalStatus(status), nil
}

func (s *LedgerPG) ListVotes(ctx context.Context, requestID string) ([]domain.Vote, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListVotes, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Vote
	for rows.Next() {
		var v domain.Vote
		var choice string
		if err := rows.Scan(&v.RequestID, &v.DonorID, &choice, &v.CastAt); err != nil {
			return nil, err
		}
		v.Choice = domain.VoteChoice(choice)
		items = append(items, v)
	}
	return items, rows.Err()
}

// SetNGOVerified flips the verification flag; the admin CLI is the only
// caller.
func (s *LedgerPG) SetNGOVerified(ctx context.Context, id string, verified bool) (string, error) {
	var outID, name string
	var flag bool
	row := s.sql.QueryRow(ctx, sqlinline.QSetNGOVerified, id, verified)
	if err := row.Scan(&outID, &name, &flag); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("ngo %s: %w", id, domain.ErrNotFound)
		}
		return "", err
	}
	return name, nil
}

func (s *LedgerPG) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// campaignWriteConflict classifies a zero-row campaign update.
func (s *LedgerPG) campaignWriteConflict(ctx context.Context, id string) error {
	if _, err := s.GetCampaign(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("campaign %s: %w", id, domain.ErrVersionConflict)
}

func (s *LedgerPG) withdrawalVoters(ctx context.Context, requestID string) (map[string]struct{}, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListWithdrawalVoters, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	voters := make(map[string]struct{})
	for rows.Next() {
		var donor string
		if err := rows.Scan(&donor); err != nil {
			return nil, err
		}
		voters[donor] = struct{}{}
	}
	return voters, rows.Err()
}

func scanNGO(row pgx.Row) (*domain.NGO, error) {
	var n domain.NGO
	if err := row.Scan(&n.ID, &n.Name, &n.Description, &n.Location, &n.Verified,
		&n.CompletedWithdrawals, &n.TotalRaised, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var c domain.Campaign
	var status string
	if err := row.Scan(&c.ID, &c.NGOID, &c.Title, &c.Description, &c.Purpose, &c.Location,
		&c.TargetAmount, &c.RaisedAmount, &c.ExecutedAmount,
		&c.StartDate, &c.EndDate, &status, &c.Version, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Status = domain.CampaignStatus(status)
	return &c, nil
}

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	var r domain.WithdrawalRequest
	var status string
	if err := row.Scan(&r.ID, &r.CampaignID, &r.Amount, &r.Purpose, &status, &r.CreatedAt, &r.VoteDeadline); err != nil {
		return nil, err
	}
	r.Status = domain.WithdrawalStatus(status)
	return &r, nil
}

var _ domain.LedgerStore = (*LedgerPG)(nil)
