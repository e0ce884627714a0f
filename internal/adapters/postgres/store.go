// Package postgres implements the collection server's storage ports on
// PostgreSQL via pgx. Submissions are kept as JSONB keyed by submission id;
// re-submission of the same id overwrites the payload and bumps the attempt
// count.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corey/survey/internal/domain/survey"
	"github.com/corey/survey/internal/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ledgerTimeout bounds allocation ledger queries, whose port has no context.
const ledgerTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS survey_submissions (
	key text primary key,
	submission jsonb not null,
	group_id integer not null,
	received_at timestamptz not null default now(),
	attempts integer not null default 1
);

CREATE INDEX IF NOT EXISTS survey_submissions_received_idx ON survey_submissions(received_at DESC);

CREATE TABLE IF NOT EXISTS survey_allocations (
	stratum text not null,
	group_id integer not null,
	assigned integer not null default 0,
	primary key (stratum, group_id)
);
`

// Store implements ports.SubmissionSink and ports.AllocationLedger.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to url.
func New(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// EnsureSchema creates the tables if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Record upserts sub under its submission id.
func (s *Store) Record(ctx context.Context, sub survey.Submission) error {
	key := sub.SubmissionID
	if key == "" {
		key = "anon-" + uuid.NewString()
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO survey_submissions (key, submission, group_id, received_at, attempts)
VALUES ($1, $2, $3, now(), 1)
ON CONFLICT (key) DO UPDATE SET
	submission = EXCLUDED.submission,
	group_id = EXCLUDED.group_id,
	received_at = now(),
	attempts = survey_submissions.attempts + 1;
`, key, payload, sub.GroupID)
	if err != nil {
		return fmt.Errorf("upsert submission %s: %w", key, err)
	}
	return nil
}

// All returns every stored submission, most recent first.
func (s *Store) All(ctx context.Context) ([]ports.StoredSubmission, error) {
	rows, err := s.pool.Query(ctx, `
SELECT key, submission, received_at, attempts
FROM survey_submissions
ORDER BY received_at DESC, key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []ports.StoredSubmission
	for rows.Next() {
		var (
			rec        ports.StoredSubmission
			raw        []byte
			receivedAt time.Time
		)
		if err := rows.Scan(&rec.Key, &raw, &receivedAt, &rec.Attempts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &rec.Submission); err != nil {
			return nil, fmt.Errorf("unmarshal submission %s: %w", rec.Key, err)
		}
		rec.ReceivedAt = receivedAt.Unix()
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Counts returns group → assignment count for a stratum.
func (s *Store) Counts(stratum string) (map[int]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT group_id, assigned FROM survey_allocations WHERE stratum=$1`, stratum)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var g, n int
		if err := rows.Scan(&g, &n); err != nil {
			return nil, err
		}
		counts[g] = n
	}
	return counts, rows.Err()
}

// Increment adds one assignment of group to stratum.
func (s *Store) Increment(stratum string, group int) error {
	ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
INSERT INTO survey_allocations (stratum, group_id, assigned)
VALUES ($1, $2, 1)
ON CONFLICT (stratum, group_id) DO UPDATE SET assigned = survey_allocations.assigned + 1;
`, stratum, group)
	if err != nil {
		return fmt.Errorf("increment allocation %s/%d: %w", stratum, group, err)
	}
	return nil
}

// Reset truncates both tables. Used by tests.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE survey_submissions, survey_allocations`)
	return err
}
