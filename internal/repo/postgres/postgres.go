package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/apicanary/internal/domain"
	"github.com/hamed0406/apicanary/internal/repo"
)

var _ repo.RunStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

// Schema is applied by Migrate; safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS canary_runs (
  id          TEXT PRIMARY KEY,
  project     TEXT NOT NULL,
  environment TEXT NOT NULL,
  endpoint    TEXT NOT NULL,
  success     BOOLEAN NOT NULL,
  status_code INTEGER NULL,
  latency_ms  BIGINT NOT NULL,
  error_kind  TEXT NOT NULL DEFAULT '',
  message     TEXT NOT NULL DEFAULT '',
  started_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_canary_runs_started_at ON canary_runs (started_at DESC);

CREATE TABLE IF NOT EXISTS canary_alerts (
  canary       TEXT PRIMARY KEY,
  last_state   BOOLEAN NOT NULL,
  last_sent_at TIMESTAMPTZ NULL
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("postgres_schema_ready")
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- RunStore ----

func (s *Store) Append(ctx context.Context, r *domain.RunRecord) error {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	if r.ID == "" {
		r.ID = domain.RunID(makeID(r.StartedAt))
	}
	var statusPtr *int
	if r.StatusCode != 0 {
		statusPtr = &r.StatusCode
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO canary_runs
		   (id, project, environment, endpoint, success, status_code, latency_ms, error_kind, message, started_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(r.ID), r.Project, r.Environment, r.Endpoint, r.Success, statusPtr,
		r.LatencyMS, string(r.ErrorKind), r.Message, r.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectRuns = `
SELECT id, project, environment, endpoint, success, status_code, latency_ms, error_kind, message, started_at
  FROM canary_runs
 ORDER BY started_at DESC, id DESC`

func (s *Store) Latest(ctx context.Context) (*domain.RunRecord, error) {
	rec, err := scanRun(s.pool.QueryRow(ctx, selectRuns+` LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &rec, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, selectRuns+` LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRun(row pgx.Row) (domain.RunRecord, error) {
	var (
		r      domain.RunRecord
		id     string
		kind   string
		status *int32
	)
	err := row.Scan(&id, &r.Project, &r.Environment, &r.Endpoint, &r.Success,
		&status, &r.LatencyMS, &kind, &r.Message, &r.StartedAt)
	if err != nil {
		return domain.RunRecord{}, err
	}
	r.ID = domain.RunID(id)
	r.ErrorKind = domain.ErrorKind(kind)
	if status != nil {
		r.StatusCode = int(*status)
	}
	return r, nil
}

// ID format similar to memory store: 20060102Thhmmss.nnnnnnnnn
func makeID(t time.Time) string {
	t = t.UTC()
	return t.Format("20060102T150405.") + fmt.Sprintf("%09d", t.Nanosecond())
}
