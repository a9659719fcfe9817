package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hamed0406/apicanary/internal/domain"
	"github.com/hamed0406/apicanary/internal/repo"
)

var _ repo.RunStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS canary_runs (
  id          TEXT PRIMARY KEY,
  project     TEXT NOT NULL,
  environment TEXT NOT NULL,
  endpoint    TEXT NOT NULL,
  success     INTEGER NOT NULL,
  status_code INTEGER NULL,
  latency_ms  INTEGER NOT NULL,
  error_kind  TEXT NOT NULL DEFAULT '',
  message     TEXT NOT NULL DEFAULT '',
  started_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_canary_runs_started_at ON canary_runs (started_at DESC);

CREATE TABLE IF NOT EXISTS canary_alerts (
  canary       TEXT PRIMARY KEY,
  last_state   INTEGER NOT NULL,
  last_sent_at DATETIME NULL
);`

// Store is a single-file history for hosts without a database server.
type Store struct {
	db *sql.DB
}

// Open creates the file if needed and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", withBusyTimeout(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// withBusyTimeout adds _busy_timeout to the DSN unless the caller set one.
func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000"
}

// ---- RunStore ----

func (s *Store) Append(ctx context.Context, r *domain.RunRecord) error {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	if r.ID == "" {
		r.ID = domain.RunID(r.StartedAt.UTC().Format("20060102T150405.000000000"))
	}
	var status sql.NullInt64
	if r.StatusCode != 0 {
		status = sql.NullInt64{Int64: int64(r.StatusCode), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO canary_runs
		   (id, project, environment, endpoint, success, status_code, latency_ms, error_kind, message, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), r.Project, r.Environment, r.Endpoint, r.Success, status,
		r.LatencyMS, string(r.ErrorKind), r.Message, r.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectRuns = `
SELECT id, project, environment, endpoint, success, status_code, latency_ms, error_kind, message, started_at
  FROM canary_runs
 ORDER BY started_at DESC, id DESC
 LIMIT ?`

func (s *Store) Latest(ctx context.Context) (*domain.RunRecord, error) {
	out, err := s.List(ctx, 1)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

func (s *Store) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, selectRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		var (
			r      domain.RunRecord
			id     string
			kind   string
			status sql.NullInt64
		)
		if err := rows.Scan(&id, &r.Project, &r.Environment, &r.Endpoint, &r.Success,
			&status, &r.LatencyMS, &kind, &r.Message, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.ID = domain.RunID(id)
		r.ErrorKind = domain.ErrorKind(kind)
		if status.Valid {
			r.StatusCode = int(status.Int64)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---- AlertStore ----

func (s *Store) Get(ctx context.Context, canary string) (*repo.AlertRecord, error) {
	var (
		r        = repo.AlertRecord{Canary: canary}
		lastSent sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT last_state, last_sent_at FROM canary_alerts WHERE canary = ?`, canary,
	).Scan(&r.LastState, &lastSent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastSent.Valid {
		t := lastSent.Time
		r.LastSentAt = &t
	}
	return &r, nil
}

func (s *Store) Set(ctx context.Context, canary string, lastState bool, sentAt time.Time) error {
	var ts sql.NullTime
	if !sentAt.IsZero() {
		ts = sql.NullTime{Time: sentAt.UTC(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO canary_alerts (canary, last_state, last_sent_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (canary)
		 DO UPDATE SET last_state = excluded.last_state, last_sent_at = excluded.last_sent_at`,
		canary, lastState, ts)
	return err
}
