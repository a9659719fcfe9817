package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/apicanary/internal/domain"
	"github.com/hamed0406/apicanary/internal/repo"
)

type Store struct {
	mu     sync.RWMutex
	runs   []domain.RunRecord
	alerts map[string]repo.AlertRecord
}

func New() *Store {
	return &Store{
		runs:   make([]domain.RunRecord, 0, 128),
		alerts: make(map[string]repo.AlertRecord),
	}
}

// ---- RunStore ----

func (m *Store) Append(ctx context.Context, r *domain.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	if r.ID == "" {
		r.ID = domain.RunID(r.StartedAt.UTC().Format("20060102T150405.000000000"))
	}
	m.runs = append(m.runs, *r)
	return nil
}

func (m *Store) Latest(ctx context.Context) (*domain.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.runs) == 0 {
		return nil, nil
	}
	r := m.runs[len(m.runs)-1]
	return &r, nil
}

func (m *Store) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}
	out := make([]domain.RunRecord, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

// ---- AlertStore ----

func (m *Store) Get(ctx context.Context, canary string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[canary]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, canary string, lastState bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	m.alerts[canary] = repo.AlertRecord{Canary: canary, LastState: lastState, LastSentAt: ts}
	return nil
}
