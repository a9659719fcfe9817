package repo

import (
	"context"

	"github.com/hamed0406/apicanary/internal/domain"
)

// RunStore keeps the history of canary invocations. Swap in any adapter.
type RunStore interface {
	Append(ctx context.Context, r *domain.RunRecord) error
	// Latest returns nil, nil when nothing has run yet.
	Latest(ctx context.Context) (*domain.RunRecord, error)
	// List returns at most limit records, newest first.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)
}
