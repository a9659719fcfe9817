package repo

import (
	"context"
	"time"
)

// AlertRecord holds the last pass/fail state we saw for a canary and the last
// time a notification went out (used for cooldown).
type AlertRecord struct {
	Canary     string
	LastState  bool
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, canary string) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() we store NULL for last_sent_at.
	Set(ctx context.Context, canary string, lastState bool, sentAt time.Time) error
}
