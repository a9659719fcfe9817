package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/apicanary/internal/domain"
	"github.com/hamed0406/apicanary/internal/notify"
	"github.com/hamed0406/apicanary/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
}

// Alerter turns pass/fail transitions of a canary into notifications.
type Alerter struct {
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(alertDB repo.AlertStore, notifier notify.Notifier, cfg AlerterConfig) *Alerter {
	return &Alerter{
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// CanaryKey identifies a canary's alert state.
func CanaryKey(project, environment string) string {
	return project + "/" + environment
}

// Observe records the outcome of one run and notifies when the state flipped.
// It reports whether a notification was sent.
func (a *Alerter) Observe(ctx context.Context, r domain.RunRecord) (bool, error) {
	key := CanaryKey(r.Project, r.Environment)
	prev, err := a.alertDB.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("alert state: %w", err)
	}
	now := a.now()

	// Has the pass/fail state changed compared to what we last recorded?
	stateChanged := prev == nil || prev.LastState != r.Success

	// Cooldown only matters for failure alerts (suppresses flapping).
	cooled := true
	if prev != nil && prev.LastSentAt != nil {
		cooled = now.Sub(*prev.LastSentAt) >= a.cfg.Cooldown
	}

	failAlert := stateChanged && !r.Success && cooled
	// A first-ever passing run is not a recovery.
	recoveryAlert := stateChanged && prev != nil && r.Success && a.cfg.AlertOnRecovery

	if failAlert || recoveryAlert {
		title := "Canary FAILING: " + key
		if r.Success {
			title = "Canary RECOVERED: " + key
		}
		// An unsent alert leaves the stored state alone so the next run retries.
		if err := a.notifier.Send(ctx, title, alertText(r)); err != nil {
			return false, fmt.Errorf("send alert: %w", err)
		}
		if err := a.alertDB.Set(ctx, key, r.Success, now); err != nil {
			return true, fmt.Errorf("alert state: %w", err)
		}
		return true, nil
	}

	// A failure held back by the cooldown stays pending: the stored state
	// keeps saying "passing" until the FAILING alert actually goes out.
	if stateChanged && !r.Success {
		return false, nil
	}

	// Passing with recovery alerts off, or the first-ever run: remember it.
	if stateChanged {
		var sent time.Time
		if prev != nil && prev.LastSentAt != nil {
			sent = *prev.LastSentAt
		}
		if err := a.alertDB.Set(ctx, key, r.Success, sent); err != nil {
			return false, fmt.Errorf("alert state: %w", err)
		}
	}
	return false, nil
}

func alertText(r domain.RunRecord) string {
	status := "n/a"
	if r.StatusCode != 0 {
		status = fmt.Sprintf("%d", r.StatusCode)
	}
	reason := r.Message
	if reason == "" {
		reason = "ok"
	}
	return fmt.Sprintf(
		"Endpoint: %s\nHTTP: %s\nLatency: %d ms\nReason: %s\nStarted: %s",
		r.Endpoint, status, r.LatencyMS, reason, r.StartedAt.Format(time.RFC3339),
	)
}
