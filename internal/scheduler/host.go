package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/apicanary/internal/domain"
	"github.com/hamed0406/apicanary/internal/probe"
	"github.com/hamed0406/apicanary/internal/repo"
)

// Prober is the canary entry point: one request per call.
type Prober interface {
	Run(ctx context.Context) (domain.Result, error)
}

// Host plays the part of a managed canary runtime: it decides when the probe
// runs, bounds each run with a deadline, and records what happened.
type Host struct {
	Logger  *zap.Logger
	Prober  Prober
	Probe   domain.ProbeConfig
	Runs    repo.RunStore
	Alerter *Alerter // optional
	Timeout time.Duration

	mu   sync.Mutex // one invocation at a time
	cron *cron.Cron
}

func NewHost(
	logger *zap.Logger,
	prober Prober,
	probeCfg domain.ProbeConfig,
	runs repo.RunStore,
	alerter *Alerter,
	timeout time.Duration,
) *Host {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Host{
		Logger:  logger,
		Prober:  prober,
		Probe:   probeCfg,
		Runs:    runs,
		Alerter: alerter,
		Timeout: timeout,
	}
}

// Invoke runs the probe once and returns the stored record together with the
// probe's own error, untouched.
func (h *Host) Invoke(ctx context.Context) (domain.RunRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	started := time.Now().UTC()
	res, runErr := h.Prober.Run(cctx)
	rec := h.record(started, res, runErr)

	if h.Runs != nil {
		if err := h.Runs.Append(ctx, &rec); err != nil {
			h.Logger.Warn("host_append_error", zap.Error(err))
		}
	}
	if h.Alerter != nil {
		if sent, err := h.Alerter.Observe(ctx, rec); err != nil {
			h.Logger.Warn("host_alert_error", zap.Error(err))
		} else if sent {
			h.Logger.Info("host_alert_sent", zap.Bool("success", rec.Success))
		}
	}

	h.Logger.Info("host_invocation_done",
		zap.String("run_id", string(rec.ID)),
		zap.Bool("success", rec.Success),
		zap.Int("status", rec.StatusCode),
		zap.Int64("latency_ms", rec.LatencyMS),
		zap.String("error_kind", string(rec.ErrorKind)),
	)
	return rec, runErr
}

func (h *Host) record(started time.Time, res domain.Result, err error) domain.RunRecord {
	rec := domain.RunRecord{
		Project:     h.Probe.ProjectTag,
		Environment: h.Probe.EnvironmentTag,
		Endpoint:    h.Probe.EndpointURL,
		StartedAt:   started,
	}
	if err == nil {
		rec.Success = res.Success
		rec.StatusCode = res.StatusCode
		rec.LatencyMS = res.LatencyMS
		return rec
	}

	rec.ErrorKind = probe.KindOf(err)
	rec.Message = err.Error()
	var (
		ve *probe.ValidationError
		re *probe.RequestError
	)
	switch {
	case errors.As(err, &ve):
		rec.StatusCode = ve.Actual
		rec.LatencyMS = ve.LatencyMS
	case errors.As(err, &re):
		rec.LatencyMS = re.LatencyMS
	}
	return rec
}

// Start schedules Invoke on a cron spec such as "@every 5m" or "*/5 * * * *".
// Ticks that arrive while a run is still in flight are skipped.
func (h *Host) Start(spec string) error {
	logger := cronLogger{h.Logger.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, func() {
		// the error is already logged and recorded
		_, _ = h.Invoke(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	h.cron = c
	c.Start()
	h.Logger.Info("host_scheduled", zap.String("schedule", spec))
	return nil
}

// Stop halts the schedule and waits for a running invocation to finish or
// ctx to expire.
func (h *Host) Stop(ctx context.Context) {
	if h.cron == nil {
		return
	}
	select {
	case <-h.cron.Stop().Done():
	case <-ctx.Done():
	}
	h.Logger.Info("host_stopped")
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron_"+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron_"+msg, append(keysAndValues, "error", err)...)
}
