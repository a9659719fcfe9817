package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hamed0406/apicanary/internal/config"
	"github.com/hamed0406/apicanary/internal/metrics"
	"github.com/hamed0406/apicanary/internal/notify"
	"github.com/hamed0406/apicanary/internal/probe"
	"github.com/hamed0406/apicanary/internal/repo"
	"github.com/hamed0406/apicanary/internal/repo/memory"
	pg "github.com/hamed0406/apicanary/internal/repo/postgres"
	"github.com/hamed0406/apicanary/internal/repo/sqlite"
	"github.com/hamed0406/apicanary/internal/scheduler"
)

type app struct {
	host    *scheduler.Host
	runs    repo.RunStore
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp wires the probe into its host. reg may be nil when nothing scrapes.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{}
	for _, w := range cfg.Warnings {
		logger.Warn("config_fallback", zap.String("detail", w))
	}

	pub := metrics.Multi{metrics.NewLogPublisher(logger)}
	if reg != nil {
		pp, err := metrics.NewPrometheusPublisher(reg, cfg.Project, cfg.Environment)
		if err != nil {
			return nil, err
		}
		pub = append(pub, pp)
	}
	if cfg.InfluxURL != "" {
		ip := metrics.NewInfluxPublisher(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket, cfg.Project, cfg.Environment)
		pub = append(pub, ip)
		a.closers = append(a.closers, ip.Close)
	}

	runs, alerts, closeStore, err := openStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	a.runs = runs
	a.closers = append(a.closers, closeStore)

	var alerter *scheduler.Alerter
	if slack := notify.NewSlack(cfg.SlackWebhook, cfg.HTTPTimeout); slack != nil {
		alerter = scheduler.NewAlerter(alerts, slack, scheduler.AlerterConfig{
			AlertOnRecovery: cfg.AlertOnRecovery,
			Cooldown:        cfg.AlertCooldown,
		})
	}

	runner := probe.NewRunner(cfg.Probe(), probe.NewHTTPChecker(), pub, logger)
	runner.DNS = probe.NewDNSChecker("")

	a.host = scheduler.NewHost(logger, runner, runner.Config, runs, alerter, cfg.HTTPTimeout)
	return a, nil
}

// openStore picks a backend from DATABASE_URL: empty is in-memory,
// postgres:// and postgresql:// use pgx, sqlite://path or a *.db path use SQLite.
func openStore(ctx context.Context, dsn string, logger *zap.Logger) (repo.RunStore, repo.AlertStore, func(), error) {
	switch {
	case dsn == "":
		s := memory.New()
		return s, s, func() {}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		s, err := pg.New(ctx, dsn, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, nil, nil, err
		}
		return s, s, s.Close, nil
	case strings.HasPrefix(dsn, "sqlite://"), strings.HasSuffix(dsn, ".db"):
		s, err := sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", dsn)
	}
}
