package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/apicanary/internal/config"
	"github.com/hamed0406/apicanary/internal/httpapi"
	apimw "github.com/hamed0406/apicanary/internal/httpapi/middleware"
	"github.com/hamed0406/apicanary/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "canary",
	Short:         "Synthetic HTTP canary: one request, one verdict, four metrics",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Invoke the canary once; exits non-zero when it fails",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		a, err := newApp(cmd.Context(), cfg, logger, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.host.Invoke(cmd.Context())
		return err
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the canary on SCHEDULE and serve status, history and /metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		a, err := newApp(cmd.Context(), cfg, logger, reg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.host.Start(cfg.Schedule); err != nil {
			return err
		}

		api := httpapi.NewServer(logger, a.runs, a.host, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           api.Router(keys, nil, httpapi.Limits{PublicRPM: 120, PublicBurst: 60, AdminRPM: 30, AdminBurst: 10}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case <-cmd.Context().Done():
		case err = <-errCh:
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		a.host.Stop(ctx)
		return err
	},
}

func main() {
	rootCmd.AddCommand(runCmd, serveCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
