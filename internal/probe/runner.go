package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/apicanary/internal/domain"
	"github.com/hamed0406/apicanary/internal/metrics"
)

// UserAgent identifies canary traffic to the target.
const UserAgent = "apicanary/1.0"

const maxLoggedBody = 2048

// Runner performs one request/validate/report cycle per Run call.
type Runner struct {
	Config  domain.ProbeConfig
	Checker *HTTPChecker
	Metrics metrics.Publisher
	Logger  *zap.Logger
	DNS     *DNSChecker // optional; classifies the host after transport failures
}

func NewRunner(cfg domain.ProbeConfig, checker *HTTPChecker, pub metrics.Publisher, logger *zap.Logger) *Runner {
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if cfg.ExpectedStatus == 0 {
		cfg.ExpectedStatus = http.StatusOK
	}
	if checker == nil {
		checker = NewHTTPChecker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Config: cfg, Checker: checker, Metrics: pub, Logger: logger}
}

// Run issues exactly one request. It returns *ConfigError, *RequestError or
// *ValidationError on failure; failure metrics have been published by then.
func (r *Runner) Run(ctx context.Context) (domain.Result, error) {
	cfg := r.Config
	r.Logger.Info("canary_start",
		zap.String("endpoint", cfg.EndpointURL),
		zap.String("method", cfg.Method),
		zap.Int("expected_status", cfg.ExpectedStatus),
	)

	tgt, err := ParseTarget(cfg.EndpointURL)
	if err != nil {
		return domain.Result{}, r.fail(ctx, &ConfigError{Field: "API_ENDPOINT", Err: err})
	}
	req, err := r.Checker.NewRequest(ctx, cfg.Method, tgt, r.headers())
	if err != nil {
		return domain.Result{}, r.fail(ctx, &ConfigError{Field: "HTTP_METHOD", Err: err})
	}

	start := time.Now()
	resp, err := r.Checker.Do(req)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		r.diagnose(ctx, tgt.Host)
		return domain.Result{}, r.fail(ctx, &RequestError{Endpoint: cfg.EndpointURL, LatencyMS: latency, Err: err})
	}
	r.Logger.Info("request_completed",
		zap.Int64("latency_ms", latency),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode != cfg.ExpectedStatus {
		return domain.Result{}, r.fail(ctx, &ValidationError{
			Expected:  cfg.ExpectedStatus,
			Actual:    resp.StatusCode,
			LatencyMS: latency,
		})
	}

	r.logBody(resp)
	r.publish(ctx, []metrics.Datum{
		metrics.Count(metrics.ResponseTime, float64(latency)),
		metrics.Count(metrics.StatusCode, float64(resp.StatusCode)),
		metrics.Count(metrics.Success, 1),
	})

	return domain.Result{Success: true, StatusCode: resp.StatusCode, LatencyMS: latency}, nil
}

func (r *Runner) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", UserAgent)
	h.Set("X-Canary-Project", r.Config.ProjectTag)
	h.Set("X-Canary-Environment", r.Config.EnvironmentTag)
	return h
}

// fail logs err, publishes the failure metrics and hands err back.
func (r *Runner) fail(ctx context.Context, err error) error {
	r.Logger.Error("canary_failed",
		zap.String("kind", string(KindOf(err))),
		zap.String("endpoint", r.Config.EndpointURL),
		zap.Error(err),
	)
	r.publish(ctx, []metrics.Datum{
		metrics.Count(metrics.Success, 0),
		metrics.Count(metrics.Error, 1),
	})
	return err
}

func (r *Runner) publish(ctx context.Context, data []metrics.Datum) {
	if r.Metrics == nil {
		return
	}
	// A request that hit its deadline must still report.
	if err := r.Metrics.Publish(context.WithoutCancel(ctx), data); err != nil {
		r.Logger.Warn("metrics_publish_error", zap.Error(err))
	}
}

// logBody never affects the outcome.
func (r *Runner) logBody(resp domain.RawResponse) {
	if !r.Logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	var parsed any
	if err := json.Unmarshal([]byte(resp.Body), &parsed); err != nil {
		r.Logger.Debug("response_not_json",
			zap.String("error", err.Error()),
			zap.String("body", truncate(resp.Body, maxLoggedBody)),
		)
		return
	}
	r.Logger.Debug("response_body_parsed", zap.Any("body", parsed))
}

func (r *Runner) diagnose(ctx context.Context, host string) {
	if r.DNS == nil {
		return
	}
	dns := r.DNS.Check(context.WithoutCancel(ctx), host)
	r.Logger.Info("dns_check",
		zap.String("domain", dns.Domain),
		zap.String("class", dns.Class),
		zap.Strings("ips", dns.IPs),
		zap.String("cname", dns.CNAME),
		zap.Strings("nameservers", dns.Nameservers),
		zap.String("resolver_error", dns.ResolverError),
	)
}

// KindOf maps a Run error onto the persisted error kind.
func KindOf(err error) domain.ErrorKind {
	var (
		ce *ConfigError
		re *RequestError
		ve *ValidationError
	)
	switch {
	case err == nil:
		return domain.ErrorKindNone
	case errors.As(err, &ce):
		return domain.ErrorKindConfig
	case errors.As(err, &re):
		return domain.ErrorKindRequest
	case errors.As(err, &ve):
		return domain.ErrorKindValidation
	default:
		return domain.ErrorKindRequest
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
