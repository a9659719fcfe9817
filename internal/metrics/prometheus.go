package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Failure batches carry no ResponseTime or StatusCode, so those two gauges
// only ever move on a passing run and are named for it.
var promNames = map[string]string{
	ResponseTime: "canary_last_success_response_time",
	StatusCode:   "canary_last_success_status_code",
	Success:      "canary_success",
	Error:        "canary_error",
}

// PrometheusPublisher keeps the last value of each metric in a gauge so a
// scrape between invocations sees the most recent run. canary_success and
// canary_error reflect the latest run whatever its outcome.
type PrometheusPublisher struct {
	gauges map[string]prometheus.Gauge
}

func NewPrometheusPublisher(reg prometheus.Registerer, project, environment string) (*PrometheusPublisher, error) {
	labels := prometheus.Labels{"project": project, "environment": environment}
	p := &PrometheusPublisher{gauges: make(map[string]prometheus.Gauge, len(promNames))}
	for name, promName := range promNames {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        promName,
			Help:        fmt.Sprintf("Last published canary %s (unit %s).", name, UnitCount),
			ConstLabels: labels,
		})
		if err := reg.Register(g); err != nil {
			return nil, fmt.Errorf("register %s: %w", promName, err)
		}
		p.gauges[name] = g
	}
	return p, nil
}

func (p *PrometheusPublisher) Publish(_ context.Context, data []Datum) error {
	for _, d := range data {
		g, ok := p.gauges[d.Name]
		if !ok {
			return fmt.Errorf("prometheus: unknown metric %q", d.Name)
		}
		g.Set(d.Value)
	}
	return nil
}

// Gauge exposes the gauge behind a metric name (nil if unknown).
func (p *PrometheusPublisher) Gauge(name string) prometheus.Gauge {
	return p.gauges[name]
}
