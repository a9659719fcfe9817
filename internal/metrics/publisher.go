package metrics

import (
	"context"

	"go.uber.org/multierr"
)

// Metric names and the single unit every canary metric is published with.
const (
	ResponseTime = "ResponseTime"
	StatusCode   = "StatusCode"
	Success      = "Success"
	Error        = "Error"

	UnitCount = "Count"
)

// Datum is one metric sample.
type Datum struct {
	Name  string
	Unit  string
	Value float64
}

// Count builds a Datum in the "Count" unit.
func Count(name string, v float64) Datum {
	return Datum{Name: name, Unit: UnitCount, Value: v}
}

// Publisher is implemented by any metrics backend (log, Prometheus, InfluxDB).
type Publisher interface {
	Publish(ctx context.Context, data []Datum) error
}

// Multi publishes to every backend and returns all failures combined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, data []Datum) error {
	var err error
	for _, p := range m {
		if p == nil {
			continue
		}
		err = multierr.Append(err, p.Publish(ctx, data))
	}
	return err
}
