package metrics

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes each datum as a structured log line. It is the default
// sink when no metrics backend is configured.
type LogPublisher struct {
	Logger *zap.Logger
}

func NewLogPublisher(l *zap.Logger) *LogPublisher {
	return &LogPublisher{Logger: l}
}

func (p *LogPublisher) Publish(_ context.Context, data []Datum) error {
	for _, d := range data {
		p.Logger.Info("metric",
			zap.String("name", d.Name),
			zap.String("unit", d.Unit),
			zap.Float64("value", d.Value),
		)
	}
	return nil
}
