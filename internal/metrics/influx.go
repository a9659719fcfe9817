package metrics

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxPublisher writes one "canary" point per Publish call.
type InfluxPublisher struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	tags     map[string]string
}

func NewInfluxPublisher(url, token, org, bucket, project, environment string) *InfluxPublisher {
	client := influxdb2.NewClient(url, token)
	return &InfluxPublisher{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		tags:     map[string]string{"project": project, "environment": environment},
	}
}

func (p *InfluxPublisher) Publish(ctx context.Context, data []Datum) error {
	if len(data) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(data))
	for _, d := range data {
		fields[d.Name] = d.Value
	}
	point := influxdb2.NewPoint("canary", p.tags, fields, time.Now())
	if err := p.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func (p *InfluxPublisher) Close() {
	p.client.Close()
}
