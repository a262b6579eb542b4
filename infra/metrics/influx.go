package metrics

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/podplan/core/metrics"
	"github.com/kilianp07/podplan/infra/logger"
)

// InfluxSink writes subset solves to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// Ping runs the InfluxDB health check.
func (s *InfluxSink) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := s.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("influx health check: %w", err)
	}
	if health.Status != "pass" {
		return fmt.Errorf("influx health status: %s", health.Status)
	}
	return nil
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	if err := sink.Ping(); err != nil {
		sink.log.Errorf("%v, metrics disabled", err)
		sink.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordSubsetResult writes one subset_solve point.
func (s *InfluxSink) RecordSubsetResult(r coremetrics.SubsetResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("subset_solve").
		AddTag("batch_id", r.BatchID).
		AddTag("method", r.Method).
		AddTag("district", r.District).
		AddTag("subset", r.Subset).
		AddTag("outcome", string(r.Outcome)).
		AddTag("status", r.Status).
		AddField("gap", round6(r.Gap)).
		AddField("duration_ms", round3(r.Duration.Seconds()*1000))
	if !math.IsNaN(r.Objective) && !math.IsInf(r.Objective, 0) {
		p = p.AddField("objective", round6(r.Objective))
	}
	p = p.SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordBatchProgress writes a batch_progress point.
func (s *InfluxSink) RecordBatchProgress(b coremetrics.BatchProgress) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("batch_progress").
		AddTag("batch_id", b.BatchID).
		AddTag("method", b.Method).
		AddTag("district", b.District).
		AddField("total", b.Total).
		AddField("completed", b.Completed).
		AddField("solved", b.Solved).
		AddField("skipped", b.Skipped).
		AddField("failed", b.Failed).
		AddField("done", b.Done).
		SetTime(b.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAggregate writes an aggregate_run point.
func (s *InfluxSink) RecordAggregate(a coremetrics.AggregateSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("aggregate_run").
		AddTag("method", a.Method).
		AddTag("district", a.District).
		AddField("files", a.Files).
		AddField("skipped", a.Skipped).
		AddField("top_pods", a.TopPODs).
		SetTime(a.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
