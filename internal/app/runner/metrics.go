package runner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics defines the metrics operations needed by the plugin runner.
type Metrics interface {
	// Unit metrics
	IncUnitsProcessed(ctx context.Context)
	IncUnitErrors(ctx context.Context)
	ObserveUnitDuration(ctx context.Context, duration time.Duration)

	// Worker metrics
	SetActiveWorkers(ctx context.Context, count int)

	// Batch metrics
	ObserveBatchDuration(ctx context.Context, status string, duration time.Duration)
}

// runnerMetrics implements Metrics on top of an OTel meter.
type runnerMetrics struct {
	unitsProcessed metric.Int64Counter
	unitErrors     metric.Int64Counter
	unitDuration   metric.Float64Histogram

	activeWorkers metric.Int64UpDownCounter

	batchDuration metric.Float64Histogram
}

const namespace = "plugin_runner"

// NewMetrics creates a new runner metrics instance.
func NewMetrics(mp metric.MeterProvider) (*runnerMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(runnerMetrics)
	var err error

	if m.unitsProcessed, err = meter.Int64Counter(
		"work_units_processed_total",
		metric.WithDescription("Total number of work units executed"),
	); err != nil {
		return nil, err
	}

	if m.unitErrors, err = meter.Int64Counter(
		"work_unit_errors_total",
		metric.WithDescription("Total number of work units that failed internally"),
	); err != nil {
		return nil, err
	}

	if m.unitDuration, err = meter.Float64Histogram(
		"work_unit_duration_seconds",
		metric.WithDescription("Time taken to execute a single work unit"),
	); err != nil {
		return nil, err
	}

	if m.activeWorkers, err = meter.Int64UpDownCounter(
		"active_workers",
		metric.WithDescription("Number of currently active pool workers"),
	); err != nil {
		return nil, err
	}

	if m.batchDuration, err = meter.Float64Histogram(
		"batch_duration_seconds",
		metric.WithDescription("Time from dispatch to terminal state for a batch"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *runnerMetrics) IncUnitsProcessed(ctx context.Context) {
	m.unitsProcessed.Add(ctx, 1)
}

func (m *runnerMetrics) IncUnitErrors(ctx context.Context) {
	m.unitErrors.Add(ctx, 1)
}

func (m *runnerMetrics) ObserveUnitDuration(ctx context.Context, duration time.Duration) {
	m.unitDuration.Record(ctx, duration.Seconds())
}

func (m *runnerMetrics) SetActiveWorkers(ctx context.Context, count int) {
	m.activeWorkers.Add(ctx, int64(count))
}

func (m *runnerMetrics) ObserveBatchDuration(ctx context.Context, status string, duration time.Duration) {
	m.batchDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("status", status)))
}
