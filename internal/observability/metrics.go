package observability

import (
	"context"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the spool loop instruments.
type Metrics struct {
	meter   metric.Meter
	machine string

	IterationsTotal metric.Int64Counter
	JobDuration     metric.Float64Histogram
	JobErrorsTotal  metric.Int64Counter
	JobsActive      metric.Int64UpDownCounter
	Candidates      metric.Int64Gauge
	IdleSeconds     metric.Float64Counter
}

// NewMetrics creates the instruments on a private Prometheus registry and
// returns the scrape handler for it.
func NewMetrics(_ context.Context, machine string) (*Metrics, http.Handler, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("dropspool")
	m := &Metrics{meter: meter, machine: machine}

	m.IterationsTotal, err = meter.Int64Counter(
		"spool_iterations_total",
		metric.WithDescription("Spool loop iterations by outcome"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobDuration, err = meter.Float64Histogram(
		"spool_job_duration_seconds",
		metric.WithDescription("Wall time from claim to finalize in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 300, 900, 1800, 3600, 7200, 21600),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobErrorsTotal, err = meter.Int64Counter(
		"spool_job_errors_total",
		metric.WithDescription("Jobs that failed to launch, exited non-zero, or could not be finalized"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsActive, err = meter.Int64UpDownCounter(
		"spool_jobs_active",
		metric.WithDescription("Jobs currently claimed and running (0 or 1 per instance)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.Candidates, err = meter.Int64Gauge(
		"spool_candidates",
		metric.WithDescription("Jobs waiting in incoming at the last poll"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.IdleSeconds, err = meter.Float64Counter(
		"spool_idle_seconds_total",
		metric.WithDescription("Seconds spent sleeping between empty polls"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// RecordIteration records one loop iteration. candidates is the number of
// jobs seen at the poll; idleSeconds is the sleep that followed, if any.
func (m *Metrics) RecordIteration(ctx context.Context, outcome string, candidates int, idleSeconds float64) {
	machine := machineAttr(m.machine)
	m.IterationsTotal.Add(ctx, 1, metric.WithAttributes(machine, outcomeAttr(outcome)))
	m.Candidates.Record(ctx, int64(candidates), metric.WithAttributes(machine))
	if idleSeconds > 0 {
		m.IdleSeconds.Add(ctx, idleSeconds, metric.WithAttributes(machine))
	}
}

// RecordJobStarted marks a claimed job as running.
func (m *Metrics) RecordJobStarted(ctx context.Context) {
	m.JobsActive.Add(ctx, 1, metric.WithAttributes(machineAttr(m.machine)))
}

// RecordJobCompleted records a job leaving the running state.
func (m *Metrics) RecordJobCompleted(ctx context.Context, success bool, durationSeconds float64) {
	attrs := metric.WithAttributes(machineAttr(m.machine), successAttr(success))
	m.JobDuration.Record(ctx, durationSeconds, attrs)
	m.JobsActive.Add(ctx, -1, metric.WithAttributes(machineAttr(m.machine)))
	if !success {
		m.JobErrorsTotal.Add(ctx, 1, attrs)
	}
}
