package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics owns the service's instruments and the Prometheus scrape handler.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	runs             metric.Int64Counter
	phaseDuration    metric.Float64Histogram
	chunks           metric.Int64Counter
	checklistUpdates metric.Int64Counter
	httpRequests     metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(instrumentationName)

	m := &Metrics{
		provider: provider,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	if m.runs, err = meter.Int64Counter("generation_runs_total",
		metric.WithDescription("Generation runs by terminal outcome")); err != nil {
		return nil, err
	}
	if m.phaseDuration, err = meter.Float64Histogram("generation_phase_duration_seconds",
		metric.WithDescription("Wall time spent in each generation phase"),
		metric.WithExplicitBucketBoundaries(.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120)); err != nil {
		return nil, err
	}
	if m.chunks, err = meter.Int64Counter("generation_chunks_total",
		metric.WithDescription("Text increments relayed from the provider")); err != nil {
		return nil, err
	}
	if m.checklistUpdates, err = meter.Int64Counter("checklist_updates_total",
		metric.WithDescription("Accepted checklist item updates")); err != nil {
		return nil, err
	}
	if m.httpRequests, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("HTTP requests by route and status")); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

func (m *Metrics) RunFinished(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) PhaseDuration(ctx context.Context, phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("phase", phase)))
}

func (m *Metrics) Chunk(ctx context.Context) {
	if m == nil {
		return
	}
	m.chunks.Add(ctx, 1)
}

func (m *Metrics) ChecklistUpdated(ctx context.Context) {
	if m == nil {
		return
	}
	m.checklistUpdates.Add(ctx, 1)
}

func (m *Metrics) HTTPRequest(ctx context.Context, method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	))
}
