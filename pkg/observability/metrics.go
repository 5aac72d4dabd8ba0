// Package observability provides Prometheus metrics via the OpenTelemetry
// metrics SDK and HTTP middleware to record them.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the service's instruments. A nil *Metrics is a valid no-op
// recorder, so callers never need to branch on whether metrics are enabled.
type Metrics struct {
	registry *promclient.Registry

	httpDuration metric.Float64Histogram
	httpRequests metric.Int64Counter

	aiDuration metric.Float64Histogram
	aiRequests metric.Int64Counter
	aiErrors   metric.Int64Counter

	quotaDenials metric.Int64Counter
}

// InitMetrics creates the instrument set on a private Prometheus registry.
func InitMetrics() (*Metrics, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("agora")

	m := &Metrics{registry: registry}

	m.httpDuration, err = meter.Float64Histogram(
		"agora_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	m.httpRequests, err = meter.Int64Counter(
		"agora_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}

	m.aiDuration, err = meter.Float64Histogram(
		"agora_ai_request_duration_seconds",
		metric.WithDescription("AI operation duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai duration histogram: %w", err)
	}

	m.aiRequests, err = meter.Int64Counter(
		"agora_ai_requests_total",
		metric.WithDescription("Total AI operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai requests counter: %w", err)
	}

	m.aiErrors, err = meter.Int64Counter(
		"agora_ai_errors_total",
		metric.WithDescription("Total AI operation errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai errors counter: %w", err)
	}

	m.quotaDenials, err = meter.Int64Counter(
		"agora_quota_denials_total",
		metric.WithDescription("Requests denied by the daily AI quota"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota denials counter: %w", err)
	}

	return m, nil
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a completed request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAIRequest records an AI operation by name.
func (m *Metrics) RecordAIRequest(ctx context.Context, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.aiRequests.Add(ctx, 1, attrs)
	m.aiDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.aiErrors.Add(ctx, 1, attrs)
	}
}

// RecordQuotaDenial records a request rejected by the daily quota.
func (m *Metrics) RecordQuotaDenial(ctx context.Context) {
	if m == nil {
		return
	}
	m.quotaDenials.Add(ctx, 1)
}
