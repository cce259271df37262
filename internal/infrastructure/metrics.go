package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	ServiceName    = "retaildq"
	ServiceVersion = "1.0.0"
	MeterName      = "retaildq"
)

// MetricsProviders holds the OpenTelemetry meter provider with its
// Prometheus scrape handler.
type MetricsProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
}

// InitializeMetrics sets up an OpenTelemetry meter provider backed by
// a Prometheus exporter and installs it globally.
func InitializeMetrics(logger *slog.Logger) (*MetricsProviders, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	logger.Info("Metrics initialized", slog.String("exporter", "prometheus"))

	return &MetricsProviders{
		MeterProvider:  mp,
		Meter:          mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion)),
		PrometheusHTTP: promhttp.Handler(),
	}, nil
}

// Shutdown flushes and stops the meter provider.
func (p *MetricsProviders) Shutdown(ctx context.Context) error {
	if p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}

// PipelineMetrics are the application-level instruments recorded by
// the pipeline and the dashboard.
type PipelineMetrics struct {
	RunsTotal           metric.Int64Counter
	RunDuration         metric.Float64Histogram
	RowsProcessed       metric.Int64Counter
	CorrectionsApplied  metric.Int64Counter
	AlertsRaised        metric.Int64Counter
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// CreatePipelineMetrics registers the application instruments on the
// meter.
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	runsTotal, err := meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Total number of pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"pipeline_run_duration_seconds",
		metric.WithDescription("Pipeline run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rowsProcessed, err := meter.Int64Counter(
		"pipeline_rows_processed_total",
		metric.WithDescription("Rows read from input tables"),
	)
	if err != nil {
		return nil, err
	}

	correctionsApplied, err := meter.Int64Counter(
		"pipeline_corrections_total",
		metric.WithDescription("Corrections applied, by kind"),
	)
	if err != nil {
		return nil, err
	}

	alertsRaised, err := meter.Int64Counter(
		"pipeline_alerts_total",
		metric.WithDescription("Threshold alerts raised"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RunsTotal:           runsTotal,
		RunDuration:         runDuration,
		RowsProcessed:       rowsProcessed,
		CorrectionsApplied:  correctionsApplied,
		AlertsRaised:        alertsRaised,
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
	}, nil
}
