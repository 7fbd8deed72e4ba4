package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"yieldcli/internal/config"
	"yieldcli/internal/yieldengine"
	"yieldcli/pkg/contracts"
)

const (
	ServiceVersion = contracts.Version
	MeterName      = "yieldcli"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *promclient.Registry
	Metrics        *RunMetrics
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics. When enabled, metrics are
// collected into a private Prometheus registry and spans are exported to
// stdout only if TraceStdout is set. With telemetry disabled the global no-op
// providers are used and no metrics file is written.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	providers := &OTelProviders{
		Logger:   logger,
		Registry: promclient.NewRegistry(),
	}

	if !cfg.Enabled {
		providers.Tracer = otel.Tracer(MeterName)
		providers.Meter = otel.Meter(MeterName)
		metrics, err := CreateRunMetrics(providers.Meter)
		if err != nil {
			return nil, err
		}
		providers.Metrics = metrics
		return providers, nil
	}

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", ServiceVersion),
		slog.Bool("trace_stdout", cfg.TraceStdout))

	res := createResource(cfg)

	if err := initializeTracing(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metrics, err := CreateRunMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}
	providers.Metrics = metrics
	return providers, nil
}

func createResource(cfg config.TelemetryConfig) *resource.Resource {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(ServiceVersion),
		attribute.String("service.instance.id", fmt.Sprintf("%s-%d", hostname, os.Getpid())),
	)
}

func initializeTracing(cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if cfg.TraceStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
	otel.SetTracerProvider(tp)
	return nil
}

func initializeMetrics(res *resource.Resource, providers *OTelProviders) error {
	exporter, err := prometheus.New(prometheus.WithRegisterer(providers.Registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))
	otel.SetMeterProvider(mp)
	return nil
}

// RunMetrics holds the closing yield run metrics
type RunMetrics struct {
	RunsTotal         metric.Int64Counter
	RunDuration       metric.Float64Histogram
	StepDuration      metric.Float64Histogram
	StepRetries       metric.Int64Counter
	ClosingYields     metric.Int64Counter
	UnresolvedTotal   metric.Int64Counter
	FieldErrorsTotal  metric.Int64Counter
	DuplicateRows     metric.Int64Counter
	ActiveTradingRows metric.Int64Counter
}

// CreateRunMetrics registers the run instruments on meter
func CreateRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	var (
		m   RunMetrics
		err error
	)
	counter := func(name, desc string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		return h
	}

	m.RunsTotal = counter("closing_yield_runs_total", "Total number of closing yield runs")
	m.RunDuration = histogram("closing_yield_run_duration_seconds", "Closing yield run duration in seconds")
	m.StepDuration = histogram("closing_yield_step_duration_seconds", "Run step duration in seconds")
	m.StepRetries = counter("closing_yield_step_retries_total", "Total number of step retries")
	m.ClosingYields = counter("closing_yields_total", "Closing yields produced, by cascade tier")
	m.UnresolvedTotal = counter("closing_yields_unresolved_total", "Securities without a closing yield")
	m.FieldErrorsTotal = counter("closing_yield_field_errors_total", "Unparseable input cells")
	m.DuplicateRows = counter("closing_yield_duplicate_rows_total", "Duplicate exchange report rows")
	m.ActiveTradingRows = counter("closing_yield_active_trading_total", "Securities with active exchange trading")
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordRun records the outcome of one run
func (m *RunMetrics) RecordRun(ctx context.Context, duration time.Duration, status string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.RunsTotal.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStep records one step attempt
func (m *RunMetrics) RecordStep(ctx context.Context, stepID string, duration time.Duration, success bool, attempt int) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step.id", stepID),
		attribute.String("status", status),
	))
	if attempt > 1 {
		m.StepRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("step.id", stepID)))
	}
}

// RecordSummary records the tier distribution and input diagnostics of a
// resolution
func (m *RunMetrics) RecordSummary(ctx context.Context, s yieldengine.Summary) {
	if m == nil {
		return
	}
	tiers := make([]string, 0, len(s.ByTier))
	for tier := range s.ByTier {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		m.ClosingYields.Add(ctx, int64(s.ByTier[tier]), metric.WithAttributes(attribute.String("tier", tier)))
	}
	m.UnresolvedTotal.Add(ctx, int64(s.Unresolved))
	m.FieldErrorsTotal.Add(ctx, int64(s.FieldErrors))
	m.DuplicateRows.Add(ctx, int64(s.DuplicateRows))
	m.ActiveTradingRows.Add(ctx, int64(s.ActiveTrading))
}

// StartSpan starts a span on the configured tracer
func (p *OTelProviders) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := p.Tracer
	if tracer == nil {
		tracer = otel.Tracer(MeterName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// WriteMetricsFile writes the registry in Prometheus text format, for a
// node exporter textfile collector. A nil registry or empty path is a no-op.
func (p *OTelProviders) WriteMetricsFile(path string) error {
	if p == nil || p.MeterProvider == nil || path == "" {
		return nil
	}
	if err := promclient.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
