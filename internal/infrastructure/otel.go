package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"attendx/internal/config"
)

// MeterName is the instrumentation scope of tracer and meter.
const MeterName = "attendx"

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	SampleRatio    float64
	// TraceWriter receives stdout spans; defaults to os.Stdout.
	TraceWriter io.Writer
}

// OTelConfigFrom maps the telemetry section of the application config.
func OTelConfigFrom(cfg config.TelemetryConfig, version string) *OTelConfig {
	return &OTelConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		TraceExporter:  cfg.TraceExporter,
		MetricExporter: cfg.MetricExporter,
		SampleRatio:    1.0,
	}
}

// OTelProviders holds the OpenTelemetry providers. Tracer and Meter are
// always usable; they are no-ops when the matching exporter is "none".
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics and installs them globally.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = &OTelConfig{ServiceName: MeterName, TraceExporter: "none", MetricExporter: "prometheus", SampleRatio: 1}
	}
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
		Logger: logger,
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	return providers, nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		w := cfg.TraceWriter
		if w == nil {
			w = os.Stdout
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized", slog.String("exporter", cfg.TraceExporter))
	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetMeterProvider(mp)
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.DebugContext(ctx, "Metrics initialized", slog.String("exporter", cfg.MetricExporter))
	return nil
}

// Shutdown flushes and stops the providers.
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

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// AddSpanEvent adds an event with attributes to the current span
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Outcome labels a processed file in metrics.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	OutcomeRetry     Outcome = "retry"
)

// PipelineMetrics holds the attendance pipeline instruments.
type PipelineMetrics struct {
	FilesTotal          metric.Int64Counter
	FileDuration        metric.Float64Histogram
	RowsTallied         metric.Int64Counter
	CellsClassified     metric.Int64Counter
	TransitionsDetected metric.Int64Counter
	SummaryIngests      metric.Int64Counter
	WatcherTicks        metric.Int64Counter
}

// CreatePipelineMetrics registers the pipeline instruments on meter.
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	filesTotal, err := meter.Int64Counter(
		"attendx_files_total",
		metric.WithDescription("Input files handled, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	fileDuration, err := meter.Float64Histogram(
		"attendx_file_duration_seconds",
		metric.WithDescription("Time spent processing one input file"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rowsTallied, err := meter.Int64Counter(
		"attendx_rows_tallied_total",
		metric.WithDescription("Rows whose counts were written back"),
	)
	if err != nil {
		return nil, err
	}

	cellsClassified, err := meter.Int64Counter(
		"attendx_cells_classified_total",
		metric.WithDescription("Cells classified, by label"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"attendx_transitions_total",
		metric.WithDescription("Transition events detected, by kind"),
	)
	if err != nil {
		return nil, err
	}

	ingests, err := meter.Int64Counter(
		"attendx_summary_ingests_total",
		metric.WithDescription("Files folded into the summary workbook"),
	)
	if err != nil {
		return nil, err
	}

	ticks, err := meter.Int64Counter(
		"attendx_watcher_ticks_total",
		metric.WithDescription("Inbox polls performed"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		FilesTotal:          filesTotal,
		FileDuration:        fileDuration,
		RowsTallied:         rowsTallied,
		CellsClassified:     cellsClassified,
		TransitionsDetected: transitions,
		SummaryIngests:      ingests,
		WatcherTicks:        ticks,
	}, nil
}

// RecordFile records the outcome and duration of one file.
func (m *PipelineMetrics) RecordFile(ctx context.Context, outcome Outcome, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", string(outcome)))
	m.FilesTotal.Add(ctx, 1, attrs)
	m.FileDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordLabel adds n classified cells of a label.
func (m *PipelineMetrics) RecordLabel(ctx context.Context, label string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.CellsClassified.Add(ctx, int64(n), metric.WithAttributes(attribute.String("label", label)))
}

// RecordTransition counts one detected transition.
func (m *PipelineMetrics) RecordTransition(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.TransitionsDetected.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordRows counts rows written back to an artifact.
func (m *PipelineMetrics) RecordRows(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RowsTallied.Add(ctx, int64(n))
}

// RecordIngest counts one summary ingest.
func (m *PipelineMetrics) RecordIngest(ctx context.Context) {
	if m == nil {
		return
	}
	m.SummaryIngests.Add(ctx, 1)
}

// RecordTick counts one watcher poll.
func (m *PipelineMetrics) RecordTick(ctx context.Context) {
	if m == nil {
		return
	}
	m.WatcherTicks.Add(ctx, 1)
}
