package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"attendx/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		ServiceName:    "attendx",
		TraceExporter:  "stdout",
		MetricExporter: "none",
	}, "1.2.3")

	assert.Equal(t, "attendx", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, "none", cfg.MetricExporter)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}

func TestInitializeOTel_None(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "test", TraceExporter: "none", MetricExporter: "none"}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordFile(context.Background(), OutcomeProcessed, time.Second)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_Unsupported(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{ServiceName: "test", TraceExporter: "jaeger"}, quietLogger())
	assert.Error(t, err)

	_, err = InitializeOTel(&OTelConfig{ServiceName: "test", MetricExporter: "statsd"}, quietLogger())
	assert.Error(t, err)
}

func TestPipelineMetrics_Prometheus(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "test",
		ServiceVersion: "dev",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
	}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordFile(ctx, OutcomeProcessed, 250*time.Millisecond)
	metrics.RecordFile(ctx, OutcomeFailed, time.Millisecond)
	metrics.RecordTransition(ctx, "yellow>red")
	metrics.RecordLabel(ctx, "green", 4)
	metrics.RecordRows(ctx, 2)
	metrics.RecordIngest(ctx)
	metrics.RecordTick(ctx)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "attendx_files_total")
	assert.Contains(t, body, `outcome="processed"`)
	assert.Contains(t, body, `outcome="failed"`)
	assert.Contains(t, body, "attendx_transitions_total")
	assert.Contains(t, body, `kind="yellow>red"`)
	assert.Contains(t, body, "attendx_summary_ingests_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordFile(ctx, OutcomeSkipped, 0)
		m.RecordTransition(ctx, "green>red")
		m.RecordLabel(ctx, "red", 1)
		m.RecordRows(ctx, 1)
		m.RecordIngest(ctx)
		m.RecordTick(ctx)
	})
}

func TestStdoutTracing(t *testing.T) {
	var buf bytes.Buffer
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "test",
		TraceExporter:  "stdout",
		MetricExporter: "none",
		SampleRatio:    1,
		TraceWriter:    &buf,
	}, quietLogger())
	require.NoError(t, err)

	ctx, span := providers.Tracer.Start(context.Background(), "process.file")
	AddSpanEvent(ctx, "tallied", attribute.Int("rows", 3))
	RecordError(ctx, errors.New("boom"))
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "process.file")
	assert.Contains(t, out, "tallied")
	assert.Contains(t, out, "boom")
}

func TestSpanHelpers_NoRecordingSpan(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "ignored")
		RecordError(ctx, errors.New("ignored"))
	})
}
