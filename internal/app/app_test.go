package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"attendx/internal/config"
	"attendx/pkg/contracts/domain"
)

// cancelClock cancels the run the first time the watcher waits, so Watch
// performs exactly one tick.
type cancelClock struct {
	cancel context.CancelFunc
}

func (c cancelClock) Now() time.Time { return time.Now() }

func (c cancelClock) After(time.Duration) <-chan time.Time {
	c.cancel()
	return make(chan time.Time)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// writeWeekFile stores the Alva/Bo attendance sheet under dir.
func writeWeekFile(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]string{
		{"Name", "Monday", "Monday", "Tuesday"},
		{"Alva", "", "", "skolk"},
		{"Bo", "sjuk", "", ""},
	}
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	fills := map[string]string{
		"B2": "00FF00", "C2": "00FF00", "D2": "FF0000",
		"B3": "FFFF00", "C3": "FF0000", "D3": "00FF00",
	}
	for cell, hex := range fills {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{hex}, Pattern: 1},
		})
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle("Sheet1", cell, cell, style))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func newTestApp(t *testing.T, mutate func(cfg *config.Config)) (*Application, string) {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Telemetry.MetricExporter = "none"
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(cfg, Options{BaseDir: base, Version: "test", Logger: quietLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a, base
}

func TestNew_Wiring(t *testing.T) {
	a, base := newTestApp(t, nil)

	assert.Equal(t, filepath.Join(base, "inbox"), a.Paths.InboxDir)
	assert.Equal(t, filepath.Join(base, "outbox"), a.Paths.OutboxDir)
	assert.Equal(t, a.Paths.OutboxDir, a.Paths.ReportDir, "reports default to the outbox")
	assert.Equal(t, filepath.Join(base, "summary.xlsx"), a.Repository.Path())
	assert.Equal(t, domain.DefaultLabels, a.Components.Labels)
	assert.NotNil(t, a.Watcher)
	assert.NotNil(t, a.Processor)

	_, err := os.Stat(a.Paths.InboxDir)
	assert.ErrorIs(t, err, os.ErrNotExist, "New does not touch the filesystem")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Telemetry.MetricExporter = "none"
	cfg.Transitions = []string{"yellow-red"}
	_, err = New(cfg, Options{BaseDir: t.TempDir(), Logger: quietLogger()})
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Telemetry.TraceExporter = "jaeger"
	_, err = New(cfg, Options{BaseDir: t.TempDir(), Logger: quietLogger()})
	assert.Error(t, err)
}

func TestWatch_OneTick(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Telemetry.MetricExporter = "none"
	cfg.Status.Enabled = true
	cfg.Status.Address = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := New(cfg, Options{
		BaseDir: base,
		Logger:  quietLogger(),
		Clock:   cancelClock{cancel: cancel},
	})
	require.NoError(t, err)
	defer a.Close(context.Background())

	writeWeekFile(t, a.Paths.InboxDir, "7A_v12.xlsx")
	// Our own artifact in the inbox must not be picked up.
	writeWeekFile(t, a.Paths.InboxDir, "7A_v11_with_counts.xlsx")

	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("watch did not stop")
	}

	_, err = os.Stat(filepath.Join(a.Paths.OutboxDir, "7A_v12_with_counts.xlsx"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(a.Paths.OutboxDir, "7A_v11_with_counts_with_counts.xlsx"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	weeks, err := a.Summary.Weeks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"12"}, weeks)
}

func TestProcessAndTrend(t *testing.T) {
	a, base := newTestApp(t, nil)
	path := writeWeekFile(t, filepath.Join(base, "elsewhere"), "7A_v12.xlsx")

	report, err := a.Process(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, report.Aggregated)

	trend, err := a.Trend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"12"}, trend.Weeks)
	require.NotEmpty(t, trend.Points)
	for _, p := range trend.Points {
		assert.Equal(t, "12", p.Week)
	}
}

func TestExport(t *testing.T) {
	a, base := newTestApp(t, nil)
	path := writeWeekFile(t, filepath.Join(base, "elsewhere"), "7A_v12.xlsx")
	_, err := a.Process(context.Background(), path)
	require.NoError(t, err)

	dir := filepath.Join(base, "export")
	paths, err := a.Export(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "summary_v12.csv"),
		filepath.Join(dir, "text_statistics.csv"),
		filepath.Join(dir, "trend.csv"),
	}, paths)
}

func TestDetect(t *testing.T) {
	a, base := newTestApp(t, func(cfg *config.Config) {
		cfg.Paths.ReportDir = "reports"
	})
	dir := filepath.Join(base, "term")
	writeWeekFile(t, dir, "7A_v12.xlsx")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "7A_v13.xlsx"), []byte("broken"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$7A_v12.xlsx"), []byte("lock"), 0o644))

	results, err := a.Detect(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byFile := map[string]DetectResult{}
	for _, r := range results {
		byFile[r.File] = r
	}
	good := byFile["7A_v12.xlsx"]
	require.NoError(t, good.Err)
	assert.Equal(t, filepath.Join(base, "reports", "transitions_7A_v12.txt"), good.Report)
	assert.Len(t, good.Transitions, 1)
	assert.Error(t, byFile["7A_v13.xlsx"].Err)

	_, err = os.Stat(a.Repository.Path())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStatusRouter(t *testing.T) {
	a, _ := newTestApp(t, nil)
	require.NoError(t, a.Paths.EnsureDirectories())

	rec := httptest.NewRecorder()
	a.StatusRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.StatusRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/weeks", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"weeks":[]}`, rec.Body.String())
}

func TestResolvePath(t *testing.T) {
	abs, err := ResolvePath("inbox/a.xlsx")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	same, err := ResolvePath("/tmp/a.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.xlsx", same)
}
