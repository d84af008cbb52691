// Package watcher polls an inbox directory and hands new or modified
// workbooks to the pipeline, one at a time.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	apperrors "attendx/internal/errors"
	"attendx/internal/files"
	"attendx/internal/infrastructure"
)

// Clock abstracts time so the loop can run without real timers.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Lister returns the candidate files of one poll.
type Lister interface {
	List(ctx context.Context) ([]files.FileInfo, error)
}

// Processor handles a single file to completion.
type Processor interface {
	ProcessFile(ctx context.Context, path string) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// After returns time.After.
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Config wires a Watcher.
type Config struct {
	Lister    Lister
	Processor Processor
	Clock     Clock
	Interval  time.Duration
	Metrics   *infrastructure.PipelineMetrics
	Logger    *slog.Logger
}

// TickReport counts what one poll did.
type TickReport struct {
	Listed    int
	Processed int
	Failed    int
	Retry     int
	Unchanged int
}

// Watcher remembers the modification time at which each file was last
// handled and only hands a file over again once that time changes.
// It is single threaded: Tick and Run must not be called concurrently.
type Watcher struct {
	lister    Lister
	processor Processor
	clock     Clock
	interval  time.Duration
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
	seen      map[string]time.Time
}

// New validates the configuration and returns a Watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Lister == nil || cfg.Processor == nil {
		return nil, errors.New("watcher: lister and processor are required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("watcher: interval must be positive, got %s", cfg.Interval)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Watcher{
		lister:    cfg.Lister,
		processor: cfg.Processor,
		clock:     clock,
		interval:  cfg.Interval,
		metrics:   cfg.Metrics,
		logger:    infrastructure.WithComponent(cfg.Logger, "watcher"),
		seen:      make(map[string]time.Time),
	}, nil
}

// Run polls immediately and then once per interval until ctx is done.
// Poll failures are logged and retried on the next interval.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Watching inbox", slog.Duration("interval", w.interval))

	for {
		if _, err := w.Tick(ctx); err != nil && ctx.Err() == nil {
			w.logger.WarnContext(ctx, "Poll failed", slog.String("error", err.Error()))
		}
		if !w.wait(ctx) {
			w.logger.InfoContext(ctx, "Watcher stopped")
			return nil
		}
	}
}

// wait blocks for one interval and reports whether polling should go on.
func (w *Watcher) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-w.clock.After(w.interval):
		return true
	}
}

// Tick lists the inbox once and processes every new or modified file in
// listing order. A failing file never stops the batch.
func (w *Watcher) Tick(ctx context.Context) (TickReport, error) {
	var report TickReport
	started := w.clock.Now()
	w.metrics.RecordTick(ctx)

	listed, err := w.lister.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list inbox: %w", err)
	}
	report.Listed = len(listed)
	w.forgetMissing(listed)

	for _, file := range listed {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if last, ok := w.seen[file.Path]; ok && last.Equal(file.ModTime) {
			report.Unchanged++
			continue
		}

		err := w.handle(ctx, file)
		switch {
		case err == nil:
			report.Processed++
			w.seen[file.Path] = file.ModTime
		case apperrors.IsTransient(err):
			report.Retry++
			w.logger.InfoContext(ctx, "File not ready, retrying next poll",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
		default:
			report.Failed++
			w.seen[file.Path] = file.ModTime
			w.logger.ErrorContext(ctx, "File failed, skipped until modified",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
		}
	}

	if report.Processed+report.Failed+report.Retry > 0 {
		w.logger.InfoContext(ctx, "Poll complete",
			slog.Int("listed", report.Listed),
			slog.Int("processed", report.Processed),
			slog.Int("failed", report.Failed),
			slog.Int("retry", report.Retry),
			slog.Duration("duration", w.clock.Now().Sub(started)))
	}
	return report, nil
}

// handle runs the processor and turns a panic into an error.
func (w *Watcher) handle(ctx context.Context, file files.FileInfo) (err error) {
	ctx = infrastructure.ContextWithTraceID(ctx)
	defer func() {
		if r := recover(); r != nil {
			w.logger.ErrorContext(ctx, "Panic while processing file",
				slog.String("file", file.Name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = apperrors.NewAppError(apperrors.ErrorTypeInternal, fmt.Sprintf("panic: %v", r), nil)
		}
	}()

	w.logger.DebugContext(ctx, "Processing file",
		slog.String("file", file.Name),
		slog.Time("mod_time", file.ModTime))
	return w.processor.ProcessFile(ctx, file.Path)
}

// forgetMissing drops files that left the inbox so a file put back later
// is processed again.
func (w *Watcher) forgetMissing(listed []files.FileInfo) {
	present := make(map[string]struct{}, len(listed))
	for _, f := range listed {
		present[f.Path] = struct{}{}
	}
	for path := range w.seen {
		if _, ok := present[path]; !ok {
			delete(w.seen, path)
		}
	}
}

// Seen reports whether path has been handled at modTime.
func (w *Watcher) Seen(path string, modTime time.Time) bool {
	last, ok := w.seen[path]
	return ok && last.Equal(modTime)
}
