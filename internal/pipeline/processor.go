// Package pipeline runs one attendance workbook through the full flow:
// read, analyze, write the per-file artifact and fold the result into the
// summary workbook.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"attendx/internal/attendance"
	apperrors "attendx/internal/errors"
	"attendx/internal/files"
	"attendx/internal/infrastructure"
	"attendx/internal/summary"
	"attendx/internal/workbook"
	"attendx/pkg/contracts/domain"
)

// reportPrefix names detect-mode reports: transitions_<stem>.txt.
const reportPrefix = "transitions_"

// Report describes what processing one file produced.
type Report struct {
	Source   string
	Artifact string
	Result   domain.FileResult
	// Key is zero and Aggregated false when the file name carries no
	// class and week.
	Key        domain.FileKey
	Aggregated bool
	Ingest     summary.IngestReport
}

// Options wires a Processor.
type Options struct {
	Components *Components
	Repository *summary.Repository
	OutboxDir  string
	Reports    *files.Manager
	Tracer     trace.Tracer
	Metrics    *infrastructure.PipelineMetrics
	Logger     *slog.Logger
}

// Processor handles one file at a time. It is not safe for concurrent use:
// every Process call reads, modifies and rewrites the summary workbook.
type Processor struct {
	analyzer *attendance.Analyzer
	layout   workbook.Layout
	repo     *summary.Repository
	outDir   string
	reports  *files.Manager
	tracer   trace.Tracer
	metrics  *infrastructure.PipelineMetrics
	logger   *slog.Logger
}

// NewProcessor validates the options and returns a Processor.
func NewProcessor(opts Options) (*Processor, error) {
	if opts.Components == nil || opts.Components.Analyzer == nil {
		return nil, errors.New("pipeline: components are required")
	}
	if opts.Repository == nil {
		return nil, errors.New("pipeline: summary repository is required")
	}
	if opts.OutboxDir == "" {
		return nil, errors.New("pipeline: outbox directory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.MeterName)
	}
	reports := opts.Reports
	if reports == nil {
		reports = files.NewManager(opts.OutboxDir, logger)
	}

	return &Processor{
		analyzer: opts.Components.Analyzer,
		layout:   opts.Components.Layout,
		repo:     opts.Repository,
		outDir:   opts.OutboxDir,
		reports:  reports,
		tracer:   tracer,
		metrics:  opts.Metrics,
		logger:   infrastructure.WithComponent(logger, "pipeline"),
	}, nil
}

// Process reads the workbook at path, writes its artifact to the outbox and
// ingests it into the summary. A file name without class and week still
// gets its artifact; only the aggregation is skipped.
func (p *Processor) Process(ctx context.Context, path string) (report *Report, err error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := p.tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(attribute.String("file", filepath.Base(path))))
	defer span.End()

	start := time.Now()
	defer func() {
		outcome := infrastructure.OutcomeProcessed
		switch {
		case err != nil && apperrors.IsTransient(err):
			outcome = infrastructure.OutcomeRetry
		case err != nil:
			outcome = infrastructure.OutcomeFailed
			infrastructure.RecordError(ctx, err)
		case !report.Aggregated:
			outcome = infrastructure.OutcomeSkipped
		}
		p.metrics.RecordFile(ctx, outcome, time.Since(start))
	}()

	result, err := p.analyze(ctx, path)
	if err != nil {
		return nil, err
	}

	report = &Report{Source: path, Result: result, Artifact: workbook.ArtifactPath(p.outDir, path)}
	if err := workbook.WriteArtifact(path, report.Artifact, p.layout, result); err != nil {
		return nil, apperrors.NewProcessingError(apperrors.StageWrite, path, err)
	}
	p.recordResult(ctx, result)
	infrastructure.AddSpanEvent(ctx, "artifact.written", attribute.String("artifact", report.Artifact))

	key, err := attendance.ParseFileKey(path)
	if err != nil {
		p.logger.WarnContext(ctx, "File name has no class and week, summary not updated",
			slog.String("file", filepath.Base(path)),
			slog.String("error", err.Error()))
		return report, nil
	}
	report.Key = key

	ingest, err := p.ingest(ctx, key, result)
	if err != nil {
		return nil, apperrors.NewProcessingError(apperrors.StageIngest, path, err)
	}
	report.Aggregated = true
	report.Ingest = ingest

	p.logger.InfoContext(ctx, "File processed",
		slog.String("file", filepath.Base(path)),
		slog.String("class", key.Class),
		slog.String("week", key.Week),
		slog.Int("students", result.Students()),
		slog.Int("transitions", len(result.Transitions)),
		slog.Int("replaced_rows", ingest.Replaced),
		slog.String("artifact", report.Artifact))

	return report, nil
}

// ProcessFile is Process for callers that only need the error.
func (p *Processor) ProcessFile(ctx context.Context, path string) error {
	_, err := p.Process(ctx, path)
	return err
}

// Detect analyzes the workbook and writes a transitions_<stem>.txt report
// to the reports directory when any transition was found. It returns the
// report path, or "" when nothing was written.
func (p *Processor) Detect(ctx context.Context, path string) (string, []domain.TransitionEvent, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := p.tracer.Start(ctx, "pipeline.detect",
		trace.WithAttributes(attribute.String("file", filepath.Base(path))))
	defer span.End()

	result, err := p.analyze(ctx, path)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return "", nil, err
	}
	for _, ev := range result.Transitions {
		p.metrics.RecordTransition(ctx, ev.Kind.String())
	}
	if len(result.Transitions) == 0 {
		p.logger.InfoContext(ctx, "No transitions detected", slog.String("file", filepath.Base(path)))
		return "", nil, nil
	}

	out, err := p.reports.WriteLines(ReportName(path), FormatTransitions(filepath.Base(path), result.Transitions))
	if err != nil {
		err = apperrors.NewProcessingError(apperrors.StageWrite, path, err)
		infrastructure.RecordError(ctx, err)
		return "", nil, err
	}

	p.logger.InfoContext(ctx, "Transitions reported",
		slog.String("file", filepath.Base(path)),
		slog.Int("transitions", len(result.Transitions)),
		slog.String("report", out))
	return out, result.Transitions, nil
}

func (p *Processor) analyze(ctx context.Context, path string) (domain.FileResult, error) {
	grid, err := workbook.ReadGrid(path, p.layout)
	if err != nil {
		return domain.FileResult{}, apperrors.NewProcessingError(apperrors.StageParse, path, err)
	}
	result := p.analyzer.Analyze(path, grid)

	infrastructure.AddSpanEvent(ctx, "file.analyzed",
		attribute.Int("rows", len(grid.Rows)),
		attribute.Int("days", len(result.Days)),
		attribute.Int("transitions", len(result.Transitions)))
	p.logger.DebugContext(ctx, "Header mapped",
		slog.String("file", filepath.Base(path)),
		slog.Any("days", result.Days.Days()))
	return result, nil
}

// ingest folds the result into the summary. The workbook is only replaced
// after the whole store has been rebuilt in memory.
func (p *Processor) ingest(ctx context.Context, key domain.FileKey, result domain.FileResult) (summary.IngestReport, error) {
	store, err := p.repo.Load(ctx)
	if err != nil {
		return summary.IngestReport{}, err
	}
	report := store.IngestKey(key, result)
	if err := p.repo.Save(ctx, store); err != nil {
		return summary.IngestReport{}, err
	}
	p.metrics.RecordIngest(ctx)
	return report, nil
}

func (p *Processor) recordResult(ctx context.Context, result domain.FileResult) {
	written := 0
	totals := make(map[domain.Label]int)
	for _, t := range result.Tallies {
		if t.ShouldWrite() {
			written++
		}
		for label, n := range t.Counts {
			totals[label] += n
		}
	}
	p.metrics.RecordRows(ctx, written)
	for label, n := range totals {
		p.metrics.RecordLabel(ctx, label.String(), n)
	}
	for _, ev := range result.Transitions {
		p.metrics.RecordTransition(ctx, ev.Kind.String())
	}
}

// ReportName returns the detect-mode report name for an input file.
func ReportName(source string) string {
	base := filepath.Base(source)
	return reportPrefix + strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
}

// FormatTransitions renders one line per event under a heading.
func FormatTransitions(source string, events []domain.TransitionEvent) []string {
	lines := []string{fmt.Sprintf("Transitions in %s:", source), ""}
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("%s - %s: %s", ev.Student, ev.Day, ev.Kind))
	}
	return lines
}
