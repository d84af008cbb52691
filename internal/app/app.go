package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"attendx/internal/config"
	"attendx/internal/exporter"
	"attendx/internal/files"
	"attendx/internal/infrastructure"
	"attendx/internal/pipeline"
	"attendx/internal/services"
	"attendx/internal/summary"
	transport "attendx/internal/transport/http"
	"attendx/internal/watcher"
	"attendx/internal/workbook"
	"attendx/pkg/contracts"
	"attendx/pkg/contracts/domain"
)

// Options adjusts how an Application is assembled. The zero value builds
// the production wiring.
type Options struct {
	// BaseDir anchors relative paths; defaults to the working directory.
	BaseDir string
	// Version is reported by the status API; defaults to contracts.Version.
	Version string
	// Logger replaces the configured logger.
	Logger *slog.Logger
	// Console receives console log output; defaults to os.Stderr.
	Console io.Writer
	// Clock drives the watcher; defaults to the wall clock.
	Clock watcher.Clock
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         config.PathsConfig
	Version       string
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Components    *pipeline.Components
	Repository    *summary.Repository
	Processor     *pipeline.Processor
	Discovery     *files.Discovery
	Watcher       *watcher.Watcher
	Summary       *services.SummaryService
	Health        *services.HealthService

	logFile *os.File
}

// DetectResult is the outcome of detect mode for one file.
type DetectResult struct {
	File        string
	Report      string
	Transitions []domain.TransitionEvent
	Err         error
}

// New wires every component from cfg. Nothing touches the inbox until Watch,
// Process or Detect is called.
func New(cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if opts.Version == "" {
		opts.Version = contracts.Version
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = watcher.SystemClock{}
	}
	base := opts.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		base = wd
	}

	a := &Application{
		Config:  cfg,
		Paths:   cfg.Paths.Resolve(base),
		Version: opts.Version,
		Logger:  opts.Logger,
	}
	if a.Paths.ReportDir == "" {
		a.Paths.ReportDir = a.Paths.OutboxDir
	}

	if a.Logger == nil {
		logger, logFile, err := infrastructure.NewLogger(cfg.Logging, opts.Console)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.Logger = logger
		a.logFile = logFile
	}

	if err := a.initializeTelemetry(); err != nil {
		a.closeLog()
		return nil, err
	}
	if err := a.initializeServices(opts.Clock); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *Application) initializeTelemetry() error {
	providers, err := infrastructure.InitializeOTel(
		infrastructure.OTelConfigFrom(a.Config.Telemetry, a.Version), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.OTelProviders = providers

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	a.Metrics = metrics
	return nil
}

func (a *Application) initializeServices(clock watcher.Clock) error {
	components, err := pipeline.Build(a.Config)
	if err != nil {
		return err
	}
	a.Components = components
	a.Logger.Info("Pipeline configured",
		slog.Any("labels", components.Labels),
		slog.Any("transitions", lo.Map(components.Transitions, func(k domain.TransitionKind, _ int) string {
			return k.String()
		})),
		slog.Float64("tolerance", components.Classifier.Tolerance()))

	a.Repository = summary.NewRepository(a.Paths.SummaryFile, components.Labels,
		infrastructure.WithComponent(a.Logger, "summary"))

	a.Processor, err = pipeline.NewProcessor(pipeline.Options{
		Components: components,
		Repository: a.Repository,
		OutboxDir:  a.Paths.OutboxDir,
		Reports:    files.NewManager(a.Paths.ReportDir, a.Logger),
		Tracer:     a.OTelProviders.Tracer,
		Metrics:    a.Metrics,
		Logger:     a.Logger,
	})
	if err != nil {
		return err
	}

	a.Discovery = a.discovery(a.Paths.InboxDir)
	a.Watcher, err = watcher.New(watcher.Config{
		Lister:    a.Discovery,
		Processor: a.Processor,
		Clock:     clock,
		Interval:  a.Config.Watch.Interval,
		Metrics:   a.Metrics,
		Logger:    a.Logger,
	})
	if err != nil {
		return err
	}

	a.Summary = services.NewSummaryService(a.Repository, a.Logger)
	a.Health = services.NewHealthService(a.Version, a.Paths, a.Logger)
	return nil
}

// discovery lists spreadsheets in dir, skipping our own artifacts.
func (a *Application) discovery(dir string) *files.Discovery {
	return files.NewDiscovery(dir, a.Config.Watch.Extensions...).SkipSuffix(workbook.ArtifactSuffix)
}

// Watch creates the working directories and polls the inbox until ctx is
// cancelled. When enabled, the status server runs alongside; either one
// failing stops both.
func (a *Application) Watch(ctx context.Context) error {
	if err := a.Paths.EnsureDirectories(); err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "Starting watcher",
		slog.String("version", a.Version),
		slog.String("inbox", a.Paths.InboxDir),
		slog.String("outbox", a.Paths.OutboxDir),
		slog.String("summary", a.Paths.SummaryFile),
		slog.Duration("interval", a.Config.Watch.Interval))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Watcher.Run(gctx)
	})
	if a.Config.Status.Enabled {
		server := transport.NewServer(a.Config.Status, a.StatusRouter(), a.Logger)
		g.Go(func() error {
			return server.Run(gctx)
		})
	}

	err := g.Wait()
	a.Logger.InfoContext(ctx, "Watcher stopped")
	return err
}

// StatusRouter builds the status API handler.
func (a *Application) StatusRouter() http.Handler {
	return transport.NewRouter(transport.RouterDeps{
		Config:    a.Config.Status,
		Health:    a.Health,
		Summary:   a.Summary,
		Providers: a.OTelProviders,
		Logger:    infrastructure.WithComponent(a.Logger, "status"),
	})
}

// Process runs one file through the pipeline, independent of the watcher.
func (a *Application) Process(ctx context.Context, path string) (*pipeline.Report, error) {
	if err := a.Paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	return a.Processor.Process(ctx, path)
}

// Detect writes transition reports for every spreadsheet in dir, or for the
// inbox when dir is empty. A failing file is recorded and the rest still run.
func (a *Application) Detect(ctx context.Context, dir string) ([]DetectResult, error) {
	if dir == "" {
		dir = a.Paths.InboxDir
	}
	if err := files.NewManager(a.Paths.ReportDir, a.Logger).EnsureDirectory(); err != nil {
		return nil, err
	}

	list, err := a.discovery(dir).List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]DetectResult, 0, len(list))
	for _, file := range list {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		report, events, err := a.Processor.Detect(ctx, file.Path)
		if err != nil {
			infrastructure.WithError(a.Logger, err).WarnContext(ctx, "Detect failed",
				slog.String("file", file.Name))
		}
		results = append(results, DetectResult{
			File:        file.Name,
			Report:      report,
			Transitions: events,
			Err:         err,
		})
	}
	return results, nil
}

// Trend reads the current trend from the summary workbook.
func (a *Application) Trend(ctx context.Context) (*services.TrendSeries, error) {
	return a.Summary.Trend(ctx)
}

// Export writes the summary as CSV files into dir, or into the outbox when
// dir is empty.
func (a *Application) Export(ctx context.Context, dir string) ([]string, error) {
	if dir == "" {
		dir = a.Paths.OutboxDir
	}
	store, err := a.Repository.Load(ctx)
	if err != nil {
		return nil, err
	}
	writer := exporter.NewCSVWriter(dir, a.Logger)
	return exporter.NewSummaryExporter(writer, a.Logger).Export(ctx, store)
}

// ResolvePath makes a command line path absolute against the working
// directory.
func ResolvePath(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}

// Close flushes telemetry and closes the log file.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.closeLog(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *Application) closeLog() error {
	if a.logFile == nil {
		return nil
	}
	err := a.logFile.Close()
	a.logFile = nil
	return err
}
