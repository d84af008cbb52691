package services

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "attendx/internal/errors"
	"attendx/internal/summary"
	"attendx/pkg/contracts/domain"
)

// SummaryLoader reads the persisted summary. *summary.Repository satisfies it.
type SummaryLoader interface {
	Load(ctx context.Context) (*summary.Store, error)
}

// WeekSummary is the content of one v<week> sheet.
type WeekSummary struct {
	Week   string              `json:"week"`
	Labels []domain.Label      `json:"labels"`
	Rows   []domain.SummaryRow `json:"rows"`
}

// TrendSeries is the week-ordered trend.
type TrendSeries struct {
	Weeks  []string            `json:"weeks"`
	Labels []domain.Label      `json:"labels"`
	Points []domain.TrendPoint `json:"points"`
}

// SummaryService exposes the summary workbook read-only. Every call reloads
// the workbook, so it always reflects the last completed save.
type SummaryService struct {
	loader SummaryLoader
	logger *slog.Logger
}

// NewSummaryService creates a summary service.
func NewSummaryService(loader SummaryLoader, logger *slog.Logger) *SummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryService{loader: loader, logger: logger.With(slog.String("service", "summary"))}
}

// Weeks returns the weeks that hold student rows, in numeric order.
func (s *SummaryService) Weeks(ctx context.Context) ([]string, error) {
	store, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	weeks := store.Weeks()
	if weeks == nil {
		weeks = []string{}
	}
	return weeks, nil
}

// Week returns the rows of one week. An unknown week wraps ErrWeekNotFound.
func (s *SummaryService) Week(ctx context.Context, week string) (*WeekSummary, error) {
	store, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	rows := store.Rows(week)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrWeekNotFound, week)
	}
	return &WeekSummary{Week: week, Labels: store.Labels(), Rows: rows}, nil
}

// Trend returns the per-week label totals.
func (s *SummaryService) Trend(ctx context.Context) (*TrendSeries, error) {
	store, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	points := store.Trend()
	series := &TrendSeries{
		Weeks:  summary.SortWeeks(weeksOf(points)),
		Labels: store.Labels(),
		Points: points,
	}
	if series.Points == nil {
		series.Points = []domain.TrendPoint{}
	}
	s.logger.DebugContext(ctx, "Trend computed",
		slog.Int("weeks", len(series.Weeks)),
		slog.Int("points", len(series.Points)))
	return series, nil
}

// TextStatistics returns the global text statistics, optionally limited to
// one week.
func (s *SummaryService) TextStatistics(ctx context.Context, week string) ([]domain.TextStatistic, error) {
	store, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	stats := []domain.TextStatistic{}
	for _, t := range store.TextStatistics() {
		if week == "" || t.Week == week {
			stats = append(stats, t)
		}
	}
	return stats, nil
}

func weeksOf(points []domain.TrendPoint) []string {
	weeks := make([]string, 0, len(points))
	for _, p := range points {
		weeks = append(weeks, p.Week)
	}
	return weeks
}
