package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "attendx/internal/errors"
	"attendx/internal/services"
	"attendx/pkg/contracts/domain"
)

// SummaryServiceInterface is the read side of the summary used by the
// handlers.
type SummaryServiceInterface interface {
	Weeks(ctx context.Context) ([]string, error)
	Week(ctx context.Context, week string) (*services.WeekSummary, error)
	Trend(ctx context.Context) (*services.TrendSeries, error)
	TextStatistics(ctx context.Context, week string) ([]domain.TextStatistic, error)
}

// SummaryHandler serves the summary workbook as JSON.
type SummaryHandler struct {
	service      SummaryServiceInterface
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(service SummaryServiceInterface, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		service:      service,
		errorHandler: apperrors.NewErrorHandler(logger),
		logger:       logger.With(slog.String("handler", "summary")),
	}
}

// Register adds the summary routes to r, normally the /api/v1 group.
func (h *SummaryHandler) Register(r chi.Router) {
	r.Get("/trend", h.GetTrend)
	r.Get("/weeks", h.ListWeeks)
	r.Get("/weeks/{week}", h.GetWeek)
	r.Get("/text-statistics", h.GetTextStatistics)
}

// GetTrend handles GET /api/v1/trend
func (h *SummaryHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	trend, err := h.service.Trend(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, trend)
}

// ListWeeks handles GET /api/v1/weeks
func (h *SummaryHandler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.service.Weeks(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"weeks": weeks})
}

// GetWeek handles GET /api/v1/weeks/{week}
func (h *SummaryHandler) GetWeek(w http.ResponseWriter, r *http.Request) {
	week, err := h.service.Week(r.Context(), chi.URLParam(r, "week"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, week)
}

// GetTextStatistics handles GET /api/v1/text-statistics?week=N
func (h *SummaryHandler) GetTextStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.TextStatistics(r.Context(), r.URL.Query().Get("week"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"statistics": stats})
}
