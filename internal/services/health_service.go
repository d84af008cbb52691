package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"attendx/internal/config"
	"attendx/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     config.PathsConfig
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service for the resolved paths.
func NewHealthService(version string, paths config.PathsConfig, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether the inbox and outbox exist and the summary
// workbook, if present, is a regular file.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"inbox":   checkDir(hs.paths.InboxDir),
			"outbox":  checkDir(hs.paths.OutboxDir),
			"summary": checkSummary(hs.paths.SummaryFile),
		},
	}

	for name, service := range status.Services {
		if service.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "Readiness check failed",
				slog.String("check", name),
				slog.String("message", service.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":        hs.version,
		"commit":         contracts.GitCommit,
		"build_time":     contracts.BuildTime,
		"api_version":    contracts.APIVersion,
		"summary_format": contracts.SummaryFormatVersion,
		"go_version":     runtime.Version(),
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"start_time":     hs.startTime.Format(time.RFC3339),
	}
}

func checkDir(path string) ServiceHealth {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	case !info.IsDir():
		return ServiceHealth{Status: "not_ready", Message: path + " is not a directory"}
	}
	return ServiceHealth{Status: "ready"}
}

func checkSummary(path string) ServiceHealth {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return ServiceHealth{Status: "ready", Message: "no summary yet"}
	case err != nil:
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	case info.IsDir():
		return ServiceHealth{Status: "not_ready", Message: path + " is a directory"}
	}
	return ServiceHealth{Status: "ready"}
}
