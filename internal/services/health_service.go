package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	api "campaignpulse/pkg/contracts/api/v1"
)

// Health states reported by HealthCheck
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	reports   *ReportService
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service reporting on reports
func NewHealthService(version string, reports *ReportService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		reports:   reports,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck is ok once a run is published and degraded before
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	status := api.HealthResponse{
		Status:    HealthDegraded,
		Version:   hs.version,
		Timestamp: time.Now().UTC(),
	}
	if hs.reports != nil && hs.reports.Ready() {
		status.Status = HealthOK
		status.RunID = hs.reports.RunID()
	}

	hs.logger.DebugContext(ctx, "health check",
		slog.String("status", status.Status),
		slog.String("uptime", time.Since(hs.startTime).String()))
	return status
}

// Version returns version and runtime information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"uptime":     time.Since(hs.startTime).Seconds(),
		"start_time": hs.startTime.Format(time.RFC3339),
	}
}
