package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"sheetqa/internal/config"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	paths     config.PathsConfig
	narrative *NarrativeService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds  float64 `json:"uptime_seconds"`
	TotalReports   int     `json:"total_reports"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	GoVersion      string  `json:"go_version"`
	OS             string  `json:"os"`
	Arch           string  `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version, buildTime string, paths config.PathsConfig, narrativeService *NarrativeService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		paths:     paths,
		narrative: narrativeService,
		startTime: time.Now(),
		logger:    logger,
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

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["storage"] = hs.checkStorageHealth()
	status.Services["narrative"] = hs.checkNarrativeHealth(ctx)

	// The narrative backend is optional; only storage gates readiness.
	if sh, ok := status.Services["storage"].(ServiceHealth); ok && sh.Status != "ready" {
		status.Status = "not_ready"
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
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}

	return result
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	var totalReports int
	var totalSize int64

	filepath.Walk(hs.paths.ReportsDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			totalReports++
			totalSize += info.Size()
		}
		return nil
	})

	return SystemStats{
		UptimeSeconds:  time.Since(hs.startTime).Seconds(),
		TotalReports:   totalReports,
		TotalSizeBytes: totalSize,
		GoVersion:      runtime.Version(),
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
	}, nil
}

// checkStorageHealth checks the upload and report directories
func (hs *HealthService) checkStorageHealth() ServiceHealth {
	for _, dir := range []string{hs.paths.UploadsDir, hs.paths.ReportsDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("directory not found: %s", dir),
			}
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "storage directories are accessible",
	}
}

// checkNarrativeHealth checks the narrative backend
func (hs *HealthService) checkNarrativeHealth(ctx context.Context) ServiceHealth {
	if hs.narrative == nil || !hs.narrative.Enabled() {
		return ServiceHealth{
			Status:  "disabled",
			Message: "narrative generation is disabled",
		}
	}

	status := hs.narrative.Status(ctx)
	if !status.Connected {
		return ServiceHealth{
			Status:  "not_ready",
			Message: status.Error,
		}
	}
	if !status.ModelAvailable {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "configured model is not available",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "narrative backend is healthy",
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	stats, _ := hs.SystemStats(ctx)

	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     stats,
	}
}
