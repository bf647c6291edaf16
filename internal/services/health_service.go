package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// ClientCounter reports how many websocket clients are connected.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	sessions  *SessionStore
	hub       ClientCounter
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

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version, buildTime string, sessions *SessionStore, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		sessions:  sessions,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Check returns the current health status. The process has no external
// dependencies, so the status is healthy whenever it can answer.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"go_version":     runtime.Version(),
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": time.Since(s.startTime).Seconds(),
			"build_time":     s.buildTime,
		},
		Services: map[string]interface{}{},
	}

	if s.sessions != nil {
		status.Services["sessions"] = map[string]interface{}{
			"status": "healthy",
			"active": s.sessions.Count(),
		}
	}
	if s.hub != nil {
		status.Services["websocket"] = map[string]interface{}{
			"status":  "healthy",
			"clients": s.hub.ClientCount(),
		}
	}

	s.logger.DebugContext(ctx, "health check served",
		slog.String("status", status.Status))

	return status
}
