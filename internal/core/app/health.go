package app

import (
	"context"
	"fmt"
	"time"

	"usagelens/internal/core/ports"
	"usagelens/internal/data/history"
	"usagelens/internal/shared/util"
	"usagelens/internal/shared/version"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app   *App
	watch ports.WatchService
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

// WithWatch attaches the watch session whose latest aggregate is reported.
func (s *HealthService) WithWatch(w ports.WatchService) *HealthService {
	s.watch = w
	return s
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Version:    version.Version,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app == nil || s.app.analyzer == nil {
		status.Status = "degraded"
		status.Components["analyzer"] = "missing"
	} else {
		status.Components["analyzer"] = "ok"
	}

	switch {
	case s.app == nil || s.app.history == nil:
		status.Components["history"] = "disabled"
	default:
		if _, err := s.app.history.ListRuns(ctx, history.Query{Limit: 1}); err != nil {
			status.Status = "degraded"
			status.Components["history"] = "error: " + err.Error()
		} else {
			status.Components["history"] = "ok"
		}
	}

	if s.watch != nil {
		if agg := s.watch.Current(); agg != nil {
			status.Components["watch"] = fmt.Sprintf("ok (%d files, %d components)", agg.Metadata.FilesAnalyzed, agg.Summary.TotalComponents)
		} else {
			status.Components["watch"] = "starting"
		}
	}
	stats := util.ReadRuntimeStats()
	status.Components["runtime"] = fmt.Sprintf("heap %d/%d MB, %d goroutines, %d GC cycles", stats.HeapAllocMB, stats.HeapSysMB, stats.Goroutines, stats.NumGC)
	return status
}
