package handler

import (
	"net/http"
	"runtime"
	"time"

	"halloween-rock-api/internal/cache"
	"halloween-rock-api/internal/repository"
	"halloween-rock-api/internal/service"
	"halloween-rock-api/pkg/response"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	stateBuffer *cache.RedisStateBuffer
	stateRepo   repository.StateRepository
	scheduler   *service.PassiveIncomeScheduler
	dbType      string // sqlite, postgres, mysql
	startTime   time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	stateBuffer *cache.RedisStateBuffer,
	stateRepo repository.StateRepository,
	scheduler *service.PassiveIncomeScheduler,
	dbType string,
) *AdminHandler {
	return &AdminHandler{
		stateBuffer: stateBuffer,
		stateRepo:   stateRepo,
		scheduler:   scheduler,
		dbType:      dbType,
		startTime:   time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb":  float64(memStats.HeapAlloc) / 1024 / 1024,
		"heap_inuse_mb":  float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":         memStats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}

	// Redis write-behind buffer stats
	if h.stateBuffer != nil {
		count, err := h.stateBuffer.Count(ctx)
		if err == nil {
			stats["redis_buffer"] = map[string]interface{}{
				"pending_states": count,
				"status":         "connected",
			}
		} else {
			stats["redis_buffer"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["redis_buffer"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// State database stats
	if h.stateRepo != nil {
		dbStats, err := h.stateRepo.GetStats(ctx)
		if err == nil {
			dbStats["status"] = "connected"
			stats["database"] = dbStats
		} else {
			stats["database"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["database"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// Passive income scheduler
	if h.scheduler != nil {
		stats["passive_scheduler"] = map[string]interface{}{
			"tracked_players": h.scheduler.Tracked(),
			"status":          "running",
		}
	} else {
		stats["passive_scheduler"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// GetHealth handles GET /api/v1/admin/health
func (h *AdminHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
