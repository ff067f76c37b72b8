// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/middleware"
	"github.com/carterperez-dev/streamflix/internal/subscription"
)

type Sweeper interface {
	SweepStatuses(ctx context.Context) (map[subscription.Status]int64, error)
}

type Handler struct {
	dbStats     func() sql.DBStats
	redisStats  func() *redis.PoolStats
	redisPing   func(ctx context.Context) error
	dbPing      func(ctx context.Context) error
	tableCounts func(ctx context.Context) (map[string]int64, error)
	cacheState  func() string
	sweeper     Sweeper
}

// HandlerConfig wires the handler to whatever is running. Nil fields are
// reported as absent.
type HandlerConfig struct {
	DBStats     func() sql.DBStats
	RedisStats  func() *redis.PoolStats
	RedisPing   func(ctx context.Context) error
	DBPing      func(ctx context.Context) error
	TableCounts func(ctx context.Context) (map[string]int64, error)
	CacheState  func() string
	Sweeper     Sweeper
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:     cfg.DBStats,
		redisStats:  cfg.RedisStats,
		redisPing:   cfg.RedisPing,
		dbPing:      cfg.DBPing,
		tableCounts: cfg.TableCounts,
		cacheState:  cfg.CacheState,
		sweeper:     cfg.Sweeper,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, guard middleware.Guard) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(guard.Write)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
		r.Get("/stats/tables", h.GetTableStats)
		r.Post("/sweep", h.RunSweep)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealthy := true
	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			dbHealthy = false
		}
	}

	redisHealthy := true
	if h.redisPing != nil {
		if err := h.redisPing(ctx); err != nil {
			redisHealthy = false
		}
	}

	response := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: dbHealthy,
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy:      redisHealthy,
			CacheBreaker: h.getCacheState(),
			Stats:        h.getRedisStats(),
		},
		Runtime: readRuntimeStats(),
	}

	if h.tableCounts != nil {
		if counts, err := h.tableCounts(ctx); err == nil {
			response.Tables = counts
		}
	}

	core.OK(w, response)
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntimeStats())
}

func (h *Handler) GetTableStats(w http.ResponseWriter, r *http.Request) {
	if h.tableCounts == nil {
		core.OK(w, map[string]int64{})
		return
	}

	counts, err := h.tableCounts(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, counts)
}

// RunSweep applies the subscription status sweep immediately instead of
// waiting for the next scheduled run.
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	if h.sweeper == nil {
		core.JSONError(w, core.NewAppError(
			http.StatusServiceUnavailable,
			core.CodeInternal,
			"subscription sweep not configured",
			nil,
		))
		return
	}

	changed, err := h.sweeper.SweepStatuses(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, "Subscription statuses updated", SweepResponse{
		Activated: changed[subscription.StatusActive],
		Expired:   changed[subscription.StatusInactive],
	})
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getCacheState() string {
	if h.cacheState == nil {
		return "disabled"
	}
	return h.cacheState()
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type SystemStatsResponse struct {
	Database DatabaseStatus   `json:"database"`
	Redis    RedisStatus      `json:"redis"`
	Runtime  RuntimeStats     `json:"runtime"`
	Tables   map[string]int64 `json:"tables,omitempty"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy      bool            `json:"healthy"`
	CacheBreaker string          `json:"cache_breaker"`
	Stats        *RedisPoolStats `json:"stats,omitempty"`
}

type SweepResponse struct {
	Activated int64 `json:"activated"`
	Expired   int64 `json:"expired"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
