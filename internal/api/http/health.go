package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/service"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/vision"
)

type HealthResponse struct {
	Status    string                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Service   string                  `json:"service"`
	Version   string                  `json:"version"`
	DB        string                  `json:"db,omitempty"`
	Redis     string                  `json:"redis,omitempty"`
	Vision    VisionHealth            `json:"vision"`
	Pipeline  service.PipelineMetrics `json:"pipeline"`
}

type VisionHealth struct {
	Provider     string  `json:"provider,omitempty"`
	Calls        int64   `json:"calls"`
	Errors       int64   `json:"errors"`
	Timeouts     int64   `json:"timeouts"`
	NoMeal       int64   `json:"no_meal"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	ErrorRatePct float64 `json:"error_rate_pct"`
}

type HealthHandler struct {
	serviceName string
	version     string
	provider    string
	db          *pgxpool.Pool
	redis       *redis.Client
}

func NewHealthHandler(serviceName, version string, db *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		redis:       rdb,
	}
}

// WithProvider names the active vision provider in the report.
func (h *HealthHandler) WithProvider(id string) *HealthHandler {
	h.provider = id
	return h
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := "healthy"

	dbStatus := "disabled"
	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.db.Ping(pingCtx); err != nil {
			dbStatus = "down"
			status = "degraded"
		} else {
			dbStatus = "up"
		}
	}

	redisStatus := "disabled"
	if h.redis != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.redis.Ping(pingCtx).Err(); err != nil {
			redisStatus = "down"
			status = "degraded"
		} else {
			redisStatus = "up"
		}
	}

	m := vision.GetMetrics()
	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        dbStatus,
		Redis:     redisStatus,
		Vision: VisionHealth{
			Provider:     h.provider,
			Calls:        m.Calls,
			Errors:       m.Errors,
			Timeouts:     m.Timeouts,
			NoMeal:       m.NoMeal,
			AvgLatencyMs: m.AverageLatency(),
			ErrorRatePct: m.ErrorRate(),
		},
		Pipeline: service.GetPipelineMetrics(),
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
