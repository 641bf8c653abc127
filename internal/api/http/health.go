package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/deskhq/desk-backend/internal/store"
)

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	DB        string                 `json:"db,omitempty"`
	Redis     string                 `json:"redis,omitempty"`
	Store     *store.MetricsSnapshot `json:"store,omitempty"`
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	serviceName string
	version     string
	db          Pinger
	redis       *redis.Client
	metrics     *store.Metrics
}

type HealthOption func(*HealthHandler)

func WithDB(db Pinger) HealthOption {
	return func(h *HealthHandler) { h.db = db }
}

func WithRedis(client *redis.Client) HealthOption {
	return func(h *HealthHandler) { h.redis = client }
}

func WithStoreMetrics(m *store.Metrics) HealthOption {
	return func(h *HealthHandler) { h.metrics = m }
}

func NewHealthHandler(serviceName, version string, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{
		serviceName: serviceName,
		version:     version,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = probe(ctx, h.db.Ping)
	}
	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = probe(ctx, func(ctx context.Context) error { return h.redis.Ping(ctx).Err() })
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        dbStatus,
		Redis:     redisStatus,
	}
	if dbStatus == "down" || redisStatus == "down" {
		resp.Status = "degraded"
	}
	if h.metrics != nil {
		snap := h.metrics.Snapshot()
		resp.Store = &snap
	}

	c.JSON(http.StatusOK, resp)
}

func probe(ctx context.Context, ping func(context.Context) error) string {
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	if err := ping(pingCtx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
