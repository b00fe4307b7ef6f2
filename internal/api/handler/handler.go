// Package handler provides HTTP handlers for all API endpoints.
// Send requests go through notifications.Service; health endpoints query
// the pool and cache directly.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/reportpush/internal/api/respond"
	"github.com/albapepper/reportpush/internal/cache"
	"github.com/albapepper/reportpush/internal/notifications"
)

// Sender runs the send pipeline. *notifications.Service implements it.
type Sender interface {
	Send(ctx context.Context, req notifications.Request) (*notifications.Result, error)
}

// StatusReporter describes the push credential. *notifications.Gateway
// implements it.
type StatusReporter interface {
	Status() notifications.GatewayStatus
}

// Pinger checks database connectivity. *db.Pool implements it.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the handler's collaborators.
type Deps struct {
	Sender  Sender
	Status  StatusReporter
	DB      Pinger
	Cache   *cache.Cache
	Logger  *slog.Logger
	Version string
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	sender  Sender
	status  StatusReporter
	db      Pinger
	cache   *cache.Cache
	logger  *slog.Logger
	version string
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := d.Version
	if version == "" {
		version = "1.0.0"
	}
	return &Handler{
		sender:  d.Sender,
		status:  d.Status,
		db:      d.DB,
		cache:   d.Cache,
		logger:  logger,
		version: version,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and the send endpoint.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Report Push API",
		"version": h.version,
		"status":  "running",
		"docs":    "/docs",
		"endpoints": []string{
			"POST /api/v1/notifications/send",
			"POST /api/v1/notifications/preview",
			"GET /api/v1/notifications/status",
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.db == nil || h.db.HealthCheck(r.Context()) != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns recipient cache statistics (active keys, hits, misses).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
