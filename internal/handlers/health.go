package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hosteldex/hosteldex-server/internal/models"
	"github.com/hosteldex/hosteldex-server/internal/services"
	"github.com/hosteldex/hosteldex-server/internal/storage"
)

const version = "1.2.0"

var startTime = time.Now()

// HealthHandler provides health check and metrics endpoints
type HealthHandler struct {
	store   storage.Store
	dataDir string
	logger  *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store storage.Store, dataDir string, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{store: store, dataDir: dataDir, logger: logger}
}

// Check handles GET /api/v1/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /api/v1/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	storageStatus := "available"
	if err := h.store.Ping(r.Context()); err != nil {
		storageStatus = "unavailable"
		respondJSON(w, http.StatusServiceUnavailable, models.HealthStatus{
			Status:  "not ready",
			Version: version,
			Storage: storageStatus,
		})
		return
	}

	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ready",
		Version: version,
		Uptime:  time.Since(startTime).String(),
		Storage: storageStatus,
	})
}

// Metrics handles GET /api/v1/health/metrics (admin only).
// Returns a point-in-time system resource sample.
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, services.CaptureMetrics(h.dataDir))
}
