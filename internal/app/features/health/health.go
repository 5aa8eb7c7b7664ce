// internal/app/features/health/health.go
package health

import (
	"net/http"

	"github.com/dalemusser/kaziocha/internal/app/system/connmgr"
	"github.com/dalemusser/kaziocha/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Snapshotter reports the connection manager's state without doing I/O.
type Snapshotter interface {
	Snapshot() connmgr.Snapshot
}

// Handler provides health check endpoints.
type Handler struct {
	store  Snapshotter
	logger *zap.Logger
}

// NewHandler creates a new health check Handler.
func NewHandler(store Snapshotter, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
// Provides /health (full check), /health/ready, and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds /ready and /livez endpoints directly on the root router.
// This is the standard convention for Kubernetes probes:
//   - /ready (or /readyz) - readiness probe
//   - /livez - liveness probe
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// degraded reports whether the last attempt failed. An uninitialized manager
// connects on the first request, and an attempt in progress may still succeed.
func degraded(s connmgr.Snapshot) bool {
	return s.State == connmgr.Failed
}

// Check reports the store state. It never opens a connection.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	s := h.store.Snapshot()
	resp := Response{
		Status:   "ok",
		Services: map[string]string{"mongodb": s.State.String()},
	}

	status := http.StatusOK
	if degraded(s) {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
		h.logger.Warn("health check: store unavailable",
			zap.String("last_error_kind", s.LastErrorKind),
			zap.Uint64("attempts", s.Attempts))
	}
	jsonutil.JSON(w, status, resp)
}

// Ready checks if the service is ready to accept requests.
// Used by Kubernetes readiness probes. It answers 200 even while the store is
// down: the gate answers 503 per request, and only gated requests start a new
// connection attempt, so dropping out of rotation would block recovery.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	s := h.store.Snapshot()
	status := "ready"
	if degraded(s) {
		status = "degraded"
	}
	jsonutil.OK(w, map[string]string{"status": status, "mongodb": s.State.String()})
}

// Live checks if the service is alive.
// Used by Kubernetes liveness probes. It does not depend on the store.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}

// StoreStatus returns the full redacted snapshot for diagnostics.
func (h *Handler) StoreStatus(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]any{
		"success": true,
		"store":   h.store.Snapshot(),
	})
}
