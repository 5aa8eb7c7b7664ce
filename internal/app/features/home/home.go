// internal/app/features/home/home.go
package home

import (
	"net/http"
	"time"

	"github.com/dalemusser/kaziocha/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Endpoints lists the API groups advertised by the index route.
var Endpoints = []string{"/auth", "/users", "/jobs", "/employees", "/health"}

// Handler serves the store-free /api routes.
type Handler struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a new home Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
		now:    time.Now,
	}
}

// IndexResponse is the body of GET /api.
type IndexResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints"`
}

// PingResponse is the body of GET /api/health and GET /api/test.
type PingResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// MountRoutes adds the index, health and test routes under r.
// None of them touch the store.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Get("/test", h.Test)
}

// Index describes the API.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, IndexResponse{
		Success:   true,
		Message:   "Kazi Ocha Backend API is working!",
		Endpoints: Endpoints,
	})
}

// Health reports that the process is serving. It does not check the store;
// see /health for that.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.ping(w, "Server is healthy")
}

// Test is a smoke-test route for clients.
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	h.ping(w, "Test route is working!")
}

func (h *Handler) ping(w http.ResponseWriter, msg string) {
	jsonutil.OK(w, PingResponse{
		Success:   true,
		Message:   msg,
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
	})
}
