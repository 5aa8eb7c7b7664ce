package home

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func TestNewHandler(t *testing.T) {
	h := NewHandler(zap.NewNop())
	if h == nil {
		t.Fatal("NewHandler() returned nil")
	}
}

func TestIndex(t *testing.T) {
	h := NewHandler(zap.NewNop())
	rec := httptest.NewRecorder()

	h.Index(rec, httptest.NewRequest(http.MethodGet, "/api", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp IndexResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || len(resp.Endpoints) != len(Endpoints) {
		t.Errorf("resp = %+v", resp)
	}
}

func TestMountRoutes(t *testing.T) {
	h := NewHandler(zap.NewNop())
	h.now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) { MountRoutes(r, h) })

	tests := []struct {
		path    string
		message string
	}{
		{"/api/health", "Server is healthy"},
		{"/api/test", "Test route is working!"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var resp PingResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Message != tt.message {
				t.Errorf("message = %q, want %q", resp.Message, tt.message)
			}
			if resp.Timestamp != "2025-02-03T04:05:06Z" {
				t.Errorf("timestamp = %q", resp.Timestamp)
			}
		})
	}
}
