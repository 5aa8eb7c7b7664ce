// internal/app/features/jobs/routes.go
package jobsfeature

import (
	"net/http"

	"github.com/dalemusser/kaziocha/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the jobs feature.
// Listings are public. Updates and deletes accept the ID either in the path
// or as ?id= for older clients.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/", h.Update)
	r.Delete("/", h.Delete)

	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonutil.MethodNotAllowed(w)
	})
	return r
}
