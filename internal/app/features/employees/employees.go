// internal/app/features/employees/employees.go
package employees

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/kaziocha/internal/app/features/errors"
	userstore "github.com/dalemusser/kaziocha/internal/app/store/users"
	"github.com/dalemusser/kaziocha/internal/app/system/jsonutil"
	"github.com/dalemusser/kaziocha/internal/app/system/storegate"
	"github.com/dalemusser/kaziocha/internal/app/system/timeouts"
	"github.com/dalemusser/kaziocha/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler lists job seekers for employers browsing the directory.
type Handler struct {
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

func NewHandler(errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{errLog: errLog, logger: logger}
}

// Routes returns the /api/employees router.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}

// List handles GET /api/employees, newest joinDate first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := userstore.New(storegate.Database(ctx)).ListByRole(ctx, models.RoleEmployee)
	if err != nil {
		h.errLog.Fail(w, r, "list employees failed", err)
		return
	}
	jsonutil.OK(w, map[string]any{"success": true, "employees": list})
}
