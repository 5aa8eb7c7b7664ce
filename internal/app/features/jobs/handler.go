// internal/app/features/jobs/handler.go
package jobsfeature

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/kaziocha/internal/app/features/errors"
	jobstore "github.com/dalemusser/kaziocha/internal/app/store/jobs"
	"github.com/dalemusser/kaziocha/internal/app/system/inputval"
	"github.com/dalemusser/kaziocha/internal/app/system/jsonutil"
	"github.com/dalemusser/kaziocha/internal/app/system/storegate"
	"github.com/dalemusser/kaziocha/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	msgInvalidJSON = "Invalid JSON payload"
	msgMissing     = "Missing required fields: title, description, location, phone"
	msgPhoneDigits = "Phone number must contain digits"
	msgIDRequired  = "Job ID is required"
	msgIDInvalid   = "Invalid job ID"
	msgNotFound    = "Job not found"
	msgPosted      = "Job posted successfully!"
	msgUpdated     = "Job updated successfully!"
	msgDeleted     = "Job deleted successfully!"
)

// Handler handles job board HTTP requests.
type Handler struct {
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

// NewHandler creates a new jobs handler.
func NewHandler(errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		ErrLog: errLog,
		Log:    logger,
	}
}

func jobs(ctx context.Context) *jobstore.Store {
	return jobstore.New(storegate.Database(ctx))
}

// jobID reads the ID from the path or ?id=. It writes a 400 and returns
// false when the ID is missing or malformed.
func jobID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		raw = query.Get(r, "id")
	}
	if raw == "" {
		jsonutil.BadRequest(w, msgIDRequired)
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		jsonutil.BadRequest(w, msgIDInvalid)
		return primitive.NilObjectID, false
	}
	return id, true
}

func parsePositive(s string, def int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// List handles GET /api/jobs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePositive(query.Get(r, "page"), 1)
	limit := parsePositive(query.Get(r, "limit"), jobstore.DefaultLimit)

	filter := jobstore.ListFilter{
		Category: query.Get(r, "category"),
		Location: query.Get(r, "location"),
		Search:   query.Get(r, "search"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := jobs(ctx).List(ctx, filter, page, limit)
	if err != nil {
		h.ErrLog.Fail(w, r, "failed to list jobs", err)
		return
	}

	jsonutil.OK(w, ListResponse{
		Success: true,
		Jobs:    res.Jobs,
		Pagination: Pagination{
			Current: res.Page,
			Pages:   res.Pages,
			Total:   res.Total,
		},
	})
}

// Get handles GET /api/jobs/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	job, err := jobs(ctx).GetByID(ctx, id)
	if errors.Is(err, jobstore.ErrNotFound) {
		jsonutil.NotFound(w, msgNotFound)
		return
	}
	if err != nil {
		h.ErrLog.Fail(w, r, "failed to load job", err)
		return
	}
	jsonutil.OK(w, JobResponse{Success: true, Job: job})
}

// Create handles POST /api/jobs.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := jsonutil.Decode(r, &in); err != nil {
		if errors.Is(err, jsonutil.ErrEmptyBody) {
			jsonutil.BadRequest(w, msgMissing)
			return
		}
		jsonutil.BadRequest(w, msgInvalidJSON)
		return
	}
	if in.missingRequired() {
		jsonutil.BadRequest(w, msgMissing)
		return
	}
	if res := inputval.Validate(&in); res.HasErrors() {
		jsonutil.ValidationError(w, res.First(), res.Fields())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	job, err := jobs(ctx).Create(ctx, in.toJob())
	if err != nil {
		h.ErrLog.Fail(w, r, "failed to create job", err)
		return
	}

	h.Log.Info("job posted",
		zap.String("job_id", job.ID.Hex()),
		zap.String("employer_id", job.EmployerID))
	jsonutil.Created(w, JobResponse{Success: true, Message: msgPosted, Job: &job})
}

// Update handles PUT /api/jobs/{id} and PUT /api/jobs?id=.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	var in updateInput
	if err := jsonutil.Decode(r, &in); err != nil && !errors.Is(err, jsonutil.ErrEmptyBody) {
		jsonutil.BadRequest(w, msgInvalidJSON)
		return
	}
	if in.clearsPhone() {
		jsonutil.BadRequest(w, msgPhoneDigits)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	job, err := jobs(ctx).Update(ctx, id, in.toUpdate())
	if errors.Is(err, jobstore.ErrNotFound) {
		jsonutil.NotFound(w, msgNotFound)
		return
	}
	if err != nil {
		h.ErrLog.Fail(w, r, "failed to update job", err)
		return
	}
	jsonutil.OK(w, JobResponse{Success: true, Message: msgUpdated, Job: job})
}

// Delete handles DELETE /api/jobs/{id} and DELETE /api/jobs?id=.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := jobs(ctx).Delete(ctx, id)
	if errors.Is(err, jobstore.ErrNotFound) {
		jsonutil.NotFound(w, msgNotFound)
		return
	}
	if err != nil {
		h.ErrLog.Fail(w, r, "failed to delete job", err)
		return
	}

	h.Log.Info("job deleted", zap.String("job_id", id.Hex()))
	jsonutil.OK(w, map[string]any{"success": true, "message": msgDeleted})
}
