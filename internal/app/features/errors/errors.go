// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/kaziocha/internal/app/system/jsonutil"
	"github.com/dalemusser/kaziocha/internal/app/system/storegate"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// InternalMessage is the only error text a client sees for a 500.
const InternalMessage = "Internal server error"

// ErrorLogger wraps the zap logger for error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.LogWithFields(r, msg, err)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("request_id", chimw.GetReqID(r.Context())),
	}, fields...)
	e.logger.Error(msg, allFields...)
}

// Fail handles an unexpected store error. If the error means the server was
// lost, the borrowed handle is reported and the degraded response is
// written; otherwise it is logged and the client gets a plain 500.
func (e *ErrorLogger) Fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if storegate.Degrade(w, r, err) {
		e.logger.Warn(msg+": store connection lost",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
		return
	}
	e.Log(r, msg, err)
	jsonutil.InternalError(w, InternalMessage)
}

// Handler provides JSON fallbacks for unmatched routes.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers requests that match no route.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.NotFound(w, "Endpoint not found")
}

// MethodNotAllowed answers a known path called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.MethodNotAllowed(w)
}
