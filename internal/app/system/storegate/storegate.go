// Package storegate is the entry point for every request that needs the
// database. Require acquires the shared handle before the route runs and
// either places it in the request context or answers with a degraded 503.
package storegate

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/kaziocha/internal/app/system/connmgr"
	"github.com/dalemusser/kaziocha/internal/app/system/jsonutil"
	"github.com/dalemusser/kaziocha/internal/app/system/mongoconn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DegradedCode is the machine-readable code in every degraded response.
const DegradedCode = "STORE_UNAVAILABLE"

// DefaultRetryAfter is the hint sent when Gate is built without one.
const DefaultRetryAfter = 5 * time.Second

const degradedMessage = "Database temporarily unavailable. Please try again shortly."

// Acquirer is the part of the connection manager the gate uses.
type Acquirer interface {
	Acquire(ctx context.Context) (*connmgr.Handle[*mongo.Database], error)
	ReportDisconnected(h *connmgr.Handle[*mongo.Database])
}

// Gate guards store-dependent routes.
type Gate struct {
	mgr        Acquirer
	retryAfter time.Duration
	logger     *zap.Logger
}

// New creates a Gate. A non-positive retryAfter uses DefaultRetryAfter.
func New(mgr Acquirer, retryAfter time.Duration, logger *zap.Logger) *Gate {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}
	return &Gate{mgr: mgr, retryAfter: retryAfter, logger: logger}
}

type ctxKey struct{}

type entry struct {
	db         *mongo.Database
	report     func()
	retryAfter time.Duration
}

// Require is middleware that acquires the store handle for the request.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, err := g.mgr.Acquire(r.Context())
		if err != nil {
			g.logger.Warn("store unavailable, serving degraded response",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
				zap.String("kind", connmgr.KindName(err)),
				zap.Bool("client_gone", errors.Is(err, context.Canceled)),
			)
			WriteDegraded(w, g.retryAfter)
			return
		}

		e := &entry{
			db:         h.Conn(),
			report:     func() { g.mgr.ReportDisconnected(h) },
			retryAfter: g.retryAfter,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, e)))
	})
}

// WriteDegraded writes the 503 response served while the store is
// unreachable.
func WriteDegraded(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]any{
		"success":     false,
		"error":       degradedMessage,
		"code":        DegradedCode,
		"retry_after": secs,
	})
}

// Database returns the database borrowed for this request, or nil outside a
// Require-wrapped route.
func Database(ctx context.Context) *mongo.Database {
	if e, ok := ctx.Value(ctxKey{}).(*entry); ok {
		return e.db
	}
	return nil
}

// NewContext returns ctx carrying db with no manager behind it. Check is a
// no-op for such contexts.
func NewContext(ctx context.Context, db *mongo.Database) context.Context {
	return context.WithValue(ctx, ctxKey{}, &entry{db: db})
}

// Check inspects an error returned by a store call. If it means the client
// lost the server, the handle borrowed for this request is reported
// disconnected so the next request reconnects. It returns true in that case.
func Check(ctx context.Context, err error) bool {
	if !mongoconn.IsDisconnect(err) {
		return false
	}
	e, ok := ctx.Value(ctxKey{}).(*entry)
	if !ok || e.report == nil {
		return false
	}
	e.report()
	return true
}

// Degrade runs Check and, when err meant the server was lost, writes the
// degraded response. It returns true if a response was written.
func Degrade(w http.ResponseWriter, r *http.Request, err error) bool {
	if !Check(r.Context(), err) {
		return false
	}
	retryAfter := DefaultRetryAfter
	if e, ok := r.Context().Value(ctxKey{}).(*entry); ok && e.retryAfter > 0 {
		retryAfter = e.retryAfter
	}
	WriteDegraded(w, retryAfter)
	return true
}
