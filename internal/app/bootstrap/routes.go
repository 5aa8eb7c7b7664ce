// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	employeesfeature "github.com/dalemusser/kaziocha/internal/app/features/employees"
	errorsfeature "github.com/dalemusser/kaziocha/internal/app/features/errors"
	healthfeature "github.com/dalemusser/kaziocha/internal/app/features/health"
	homefeature "github.com/dalemusser/kaziocha/internal/app/features/home"
	jobsfeature "github.com/dalemusser/kaziocha/internal/app/features/jobs"
	phoneauthfeature "github.com/dalemusser/kaziocha/internal/app/features/phoneauth"
	usersfeature "github.com/dalemusser/kaziocha/internal/app/features/users"
	"github.com/dalemusser/kaziocha/internal/app/system/apicors"
	"github.com/dalemusser/kaziocha/internal/app/system/authutil"
	"github.com/dalemusser/kaziocha/internal/app/system/connmetrics"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// requestTimeout bounds every request, including time spent waiting for the
// store to connect.
const requestTimeout = 30 * time.Second

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// Routes fall in two groups:
//   - Store-independent: /health, /ready, /livez, /metrics, /api/store/status
//     and the /api banner routes. These never open a connection.
//   - Store-dependent: /api/auth, /api/users, /api/employees, /api/jobs.
//     Each sits behind the gate, which borrows the database for the request
//     or answers 503 while MongoDB is unreachable.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()
	hasher := authutil.NewHasher(appCfg.BcryptCost)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(requestTimeout))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(apicors.FromOrigins(appCfg.AllowedOrigins))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// ─────────────────────────────────────────────────────────────────────────────
	// Store-independent routes
	// ─────────────────────────────────────────────────────────────────────────────

	healthHandler := healthfeature.NewHandler(deps.Store, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)
	r.Get("/api/store/status", healthHandler.StoreStatus)

	r.Handle("/metrics", connmetrics.Handler(deps.Metrics))

	homeHandler := homefeature.NewHandler(logger)

	// ─────────────────────────────────────────────────────────────────────────────
	// API
	// ─────────────────────────────────────────────────────────────────────────────

	r.Route("/api", func(api chi.Router) {
		homefeature.MountRoutes(api, homeHandler)

		api.Group(func(sr chi.Router) {
			sr.Use(deps.Gate.Require)

			authHandler := phoneauthfeature.NewHandler(deps.Tokens, hasher, errLog, logger)
			authHandler.SetRateLimit(appCfg.RateLimit())
			sr.Mount("/auth", phoneauthfeature.Routes(authHandler, deps.Tokens))

			usersHandler := usersfeature.NewHandler(deps.Tokens, hasher, errLog, logger)
			usersHandler.SetRateLimit(appCfg.RateLimit())
			sr.Mount("/users", usersfeature.Routes(usersHandler))

			employeesHandler := employeesfeature.NewHandler(errLog, logger)
			sr.Mount("/employees", employeesfeature.Routes(employeesHandler))

			jobsHandler := jobsfeature.NewHandler(errLog, logger)
			sr.Mount("/jobs", jobsfeature.Routes(jobsHandler))
		})
	})

	// 404/405 catch-alls for unmatched routes
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	logger.Info("routes built",
		zap.Int("allowed_origins", len(appCfg.AllowedOrigins)),
		zap.Int("bcrypt_cost", hasher.Cost()),
		zap.Duration("token_ttl", deps.Tokens.TTL()),
		zap.Bool("rate_limit", appCfg.RateLimit().Enabled()),
	)

	return r, nil
}
