// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/kaziocha/internal/app/store/ratelimit"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - Request body size limits
//
// AppConfig carries the store, token, CORS and rate limit settings for the
// job board.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Connection manager configuration
	StoreConnectTimeout time.Duration // Bound on one establishment attempt (default: 10s)
	StoreFatalOnStartup bool          // Connect during boot and abort if the store is unreachable
	StoreRetryAfter     time.Duration // Retry-After hint on degraded responses (default: 5s)

	// CORS allow-list for browser clients. Empty means any origin.
	AllowedOrigins []string

	// Session tokens
	JWTSecret  string        // HMAC secret for signing tokens (must be strong in production)
	TokenTTL   time.Duration // Token lifetime (default: 168h)
	BcryptCost int           // bcrypt work factor for password hashes (default: 10)

	// Sign-in rate limiting
	RateLimitEnabled       bool          // Lock an identity out after repeated failures (default: true)
	RateLimitLoginAttempts int           // Failures allowed within the window (default: 5)
	RateLimitLoginWindow   time.Duration // Window for counting failures (default: 15m)
	RateLimitLoginLockout  time.Duration // Lockout once the limit is reached (default: 15m)

	// Handler timeouts
	TimeoutShort  time.Duration // Single-document operations (default: 5s)
	TimeoutMedium time.Duration // Listings (default: 10s)
	TimeoutIndex  time.Duration // Index and validator setup (default: 30s)
}

// RateLimit returns the sign-in lockout policy, or the zero policy when
// rate limiting is turned off.
func (c AppConfig) RateLimit() ratelimit.Config {
	if !c.RateLimitEnabled {
		return ratelimit.Config{}
	}
	return ratelimit.Config{
		MaxAttempts: c.RateLimitLoginAttempts,
		Window:      c.RateLimitLoginWindow,
		Lockout:     c.RateLimitLoginLockout,
	}
}
