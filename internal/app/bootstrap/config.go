// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/kaziocha/internal/app/system/authutil"
	"github.com/dalemusser/kaziocha/internal/app/system/connmgr"
	"github.com/dalemusser/kaziocha/internal/app/system/storegate"
	"github.com/dalemusser/kaziocha/internal/app/system/timeouts"
	"github.com/dalemusser/kaziocha/internal/app/system/token"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "KAZIOCHA"

// devJWTSecret is the default secret. ValidateConfig refuses it in prod.
const devJWTSecret = "dev-only-change-me-kaziocha-jwt-secret-0123456789"

// minJWTSecretLen is the shortest secret accepted in prod.
const minJWTSecretLen = 32

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: KAZIOCHA_MONGO_URI, KAZIOCHA_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "kaziocha", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Connection manager
	{Name: "store_connect_timeout", Default: "10s", Desc: "Timeout for one MongoDB connection attempt"},
	{Name: "store_fatal_on_startup", Default: false, Desc: "Connect at boot and exit if MongoDB is unreachable"},
	{Name: "store_retry_after", Default: "5s", Desc: "Retry-After hint sent with 503 responses while MongoDB is down"},

	// CORS
	{Name: "allowed_origins", Default: "", Desc: "Comma-separated CORS origins (blank allows any origin)"},

	// Session tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "Token signing secret (must be strong in production)"},
	{Name: "token_ttl", Default: "168h", Desc: "Session token lifetime (e.g., 24h, 168h)"},
	{Name: "bcrypt_cost", Default: authutil.DefaultBcryptCost, Desc: "bcrypt cost for password hashes"},

	// Sign-in rate limiting
	{Name: "rate_limit_enabled", Default: true, Desc: "Lock out a phone or email after repeated failed sign-ins"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Failed sign-ins allowed before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Window for counting failed sign-ins"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration once the limit is reached"},

	// Handler timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for listings"},
	{Name: "timeout_index", Default: "30s", Desc: "Timeout for index and validator setup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, KAZIOCHA_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		StoreConnectTimeout: appValues.Duration("store_connect_timeout", connmgr.DefaultConnectTimeout),
		StoreFatalOnStartup: appValues.Bool("store_fatal_on_startup"),
		StoreRetryAfter:     appValues.Duration("store_retry_after", storegate.DefaultRetryAfter),

		AllowedOrigins: splitList(appValues.String("allowed_origins")),

		JWTSecret:  appValues.String("jwt_secret"),
		TokenTTL:   appValues.Duration("token_ttl", token.DefaultTTL),
		BcryptCost: appValues.Int("bcrypt_cost"),

		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutIndex:  appValues.Duration("timeout_index", timeouts.DefaultIndex),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return errors.New("mongo_database must not be empty")
	}
	if appCfg.StoreConnectTimeout <= 0 {
		return fmt.Errorf("store_connect_timeout must be positive, got %s", appCfg.StoreConnectTimeout)
	}
	if appCfg.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %s", appCfg.TokenTTL)
	}
	if appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, appCfg.BcryptCost)
	}
	if appCfg.RateLimitEnabled && !appCfg.RateLimit().Enabled() {
		return errors.New("rate_limit_login_attempts, rate_limit_login_window and rate_limit_login_lockout must be positive when rate limiting is enabled")
	}
	if appCfg.JWTSecret == "" {
		return errors.New("jwt_secret must not be empty")
	}

	if coreCfg.Env == "prod" {
		if appCfg.JWTSecret == devJWTSecret || len(appCfg.JWTSecret) < minJWTSecretLen {
			return fmt.Errorf("jwt_secret must be set to a random value of at least %d characters in prod", minJWTSecretLen)
		}
	} else if appCfg.JWTSecret == devJWTSecret {
		logger.Warn("using the development JWT secret; set KAZIOCHA_JWT_SECRET before deploying")
	}

	return nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
