package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/kaziocha/internal/app/system/connmgr"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// unreachableConfig points at a port nothing listens on.
func unreachableConfig(fatal bool) AppConfig {
	return AppConfig{
		MongoURI:            "mongodb://127.0.0.1:1",
		MongoDatabase:       "kaziocha_unreachable",
		StoreConnectTimeout: 200 * time.Millisecond,
		StoreFatalOnStartup: fatal,
		StoreRetryAfter:     time.Second,
		JWTSecret:           "test-secret-with-enough-length-for-hs256",
		TokenTTL:            time.Hour,
		BcryptCost:          4,
	}
}

func TestConnectDB_FatalOnStartupFailsWithinBound(t *testing.T) {
	start := time.Now()
	_, err := ConnectDB(context.Background(), &config.CoreConfig{}, unreachableConfig(true), zap.NewNop())
	took := time.Since(start)

	if err == nil {
		t.Fatal("ConnectDB() error = nil, want unreachable store to abort startup")
	}
	if !connmgr.IsConnectionError(err) {
		t.Errorf("ConnectDB() error = %v, want a wrapped *ConnectionError", err)
	}
	if took > 2*time.Second {
		t.Errorf("ConnectDB() took %v, want it bounded by the connect timeout", took)
	}
}

func TestConnectDB_DefersConnection(t *testing.T) {
	deps, err := ConnectDB(context.Background(), &config.CoreConfig{}, unreachableConfig(false), zap.NewNop())
	if err != nil {
		t.Fatalf("ConnectDB() error = %v", err)
	}
	t.Cleanup(func() { _ = deps.Store.Close(context.Background()) })

	if got := deps.Store.State(); got != connmgr.Uninitialized {
		t.Errorf("State() = %v, want %v", got, connmgr.Uninitialized)
	}
	if snap := deps.Store.Snapshot(); snap.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0 before any request", snap.Attempts)
	}
	if deps.Gate == nil || deps.Tokens == nil || deps.Metrics == nil {
		t.Errorf("deps = %+v, want gate, tokens and metrics", deps)
	}
}
