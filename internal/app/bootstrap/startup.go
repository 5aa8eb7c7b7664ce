// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/kaziocha/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after ConnectDB, before the HTTP handler is built.
//
// It does not touch the store: under the default policy MongoDB may not be
// reachable yet, and the first request will connect.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Index:  appCfg.TimeoutIndex,
	})

	cur := timeouts.Current()
	logger.Info("handler timeouts configured",
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("index", cur.Index),
		zap.String("store_state", deps.Store.State().String()),
	)
	return nil
}
