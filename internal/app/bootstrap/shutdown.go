// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown is invoked during WAFFLE's shutdown phase, after the HTTP server
// has stopped accepting requests and in-flight ones have drained (or the
// shutdown timeout has elapsed).
//
// Closing the manager disconnects the current client, if any, and makes
// any later Acquire fail with connmgr.ErrClosed.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var firstErr error

	if deps.Store != nil {
		logger.Info("closing MongoDB connection manager",
			zap.String("state", deps.Store.State().String()))
		if err := deps.Store.Close(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
