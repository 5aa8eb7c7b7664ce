// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/kaziocha/internal/app/system/connmetrics"
	"github.com/dalemusser/kaziocha/internal/app/system/connmgr"
	"github.com/dalemusser/kaziocha/internal/app/system/indexes"
	"github.com/dalemusser/kaziocha/internal/app/system/mongoconn"
	"github.com/dalemusser/kaziocha/internal/app/system/storegate"
	"github.com/dalemusser/kaziocha/internal/app/system/timeouts"
	"github.com/dalemusser/kaziocha/internal/app/system/token"
	"github.com/dalemusser/kaziocha/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ConnectDB builds the connection manager and the pieces that hang off it.
//
// No connection is opened here unless store_fatal_on_startup is set: the
// first request that needs the store connects, so the process comes up and
// answers health checks while MongoDB is still unreachable.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mgr, err := connmgr.New(connmgr.Config[*mongo.Database]{
		URI:            appCfg.MongoURI,
		ConnectTimeout: appCfg.StoreConnectTimeout,
		Establish: mongoconn.Establish(mongoconn.Options{
			Database:    appCfg.MongoDatabase,
			MaxPoolSize: appCfg.MongoMaxPoolSize,
			MinPoolSize: appCfg.MongoMinPoolSize,
		}),
		Disconnect: mongoconn.Disconnect,
		Classify:   mongoconn.Classify,
		OnReady:    ensureSchema(logger),
		Observer:   connmetrics.New(reg),
		Logger:     logger.Named("store"),
	})
	if err != nil {
		return DBDeps{}, err
	}

	tokens, err := token.NewManager(appCfg.JWTSecret, appCfg.TokenTTL)
	if err != nil {
		return DBDeps{}, fmt.Errorf("token manager: %w", err)
	}

	if appCfg.StoreFatalOnStartup {
		logger.Info("connecting to MongoDB at startup",
			zap.String("database", appCfg.MongoDatabase),
			zap.Duration("timeout", appCfg.StoreConnectTimeout))
		if _, err := mgr.Acquire(ctx); err != nil {
			_ = mgr.Close(context.Background())
			return DBDeps{}, fmt.Errorf("MongoDB unreachable at startup: %w", err)
		}
	} else {
		logger.Info("MongoDB connection deferred to first request",
			zap.String("database", appCfg.MongoDatabase))
	}

	return DBDeps{
		Store:   mgr,
		Gate:    storegate.New(mgr, appCfg.StoreRetryAfter, logger),
		Metrics: reg,
		Tokens:  tokens,
	}, nil
}

// ensureSchema returns the OnReady hook. It runs after every successful
// connect, so collections, validators and indexes are in place whenever the
// store comes (back) up. Failures are logged and do not fail the connection.
func ensureSchema(logger *zap.Logger) func(h *connmgr.Handle[*mongo.Database]) {
	return func(h *connmgr.Handle[*mongo.Database]) {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Index())
		defer cancel()

		db := h.Conn()
		log := logger.With(zap.Uint64("generation", h.Generation()))

		if err := validators.EnsureAll(ctx, db, log); err != nil {
			log.Error("failed to ensure validators", zap.Error(err))
		}
		if err := indexes.EnsureAll(ctx, db); err != nil {
			log.Error("failed to ensure indexes", zap.Error(err))
			return
		}
		log.Info("database schema ensured")
	}
}
