// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/kaziocha/internal/app/system/connmgr"
	"github.com/dalemusser/kaziocha/internal/app/system/storegate"
	"github.com/dalemusser/kaziocha/internal/app/system/token"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: Startup, BuildHandler, and Shutdown.
//
// The store is reached only through the connection manager. Nothing here
// holds a *mongo.Client directly: handlers borrow the current database per
// request through the gate, so a reconnect is picked up without a restart.
type DBDeps struct {
	// Store is the lazily connected MongoDB connection manager.
	Store *connmgr.Manager[*mongo.Database]

	// Gate is the request entry point for store-dependent routes.
	Gate *storegate.Gate

	// Metrics is the registry behind /metrics.
	Metrics *prometheus.Registry

	// Tokens signs and verifies session tokens.
	Tokens *token.Manager
}
