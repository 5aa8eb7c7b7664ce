// Package mongoconn adapts the MongoDB driver to the connection manager:
// establishing a pooled client, closing it, and classifying driver errors.
package mongoconn

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/kaziocha/internal/app/system/connmgr"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// authFailedCode is the server error code for a failed authentication.
const authFailedCode = 18

// abandonTimeout bounds the disconnect of a client whose ping failed.
const abandonTimeout = 5 * time.Second

// Options configures the client built by Establish.
type Options struct {
	Database    string
	MaxPoolSize uint64 // 0 keeps the waffle default
	MinPoolSize uint64 // 0 keeps the waffle default
}

// Establish returns an EstablishFunc that connects with the waffle pool
// settings and pings the primary before handing out the database.
func Establish(opts Options) connmgr.EstablishFunc[*mongo.Database] {
	return func(ctx context.Context, uri string) (*mongo.Database, error) {
		poolCfg := wafflemongo.DefaultPoolConfig()
		if opts.MaxPoolSize > 0 {
			poolCfg.MaxPoolSize = opts.MaxPoolSize
		}
		if opts.MinPoolSize > 0 {
			poolCfg.MinPoolSize = opts.MinPoolSize
		}

		client, err := wafflemongo.ConnectWithPool(ctx, uri, opts.Database, poolCfg)
		if err != nil {
			return nil, err
		}

		// mongo.Connect is lazy about the network; the ping makes a dead
		// server fail here instead of on the first request.
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			dctx, cancel := context.WithTimeout(context.Background(), abandonTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
			return nil, err
		}

		return client.Database(opts.Database), nil
	}
}

// Disconnect closes the client behind db.
func Disconnect(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return nil
	}
	return db.Client().Disconnect(ctx)
}

// Classify maps driver errors to connection error kinds.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == authFailedCode {
		return connmgr.ErrAuthentication
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "authentication failed") || strings.Contains(msg, "auth error") {
		return connmgr.ErrAuthentication
	}
	if mongo.IsTimeout(err) {
		return connmgr.ErrConnectionTimeout
	}
	return connmgr.ErrConnectionRefused
}

// IsDisconnect reports whether err means the client can no longer reach the
// server, as opposed to a query-level failure.
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	if mongo.IsNetworkError(err) {
		return true
	}
	return strings.Contains(err.Error(), "server selection error")
}
