package mongoconn

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/kaziocha/internal/app/system/connmgr"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"auth code", mongo.CommandError{Code: 18, Message: "Authentication failed."}, connmgr.ErrAuthentication},
		{"auth message", errors.New("connection() error occurred during connection handshake: auth error: sasl conversation error"), connmgr.ErrAuthentication},
		{"deadline", context.DeadlineExceeded, connmgr.ErrConnectionTimeout},
		{"wrapped deadline", fmt.Errorf("ping: %w", context.DeadlineExceeded), connmgr.ErrConnectionTimeout},
		{"refused", errors.New("dial tcp 127.0.0.1:27017: connect: connection refused"), connmgr.ErrConnectionRefused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDisconnect(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"client disconnected", mongo.ErrClientDisconnected, true},
		{"wrapped client disconnected", fmt.Errorf("find: %w", mongo.ErrClientDisconnected), true},
		{"network label", mongo.CommandError{Labels: []string{"NetworkError"}}, true},
		{"server selection", errors.New("server selection error: context deadline exceeded"), true},
		{"duplicate key", errors.New("E11000 duplicate key error collection: kazi.users"), false},
		{"no documents", mongo.ErrNoDocuments, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDisconnect(tt.err); got != tt.want {
				t.Errorf("IsDisconnect(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDisconnect_NilDatabase(t *testing.T) {
	if err := Disconnect(context.Background(), nil); err != nil {
		t.Errorf("Disconnect(nil) = %v, want nil", err)
	}
}

func TestEstablish_UnreachableServer(t *testing.T) {
	establish := Establish(Options{Database: "kazi_test"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	db, err := establish(ctx, "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=300&connectTimeoutMS=300")
	if err == nil {
		_ = Disconnect(context.Background(), db)
		t.Fatal("Establish() against a closed port should fail")
	}
	if db != nil {
		t.Error("Establish() returned a database alongside an error")
	}
	if kind := Classify(err); kind == nil {
		t.Errorf("Classify(%v) = nil, want a connection error kind", err)
	}
}
