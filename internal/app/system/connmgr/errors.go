// internal/app/system/connmgr/errors.go
package connmgr

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrConnectionTimeout is the kind of a ConnectionError whose attempt
	// exceeded the configured connect timeout.
	ErrConnectionTimeout = errors.New("store connection timed out")
	// ErrConnectionRefused is the kind of a ConnectionError whose store was
	// unreachable or refused the connection.
	ErrConnectionRefused = errors.New("store connection refused")
	// ErrAuthentication is the kind of a ConnectionError whose store was
	// reachable but rejected the credentials.
	ErrAuthentication = errors.New("store authentication failed")
	// ErrClosed is returned by Acquire after Close.
	ErrClosed = errors.New("connection manager is closed")
)

// ConnectionError is returned by Acquire when an establishment attempt fails.
// Every caller coalesced onto the same attempt receives the same value.
//
// Kind is one of ErrConnectionTimeout, ErrConnectionRefused or
// ErrAuthentication; errors.Is matches both Kind and Cause.
type ConnectionError struct {
	Kind  error
	Cause error
}

func (e *ConnectionError) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Cause.Error()
}

func (e *ConnectionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// IsConnectionError reports whether err is (or wraps) a *ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// KindName returns a short diagnostic name for the kind of err:
// "timeout", "refused", "authentication" or "" for anything else.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnectionTimeout):
		return "timeout"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrConnectionRefused):
		return "refused"
	}
	return ""
}

// classify turns whatever the establish function returned into a
// *ConnectionError. A deadline always wins over the classifier.
func classify(err error, classifier func(error) error) *ConnectionError {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ConnectionError{Kind: ErrConnectionTimeout, Cause: err}
	}
	kind := ErrConnectionRefused
	if classifier != nil {
		if k := classifier(err); k != nil {
			kind = k
		}
	}
	return &ConnectionError{Kind: kind, Cause: err}
}

// redact removes the password embedded in uri from msg.
func redact(msg, uri string) string {
	if uri == "" || msg == "" {
		return msg
	}
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return msg
	}
	if pw, ok := u.User.Password(); ok && pw != "" {
		msg = strings.ReplaceAll(msg, pw, "xxxxx")
	}
	return msg
}
