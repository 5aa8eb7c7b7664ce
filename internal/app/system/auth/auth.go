// Package auth provides bearer-token authentication middleware.
package auth

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Phone: the digits-only phone number users sign in with

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/kaziocha/internal/app/system/jsonutil"
	"github.com/dalemusser/kaziocha/internal/app/system/token"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TokenParser verifies a bearer token. *token.Manager satisfies it.
type TokenParser interface {
	Parse(tokenString string) (*token.Claims, error)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// User is the authenticated caller taken from a verified token.
type User struct {
	ID    string
	Phone string
}

// UserID returns the user's ID as an ObjectID.
// If the ID is invalid, returns a zero ObjectID.
func (u *User) UserID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag from the request context.
func CurrentUser(r *http.Request) (*User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*User)
	return u, ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireToken returns middleware that rejects requests without a valid
// "Authorization: Bearer <token>" header with 401.
//
// Usage in routes.go:
//
//	r.With(auth.RequireToken(tokens, logger)).Put("/profile", h.UpdateProfile)
func RequireToken(tp TokenParser, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				logger.Debug("request rejected: missing bearer token",
					zap.String("path", r.URL.Path),
				)
				jsonutil.Unauthorized(w, "Authentication required")
				return
			}

			claims, err := tp.Parse(raw)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, token.ErrExpiredToken) {
					msg = "Token has expired"
				}
				logger.Debug("request rejected: bad bearer token",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				jsonutil.Unauthorized(w, msg)
				return
			}

			next.ServeHTTP(w, withUser(r, &User{ID: claims.UserID, Phone: claims.Phone}))
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

func withUser(r *http.Request, u *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a User into the request context for testing.
func WithTestUser(r *http.Request, u *User) *http.Request {
	return withUser(r, u)
}
