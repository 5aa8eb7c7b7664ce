// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/kaziocha/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Attempt tracks failed sign-in attempts for one identity.
type Attempt struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Key          string             `bson:"key"`           // "phone:<digits>" or "email:<lowercase>"
	AttemptCount int                `bson:"attempt_count"` // Failed attempts in current window
	WindowStart  time.Time          `bson:"window_start"`  // When the current counting window started
	LockedUntil  *time.Time         `bson:"locked_until"`  // Lockout expiry time (nil if not locked)
	LastAttempt  time.Time          `bson:"last_attempt"`  // Most recent attempt (for TTL cleanup)
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// Config sets the lockout policy. A non-positive MaxAttempts disables
// limiting.
type Config struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// Enabled reports whether the policy limits anything.
func (c Config) Enabled() bool {
	return c.MaxAttempts > 0 && c.Window > 0 && c.Lockout > 0
}

// Decision is the outcome of CheckAllowed.
type Decision struct {
	Allowed     bool
	Remaining   int        // attempts left before lockout (-1 while locked)
	LockedUntil *time.Time // set while locked
}

// Store manages rate limit tracking for sign-in attempts.
type Store struct {
	c   *mongo.Collection
	cfg Config
	now func() time.Time
}

// New creates a new rate limit Store with the given policy.
func New(db *mongo.Database, cfg Config) *Store {
	return &Store{
		c:   db.Collection("rate_limits"),
		cfg: cfg,
		now: time.Now,
	}
}

// PhoneKey and EmailKey build the identity keys the two sign-in routes use.
// They normalize the same way the user store does, so "0712 345 678" and
// "0712345678" share one counter.
func PhoneKey(phone string) string { return "phone:" + normalize.Phone(phone) }
func EmailKey(email string) string { return "email:" + normalize.Email(email) }

func (s *Store) find(ctx context.Context, key string) (*Attempt, error) {
	var attempt Attempt
	err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&attempt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// CheckAllowed reports whether key may attempt to sign in. On a store error
// the attempt is allowed and the error returned so the caller can log it.
func (s *Store) CheckAllowed(ctx context.Context, key string) (Decision, error) {
	full := Decision{Allowed: true, Remaining: s.cfg.MaxAttempts}
	now := s.now()

	attempt, err := s.find(ctx, key)
	if err != nil {
		return full, err
	}
	if attempt == nil {
		return full, nil
	}

	if attempt.LockedUntil != nil && now.Before(*attempt.LockedUntil) {
		return Decision{Allowed: false, Remaining: -1, LockedUntil: attempt.LockedUntil}, nil
	}

	// Window expired: the counter starts over.
	if now.After(attempt.WindowStart.Add(s.cfg.Window)) {
		return full, nil
	}

	remaining := s.cfg.MaxAttempts - attempt.AttemptCount
	if remaining <= 0 {
		// A lockout that has run out within the same window still leaves
		// the count exhausted; allow one more try.
		return Decision{Allowed: true, Remaining: 1}, nil
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}

// RecordFailure records a failed attempt for key and reports whether it
// triggered a lockout.
func (s *Store) RecordFailure(ctx context.Context, key string) (Decision, error) {
	now := s.now().UTC()

	attempt, err := s.find(ctx, key)
	if err != nil {
		return Decision{Allowed: true}, err
	}

	if attempt == nil {
		attempt = &Attempt{
			ID:          primitive.NewObjectID(),
			Key:         key,
			WindowStart: now,
			CreatedAt:   now,
		}
	}

	if now.After(attempt.WindowStart.Add(s.cfg.Window)) ||
		(attempt.LockedUntil != nil && !now.Before(*attempt.LockedUntil)) {
		attempt.AttemptCount = 0
		attempt.WindowStart = now
		attempt.LockedUntil = nil
	}
	attempt.AttemptCount++
	attempt.LastAttempt = now
	attempt.UpdatedAt = now

	d := Decision{Allowed: true, Remaining: s.cfg.MaxAttempts - attempt.AttemptCount}
	if attempt.AttemptCount >= s.cfg.MaxAttempts {
		until := now.Add(s.cfg.Lockout)
		attempt.LockedUntil = &until
		d = Decision{Allowed: false, Remaining: -1, LockedUntil: &until}
	}

	_, err = s.c.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{
			"$set": bson.M{
				"attempt_count": attempt.AttemptCount,
				"window_start":  attempt.WindowStart,
				"locked_until":  attempt.LockedUntil,
				"last_attempt":  attempt.LastAttempt,
				"updated_at":    attempt.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":        attempt.ID,
				"created_at": attempt.CreatedAt,
			},
		},
		options.Update().SetUpsert(true),
	)
	return d, err
}

// ClearOnSuccess removes the counter for key after a successful sign-in.
func (s *Store) ClearOnSuccess(ctx context.Context, key string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"key": key})
	return err
}

// GetAttempt returns the current attempt record for key, or nil.
func (s *Store) GetAttempt(ctx context.Context, key string) (*Attempt, error) {
	return s.find(ctx, key)
}

// LockoutMessage is the client-facing text for a locked decision.
func LockoutMessage(d Decision, now time.Time) string {
	if d.LockedUntil == nil {
		return "Too many failed sign-in attempts. Please try again later."
	}
	remaining := d.LockedUntil.Sub(now)
	if remaining > time.Minute {
		return fmt.Sprintf("Too many failed sign-in attempts. Please try again in %d minute(s).", int(remaining.Minutes())+1)
	}
	return fmt.Sprintf("Too many failed sign-in attempts. Please try again in %d second(s).", int(remaining.Seconds())+1)
}

// RetryAfter is how long until a locked decision clears, or zero.
func RetryAfter(d Decision, now time.Time) time.Duration {
	if d.LockedUntil == nil {
		return 0
	}
	if wait := d.LockedUntil.Sub(now); wait > 0 {
		return wait
	}
	return 0
}
