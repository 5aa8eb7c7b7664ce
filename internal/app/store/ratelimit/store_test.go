package ratelimit

import (
	"testing"
	"time"

	"github.com/dalemusser/kaziocha/internal/testutil"
)

func policy(maxAttempts int) Config {
	return Config{MaxAttempts: maxAttempts, Window: 15 * time.Minute, Lockout: 30 * time.Minute}
}

func TestConfig_Enabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"zero", Config{}, false},
		{"no attempts", Config{Window: time.Minute, Lockout: time.Minute}, false},
		{"no window", Config{MaxAttempts: 5, Lockout: time.Minute}, false},
		{"full", policy(5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	if got := EmailKey("  Test@Example.COM "); got != "email:test@example.com" {
		t.Errorf("EmailKey() = %q", got)
	}
	if got := PhoneKey("0712 345-678"); got != "phone:0712345678" {
		t.Errorf("PhoneKey() = %q", got)
	}
}

func TestStore_CheckAllowed_NoRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, policy(5))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d, err := store.CheckAllowed(ctx, PhoneKey("0700000001"))
	if err != nil {
		t.Fatalf("CheckAllowed() error = %v", err)
	}
	if !d.Allowed || d.Remaining != 5 || d.LockedUntil != nil {
		t.Errorf("CheckAllowed() = %+v, want allowed with 5 remaining", d)
	}
}

func TestStore_RecordFailure_IncreasesCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, policy(5))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := EmailKey("failuser@example.com")

	d, err := store.RecordFailure(ctx, key)
	if err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}
	if !d.Allowed || d.Remaining != 4 {
		t.Errorf("RecordFailure() = %+v, want allowed with 4 remaining", d)
	}

	store.RecordFailure(ctx, key)
	store.RecordFailure(ctx, key)

	d, _ = store.CheckAllowed(ctx, key)
	if !d.Allowed || d.Remaining != 2 {
		t.Errorf("CheckAllowed() = %+v, want allowed with 2 remaining", d)
	}
}

func TestStore_RecordFailure_TriggersLockout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, policy(3))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := PhoneKey("0700000002")
	store.RecordFailure(ctx, key)
	store.RecordFailure(ctx, key)

	d, err := store.RecordFailure(ctx, key)
	if err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}
	if d.Allowed || d.LockedUntil == nil {
		t.Fatalf("RecordFailure() = %+v, want lockout", d)
	}
	if d.LockedUntil.Before(time.Now().Add(29 * time.Minute)) {
		t.Error("lockedUntil should be at least 29 minutes in the future")
	}

	d, _ = store.CheckAllowed(ctx, key)
	if d.Allowed || d.Remaining != -1 {
		t.Errorf("CheckAllowed() = %+v, want locked", d)
	}
}

func TestStore_ClearOnSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, policy(5))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := EmailKey("clearuser@example.com")
	store.RecordFailure(ctx, key)
	store.RecordFailure(ctx, key)

	if err := store.ClearOnSuccess(ctx, key); err != nil {
		t.Fatalf("ClearOnSuccess() error = %v", err)
	}
	d, _ := store.CheckAllowed(ctx, key)
	if d.Remaining != 5 {
		t.Errorf("remaining = %d, want 5 after clear", d.Remaining)
	}
	if a, _ := store.GetAttempt(ctx, key); a != nil {
		t.Errorf("GetAttempt() = %+v, want nil after clear", a)
	}
}

func TestStore_GetAttempt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, policy(5))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := EmailKey("getattempt@example.com")

	attempt, err := store.GetAttempt(ctx, key)
	if err != nil {
		t.Fatalf("GetAttempt() error = %v", err)
	}
	if attempt != nil {
		t.Error("GetAttempt() should return nil before any failure")
	}

	store.RecordFailure(ctx, key)

	attempt, err = store.GetAttempt(ctx, key)
	if err != nil {
		t.Fatalf("GetAttempt() error = %v", err)
	}
	if attempt == nil || attempt.AttemptCount != 1 || attempt.Key != key {
		t.Errorf("GetAttempt() = %+v", attempt)
	}
}

func TestStore_WindowExpiry_ResetsCounter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, Config{MaxAttempts: 5, Window: time.Millisecond, Lockout: 30 * time.Minute})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := PhoneKey("0700000003")
	store.RecordFailure(ctx, key)
	store.RecordFailure(ctx, key)

	time.Sleep(10 * time.Millisecond)

	d, _ := store.CheckAllowed(ctx, key)
	if !d.Allowed || d.Remaining != 5 {
		t.Errorf("CheckAllowed() = %+v, want full attempts after window expiry", d)
	}

	d, _ = store.RecordFailure(ctx, key)
	if d.Remaining != 4 {
		t.Errorf("RecordFailure() remaining = %d, want 4 in a fresh window", d.Remaining)
	}
}

func TestStore_LockoutExpiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, Config{MaxAttempts: 1, Window: time.Hour, Lockout: time.Hour})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := PhoneKey("0700000004")
	if d, _ := store.RecordFailure(ctx, key); d.Allowed {
		t.Fatal("first failure should lock with MaxAttempts=1")
	}

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	d, _ := store.CheckAllowed(ctx, key)
	if !d.Allowed {
		t.Errorf("CheckAllowed() = %+v, want allowed after lockout expiry", d)
	}
}

func TestLockoutMessage(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := func(d time.Duration) Decision {
		until := now.Add(d)
		return Decision{LockedUntil: &until}
	}

	tests := []struct {
		name string
		d    Decision
		want string
	}{
		{"unknown", Decision{}, "Too many failed sign-in attempts. Please try again later."},
		{"minutes", in(14*time.Minute + 30*time.Second), "Too many failed sign-in attempts. Please try again in 15 minute(s)."},
		{"seconds", in(30 * time.Second), "Too many failed sign-in attempts. Please try again in 31 second(s)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LockoutMessage(tt.d, now); got != tt.want {
				t.Errorf("LockoutMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	if got := RetryAfter(Decision{LockedUntil: &until}, now); got != time.Minute {
		t.Errorf("RetryAfter() = %v, want 1m", got)
	}
	if got := RetryAfter(Decision{LockedUntil: &past}, now); got != 0 {
		t.Errorf("RetryAfter(past) = %v, want 0", got)
	}
	if got := RetryAfter(Decision{}, now); got != 0 {
		t.Errorf("RetryAfter(nil) = %v, want 0", got)
	}
}
