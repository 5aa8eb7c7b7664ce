// Package connmgr owns the lifecycle of the process-wide store connection.
//
// A Manager establishes its connection lazily on the first Acquire, caches it
// for every later caller, and coalesces concurrent establishment attempts into
// a single in-flight attempt whose outcome is fanned out to all waiters. It
// never retries in the background: after a failure, the next Acquire starts
// exactly one new attempt.
//
// The manager is generic over the connection type so tests can drive it with
// stub establish functions; production code uses *mongo.Database (see the
// mongoconn package).
//
// Handles returned by Acquire are borrowed. Callers use them for the duration
// of one request and must not close or retain them; only the manager closes a
// connection, either on Close or after ReportDisconnected.
package connmgr

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultConnectTimeout bounds an establishment attempt when Config leaves
// ConnectTimeout unset.
const DefaultConnectTimeout = 10 * time.Second

// disconnectTimeout bounds the background close of a discarded connection.
const disconnectTimeout = 10 * time.Second

// flightKey is the single singleflight key; there is only one store.
const flightKey = "establish"

// EstablishFunc opens a connection to the store at uri. It should honor ctx,
// but the manager enforces the connect timeout even if it does not.
type EstablishFunc[C any] func(ctx context.Context, uri string) (C, error)

// DisconnectFunc closes a connection previously returned by an EstablishFunc.
type DisconnectFunc[C any] func(ctx context.Context, conn C) error

// Observer receives lifecycle notifications. Calls are made while the
// manager's lock is held and must not block or call back into the manager.
// AttemptFinished receives nil or a *ConnectionError.
type Observer interface {
	StateChanged(from, to State)
	AttemptFinished(err error, took time.Duration)
}

// Config configures a Manager. Establish is required.
type Config[C any] struct {
	// URI is handed to Establish on every attempt.
	URI string
	// ConnectTimeout bounds each establishment attempt.
	ConnectTimeout time.Duration

	Establish  EstablishFunc[C]
	Disconnect DisconnectFunc[C]

	// Classify maps a driver error to ErrConnectionRefused or ErrAuthentication.
	// Returning nil keeps the default (ErrConnectionRefused).
	Classify func(error) error

	// OnReady runs in its own goroutine each time a new handle becomes Ready.
	OnReady func(h *Handle[C])

	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time

	Observer Observer
	Logger   *zap.Logger
}

// Handle is a borrowed reference to the live connection.
type Handle[C any] struct {
	conn       C
	createdAt  time.Time
	generation uint64
}

// Conn returns the underlying connection.
func (h *Handle[C]) Conn() C { return h.conn }

// CreatedAt is when the connection was established.
func (h *Handle[C]) CreatedAt() time.Time { return h.createdAt }

// Generation numbers handles in establishment order, starting at 1.
func (h *Handle[C]) Generation() uint64 { return h.generation }

// Manager is safe for concurrent use. The zero value is not usable; call New.
type Manager[C any] struct {
	cfg    Config[C]
	log    *zap.Logger
	now    func() time.Time
	flight singleflight.Group

	mu          sync.Mutex
	state       State
	handle      *Handle[C]
	generation  uint64
	attempts    uint64
	lastErr     error
	lastErrAt   time.Time
	lastSuccess time.Time
	closed      bool
}

// New returns a Manager in the Uninitialized state. No I/O happens until the
// first Acquire.
func New[C any](cfg Config[C]) (*Manager[C], error) {
	if cfg.Establish == nil {
		return nil, errors.New("connmgr: Establish is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	m := &Manager[C]{
		cfg: cfg,
		log: cfg.Logger,
		now: cfg.Now,
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Acquire returns the cached handle, waits for the in-flight attempt, or
// starts a new attempt, in that order of preference.
//
// If ctx ends while waiting, Acquire returns ctx's error; the attempt keeps
// running and its outcome is still recorded for the next caller.
func (m *Manager[C]) Acquire(ctx context.Context) (*Handle[C], error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.state == Ready && m.handle != nil {
		h := m.handle
		m.mu.Unlock()
		return h, nil
	}
	m.mu.Unlock()

	ch := m.flight.DoChan(flightKey, func() (any, error) {
		return m.attempt()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Handle[C]), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// attempt runs one establishment attempt. It is only ever entered through
// the singleflight group, so at most one runs at a time.
func (m *Manager[C]) attempt() (*Handle[C], error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	// A caller may have seen a stale state and entered the group after the
	// previous attempt already cached a handle.
	if m.state == Ready && m.handle != nil {
		h := m.handle
		m.mu.Unlock()
		return h, nil
	}
	m.setStateLocked(Connecting)
	m.attempts++
	attemptNo := m.attempts
	m.mu.Unlock()

	m.log.Info("connecting to store",
		zap.Uint64("attempt", attemptNo),
		zap.Duration("timeout", m.cfg.ConnectTimeout),
	)

	start := m.now()
	conn, err := m.establish()
	took := m.now().Sub(start)

	var cerr *ConnectionError
	if err != nil {
		cerr = classify(err, m.cfg.Classify)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop the flight before publishing the outcome: a caller that sees the
	// new state must start a fresh attempt, not join this finished one.
	m.flight.Forget(flightKey)

	if m.cfg.Observer != nil {
		if cerr != nil {
			m.cfg.Observer.AttemptFinished(cerr, took)
		} else {
			m.cfg.Observer.AttemptFinished(nil, took)
		}
	}

	if cerr != nil {
		m.lastErr = cerr
		m.lastErrAt = m.now()
		m.setStateLocked(Failed)
		m.log.Warn("store connection failed",
			zap.Uint64("attempt", attemptNo),
			zap.String("kind", KindName(cerr)),
			zap.Duration("took", took),
			zap.String("error", redact(cerr.Error(), m.cfg.URI)),
		)
		return nil, cerr
	}

	if m.closed {
		go m.disconnect(conn)
		return nil, ErrClosed
	}

	m.generation++
	h := &Handle[C]{conn: conn, createdAt: m.now(), generation: m.generation}
	m.handle = h
	m.lastSuccess = h.createdAt
	m.lastErr = nil
	m.setStateLocked(Ready)

	m.log.Info("store connection ready",
		zap.Uint64("attempt", attemptNo),
		zap.Uint64("generation", h.generation),
		zap.Duration("took", took),
	)

	if m.cfg.OnReady != nil {
		go m.cfg.OnReady(h)
	}
	return h, nil
}

// establish calls the establish function and enforces the connect timeout.
// A connection that arrives after the deadline is closed, not cached.
func (m *Manager[C]) establish() (C, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ConnectTimeout)
	defer cancel()

	type result struct {
		conn C
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := m.cfg.Establish(ctx, m.cfg.URI)
		done <- result{conn: conn, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return r.conn, &ConnectionError{Kind: ErrConnectionTimeout, Cause: r.err}
		}
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				m.log.Debug("closing store connection that arrived after the timeout")
				m.disconnect(r.conn)
			}
		}()
		var zero C
		return zero, &ConnectionError{Kind: ErrConnectionTimeout, Cause: ctx.Err()}
	}
}

// ReportDisconnected invalidates h if it is still the cached handle. Reports
// about a superseded handle are ignored so a late failure signal cannot
// discard a newer, healthy connection.
func (m *Manager[C]) ReportDisconnected(h *Handle[C]) {
	if h == nil {
		return
	}

	m.mu.Lock()
	if m.handle != h {
		current := m.generation
		m.mu.Unlock()
		m.log.Debug("ignoring stale disconnect report",
			zap.Uint64("reported_generation", h.generation),
			zap.Uint64("current_generation", current),
		)
		return
	}
	m.handle = nil
	m.setStateLocked(Uninitialized)
	m.mu.Unlock()

	m.log.Warn("store connection reported disconnected",
		zap.Uint64("generation", h.generation),
	)
	go m.disconnect(h.conn)
}

// Close disconnects the cached handle and makes every later Acquire fail
// with ErrClosed. An attempt still in flight is discarded when it finishes.
func (m *Manager[C]) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	h := m.handle
	m.handle = nil
	m.setStateLocked(Uninitialized)
	m.mu.Unlock()

	if h == nil || m.cfg.Disconnect == nil {
		return nil
	}
	return m.cfg.Disconnect(ctx, h.conn)
}

func (m *Manager[C]) disconnect(conn C) {
	if m.cfg.Disconnect == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := m.cfg.Disconnect(ctx, conn); err != nil {
		m.log.Warn("store disconnect failed", zap.Error(err))
	}
}

// setStateLocked moves to next. The caller must hold m.mu.
func (m *Manager[C]) setStateLocked(next State) {
	prev := m.state
	if prev == next {
		return
	}
	m.state = next
	if m.cfg.Observer != nil {
		m.cfg.Observer.StateChanged(prev, next)
	}
}
