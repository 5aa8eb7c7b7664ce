// internal/app/system/connmgr/snapshot.go
package connmgr

import "time"

// Snapshot is a point-in-time view of the manager for readiness probes and
// diagnostics. Error text is redacted of the URI password.
type Snapshot struct {
	State            State      `json:"state"`
	Reachable        bool       `json:"reachable"`
	Generation       uint64     `json:"generation"`
	Attempts         uint64     `json:"attempts"`
	LastSuccessAt    *time.Time `json:"last_success_at,omitempty"`
	SinceLastSuccess string     `json:"since_last_success,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
	LastErrorKind    string     `json:"last_error_kind,omitempty"`
	LastErrorAt      *time.Time `json:"last_error_at,omitempty"`
}

// Snapshot returns the current state without blocking on I/O and without
// starting an attempt.
func (m *Manager[C]) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		State:      m.state,
		Reachable:  m.state == Ready && m.handle != nil,
		Generation: m.generation,
		Attempts:   m.attempts,
	}
	if !m.lastSuccess.IsZero() {
		t := m.lastSuccess
		s.LastSuccessAt = &t
		s.SinceLastSuccess = m.now().Sub(t).Round(time.Millisecond).String()
	}
	if m.lastErr != nil {
		t := m.lastErrAt
		s.LastError = redact(m.lastErr.Error(), m.cfg.URI)
		s.LastErrorKind = KindName(m.lastErr)
		s.LastErrorAt = &t
	}
	return s
}

// State returns the current lifecycle state.
func (m *Manager[C]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
