// internal/app/system/connmgr/state.go
package connmgr

import "fmt"

// State is the lifecycle state of the managed store connection.
type State int

const (
	// Uninitialized means no handle is cached and no attempt is running.
	// This is the initial state and the state after a disconnect report.
	Uninitialized State = iota
	// Connecting means exactly one establishment attempt is in flight.
	Connecting
	// Ready means a handle is cached and is handed out without I/O.
	Ready
	// Failed means the most recent attempt failed. The next Acquire retries.
	Failed
)

var stateNames = [...]string{
	Uninitialized: "uninitialized",
	Connecting:    "connecting",
	Ready:         "ready",
	Failed:        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state by name so snapshots read well as JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
