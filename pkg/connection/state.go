package connection

// State is the connection state reported by a Session.
type State uint8

const (
	// StateDisconnected indicates no handle is held.
	StateDisconnected State = iota

	// StateConnecting indicates an open or settle is in progress.
	StateConnecting

	// StateConnected indicates a settled, usable handle.
	StateConnected

	// StateFaulted names a device that needs attention. Session never
	// enters it: after a failure it reports StateDisconnected and keeps
	// the cause in LastError.
	StateFaulted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateFaulted:
		return "FAULTED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
