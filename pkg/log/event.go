package log

import (
	"strings"
	"time"
)

// Event is one captured device event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one Connected period of a device session (UUID).
	// Empty for events outside a connection.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Port is the serial port name, when known.
	Port string `cbor:"3,keyasint,omitempty"`

	Category Category `cbor:"4,keyasint"`

	// Exactly one payload is set, matching Category.
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Command     *CommandEvent     `cbor:"11,keyasint,omitempty"`
	Analysis    *AnalysisEvent    `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Category classifies an event.
type Category uint8

const (
	CategoryState    Category = 0
	CategoryCommand  Category = 1
	CategoryAnalysis Category = 2
	CategoryError    Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryCommand:
		return "COMMAND"
	case CategoryAnalysis:
		return "ANALYSIS"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory maps a case-insensitive name to a Category.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryState; c <= CategoryError; c++ {
		if strings.EqualFold(c.String(), s) {
			return c, true
		}
	}
	return 0, false
}

// StateChangeEvent records a session transition.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`
	Reason   string `cbor:"3,keyasint,omitempty"`
}

// CommandSource says what caused a command to be sent.
type CommandSource uint8

const (
	SourceManual    CommandSource = 0
	SourceReconcile CommandSource = 1
	SourceFailure   CommandSource = 2
)

// String returns the source name.
func (s CommandSource) String() string {
	switch s {
	case SourceManual:
		return "MANUAL"
	case SourceReconcile:
		return "RECONCILE"
	case SourceFailure:
		return "FAILURE"
	default:
		return "UNKNOWN"
	}
}

// CommandEvent records one command write.
type CommandEvent struct {
	Command string        `cbor:"1,keyasint"`
	Bytes   int           `cbor:"2,keyasint"`
	Source  CommandSource `cbor:"3,keyasint"`

	// Duration covers write, drain and the post-write delay.
	Duration time.Duration `cbor:"4,keyasint,omitempty"`

	// Attempt is the 1-based reconciliation attempt, zero otherwise.
	Attempt int `cbor:"5,keyasint,omitempty"`
}

// AnalysisEvent records an analysis outcome and the command it maps to.
type AnalysisEvent struct {
	Errors      int    `cbor:"1,keyasint"`
	Suggestions int    `cbor:"2,keyasint"`
	Command     string `cbor:"3,keyasint"`
	Malformed   bool   `cbor:"4,keyasint,omitempty"`
	Failed      bool   `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData records an error.
type ErrorEventData struct {
	// Op is the failing operation, e.g. "connect" or "send".
	Op      string `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`
}
