package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCommand is returned by Parse for text outside the vocabulary.
var ErrUnknownCommand = errors.New("unknown command")

// Terminator ends every command line on the wire.
const Terminator = '\n'

// Command is a logical device instruction, independent of its encoding.
type Command uint8

const (
	// Off switches all LEDs off.
	Off Command = iota

	// Green signals a clean analysis.
	Green

	// Yellow signals several suggestions and no errors.
	Yellow

	// Red signals at least one error, or a failed analysis.
	Red
)

// All lists the complete vocabulary in wire-name order of severity.
var All = []Command{Off, Green, Yellow, Red}

// String returns the wire name of the command.
func (c Command) String() string {
	switch c {
	case Off:
		return "OFF"
	case Green:
		return "GREEN"
	case Yellow:
		return "YELLOW"
	case Red:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether c is part of the vocabulary.
func (c Command) Valid() bool {
	return c <= Red
}

// Encode returns the exact bytes written to the device for c.
// Encoding a value outside the vocabulary panics; callers only ever hold
// values produced by this package.
func Encode(c Command) []byte {
	if !c.Valid() {
		panic(fmt.Sprintf("command: encode of invalid command %d", uint8(c)))
	}
	name := c.String()
	buf := make([]byte, 0, len(name)+1)
	buf = append(buf, name...)
	return append(buf, Terminator)
}

// Parse maps a command name (case-insensitive, optional trailing newline)
// back to its Command.
func Parse(s string) (Command, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range All {
		if c.String() == name {
			return c, nil
		}
	}
	return Off, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// MarshalText encodes c as its wire name.
func (c Command) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses a wire name.
func (c *Command) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
