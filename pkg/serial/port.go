package serial

import (
	"time"

	bugst "go.bug.st/serial"
)

// DefaultBaudRate is the baud rate of the LED device family.
const DefaultBaudRate = 9600

// Port is the subset of an OS serial port used by Link.
type Port interface {
	Write(p []byte) (int, error)

	// Drain blocks until all written bytes have been transmitted.
	Drain() error

	// GetModemStatusBits reads the modem control lines. It never touches
	// the data stream and is used as the liveness probe.
	GetModemStatusBits() (*bugst.ModemStatusBits, error)

	Close() error
}

// Opener opens a port by name.
type Opener interface {
	Open(name string, mode *bugst.Mode) (Port, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(name string, mode *bugst.Mode) (Port, error)

// Open calls f.
func (f OpenerFunc) Open(name string, mode *bugst.Mode) (Port, error) {
	return f(name, mode)
}

// SystemOpener opens real serial ports via go.bug.st/serial.
var SystemOpener Opener = OpenerFunc(func(name string, mode *bugst.Mode) (Port, error) {
	return bugst.Open(name, mode)
})

// Mode returns the 8N1 mode for baud.
func Mode(baud int) *bugst.Mode {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &bugst.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
}

// Handle is one opened port. It is owned by the Link that opened it and is
// never reused after release.
type Handle struct {
	name     string
	port     Port
	openedAt time.Time

	// released and closed are guarded by the owning Link's mu.
	released bool
	closed   bool
}

// Name returns the OS name of the port (e.g. /dev/ttyACM0).
func (h *Handle) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

// OpenedAt returns when the handle was opened.
func (h *Handle) OpenedAt() time.Time {
	if h == nil {
		return time.Time{}
	}
	return h.openedAt
}
