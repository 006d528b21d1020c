package serial

import (
	"errors"
	"os"
	"strings"

	bugst "go.bug.st/serial"
)

// Link errors. Every error returned by Link wraps exactly one of these.
var (
	ErrNoPortSelected   = errors.New("no port selected")
	ErrPermissionDenied = errors.New("permission denied")
	ErrOpenFailed       = errors.New("failed to open port")
	ErrWriteFailed      = errors.New("failed to write to port")
	ErrHandleReleased   = errors.New("handle released")
)

// portErrorCode extracts the go.bug.st/serial error code from err.
func portErrorCode(err error) (bugst.PortErrorCode, bool) {
	var pe *bugst.PortError
	if errors.As(err, &pe) {
		return pe.Code(), true
	}
	var pv bugst.PortError
	if errors.As(err, &pv) {
		return pv.Code(), true
	}
	return 0, false
}

// isBusy reports whether an open failed because the port is already open.
func isBusy(err error) bool {
	if code, ok := portErrorCode(err); ok {
		return code == bugst.PortBusy
	}
	return strings.Contains(strings.ToLower(err.Error()), "busy")
}

// isPermission reports whether an open failed for lack of access rights.
func isPermission(err error) bool {
	if code, ok := portErrorCode(err); ok {
		return code == bugst.PermissionDenied
	}
	return errors.Is(err, os.ErrPermission)
}

// IsFault reports whether err shows that a handle is dead: the port was
// closed underneath us, removed, or is no longer a valid serial port. A
// session discards the handle on a fault instead of trying to close it.
func IsFault(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrHandleReleased) || errors.Is(err, os.ErrClosed) {
		return true
	}
	if code, ok := portErrorCode(err); ok {
		switch code {
		case bugst.PortClosed, bugst.PortNotFound, bugst.InvalidSerialPort:
			return true
		default:
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "closed") ||
		strings.Contains(msg, "invalid state") ||
		strings.Contains(msg, "no such device") ||
		strings.Contains(msg, "input/output error")
}
