// Package serial owns the physical serial connection to the LED device.
//
// A Link holds at most one open Handle. It provides the four primitives the
// session layer builds on:
//
//   - Open selects a port (PortSelector) and opens it at the configured
//     mode. A port that reports busy is closed, given ReopenDelay to settle,
//     and opened exactly once more.
//   - IsLive probes a handle without touching the data stream by querying
//     its modem status lines. Any failure means the handle is dead.
//   - Write takes the link's write lock, writes every byte, and waits for
//     the OS to drain the output buffer before releasing the lock. Two
//     writers never interleave on the wire.
//   - Close is best effort. Failures are logged and swallowed.
//
// The OS port is reached through the Port and Opener interfaces, which
// go.bug.st/serial satisfies directly. Tests substitute in-memory ports.
//
// # Timeouts
//
// No operation carries an implicit timeout. A hung open or write holds the
// write lock until the OS returns. Callers that want a bound pass a context
// with a deadline; the operation is then abandoned (not interrupted) when
// the deadline passes, and the write lock stays held until the OS call
// returns.
package serial
