// Package connection manages the session with one serial LED device.
//
// A Session owns at most one serial handle at a time and moves through a
// small state machine:
//
//	Disconnected --Connect--> Connecting --open ok, settle--> Connected
//	Connecting   --open fails--> Disconnected (error recorded)
//	Connected    --Disconnect--> Disconnected (handle closed)
//	Connected    --SendCommand finds the handle dead--> Disconnected
//
// A recovered panic in link code is recorded as the last error and the
// session falls back to Disconnected.
//
// # Timing
//
// After the port opens the device firmware needs time to initialize, so
// Connect waits SettleDelay (at least 400ms) before reporting Connected.
// Every successful SendCommand waits PostWriteDelay (at least 100ms)
// after the drain so slow firmware can act before the next line arrives.
//
// Hardware operations carry no implicit timeout. Config.OperationTimeout
// bounds open and write when set; the zero value keeps the unbounded
// behaviour. Cancelling the caller's context never interrupts an open or
// write that has already started.
//
// # Retry schedule
//
// Backoff produces the increasing delays used by callers that retry a
// command while a connection is being established:
//
//	250ms, 500ms, 1s, 2s, 2s, ...
//
// with up to 10% jitter added to each delay.
package connection
