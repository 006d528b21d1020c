// Package reconcile keeps the device LED in step with the latest analysis.
//
// A Loop holds two inputs, the most recent analysis result and whether the
// device session is connected, and re-evaluates whenever either changes.
// When both are present it maps the result to a command and sends it,
// retrying a bounded number of times on an increasing delay while the
// connection settles. A newer input supersedes a retry sequence in
// progress, so the last result always wins. The loop never polls: with no
// connected session it waits for the next input.
//
// Exhausted retries are logged and recorded as error events. The LED is
// advisory, so nothing is surfaced to the caller.
package reconcile
