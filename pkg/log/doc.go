// Package log captures device events for later inspection.
//
// It records what happened on the LED link: session state transitions,
// commands written to the device, analyses that drove them, and errors.
// This is separate from operational logging (slog). The event log is a
// machine-readable trace that survives the process and can be replayed with
// the ledsignal-log tool.
//
// # Basic Usage
//
//	// Console only
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// File only
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/ledsignal/device.llog")
//
//	// Both
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Files are a stream of CBOR-encoded Event values with integer keys and the
// .llog extension.
package log
