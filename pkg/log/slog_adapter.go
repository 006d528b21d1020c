package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if event.Port != "" {
		attrs = append(attrs, slog.String("port", event.Port))
	}

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("command", event.Command.Command),
			slog.Int("bytes", event.Command.Bytes),
			slog.String("source", event.Command.Source.String()),
			slog.Duration("duration", event.Command.Duration),
		)
		if event.Command.Attempt > 0 {
			attrs = append(attrs, slog.Int("attempt", event.Command.Attempt))
		}
	case event.Analysis != nil:
		attrs = append(attrs,
			slog.Int("errors", event.Analysis.Errors),
			slog.Int("suggestions", event.Analysis.Suggestions),
			slog.String("command", event.Analysis.Command),
			slog.Bool("malformed", event.Analysis.Malformed),
			slog.Bool("failed", event.Analysis.Failed),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("op", event.Error.Op),
			slog.String("error", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "device event", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
