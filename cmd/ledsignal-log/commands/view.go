// Package commands implements the ledsignal-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/ledsignal/ledsignal-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] CATEGORY port
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	sessionID := shortenSessionID(event.SessionID)
	if sessionID == "" {
		sessionID = "-"
	}

	fmt.Fprintf(w, "%s [session:%s] %-8s %s\n", ts, sessionID, event.Category.String(), event.Port)

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Command != nil:
		formatCommandDetails(w, event.Command)
	case event.Analysis != nil:
		formatAnalysisDetails(w, event.Analysis)
	case event.Error != nil:
		fmt.Fprintf(w, "  Op: %s\n", event.Error.Op)
		fmt.Fprintf(w, "  Message: %s\n", event.Error.Message)
	}

	fmt.Fprintln(w)
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatCommandDetails(w io.Writer, c *log.CommandEvent) {
	fmt.Fprintf(w, "  Command: %s (%d bytes)\n", c.Command, c.Bytes)
	fmt.Fprintf(w, "  Source: %s", c.Source.String())
	if c.Attempt > 0 {
		fmt.Fprintf(w, " attempt %d", c.Attempt)
	}
	fmt.Fprintln(w)
	if c.Duration > 0 {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(c.Duration))
	}
}

func formatAnalysisDetails(w io.Writer, a *log.AnalysisEvent) {
	if a.Failed {
		fmt.Fprintf(w, "  Analysis failed -> %s\n", a.Command)
		return
	}
	fmt.Fprintf(w, "  Errors: %d  Suggestions: %d -> %s\n", a.Errors, a.Suggestions, a.Command)
	if a.Malformed {
		fmt.Fprintln(w, "  Malformed analyzer output")
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(s)
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be state, command, analysis, or error)", s)
	}
	return c, nil
}

// RunView executes the view command.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
