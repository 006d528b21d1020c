package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ledsignal/ledsignal-go/pkg/log"
)

// RunExport exports the log file to the specified format. An empty output
// writes to stdout.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

// jsonEvent is the JSONL shape of an event, with names instead of codes.
type jsonEvent struct {
	Timestamp   string                `json:"timestamp"`
	SessionID   string                `json:"session_id,omitempty"`
	Port        string                `json:"port,omitempty"`
	Category    string                `json:"category"`
	StateChange *log.StateChangeEvent `json:"state_change,omitempty"`
	Command     *jsonCommand          `json:"command,omitempty"`
	Analysis    *log.AnalysisEvent    `json:"analysis,omitempty"`
	Error       *log.ErrorEventData   `json:"error,omitempty"`
}

type jsonCommand struct {
	Command    string `json:"command"`
	Bytes      int    `json:"bytes"`
	Source     string `json:"source"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Attempt    int    `json:"attempt,omitempty"`
}

func toJSONEvent(event log.Event) jsonEvent {
	je := jsonEvent{
		Timestamp:   event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		SessionID:   event.SessionID,
		Port:        event.Port,
		Category:    event.Category.String(),
		StateChange: event.StateChange,
		Analysis:    event.Analysis,
		Error:       event.Error,
	}
	if c := event.Command; c != nil {
		je.Command = &jsonCommand{
			Command:    c.Command,
			Bytes:      c.Bytes,
			Source:     c.Source.String(),
			DurationMs: c.Duration.Milliseconds(),
			Attempt:    c.Attempt,
		}
	}
	return je
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toJSONEvent(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "session_id", "port", "category", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.SessionID,
			event.Port,
			event.Category.String(),
			eventDetail(event),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// eventDetail summarizes the payload on one line.
func eventDetail(event log.Event) string {
	switch {
	case event.StateChange != nil:
		return event.StateChange.OldState + "->" + event.StateChange.NewState
	case event.Command != nil:
		return event.Command.Command + " via " + event.Command.Source.String()
	case event.Analysis != nil:
		if event.Analysis.Failed {
			return "failed->" + event.Analysis.Command
		}
		return fmt.Sprintf("%d/%d->%s", event.Analysis.Errors, event.Analysis.Suggestions, event.Analysis.Command)
	case event.Error != nil:
		return event.Error.Op + ": " + event.Error.Message
	}
	return ""
}
