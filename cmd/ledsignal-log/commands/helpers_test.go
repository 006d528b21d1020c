package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ledsignal/ledsignal-go/pkg/log"
)

var baseTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

const sessionID = "5f0c2a9e-1b7d-4c3e-9a61-2d8f4b7e0c13"

// sampleEvents is one connect, one analysis, one reconciled command and
// one lost connection.
func sampleEvents() []log.Event {
	return []log.Event{
		{
			Timestamp: baseTime,
			Port:      "/dev/ttyACM0",
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				OldState: "DISCONNECTED", NewState: "CONNECTING", Reason: "connect requested",
			},
		},
		{
			Timestamp: baseTime.Add(500 * time.Millisecond),
			SessionID: sessionID,
			Port:      "/dev/ttyACM0",
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				OldState: "CONNECTING", NewState: "CONNECTED", Reason: "port settled",
			},
		},
		{
			Timestamp: baseTime.Add(2 * time.Second),
			Category:  log.CategoryAnalysis,
			Analysis:  &log.AnalysisEvent{Errors: 1, Suggestions: 2, Command: "RED"},
		},
		{
			Timestamp: baseTime.Add(2*time.Second + 200*time.Millisecond),
			SessionID: sessionID,
			Port:      "/dev/ttyACM0",
			Category:  log.CategoryCommand,
			Command: &log.CommandEvent{
				Command: "RED", Bytes: 4, Source: log.SourceReconcile,
				Duration: 152 * time.Millisecond, Attempt: 1,
			},
		},
		{
			Timestamp: baseTime.Add(10 * time.Second),
			SessionID: sessionID,
			Port:      "/dev/ttyACM0",
			Category:  log.CategoryError,
			Error:     &log.ErrorEventData{Op: "send", Message: "connection lost"},
		},
	}
}

func writeLog(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.cbor")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}
