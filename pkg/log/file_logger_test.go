package log

import (
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.llog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())
	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, e)
	}
}

func TestFileLoggerRoundTrip(t *testing.T) {
	now := time.Now()
	path := writeLog(t, []Event{
		{Timestamp: now, SessionID: "a", Category: CategoryState, StateChange: &StateChangeEvent{OldState: "DISCONNECTED", NewState: "CONNECTING"}},
		{Timestamp: now, SessionID: "a", Category: CategoryCommand, Command: &CommandEvent{Command: "GREEN", Bytes: 6}},
		{Timestamp: now, SessionID: "b", Category: CategoryError, Error: &ErrorEventData{Op: "connect", Message: "busy"}},
	})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	events := readAll(t, r)
	require.Len(t, events, 3)
	assert.Equal(t, "GREEN", events[1].Command.Command)
	assert.Equal(t, "busy", events[2].Error.Message)
}

func TestFileLoggerAppends(t *testing.T) {
	path := writeLog(t, []Event{{Timestamp: time.Now(), Category: CategoryState}})

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	logger.Log(Event{Timestamp: time.Now(), Category: CategoryError})
	require.NoError(t, logger.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Len(t, readAll(t, r), 2)
}

func TestFileLoggerClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.llog")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close(), "second Close is a no-op")
	assert.NotPanics(t, func() { logger.Log(Event{Category: CategoryState}) })
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.llog")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(Event{Timestamp: time.Now(), Category: CategoryCommand, Command: &CommandEvent{Command: "OFF", Bytes: 4}})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Len(t, readAll(t, r), 200)
}

func TestFilteredReader(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	path := writeLog(t, []Event{
		{Timestamp: base, SessionID: "s1", Port: "COM3", Category: CategoryState},
		{Timestamp: base.Add(time.Second), SessionID: "s1", Port: "COM3", Category: CategoryCommand},
		{Timestamp: base.Add(2 * time.Second), SessionID: "s2", Port: "COM4", Category: CategoryCommand},
		{Timestamp: base.Add(3 * time.Second), SessionID: "s2", Port: "COM4", Category: CategoryError},
	})

	cmdCat := CategoryCommand
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"session", Filter{SessionID: "s2"}, 2},
		{"port", Filter{Port: "COM3"}, 2},
		{"category", Filter{Category: &cmdCat}, 2},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"combined", Filter{SessionID: "s1", Category: &cmdCat}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			require.NoError(t, err)
			defer r.Close()
			assert.Len(t, readAll(t, r), tt.want)
		})
	}
}

func TestNewReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.llog"))
	assert.Error(t, err)
}
