package ledsignal_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ledsignal/ledsignal-go/internal/fakeport"
	"github.com/ledsignal/ledsignal-go/pkg/analysis"
	"github.com/ledsignal/ledsignal-go/pkg/connection"
	"github.com/ledsignal/ledsignal-go/pkg/history"
	ledlog "github.com/ledsignal/ledsignal-go/pkg/log"
	"github.com/ledsignal/ledsignal-go/pkg/persistence"
	"github.com/ledsignal/ledsignal-go/pkg/serial"
	"github.com/ledsignal/ledsignal-go/pkg/service"
)

const devicePort = "/dev/ttyUSB0"

type fixedAnalyzer struct {
	mu     sync.Mutex
	result analysis.Result
}

func (a *fixedAnalyzer) Analyze(_ context.Context, _ string) (analysis.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result, nil
}

type daemon struct {
	svc     *service.Service
	opener  *fakeport.Opener
	state   *persistence.StateStore
	history *history.Store
	events  *ledlog.FileLogger
	server  *httptest.Server

	eventsPath string
}

// startDaemon wires a service the way cmd/ledsignal does, with on-disk
// history, runtime state and event log, and serves its API.
func startDaemon(t *testing.T, dir string, selector serial.PortSelector, analyzer analysis.Analyzer) *daemon {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opener := fakeport.NewOpener()
	link, err := serial.NewLink(serial.Config{
		Selector: selector,
		Opener:   opener,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}

	store, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("Failed to open history: %v", err)
	}

	eventsPath := filepath.Join(dir, "events.cbor")
	events, err := ledlog.NewFileLogger(eventsPath)
	if err != nil {
		t.Fatalf("Failed to open event log: %v", err)
	}

	state := persistence.NewStateStore(filepath.Join(dir, "state.json"))
	svc, err := service.New(service.Config{
		Link:     link,
		Analyzer: analyzer,
		Backoff: connection.BackoffConfig{
			Initial:    10 * time.Millisecond,
			Max:        40 * time.Millisecond,
			Multiplier: 2,
		},
		History:     store,
		State:       state,
		Logger:      logger,
		EventLogger: events,
	})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start service: %v", err)
	}

	d := &daemon{
		svc:        svc,
		opener:     opener,
		state:      state,
		history:    store,
		events:     events,
		server:     httptest.NewServer(service.NewAPI(svc, "e2e")),
		eventsPath: eventsPath,
	}
	t.Cleanup(d.shutdown)
	return d
}

func (d *daemon) shutdown() {
	d.server.Close()
	d.svc.Stop()
	d.events.Close()
	d.history.Close()
}

func (d *daemon) post(t *testing.T, path, body string) (int, map[string]any) {
	t.Helper()
	resp, err := d.server.Client().Post(d.server.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decodeBody(t, resp)
}

func (d *daemon) get(t *testing.T, path string) (int, any) {
	t.Helper()
	resp, err := d.server.Client().Get(d.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	var v any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("GET %s: decode: %v", path, err)
	}
	return resp.StatusCode, v
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func waitWire(t *testing.T, p func() *fakeport.Port, want ...string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		var got []string
		if port := p(); port != nil {
			got = port.Lines()
		}
		if equalLines(got, want) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("wire = %v, want %v", got, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func readEvents(t *testing.T, path string) []ledlog.Event {
	t.Helper()
	r, err := ledlog.NewReader(path)
	if err != nil {
		t.Fatalf("Failed to open event log: %v", err)
	}
	defer r.Close()

	var events []ledlog.Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		if err != nil {
			t.Fatalf("Failed to read event: %v", err)
		}
		events = append(events, ev)
	}
}

// TestE2E_AnalyzeConnectReplug drives the daemon over HTTP: a result that
// arrives before the device is shown once it connects, and shown again on
// a fresh port after the cable is pulled and the device reconnected.
func TestE2E_AnalyzeConnectReplug(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	analyzer := &fixedAnalyzer{result: analysis.Result{
		Summary: "does not compile",
		Errors:  []string{"undeclared identifier 'x'"},
	}}
	d := startDaemon(t, dir, serial.FixedPort(devicePort), analyzer)

	code, resp := d.post(t, "/api/v1/analyze", `{"code":"int main(void) { return x; }"}`)
	if code != http.StatusOK {
		t.Fatalf("analyze: status %d, body %v", code, resp)
	}
	decision, _ := resp["decision"].(map[string]any)
	if decision["command"] != "RED" {
		t.Errorf("decision command = %v, want RED", decision["command"])
	}

	if code, resp := d.post(t, "/api/v1/connect", ""); code != http.StatusOK {
		t.Fatalf("connect: status %d, body %v", code, resp)
	}
	first := d.opener.Last()
	waitWire(t, func() *fakeport.Port { return first }, "RED")

	// Pull the cable. The next write notices and the session drops the
	// handle.
	first.SetDead(true)
	if code, _ := d.post(t, "/api/v1/command", `{"command":"GREEN"}`); code != http.StatusBadGateway {
		t.Errorf("command on dead port: status %d, want %d", code, http.StatusBadGateway)
	}
	if st := d.svc.Status().Device.State; st != connection.StateDisconnected {
		t.Fatalf("state after pull = %v, want DISCONNECTED", st)
	}

	if code, resp := d.post(t, "/api/v1/connect", ""); code != http.StatusOK {
		t.Fatalf("reconnect: status %d, body %v", code, resp)
	}
	if n := d.opener.Opens(); n != 2 {
		t.Fatalf("opens = %d, want 2", n)
	}
	waitWire(t, d.opener.Last, "RED")

	code, entries := d.get(t, "/api/v1/history?limit=10")
	if code != http.StatusOK {
		t.Fatalf("history: status %d", code)
	}
	if list, _ := entries.([]any); len(list) != 1 {
		t.Errorf("history entries = %d, want 1", len(list))
	}

	st, err := d.state.Load()
	if err != nil || st == nil {
		t.Fatalf("Failed to load runtime state: %v", err)
	}
	if st.LastPort != devicePort {
		t.Errorf("LastPort = %q, want %q", st.LastPort, devicePort)
	}
	if st.LastCommand != "RED" {
		t.Errorf("LastCommand = %q, want RED", st.LastCommand)
	}

	d.shutdown()

	var (
		commands   int
		analyses   int
		sendErrors int
		sessions   = map[string]bool{}
	)
	for _, ev := range readEvents(t, d.eventsPath) {
		switch ev.Category {
		case ledlog.CategoryCommand:
			commands++
			sessions[ev.SessionID] = true
		case ledlog.CategoryAnalysis:
			analyses++
		case ledlog.CategoryError:
			if ev.Error.Op == "send" {
				sendErrors++
			}
		}
	}
	if commands != 2 {
		t.Errorf("command events = %d, want 2", commands)
	}
	if analyses != 1 {
		t.Errorf("analysis events = %d, want 1", analyses)
	}
	if sendErrors != 1 {
		t.Errorf("send error events = %d, want 1", sendErrors)
	}
	if len(sessions) != 2 {
		t.Errorf("sessions with commands = %d, want 2", len(sessions))
	}
}

// TestE2E_RememberedPort restarts the daemon against the same state
// directory and checks it reopens the port it used last.
func TestE2E_RememberedPort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	analyzer := &fixedAnalyzer{result: analysis.Result{Summary: "clean"}}

	first := startDaemon(t, dir, serial.FixedPort(devicePort), analyzer)
	if err := first.svc.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	first.shutdown()

	st, err := persistence.NewStateStore(filepath.Join(dir, "state.json")).Load()
	if err != nil || st == nil {
		t.Fatalf("Failed to load runtime state: %v", err)
	}

	present := func() ([]serial.PortInfo, error) {
		return []serial.PortInfo{{Name: "/dev/ttyS0"}, {Name: devicePort}}, nil
	}
	selector := serial.PreferPort{
		Name:     st.LastPort,
		Fallback: serial.FixedPort("/dev/ttyS0"),
		List:     present,
	}
	second := startDaemon(t, dir, selector, analyzer)
	if err := second.svc.Connect(context.Background()); err != nil {
		t.Fatalf("Connect after restart: %v", err)
	}
	if got := second.svc.Status().Device.Port; got != devicePort {
		t.Errorf("reopened port = %q, want %q", got, devicePort)
	}
}
