package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ledsignal/ledsignal-go/internal/fakeport"
	"github.com/ledsignal/ledsignal-go/pkg/analysis"
	"github.com/ledsignal/ledsignal-go/pkg/command"
	"github.com/ledsignal/ledsignal-go/pkg/connection"
	"github.com/ledsignal/ledsignal-go/pkg/discovery"
	"github.com/ledsignal/ledsignal-go/pkg/history"
	"github.com/ledsignal/ledsignal-go/pkg/persistence"
	"github.com/ledsignal/ledsignal-go/pkg/serial"
)

func TestMain(m *testing.M) {
	// genai's transport dependencies start the opencensus view worker at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const testPort = "/dev/ttyACM0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubAnalyzer returns a fixed result or error and counts calls.
type stubAnalyzer struct {
	mu     sync.Mutex
	result analysis.Result
	err    error
	calls  atomic.Int32
}

func (a *stubAnalyzer) Analyze(_ context.Context, _ string) (analysis.Result, error) {
	a.calls.Add(1)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result, a.err
}

func (a *stubAnalyzer) set(res analysis.Result, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result, a.err = res, err
}

// recordingAdvertiser keeps every ServiceInfo it is given.
type recordingAdvertiser struct {
	mu      sync.Mutex
	infos   []discovery.ServiceInfo
	stopped bool
}

func (r *recordingAdvertiser) Advertise(_ context.Context, info *discovery.ServiceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, *info)
	return nil
}

func (r *recordingAdvertiser) Update(info *discovery.ServiceInfo) error {
	return r.Advertise(context.Background(), info)
}

func (r *recordingAdvertiser) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}

func (r *recordingAdvertiser) last() discovery.ServiceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.infos) == 0 {
		return discovery.ServiceInfo{}
	}
	return r.infos[len(r.infos)-1]
}

type fixture struct {
	svc      *Service
	opener   *fakeport.Opener
	analyzer *stubAnalyzer
	history  *history.Store
	state    *persistence.StateStore
}

type option func(*Config)

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	opener := fakeport.NewOpener()
	link, err := serial.NewLink(serial.Config{
		Selector: serial.FixedPort(testPort),
		Opener:   opener,
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	state := persistence.NewStateStore(filepath.Join(t.TempDir(), "state.json"))
	analyzer := &stubAnalyzer{}

	cfg := Config{
		Link:     link,
		Analyzer: analyzer,
		Backoff: connection.BackoffConfig{
			Initial:    10 * time.Millisecond,
			Max:        40 * time.Millisecond,
			Multiplier: 2,
		},
		History: store,
		State:   state,
		Logger:  discardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	svc, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Stop)

	return &fixture{svc: svc, opener: opener, analyzer: analyzer, history: store, state: state}
}

func (f *fixture) lines() []string {
	p := f.opener.Last()
	if p == nil {
		return nil
	}
	return p.Lines()
}

func waitLines(t *testing.T, f *fixture, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, f.lines())
	}, 3*time.Second, 10*time.Millisecond, "wire = %v, want %v", f.lines(), want)
}

var redResult = analysis.Result{
	Summary: "does not compile",
	Errors:  []string{"missing semicolon"},
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Analyzer: &stubAnalyzer{}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Config{Link: &serial.Link{}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStartTwice(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.svc.Start(context.Background()), ErrAlreadyStarted)
}

func TestAnalyzeBeforeConnect(t *testing.T) {
	f := newFixture(t)
	f.analyzer.set(redResult, nil)

	report, err := f.svc.Analyze(context.Background(), "int main() { return 0 }")
	require.NoError(t, err)
	assert.Equal(t, command.Red, report.Decision.Command)
	assert.NotZero(t, report.ID)

	require.NoError(t, f.svc.Connect(context.Background()))
	waitLines(t, f, "RED")

	require.Eventually(t, func() bool {
		return f.svc.Status().Decision != nil
	}, time.Second, 10*time.Millisecond)

	st := f.svc.Status()
	assert.Equal(t, connection.StateConnected, st.Device.State)
	assert.Equal(t, "does not compile", st.Summary)
	assert.Equal(t, 1, st.Decision.ErrorCount)
}

func TestAnalyzeWhileConnected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Connect(context.Background()))

	f.analyzer.set(analysis.Result{Summary: "fine"}, nil)
	_, err := f.svc.Analyze(context.Background(), "int main(void) { return 0; }")
	require.NoError(t, err)
	waitLines(t, f, "GREEN")

	f.analyzer.set(analysis.Result{Suggestions: []string{"a", "b"}}, nil)
	_, err = f.svc.Analyze(context.Background(), "int main(void) { int x; return 0; }")
	require.NoError(t, err)
	waitLines(t, f, "GREEN", "YELLOW")
}

func TestAnalyzeFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Connect(context.Background()))

	cause := errors.New("model unavailable")
	f.analyzer.set(analysis.Result{}, cause)

	_, err := f.svc.Analyze(context.Background(), "int main;")
	require.ErrorIs(t, err, cause)

	// The failure command is sent before Analyze returns.
	assert.Equal(t, []string{"RED"}, f.lines())
	assert.Equal(t, 1, f.svc.Status().Reconcile.Failures)

	entries, err := f.svc.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model unavailable", entries[0].Failure)
	assert.Equal(t, "RED", entries[0].Command)
}

func TestAnalyzeEmptySource(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Analyze(context.Background(), "  \n\t")
	assert.ErrorIs(t, err, analysis.ErrEmptySource)
	assert.Zero(t, f.analyzer.calls.Load())
}

func TestAnalyzeNotStarted(t *testing.T) {
	f := newFixture(t)
	f.svc.Stop()

	_, err := f.svc.Analyze(context.Background(), "int x;")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestHistoryDisabled(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.History = nil })

	_, err := f.svc.History(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	f.analyzer.set(redResult, nil)
	report, err := f.svc.Analyze(context.Background(), "int x;")
	require.NoError(t, err)
	assert.Zero(t, report.ID)
}

func TestManualSend(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.svc.Send(context.Background(), command.Off), connection.ErrNotConnected)

	require.NoError(t, f.svc.Connect(context.Background()))
	require.NoError(t, f.svc.Send(context.Background(), command.Off))
	assert.Equal(t, []string{"OFF"}, f.lines())
}

func TestRuntimeStatePersisted(t *testing.T) {
	f := newFixture(t)
	f.analyzer.set(analysis.Result{Summary: "ok"}, nil)
	require.NoError(t, f.svc.Connect(context.Background()))

	report, err := f.svc.Analyze(context.Background(), "int x;")
	require.NoError(t, err)
	waitLines(t, f, "GREEN")

	require.Eventually(t, func() bool {
		st, err := f.state.Load()
		return err == nil && st != nil && st.LastCommand == "GREEN"
	}, time.Second, 10*time.Millisecond)

	st, err := f.state.Load()
	require.NoError(t, err)
	assert.Equal(t, testPort, st.LastPort)
	assert.Equal(t, report.ID, st.LastAnalysisID)
}

func TestAdvertisement(t *testing.T) {
	adv := &recordingAdvertiser{}
	f := newFixture(t, func(c *Config) {
		c.Advertiser = adv
		c.Instance = "bench"
	})

	require.NoError(t, f.svc.Advertise(context.Background(), 8080))
	first := adv.last()
	assert.Equal(t, "bench", first.InstanceName)
	assert.Equal(t, 8080, first.Port)
	assert.Equal(t, "DISCONNECTED", first.State)

	require.NoError(t, f.svc.Connect(context.Background()))
	require.NoError(t, f.svc.Send(context.Background(), command.Yellow))

	last := adv.last()
	assert.Equal(t, 8080, last.Port)
	assert.Equal(t, testPort, last.DevicePort)
	assert.Equal(t, "CONNECTED", last.State)
	assert.Equal(t, "YELLOW", last.LastCommand)

	f.svc.Stop()
	adv.mu.Lock()
	defer adv.mu.Unlock()
	assert.True(t, adv.stopped)
}

func TestStopReleasesDevice(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Connect(context.Background()))

	f.svc.Stop()
	assert.Equal(t, connection.StateDisconnected, f.svc.Status().Device.State)
	assert.True(t, f.opener.Last().Closed())

	// Stop is idempotent.
	f.svc.Stop()
}
