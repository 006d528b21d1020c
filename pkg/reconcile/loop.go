package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ledsignal/ledsignal-go/pkg/analysis"
	"github.com/ledsignal/ledsignal-go/pkg/command"
	"github.com/ledsignal/ledsignal-go/pkg/connection"
	ledlog "github.com/ledsignal/ledsignal-go/pkg/log"
	"github.com/ledsignal/ledsignal-go/pkg/severity"
)

// DefaultAttempts is the number of sends tried for one input.
const DefaultAttempts = 3

// Sender is the part of a device session the loop drives.
// *connection.Session implements it.
type Sender interface {
	SendCommand(ctx context.Context, cmd command.Command, opts ...connection.SendOption) error
	IsConnected() bool
}

// Config configures a Loop.
type Config struct {
	// Sender receives the commands. Required.
	Sender Sender

	// Attempts is the number of sends tried per input. Default: 3.
	Attempts int

	// Backoff is the delay schedule between attempts.
	Backoff connection.BackoffConfig

	Logger      *slog.Logger
	EventLogger ledlog.Logger
}

// DefaultConfig returns a configuration for sender.
func DefaultConfig(sender Sender) Config {
	return Config{
		Sender:   sender,
		Attempts: DefaultAttempts,
		Backoff:  connection.DefaultBackoffConfig(),
	}
}

// Stats counts loop outcomes.
type Stats struct {
	Sent      int `json:"sent"`
	Exhausted int `json:"exhausted"`
	Failures  int `json:"failures"`
}

// Loop reconciles the LED with the latest analysis and connection state.
type Loop struct {
	config Config
	sender Sender
	logger *slog.Logger
	events ledlog.Logger

	signal  chan struct{}
	backoff *connection.Backoff

	mu        sync.Mutex
	result    *analysis.Result
	connected bool

	// generation changes with every input, including reconnects.
	generation     uint64
	sentGeneration uint64
	sent           bool
	lastDecision   *severity.Decision
	stats          Stats
}

// NewLoop creates a loop. Call Run to start processing.
func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Sender == nil {
		return nil, errors.New("reconcile: sender is required")
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Loop{
		config:    cfg,
		sender:    cfg.Sender,
		logger:    logger,
		events:    ledlog.OrNoop(cfg.EventLogger),
		signal:    make(chan struct{}, 1),
		backoff:   connection.NewBackoffWithConfig(cfg.Backoff),
		connected: cfg.Sender.IsConnected(),
	}, nil
}

// SetResult replaces the current analysis result.
func (l *Loop) SetResult(res analysis.Result) {
	l.mu.Lock()
	l.result = &res
	l.generation++
	l.mu.Unlock()
	l.trigger()
}

// ClearResult forgets the current result, e.g. while a new analysis runs.
// The LED keeps its last command.
func (l *Loop) ClearResult() {
	l.mu.Lock()
	l.result = nil
	l.generation++
	l.mu.Unlock()
}

// NotifyState feeds a session state change into the loop. It is shaped to
// be registered with connection.Session.OnStateChange.
func (l *Loop) NotifyState(_, newState connection.State) {
	connected := newState == connection.StateConnected

	l.mu.Lock()
	if connected == l.connected {
		l.mu.Unlock()
		return
	}
	l.connected = connected
	l.generation++
	l.mu.Unlock()
	l.trigger()
}

// ReportFailure records a failed analysis. The current result is cleared
// and, if the session is connected, RED is sent once. Failures of that
// send are logged and swallowed.
func (l *Loop) ReportFailure(ctx context.Context, cause error) {
	l.mu.Lock()
	l.result = nil
	l.generation++
	l.stats.Failures++
	l.mu.Unlock()

	l.logger.Warn("analysis failed, signalling on device", "error", cause)

	if !l.sender.IsConnected() {
		l.logger.Info("device not connected, failure not shown")
		return
	}
	cmd := severity.Failure()
	if err := l.sender.SendCommand(ctx, cmd, connection.WithSource(ledlog.SourceFailure)); err != nil {
		l.logger.Warn("failed to send failure command", "command", cmd, "error", err)
		l.recordError("failure", err)
	}
}

// LastDecision returns the decision most recently delivered to the device.
func (l *Loop) LastDecision() (severity.Decision, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastDecision == nil {
		return severity.Decision{}, false
	}
	return *l.lastDecision, true
}

// Stats returns a copy of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Run processes inputs until ctx is done. It always returns nil.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("reconcile loop started")
	defer l.logger.Debug("reconcile loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.signal:
		}

		for l.reconcile(ctx) {
			// superseded by a newer input; evaluate again
		}
	}
}

func (l *Loop) trigger() {
	select {
	case l.signal <- struct{}{}:
	default:
	}
}

type snapshot struct {
	result     analysis.Result
	generation uint64
}

// pending returns the inputs to act on, or false when there is nothing to
// send.
func (l *Loop) pending() (snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.result == nil || !l.connected {
		return snapshot{}, false
	}
	if l.sent && l.sentGeneration == l.generation {
		return snapshot{}, false
	}
	return snapshot{result: *l.result, generation: l.generation}, true
}

func (l *Loop) current(s snapshot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation == s.generation
}

// reconcile runs one retry sequence. It reports true when a newer input
// interrupted it.
func (l *Loop) reconcile(ctx context.Context) bool {
	snap, ok := l.pending()
	if !ok {
		return false
	}

	decision := severity.Decide(snap.result)
	l.backoff.Reset()

	for attempt := 1; attempt <= l.config.Attempts; attempt++ {
		if !l.current(snap) {
			return true
		}

		var err error
		if l.sender.IsConnected() {
			err = l.sender.SendCommand(ctx, decision.Command,
				connection.WithSource(ledlog.SourceReconcile),
				connection.WithAttempt(attempt))
			if err == nil {
				l.markSent(snap, decision)
				l.logger.Info("device updated",
					"command", decision.Command,
					"errors", decision.ErrorCount,
					"suggestions", decision.SuggestionCount,
					"attempt", attempt)
				return false
			}
		} else {
			err = connection.ErrNotConnected
		}

		if attempt == l.config.Attempts {
			l.exhausted(decision, err)
			return false
		}
		l.logger.Debug("reconcile attempt failed",
			"attempt", attempt, "command", decision.Command, "retry_in", l.backoff.Current(), "error", err)

		timer := time.NewTimer(l.backoff.Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-l.signal:
			timer.Stop()
			return true
		case <-timer.C:
		}
	}
	return false
}

func (l *Loop) markSent(s snapshot, d severity.Decision) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = true
	l.sentGeneration = s.generation
	l.lastDecision = &d
	l.stats.Sent++
}

func (l *Loop) exhausted(d severity.Decision, err error) {
	l.mu.Lock()
	l.stats.Exhausted++
	l.mu.Unlock()

	l.logger.Warn("giving up on device update",
		"command", d.Command, "attempts", l.config.Attempts, "retries", l.backoff.Attempts(), "error", err)
	l.recordError("reconcile", err)
}

func (l *Loop) recordError(op string, err error) {
	l.events.Log(ledlog.Event{
		Timestamp: time.Now(),
		Category:  ledlog.CategoryError,
		Error:     &ledlog.ErrorEventData{Op: op, Message: err.Error()},
	})
}
