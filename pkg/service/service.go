package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ledsignal/ledsignal-go/pkg/analysis"
	"github.com/ledsignal/ledsignal-go/pkg/command"
	"github.com/ledsignal/ledsignal-go/pkg/connection"
	"github.com/ledsignal/ledsignal-go/pkg/discovery"
	"github.com/ledsignal/ledsignal-go/pkg/history"
	ledlog "github.com/ledsignal/ledsignal-go/pkg/log"
	"github.com/ledsignal/ledsignal-go/pkg/persistence"
	"github.com/ledsignal/ledsignal-go/pkg/reconcile"
	"github.com/ledsignal/ledsignal-go/pkg/severity"
)

// Service orchestrates one LED device.
type Service struct {
	config  Config
	logger  *slog.Logger
	events  ledlog.Logger
	session *connection.Session
	loop    *reconcile.Loop

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	summary string

	// seq numbers Analyze calls; only the newest may feed the loop.
	seq uint64

	advMu    sync.Mutex
	advPort  int
	advertOn bool
}

// New creates a service. It does not touch the hardware.
func New(cfg Config) (*Service, error) {
	if cfg.Link == nil {
		return nil, fmt.Errorf("%w: link is required", ErrInvalidConfig)
	}
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("%w: analyzer is required", ErrInvalidConfig)
	}
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = DefaultAnalysisTimeout
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.Instance == "" {
		cfg.Instance = "ledsignal"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		config: cfg,
		logger: logger,
	}
	s.events = ledlog.NewMultiLogger(ledlog.OrNoop(cfg.EventLogger), stateObserver{s})

	session, err := connection.NewSession(connection.Config{
		Link:             cfg.Link,
		SettleDelay:      cfg.SettleDelay,
		PostWriteDelay:   cfg.PostWriteDelay,
		OperationTimeout: cfg.OperationTimeout,
		Logger:           logger,
		EventLogger:      s.events,
	})
	if err != nil {
		return nil, err
	}

	loop, err := reconcile.NewLoop(reconcile.Config{
		Sender:      session,
		Attempts:    cfg.Attempts,
		Backoff:     cfg.Backoff,
		Logger:      logger,
		EventLogger: s.events,
	})
	if err != nil {
		return nil, err
	}
	session.OnStateChange(loop.NotifyState)

	s.session = session
	s.loop = loop
	return s, nil
}

// Session returns the device session.
func (s *Service) Session() *connection.Session {
	return s.session
}

// Start runs the reconciliation loop until Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		_ = s.loop.Run(runCtx)
	}(s.done)

	s.logger.Info("service started")
	return nil
}

// Stop withdraws the advertisement, stops the loop and releases the
// device. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	s.advMu.Lock()
	if s.advertOn {
		s.config.Advertiser.Stop()
		s.advertOn = false
	}
	s.advMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.session.Disconnect()
}

// Connect opens the device. See connection.Session.Connect.
func (s *Service) Connect(ctx context.Context) error {
	return s.session.Connect(ctx)
}

// Disconnect closes the device.
func (s *Service) Disconnect() {
	s.session.Disconnect()
}

// Send writes cmd directly, bypassing the loop. The loop puts the LED back
// on the analysis color at the next reconnect or result.
func (s *Service) Send(ctx context.Context, cmd command.Command) error {
	return s.session.SendCommand(ctx, cmd, connection.WithSource(ledlog.SourceManual))
}

// Analyze runs the analyzer over source and hands the result to the loop.
//
// The previous result is withdrawn first, so the LED never shows a stale
// color for new source. When the analyzer fails the failure is recorded,
// the LED goes red and the analyzer's error is returned.
func (s *Service) Analyze(ctx context.Context, source string) (Report, error) {
	if strings.TrimSpace(source) == "" {
		return Report{}, analysis.ErrEmptySource
	}
	if !s.running() {
		return Report{}, ErrNotStarted
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.summary = ""
	s.mu.Unlock()
	s.loop.ClearResult()

	actx, cancel := context.WithTimeout(ctx, s.config.AnalysisTimeout)
	res, err := s.config.Analyzer.Analyze(actx, source)
	cancel()

	hash := history.HashSource(source)
	if err != nil {
		s.logger.Warn("analysis failed", "error", err)
		s.recordFailure(ctx, hash, err)
		if s.latest(seq) {
			s.loop.ReportFailure(ctx, err)
		}
		return Report{}, err
	}

	d := severity.Decide(res)
	report := Report{Result: res, Decision: d}

	if s.config.History != nil {
		id, herr := s.config.History.Record(ctx, history.Entry{
			SourceHash:  hash,
			Summary:     res.Summary,
			Errors:      res.Errors,
			Suggestions: res.Suggestions,
			Command:     d.Command.String(),
			Malformed:   res.Malformed,
		})
		if herr != nil {
			s.logger.Error("failed to record analysis", "error", herr)
		} else {
			report.ID = id
			s.saveState(func(st *persistence.RuntimeState) { st.LastAnalysisID = id })
		}
	}

	s.events.Log(ledlog.Event{
		Timestamp: time.Now(),
		Category:  ledlog.CategoryAnalysis,
		Analysis: &ledlog.AnalysisEvent{
			Errors:      d.ErrorCount,
			Suggestions: d.SuggestionCount,
			Command:     d.Command.String(),
			Malformed:   res.Malformed,
		},
	})
	s.logger.Info("analysis complete",
		"errors", d.ErrorCount,
		"suggestions", d.SuggestionCount,
		"command", d.Command,
		"malformed", res.Malformed)

	s.mu.Lock()
	latest := seq == s.seq
	if latest {
		s.summary = res.Summary
	}
	s.mu.Unlock()

	if !latest {
		s.logger.Debug("analysis superseded by a newer one", "command", d.Command)
		return report, nil
	}
	s.loop.SetResult(res)
	return report, nil
}

// Status returns a snapshot of the device and the loop.
func (s *Service) Status() Status {
	st := Status{
		Device:    s.session.Status(),
		Reconcile: s.loop.Stats(),
	}
	if d, ok := s.loop.LastDecision(); ok {
		st.Decision = &d
	}
	s.mu.Lock()
	st.Summary = s.summary
	s.mu.Unlock()
	return st
}

// History returns up to limit recent analyses, newest first. A limit of
// zero uses the configured default.
func (s *Service) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if s.config.History == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = s.config.HistoryLimit
	}
	return s.config.History.Recent(ctx, limit)
}

// Advertise publishes the HTTP API on port via the configured advertiser.
// It does nothing without an advertiser.
func (s *Service) Advertise(ctx context.Context, port int) error {
	if s.config.Advertiser == nil {
		return nil
	}

	s.advMu.Lock()
	defer s.advMu.Unlock()

	info := s.serviceInfo()
	info.Port = port
	if err := s.config.Advertiser.Advertise(ctx, info); err != nil {
		return err
	}
	s.advPort = port
	s.advertOn = true
	s.logger.Info("advertising control API",
		"instance", info.InstanceName,
		"service", discovery.ServiceType,
		"port", port)
	return nil
}

func (s *Service) refreshAdvertisement() {
	s.advMu.Lock()
	defer s.advMu.Unlock()

	if !s.advertOn {
		return
	}
	info := s.serviceInfo()
	info.Port = s.advPort
	if err := s.config.Advertiser.Update(info); err != nil && !errors.Is(err, discovery.ErrNotAdvertising) {
		s.logger.Warn("failed to update advertisement", "error", err)
	}
}

func (s *Service) serviceInfo() *discovery.ServiceInfo {
	st := s.session.Status()
	return &discovery.ServiceInfo{
		InstanceName: s.config.Instance,
		DevicePort:   st.Port,
		State:        st.State.String(),
		LastCommand:  st.LastCommand,
	}
}

func (s *Service) recordFailure(ctx context.Context, hash string, cause error) {
	failure := severity.Failure().String()
	if s.config.History != nil {
		if _, err := s.config.History.Record(ctx, history.Entry{
			SourceHash: hash,
			Command:    failure,
			Failure:    cause.Error(),
		}); err != nil {
			s.logger.Error("failed to record analysis failure", "error", err)
		}
	}
	s.events.Log(ledlog.Event{
		Timestamp: time.Now(),
		Category:  ledlog.CategoryAnalysis,
		Analysis: &ledlog.AnalysisEvent{
			Command: failure,
			Failed:  true,
		},
	})
}

func (s *Service) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Service) latest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.seq
}

func (s *Service) saveState(fn func(*persistence.RuntimeState)) {
	if s.config.State == nil {
		return
	}
	if err := s.config.State.Update(fn); err != nil {
		s.logger.Warn("failed to save runtime state", "path", s.config.State.Path(), "error", err)
	}
}

// stateObserver follows device events to keep the runtime state file and
// the advertisement current.
type stateObserver struct {
	s *Service
}

func (o stateObserver) Log(event ledlog.Event) {
	switch {
	case event.StateChange != nil:
		if event.StateChange.NewState == connection.StateConnected.String() && event.Port != "" {
			o.s.saveState(func(st *persistence.RuntimeState) { st.LastPort = event.Port })
		}
		o.s.refreshAdvertisement()
	case event.Command != nil:
		o.s.saveState(func(st *persistence.RuntimeState) { st.LastCommand = event.Command.Command })
		o.s.refreshAdvertisement()
	}
}
