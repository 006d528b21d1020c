package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledsignal/ledsignal-go/pkg/command"
	ledlog "github.com/ledsignal/ledsignal-go/pkg/log"
	"github.com/ledsignal/ledsignal-go/pkg/serial"
)

// Session errors.
var (
	ErrNotConnected   = errors.New("not connected")
	ErrConnectionLost = errors.New("connection lost")
	ErrInternal       = errors.New("unexpected link failure")
)

// Link errors surfaced unchanged by Session, re-exported so callers can
// match every session failure against this package.
var (
	ErrNoPortSelected   = serial.ErrNoPortSelected
	ErrPermissionDenied = serial.ErrPermissionDenied
	ErrOpenFailed       = serial.ErrOpenFailed
	ErrWriteFailed      = serial.ErrWriteFailed
)

// Timing defaults and floors.
const (
	DefaultSettleDelay    = 500 * time.Millisecond
	MinSettleDelay        = 400 * time.Millisecond
	DefaultPostWriteDelay = 150 * time.Millisecond
	MinPostWriteDelay     = 100 * time.Millisecond
)

// Link is the serial link a Session drives. *serial.Link implements it.
type Link interface {
	Open(ctx context.Context) (*serial.Handle, error)
	IsLive(h *serial.Handle) bool
	Write(ctx context.Context, h *serial.Handle, data []byte) error
	Close(h *serial.Handle)
	Discard(h *serial.Handle)
}

// Config configures a Session.
type Config struct {
	// Link is the serial link. Required.
	Link Link

	// SettleDelay is the wait between a successful open and Connected.
	// Zero means DefaultSettleDelay; smaller values are raised to
	// MinSettleDelay.
	SettleDelay time.Duration

	// PostWriteDelay is the wait after each drained command.
	// Zero means DefaultPostWriteDelay; smaller values are raised to
	// MinPostWriteDelay.
	PostWriteDelay time.Duration

	// OperationTimeout bounds each open and write. Zero disables it.
	OperationTimeout time.Duration

	Logger *slog.Logger

	// EventLogger receives state, command and error events.
	EventLogger ledlog.Logger
}

// DefaultConfig returns a configuration for link with default timing.
func DefaultConfig(link Link) Config {
	return Config{
		Link:           link,
		SettleDelay:    DefaultSettleDelay,
		PostWriteDelay: DefaultPostWriteDelay,
	}
}

// Status is a snapshot of a session for display.
type Status struct {
	State       State     `json:"state"`
	Port        string    `json:"port,omitempty"`
	SessionID   string    `json:"sessionId,omitempty"`
	ConnectedAt time.Time `json:"connectedAt,omitzero"`
	LastError   string    `json:"lastError,omitempty"`
	LastCommand string    `json:"lastCommand,omitempty"`
}

// SendOptions annotate a command for the event log.
type SendOptions struct {
	Source  ledlog.CommandSource
	Attempt int
}

// SendOption sets a field of SendOptions.
type SendOption func(*SendOptions)

// WithSource records what caused the command.
func WithSource(src ledlog.CommandSource) SendOption {
	return func(o *SendOptions) { o.Source = src }
}

// WithAttempt records the 1-based retry attempt of the command.
func WithAttempt(n int) SendOption {
	return func(o *SendOptions) { o.Attempt = n }
}

// ApplySendOptions folds opts into a SendOptions value.
func ApplySendOptions(opts ...SendOption) SendOptions {
	var o SendOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Session owns the connection to one device.
//
// Connect, Disconnect and SendCommand are serialized: at most one of them
// touches the link at any time. State accessors never block on hardware.
type Session struct {
	config Config
	link   Link
	logger *slog.Logger
	events ledlog.Logger

	// opMu serializes hardware operations.
	opMu sync.Mutex

	mu          sync.RWMutex
	state       State // Disconnected, Connecting or Connected
	handle      *serial.Handle
	lastErr     error
	lastCommand command.Command
	hasCommand  bool
	sessionID   string
	connectedAt time.Time

	callbacks []func(oldState, newState State)
}

// NewSession creates a disconnected session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Link == nil {
		return nil, errors.New("connection: link is required")
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.SettleDelay < MinSettleDelay {
		cfg.SettleDelay = MinSettleDelay
	}
	if cfg.PostWriteDelay == 0 {
		cfg.PostWriteDelay = DefaultPostWriteDelay
	}
	if cfg.PostWriteDelay < MinPostWriteDelay {
		cfg.PostWriteDelay = MinPostWriteDelay
	}
	if cfg.OperationTimeout < 0 {
		cfg.OperationTimeout = 0
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		config: cfg,
		link:   cfg.Link,
		logger: logger,
		events: ledlog.OrNoop(cfg.EventLogger),
		state:  StateDisconnected,
	}, nil
}

// State returns the connection state. A failed operation leaves the
// session Disconnected; the cause is available from LastError.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsConnected reports whether the session holds a settled handle.
func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateConnected
}

// LastError returns the error recorded by the last failed operation.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// LastCommand returns the last command written successfully.
func (s *Session) LastCommand() (command.Command, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCommand, s.hasCommand
}

// SessionID returns the identifier of the current or most recent
// connection attempt.
func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:       s.state,
		SessionID:   s.sessionID,
		ConnectedAt: s.connectedAt,
	}
	if s.handle != nil {
		st.Port = s.handle.Name()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if s.hasCommand {
		st.LastCommand = s.lastCommand.String()
	}
	return st
}

// OnStateChange registers a callback for state changes.
// Callbacks run synchronously on the goroutine performing the operation
// and must not call Connect, Disconnect or SendCommand.
func (s *Session) OnStateChange(fn func(oldState, newState State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Connect opens the device. It returns immediately when a live handle is
// already held.
func (s *Session) Connect(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	h := s.handle
	s.mu.RUnlock()

	if h != nil {
		live, err := s.isLive(h)
		if err != nil {
			s.fault(h, "connect", err)
			return err
		}
		if live {
			return nil
		}
		s.logger.Info("held handle is no longer live, reopening", "port", h.Name())
		s.discard(h)
	}

	id := uuid.NewString()
	s.setState(func() {
		s.state = StateConnecting
		s.handle = nil
		s.lastErr = nil
		s.sessionID = id
		s.connectedAt = time.Time{}
	}, "connect requested")

	opCtx, cancel := s.opContext(ctx)
	h, err := s.open(opCtx)
	cancel()
	if err != nil {
		s.logger.Warn("device connect failed", "session_id", id, "error", err)
		s.recordError("connect", "", err)
		s.setState(func() {
			s.state = StateDisconnected
			s.lastErr = err
		}, err.Error())
		return err
	}

	time.Sleep(s.config.SettleDelay)

	s.setState(func() {
		s.state = StateConnected
		s.handle = h
		s.connectedAt = time.Now()
	}, "port settled")

	s.logger.Info("device connected", "port", h.Name(), "session_id", id)
	return nil
}

// Disconnect closes the handle and clears the last error.
func (s *Session) Disconnect() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var h *serial.Handle
	s.setState(func() {
		h = s.handle
		s.handle = nil
		s.state = StateDisconnected
		s.lastErr = nil
		s.connectedAt = time.Time{}
	}, "disconnect requested")

	if h == nil {
		return
	}
	if err := s.guard("close", func() error {
		s.link.Close(h)
		return nil
	}); err != nil {
		s.logger.Error("closing device failed", "port", h.Name(), "error", err)
	}
	s.logger.Info("device disconnected", "port", h.Name())
}

// SendCommand writes cmd to the device and returns once it has been
// drained and PostWriteDelay has elapsed.
func (s *Session) SendCommand(ctx context.Context, cmd command.Command, opts ...SendOption) error {
	if !cmd.Valid() {
		return fmt.Errorf("%w: %d", command.ErrUnknownCommand, cmd)
	}
	o := ApplySendOptions(opts...)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	h := s.handle
	connected := s.state == StateConnected
	s.mu.RUnlock()

	if h == nil || !connected {
		return ErrNotConnected
	}

	live, err := s.isLive(h)
	if err != nil {
		s.fault(h, "send", err)
		return err
	}
	if !live {
		s.logger.Warn("device handle is no longer live", "port", h.Name(), "command", cmd)
		s.fault(h, "send", ErrConnectionLost)
		return ErrConnectionLost
	}

	start := time.Now()
	data := command.Encode(cmd)

	opCtx, cancel := s.opContext(ctx)
	err = s.guard("write", func() error {
		return s.link.Write(opCtx, h, data)
	})
	cancel()
	if err != nil {
		if errors.Is(err, ErrInternal) || serial.IsFault(err) {
			s.fault(h, "send", err)
			return err
		}
		s.logger.Warn("device write failed", "port", h.Name(), "command", cmd, "error", err)
		s.recordError("send", h.Name(), err)
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	time.Sleep(s.config.PostWriteDelay)

	s.mu.Lock()
	s.lastCommand = cmd
	s.hasCommand = true
	s.lastErr = nil
	id := s.sessionID
	s.mu.Unlock()

	s.events.Log(ledlog.Event{
		Timestamp: time.Now(),
		SessionID: id,
		Port:      h.Name(),
		Category:  ledlog.CategoryCommand,
		Command: &ledlog.CommandEvent{
			Command:  cmd.String(),
			Bytes:    len(data),
			Source:   o.Source,
			Duration: time.Since(start),
			Attempt:  o.Attempt,
		},
	})
	s.logger.Debug("command sent", "port", h.Name(), "command", cmd, "source", o.Source)
	return nil
}

// fault drops h without closing it and falls back to Disconnected with
// err recorded. Nothing happens if h is no longer the held handle.
func (s *Session) fault(h *serial.Handle, op string, err error) {
	s.mu.RLock()
	current := s.handle == h
	s.mu.RUnlock()
	if !current {
		return
	}

	s.discard(h)
	s.recordError(op, h.Name(), err)
	s.setState(func() {
		if s.handle == h {
			s.handle = nil
		}
		s.state = StateDisconnected
		s.lastErr = err
		s.connectedAt = time.Time{}
	}, err.Error())
}

func (s *Session) discard(h *serial.Handle) {
	if err := s.guard("discard", func() error {
		s.link.Discard(h)
		return nil
	}); err != nil {
		s.logger.Error("discarding handle failed", "port", h.Name(), "error", err)
	}
}

func (s *Session) open(ctx context.Context) (*serial.Handle, error) {
	var h *serial.Handle
	err := s.guard("open", func() error {
		var err error
		h, err = s.link.Open(ctx)
		return err
	})
	if err == nil && h == nil {
		err = fmt.Errorf("%w: link returned no handle", ErrInternal)
	}
	return h, err
}

func (s *Session) isLive(h *serial.Handle) (bool, error) {
	var live bool
	err := s.guard("probe", func() error {
		live = s.link.IsLive(h)
		return nil
	})
	return live, err
}

// guard runs fn and converts a panic into an ErrInternal error.
func (s *Session) guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered panic in serial link", "op", op, "panic", r)
			err = fmt.Errorf("%w: %s: %v", ErrInternal, op, r)
		}
	}()
	return fn()
}

func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	base := context.WithoutCancel(ctx)
	if s.config.OperationTimeout > 0 {
		return context.WithTimeout(base, s.config.OperationTimeout)
	}
	return base, func() {}
}

// setState applies mutate under the lock and reports the resulting
// transition, if any, to the event log and callbacks.
func (s *Session) setState(mutate func(), reason string) {
	s.mu.Lock()
	oldState := s.state
	mutate()
	newState := s.state
	id := s.sessionID
	var port string
	if s.handle != nil {
		port = s.handle.Name()
	}
	callbacks := append([]func(State, State){}, s.callbacks...)
	s.mu.Unlock()

	if oldState == newState {
		return
	}

	s.events.Log(ledlog.Event{
		Timestamp: time.Now(),
		SessionID: id,
		Port:      port,
		Category:  ledlog.CategoryState,
		StateChange: &ledlog.StateChangeEvent{
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})

	for _, fn := range callbacks {
		fn(oldState, newState)
	}
}

func (s *Session) recordError(op, port string, err error) {
	s.events.Log(ledlog.Event{
		Timestamp: time.Now(),
		SessionID: s.SessionID(),
		Port:      port,
		Category:  ledlog.CategoryError,
		Error:     &ledlog.ErrorEventData{Op: op, Message: err.Error()},
	})
}
