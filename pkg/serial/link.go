package serial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	bugst "go.bug.st/serial"
)

// MinReopenDelay is the shortest wait allowed between closing a busy port
// and the single retry of the open.
const MinReopenDelay = 100 * time.Millisecond

// Config configures a Link.
type Config struct {
	// Selector picks the port to open. Required.
	Selector PortSelector

	// Opener opens the selected port. Default: SystemOpener.
	Opener Opener

	// BaudRate for the 8N1 mode. Default: 9600.
	BaudRate int

	// ReopenDelay is the wait after closing a busy port before the retry.
	// Values below MinReopenDelay are raised to it.
	ReopenDelay time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns a configuration for the given selector.
func DefaultConfig(selector PortSelector) Config {
	return Config{
		Selector:    selector,
		Opener:      SystemOpener,
		BaudRate:    DefaultBaudRate,
		ReopenDelay: MinReopenDelay,
	}
}

// Link owns the connection to one serial device.
type Link struct {
	config Config
	logger *slog.Logger

	// writeMu is held for the whole write+drain of one payload.
	writeMu sync.Mutex

	mu        sync.Mutex
	current   *Handle
	discarded []*Handle
}

// NewLink creates a link. It does not touch the hardware.
func NewLink(cfg Config) (*Link, error) {
	if cfg.Selector == nil {
		return nil, errors.New("serial: port selector is required")
	}
	if cfg.Opener == nil {
		cfg.Opener = SystemOpener
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReopenDelay < MinReopenDelay {
		cfg.ReopenDelay = MinReopenDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Link{config: cfg, logger: logger}, nil
}

// Current returns the handle currently owned by the link, or nil.
func (l *Link) Current() *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Open selects a port and opens it. A busy port is closed, given
// ReopenDelay, and opened once more before the failure is returned.
func (l *Link) Open(ctx context.Context) (*Handle, error) {
	name, err := l.config.Selector.SelectPort(ctx)
	if err != nil {
		if errors.Is(err, ErrNoPortSelected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNoPortSelected, err)
	}

	mode := Mode(l.config.BaudRate)
	port, err := await(ctx, func() (Port, error) {
		return l.openWithRetry(name, mode)
	}, func(p Port) {
		l.logger.Warn("closing port opened after caller gave up", "port", name)
		_ = p.Close()
	})
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, name, err)
		case isPermission(err):
			return nil, fmt.Errorf("%w: %s: %v", ErrPermissionDenied, name, err)
		default:
			return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, name, err)
		}
	}

	h := &Handle{name: name, port: port, openedAt: time.Now()}

	l.mu.Lock()
	old := l.current
	l.current = h
	stale := l.discarded
	l.discarded = nil
	l.mu.Unlock()

	if old != nil {
		stale = append(stale, old)
	}
	for _, s := range stale {
		l.release(s)
	}

	l.logger.Info("serial port opened", "port", name, "baud", mode.BaudRate)
	return h, nil
}

func (l *Link) openWithRetry(name string, mode *bugst.Mode) (Port, error) {
	port, err := l.config.Opener.Open(name, mode)
	if err == nil {
		return port, nil
	}
	if !isBusy(err) {
		return nil, err
	}

	l.logger.Warn("serial port busy, closing and retrying once",
		"port", name, "delay", l.config.ReopenDelay, "error", err)

	l.releaseAll()
	time.Sleep(l.config.ReopenDelay)

	return l.config.Opener.Open(name, mode)
}

// IsLive reports whether h is still usable. The probe reads the modem
// status lines and never consumes data.
func (l *Link) IsLive(h *Handle) (live bool) {
	if h == nil || h.port == nil {
		return false
	}

	l.mu.Lock()
	released := h.released
	l.mu.Unlock()
	if released {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.Warn("liveness probe panicked", "port", h.name, "panic", r)
			live = false
		}
	}()

	if _, err := h.port.GetModemStatusBits(); err != nil {
		if code, ok := portErrorCode(err); ok && code == bugst.FunctionNotImplemented {
			// The platform cannot probe; the handle is assumed live until a
			// write proves otherwise.
			return true
		}
		l.logger.Debug("liveness probe failed", "port", h.name, "error", err)
		return false
	}
	return true
}

// Write sends data and returns once the OS has drained it. Concurrent
// writers are serialized.
func (l *Link) Write(ctx context.Context, h *Handle, data []byte) error {
	if h == nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, ErrHandleReleased)
	}

	_, err := await(ctx, func() (struct{}, error) {
		return struct{}{}, l.writeLocked(h, data)
	}, nil)
	if err != nil {
		if errors.Is(err, ErrWriteFailed) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, h.name, err)
	}
	return nil
}

func (l *Link) writeLocked(h *Handle, data []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	released := h.released
	l.mu.Unlock()
	if released {
		return fmt.Errorf("%w: %w", ErrWriteFailed, ErrHandleReleased)
	}

	written := 0
	for written < len(data) {
		n, err := h.port.Write(data[written:])
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWriteFailed, h.name, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s: write returned 0 bytes without error", ErrWriteFailed, h.name)
		}
		written += n
	}

	if err := h.port.Drain(); err != nil {
		return fmt.Errorf("%w: %s: drain: %w", ErrWriteFailed, h.name, err)
	}
	return nil
}

// Discard marks h dead without closing it. The OS handle is closed later,
// when a busy port forces a reopen or the next open succeeds.
func (l *Link) Discard(h *Handle) {
	if h == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if h.released {
		return
	}
	h.released = true
	if l.current == h {
		l.current = nil
	}
	l.discarded = append(l.discarded, h)
}

// Close releases h. Errors are logged, never returned.
func (l *Link) Close(h *Handle) {
	if h == nil {
		return
	}
	l.mu.Lock()
	if l.current == h {
		l.current = nil
	}
	l.mu.Unlock()

	l.release(h)
}

// releaseAll closes every handle the link still owns.
func (l *Link) releaseAll() {
	l.mu.Lock()
	handles := l.discarded
	l.discarded = nil
	if l.current != nil {
		handles = append(handles, l.current)
		l.current = nil
	}
	l.mu.Unlock()

	for _, h := range handles {
		l.release(h)
	}
}

func (l *Link) release(h *Handle) {
	l.mu.Lock()
	h.released = true
	if h.closed {
		l.mu.Unlock()
		return
	}
	h.closed = true
	l.mu.Unlock()

	if h.port == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("closing serial port panicked", "port", h.name, "panic", r)
		}
	}()

	if err := h.port.Close(); err != nil {
		l.logger.Warn("error closing serial port", "port", h.name, "error", err)
		return
	}
	l.logger.Info("serial port closed", "port", h.name)
}

// await runs fn, returning early if ctx is done. A context that can never
// be done runs fn inline. When the caller gives up, abandon (if set)
// receives the eventual successful value.
func await[T any](ctx context.Context, fn func() (T, error), abandon func(T)) (T, error) {
	if ctx == nil || ctx.Done() == nil {
		return fn()
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		if abandon != nil {
			go func() {
				if r := <-ch; r.err == nil {
					abandon(r.v)
				}
			}()
		}
		var zero T
		return zero, ctx.Err()
	}
}
