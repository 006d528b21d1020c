// Package fakeport provides an in-memory serial device for tests.
//
// Port records every byte written to it (the "wire") and can be told to
// fail its liveness probe, its writes, or its close. Opener hands out Ports
// and can simulate a busy device.
package fakeport

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	bugst "go.bug.st/serial"

	"github.com/ledsignal/ledsignal-go/pkg/serial"
)

// ErrBusy is returned by Opener while it simulates a busy port.
var ErrBusy = errors.New("serial port busy")

// Port is an in-memory serial port.
type Port struct {
	mu sync.Mutex

	name   string
	mode   bugst.Mode
	wire   bytes.Buffer
	drains int
	closes int
	writes int
	closed bool
	dead   bool

	// ChunkSize limits how many bytes one Write call accepts. Zero means
	// unlimited. Small chunks with ChunkDelay expose interleaving.
	ChunkSize  int
	ChunkDelay time.Duration

	writeErr error
	closeErr error
}

// New returns an open port.
func New(name string) *Port {
	return &Port{name: name}
}

// Write implements serial.Port.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, fmt.Errorf("write %s: %w", p.name, os.ErrClosed)
	}
	if p.writeErr != nil {
		err := p.writeErr
		p.mu.Unlock()
		return 0, err
	}
	n := len(b)
	if p.ChunkSize > 0 && n > p.ChunkSize {
		n = p.ChunkSize
	}
	p.wire.Write(b[:n])
	p.writes++
	delay := p.ChunkDelay
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return n, nil
}

// Drain implements serial.Port.
func (p *Port) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("drain %s: %w", p.name, os.ErrClosed)
	}
	p.drains++
	return nil
}

// GetModemStatusBits implements serial.Port. It fails once the port is
// closed or marked dead.
func (p *Port) GetModemStatusBits() (*bugst.ModemStatusBits, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.dead {
		return nil, fmt.Errorf("modem status %s: no such device", p.name)
	}
	return &bugst.ModemStatusBits{DSR: true, CTS: true}, nil
}

// Close implements serial.Port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	p.closed = true
	return p.closeErr
}

// SetDead makes the liveness probe fail without closing the port, as when
// the cable is pulled.
func (p *Port) SetDead(dead bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dead = dead
}

// SetWriteError makes every following Write fail with err.
func (p *Port) SetWriteError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// SetCloseError makes Close return err.
func (p *Port) SetCloseError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeErr = err
}

// Wire returns everything written so far.
func (p *Port) Wire() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wire.String()
}

// Lines returns the written lines without terminators.
func (p *Port) Lines() []string {
	w := p.Wire()
	if w == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(w, "\n"), "\n")
}

// Drains returns how many times Drain succeeded.
func (p *Port) Drains() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drains
}

// Closes returns how many times Close was called.
func (p *Port) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

// Closed reports whether Close was called.
func (p *Port) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Mode returns the mode the port was opened with.
func (p *Port) Mode() bugst.Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Opener hands out fake ports.
type Opener struct {
	mu    sync.Mutex
	ports []*Port
	names []string
	busy  int
	err   error

	// Configure is applied to every new Port before it is returned.
	Configure func(*Port)
}

// NewOpener returns an opener whose opens succeed.
func NewOpener() *Opener {
	return &Opener{}
}

// Open implements serial.Opener.
func (o *Opener) Open(name string, mode *bugst.Mode) (serial.Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.names = append(o.names, name)
	if o.busy > 0 {
		o.busy--
		return nil, ErrBusy
	}
	if o.err != nil {
		return nil, o.err
	}

	p := New(name)
	if mode != nil {
		p.mode = *mode
	}
	if o.Configure != nil {
		o.Configure(p)
	}
	o.ports = append(o.ports, p)
	return p, nil
}

// SetBusy makes the next n opens fail with ErrBusy.
func (o *Opener) SetBusy(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = n
}

// SetError makes every following open fail with err (after busy opens).
func (o *Opener) SetError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// Opens returns how many open attempts were made.
func (o *Opener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.names)
}

// Ports returns every successfully opened port, oldest first.
func (o *Opener) Ports() []*Port {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Port, len(o.ports))
	copy(out, o.ports)
	return out
}

// Last returns the most recently opened port, or nil.
func (o *Opener) Last() *Port {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.ports) == 0 {
		return nil
	}
	return o.ports[len(o.ports)-1]
}

// Compile-time interface satisfaction checks.
var (
	_ serial.Port   = (*Port)(nil)
	_ serial.Opener = (*Opener)(nil)
)
