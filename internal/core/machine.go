// Package core runs hsm instances as actors: one goroutine owns an instance
// and evaluates the triggers queued by any number of callers, one at a time.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/primitives"
)

var (
	// ErrQueueFull is returned by Post when the queue has no room.
	ErrQueueFull = errors.New("event queue full")
	// ErrNotStarted is returned when triggers are sent before Start.
	ErrNotStarted = errors.New("machine not started")
	// ErrStopped is returned when triggers are sent after Stop.
	ErrStopped = errors.New("machine stopped")
	// ErrPanic wraps a panic raised by a guard or action.
	ErrPanic = errors.New("behaviour panicked")
)

// EventSource feeds events into a running Machine until its channel closes.
type EventSource interface {
	Events() <-chan primitives.Event
}

// ErrorHandler receives failures of triggers that had no caller waiting on
// them (Post and EventSource).
type ErrorHandler func(trigger any, err error)

// Option applies configuration to Machine via functional options pattern.
type Option func(*Machine)

type request struct {
	trigger any
	reply   chan result
}

type result struct {
	ok  bool
	err error
}

// Machine serializes evaluation of one instance. Dispatch, Post and Current
// are safe for concurrent use.
type Machine struct {
	id       string
	in       *hsm.Instance
	logger   *zap.Logger
	queue    chan request
	source   EventSource
	onError  ErrorHandler
	registry *Registry

	mu      sync.RWMutex
	current []string
	started bool

	stopOnce sync.Once
	done     chan struct{}
	stopped  chan struct{}
}

// NewMachine wraps in. The instance must not be evaluated directly once the
// machine is started.
func NewMachine(in *hsm.Instance, opts ...Option) *Machine {
	m := &Machine{
		id:      uuid.NewString(),
		in:      in,
		logger:  zap.NewNop(),
		queue:   make(chan request, 1000),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.current = in.Configuration()
	return m
}

// ID returns the machine's identifier.
func (m *Machine) ID() string { return m.id }

// Instance returns the wrapped instance.
func (m *Machine) Instance() *hsm.Instance { return m.in }

// Start launches the event loop and the event source, if any. Starting a
// running machine is a no-op; a stopped machine cannot be restarted.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return ErrStopped
	default:
	}
	if m.started {
		return nil
	}
	if m.registry != nil {
		if err := m.registry.Register(m); err != nil {
			return err
		}
	}
	m.started = true

	go m.loop()
	if m.source != nil {
		go m.forward(m.source.Events())
	}
	m.logger.Info("machine started",
		zap.String("machine", m.id),
		zap.String("instance", m.in.Name()),
		zap.Strings("configuration", m.current))
	return nil
}

// Stop signals the loop to exit and waits for the trigger in progress. Queued
// triggers are dropped. Safe to call multiple times.
func (m *Machine) Stop() error {
	m.stopOnce.Do(func() {
		close(m.done)
		m.mu.RLock()
		started := m.started
		m.mu.RUnlock()
		if !started {
			close(m.stopped)
		}
		if m.registry != nil {
			m.registry.unregister(m)
		}
	})
	<-m.stopped
	return nil
}

// Dispatch queues trigger and waits for its evaluation.
func (m *Machine) Dispatch(ctx context.Context, trigger any) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	req := request{trigger: trigger, reply: make(chan result, 1)}
	select {
	case m.queue <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-m.done:
		return false, ErrStopped
	}
	select {
	case res := <-req.reply:
		return res.ok, res.err
	case <-ctx.Done():
		return false, ctx.Err()
	case <-m.stopped:
		return false, ErrStopped
	}
}

// Post queues trigger without waiting. Failures go to the error handler.
func (m *Machine) Post(trigger any) error {
	if err := m.ready(); err != nil {
		return err
	}
	select {
	case m.queue <- request{trigger: trigger}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Current returns the active leaf states after the last evaluation.
func (m *Machine) Current() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.current...)
}

// Done is closed when Stop is called.
func (m *Machine) Done() <-chan struct{} { return m.done }

func (m *Machine) ready() error {
	select {
	case <-m.done:
		return ErrStopped
	default:
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.started {
		return ErrNotStarted
	}
	return nil
}

func (m *Machine) loop() {
	defer close(m.stopped)
	for {
		select {
		case req := <-m.queue:
			ok, err := m.evaluate(req.trigger)
			if req.reply != nil {
				req.reply <- result{ok: ok, err: err}
			} else if err != nil && m.onError != nil {
				m.onError(req.trigger, err)
			}
		case <-m.done:
			return
		}
	}
}

// forward copies source events into the queue, blocking while it is full.
func (m *Machine) forward(events <-chan primitives.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			select {
			case m.queue <- request{trigger: ev}:
			case <-m.done:
				return
			}
		case <-m.done:
			return
		}
	}
}

func (m *Machine) evaluate(trigger any) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		if err != nil {
			m.logger.Warn("evaluation failed",
				zap.String("machine", m.id),
				zap.Any("trigger", trigger),
				zap.Error(err))
		}
	}()

	ok, err = m.in.Evaluate(trigger)
	config := m.in.Configuration()

	m.mu.Lock()
	m.current = config
	m.mu.Unlock()

	m.logger.Debug("evaluated",
		zap.String("machine", m.id),
		zap.Any("trigger", trigger),
		zap.Bool("consumed", ok),
		zap.Strings("configuration", config))
	if ok && m.in.Terminated() {
		m.logger.Info("instance terminated", zap.String("machine", m.id))
	}
	return ok, err
}
