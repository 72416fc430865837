// Package testutil holds helpers shared by the test suites: a recorder that
// captures behaviour and diagnostics in order, and drivers that let the same
// scenario run against a bare instance or a serializing machine.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/core"
)

// Recorder collects an ordered trace. It implements hsm.Diagnostics, recording
// "enter:<name>" and "exit:<name>" for state entry and exit, and hands out
// actions that record their own label.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements hsm.Diagnostics.
func (r *Recorder) Emit(rec hsm.Record) {
	switch rec.Category {
	case hsm.CategoryEntry:
		r.add("enter:" + rec.Element)
	case hsm.CategoryExit:
		r.add("exit:" + rec.Element)
	case hsm.CategoryTerminate:
		r.add("terminate:" + rec.Element)
	}
}

// Action returns behaviour that records label when run.
func (r *Recorder) Action(label string) hsm.Action {
	return func(any) { r.add(label) }
}

func (r *Recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Count returns how many recorded events start with prefix.
func (r *Recorder) Count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Driver is the common surface of a bare instance and a core machine, so one
// scenario can run against both.
type Driver interface {
	Evaluate(trigger any) (bool, error)
	Configuration() []string
}

var _ Driver = (*hsm.Instance)(nil)

// MachineDriver drives a core.Machine through its queue.
type MachineDriver struct {
	m       *core.Machine
	timeout time.Duration
}

// NewMachineDriver starts m and returns a driver for it. Call Stop when done.
func NewMachineDriver(m *core.Machine, timeout time.Duration) (*MachineDriver, error) {
	if err := m.Start(); err != nil {
		return nil, err
	}
	return &MachineDriver{m: m, timeout: timeout}, nil
}

// Evaluate dispatches the trigger and waits for the result.
func (d *MachineDriver) Evaluate(trigger any) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return d.m.Dispatch(ctx, trigger)
}

// Configuration returns the machine's active leaf states.
func (d *MachineDriver) Configuration() []string {
	return d.m.Current()
}

// Stop stops the underlying machine.
func (d *MachineDriver) Stop() error {
	return d.m.Stop()
}
