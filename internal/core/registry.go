package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound = errors.New("machine not found")
	ErrExists   = errors.New("machine already registered")
)

// Registry tracks running machines by ID.
type Registry struct {
	mu       sync.RWMutex
	machines map[string]*Machine
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{machines: make(map[string]*Machine)}
}

// Register adds m under its ID.
func (r *Registry) Register(m *Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.machines[m.ID()]; ok {
		return fmt.Errorf("%s: %w", m.ID(), ErrExists)
	}
	r.machines[m.ID()] = m
	return nil
}

// Remove forgets the machine with id, if any.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.machines, id)
}

func (r *Registry) unregister(m *Machine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.machines[m.ID()] == m {
		delete(r.machines, m.ID())
	}
}

// Get returns the machine registered under id.
func (r *Registry) Get(id string) (*Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.machines[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return m, nil
}

// IDs returns the registered IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.machines))
	for id := range r.machines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Broadcast dispatches trigger to every registered machine concurrently and
// returns how many consumed it.
func (r *Registry) Broadcast(ctx context.Context, trigger any) (int, error) {
	r.mu.RLock()
	machines := make([]*Machine, 0, len(r.machines))
	for _, m := range r.machines {
		machines = append(machines, m)
	}
	r.mu.RUnlock()

	var mu sync.Mutex
	consumed := 0
	g, ctx := errgroup.WithContext(ctx)
	for _, m := range machines {
		m := m
		g.Go(func() error {
			ok, err := m.Dispatch(ctx, trigger)
			if err != nil {
				return fmt.Errorf("%s: %w", m.ID(), err)
			}
			if ok {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	return consumed, err
}

// StopAll stops every registered machine concurrently.
func (r *Registry) StopAll() error {
	r.mu.RLock()
	machines := make([]*Machine, 0, len(r.machines))
	for _, m := range r.machines {
		machines = append(machines, m)
	}
	r.mu.RUnlock()

	var g errgroup.Group
	for _, m := range machines {
		g.Go(m.Stop)
	}
	return g.Wait()
}
