package extensibility

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/comalice/hsm"
)

// ErrUnknownAction is returned when an action name has not been registered.
var ErrUnknownAction = errors.New("unknown action")

// ActionRegistry resolves the action names used in model documents.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]hsm.Action
	logger  *zap.Logger
}

// RegistryOption configures an ActionRegistry.
type RegistryOption func(*ActionRegistry)

// WithActionLogger wraps every resolved action with Logged.
func WithActionLogger(logger *zap.Logger) RegistryOption {
	return func(r *ActionRegistry) {
		r.logger = logger
	}
}

// NewActionRegistry creates an empty registry.
func NewActionRegistry(opts ...RegistryOption) *ActionRegistry {
	r := &ActionRegistry{actions: make(map[string]hsm.Action)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces the action called name.
func (r *ActionRegistry) Register(name string, a hsm.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = a
}

// Resolve returns the action called name.
func (r *ActionRegistry) Resolve(name string) (hsm.Action, error) {
	r.mu.RLock()
	a, ok := r.actions[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("action %q: %w", name, ErrUnknownAction)
	}
	if r.logger != nil {
		return Logged(name, a, r.logger), nil
	}
	return a, nil
}

// ResolveAll resolves names in order, reporting every unknown name.
func (r *ActionRegistry) ResolveAll(names []string) ([]hsm.Action, error) {
	out := make([]hsm.Action, 0, len(names))
	var errs []error
	for _, name := range names {
		a, err := r.Resolve(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, a)
	}
	return out, errors.Join(errs...)
}

// Names returns the registered names in no particular order.
func (r *ActionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	return names
}

// Logged wraps a with debug logging around each run.
func Logged(name string, a hsm.Action, logger *zap.Logger) hsm.Action {
	return func(trigger any) {
		start := time.Now()
		logger.Debug("running action",
			zap.String("action", name),
			zap.Any("trigger", trigger))
		a(trigger)
		logger.Debug("action completed",
			zap.String("action", name),
			zap.Duration("elapsed", time.Since(start)))
	}
}
