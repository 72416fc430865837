package builder

import "github.com/comalice/hsm"

// Option configures a state declared with Add.
type Option func(*StateBuilder)

// Add declares the state at path and applies opts to it.
func (b *Builder) Add(path string, opts ...Option) *StateBuilder {
	sb := b.State(path)
	for _, opt := range opts {
		opt(sb)
	}
	return sb
}

// Composite declares a state with the given children in order; the first
// child is the initial one.
func (b *Builder) Composite(path string, children ...string) *StateBuilder {
	sb := b.State(path)
	for i, name := range children {
		child := join(path, name)
		b.State(child)
		if i == 0 {
			sb.Initial(child)
		}
	}
	return sb
}

// OnEntry adds entry behaviour.
func OnEntry(act hsm.Action) Option {
	return func(sb *StateBuilder) { sb.Entry(act) }
}

// OnExit adds exit behaviour.
func OnExit(act hsm.Action) Option {
	return func(sb *StateBuilder) { sb.Exit(act) }
}

// On adds a transition to target for trigger.
func On(trigger any, target string, opts ...TransOption) Option {
	return func(sb *StateBuilder) {
		t := sb.On(trigger, target)
		for _, opt := range opts {
			opt(t)
		}
	}
}

// TransOption configures a transition declared with On.
type TransOption func(*TransitionBuilder)

// WithGuard adds a guard.
func WithGuard(g hsm.Guard) TransOption {
	return func(t *TransitionBuilder) { t.When(g) }
}

// WithAction adds transition behaviour.
func WithAction(act hsm.Action) TransOption {
	return func(t *TransitionBuilder) { t.Do(act) }
}

// WithKind sets the transition kind.
func WithKind(k hsm.TransitionKind) TransOption {
	return func(t *TransitionBuilder) { t.Kind(k) }
}
