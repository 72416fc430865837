package core

import "go.uber.org/zap"

// WithID overrides the generated machine ID.
func WithID(id string) Option {
	return func(m *Machine) {
		m.id = id
	}
}

// WithLogger configures the Machine's logger. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) {
		m.logger = l.Named("machine")
	}
}

// WithEventSource feeds the events of s into the Machine once started.
func WithEventSource(s EventSource) Option {
	return func(m *Machine) {
		m.source = s
	}
}

// WithErrorHandler receives failures of posted and sourced triggers.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Machine) {
		m.onError = h
	}
}

// WithQueueSize configures the event queue buffer size.
func WithQueueSize(size int) Option {
	return func(m *Machine) {
		m.queue = make(chan request, size)
	}
}

// WithRegistry registers the Machine in r while it runs.
func WithRegistry(r *Registry) Option {
	return func(m *Machine) {
		m.registry = r
	}
}
