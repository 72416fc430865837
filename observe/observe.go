// Package observe adapts hsm diagnostics records to logging and metrics
// backends: zap, log/slog and Prometheus.
//
// Every sink is an hsm.Diagnostics and is installed with hsm.WithDiagnostics
// or hsm.WithInstanceDiagnostics. Sinks run synchronously inside evaluation.
package observe

import "github.com/comalice/hsm"

// Tee fans records out to every non-nil sink in order.
func Tee(sinks ...hsm.Diagnostics) hsm.Diagnostics {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type tee []hsm.Diagnostics

func (t tee) Emit(r hsm.Record) {
	for _, s := range t {
		s.Emit(r)
	}
}
