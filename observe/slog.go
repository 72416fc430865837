package observe

import (
	"context"
	"log/slog"

	"github.com/comalice/hsm"
)

// SlogSink logs records with a log/slog logger at the same levels as ZapSink.
type SlogSink struct {
	logger *slog.Logger
}

// Slog returns a sink writing to logger.
func Slog(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Emit implements hsm.Diagnostics.
func (s *SlogSink) Emit(r hsm.Record) {
	level := slog.LevelDebug
	if r.Category&(hsm.CategoryTransition|hsm.CategoryTerminate) != 0 {
		level = slog.LevelInfo
	}
	ctx := context.Background()
	if !s.logger.Enabled(ctx, level) {
		return
	}
	attrs := []slog.Attr{
		slog.String("category", r.Category.String()),
		slog.String("model", r.Model),
		slog.String("element", r.Element),
	}
	if r.Instance != "" {
		attrs = append(attrs, slog.String("instance", r.Instance))
	}
	if r.Trigger != nil {
		attrs = append(attrs, slog.Any("trigger", r.Trigger))
	}
	s.logger.LogAttrs(ctx, level, r.Message, attrs...)
}
