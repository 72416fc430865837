package observe

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/comalice/hsm"
)

// ZapSink logs records with a zap logger. Transitions and terminations are
// logged at info level, everything else at debug.
type ZapSink struct {
	logger *zap.Logger
}

// Zap returns a sink writing to logger.
func Zap(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Emit implements hsm.Diagnostics.
func (s *ZapSink) Emit(r hsm.Record) {
	level := zapcore.DebugLevel
	if r.Category&(hsm.CategoryTransition|hsm.CategoryTerminate) != 0 {
		level = zapcore.InfoLevel
	}
	ce := s.logger.Check(level, r.Message)
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.Stringer("category", r.Category),
		zap.String("model", r.Model),
		zap.String("element", r.Element),
	}
	if r.Instance != "" {
		fields = append(fields, zap.String("instance", r.Instance))
	}
	if r.Trigger != nil {
		fields = append(fields, zap.Any("trigger", r.Trigger))
	}
	ce.Write(fields...)
}
