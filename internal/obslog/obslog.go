// Package obslog wraps zap construction so the rest of the module depends
// on a small logger shape rather than on zap directly at every call site.
package obslog

import "go.uber.org/zap"

// Logger is the shape convert/ical's conversion context holds. A nil
// *Logger is safe to call, and Nop returns one that discards everything;
// library consumers that don't want jevent writing to their stderr get a
// Nop logger by default.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a production zap logger.
func New() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: z.Sugar()}, nil
}

// Nop returns a logger that discards everything, used as the convert/ical
// default when a caller doesn't supply one.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Debugf logs a debug-level degradation, e.g. the read path skipping an
// organizer or attendee whose URI is not a mailto: address.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Warnf logs a warning, used for invalid-property reporting on write.
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if l == nil || l.sugar == nil {
		return nil
	}
	return l.sugar.Sync()
}
