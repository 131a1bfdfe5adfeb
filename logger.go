package eventhub

import "go.uber.org/zap"

// Logger is the structured logging interface used throughout the hub.
// It intentionally mirrors the shape of slog/zap/logrus so any of them
// can be adapted with a thin wrapper.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// zapLogger adapts *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger returns the default Logger implementation, backed by zap.
func NewZapLogger(z *zap.Logger) Logger {
	if z == nil {
		z, _ = zap.NewProduction()
	}
	return &zapLogger{s: z.Sugar()}
}

func (l *zapLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
func (l *zapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }

// noopLogger discards everything. Used as a safe default when no Logger is supplied.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
