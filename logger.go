package persona

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the structured logger used across the package.
// Arguments after the message are key/value pairs.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out named loggers
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// LoggerProviderFunc adapts a function to LoggerProvider
type LoggerProviderFunc func(name string) Logger

// GetLogger implements LoggerProvider.
func (f LoggerProviderFunc) GetLogger(name string) Logger {
	return f(name)
}

// ResolveLogger returns the provider and logger to use for name.
// An explicit logger wins over the provider, the default slog backed
// logger is used when neither is given.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) (LoggerProvider, Logger) {
	if provider == nil {
		provider = defLoggerProvider{}
	}

	if logger != nil {
		return provider, logger
	}

	if l := provider.GetLogger(name); l != nil {
		return provider, l
	}

	return provider, newDefLogger(name)
}

type defLoggerProvider struct{}

func (defLoggerProvider) GetLogger(name string) Logger {
	return newDefLogger(name)
}

// levelTrace sits below slog's debug level
const levelTrace = slog.Level(-8)

type defLogger struct {
	l   *slog.Logger
	ctx context.Context
}

func newDefLogger(name string) defLogger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return defLogger{
		l:   slog.New(h).With("logger", name),
		ctx: context.Background(),
	}
}

func (d defLogger) Trace(msg string, args ...any) { d.l.Log(d.ctx, levelTrace, msg, args...) }
func (d defLogger) Debug(msg string, args ...any) { d.l.DebugContext(d.ctx, msg, args...) }
func (d defLogger) Info(msg string, args ...any)  { d.l.InfoContext(d.ctx, msg, args...) }
func (d defLogger) Warn(msg string, args ...any)  { d.l.WarnContext(d.ctx, msg, args...) }
func (d defLogger) Error(msg string, args ...any) { d.l.ErrorContext(d.ctx, msg, args...) }

// Fatal logs at error level, it does not exit the process.
func (d defLogger) Fatal(msg string, args ...any) {
	d.l.ErrorContext(d.ctx, msg, append(args, "fatal", true)...)
}

func (d defLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return d
	}
	d.ctx = ctx
	return d
}

// NewSlogLogger adapts an *slog.Logger to Logger
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		return newDefLogger("persona")
	}
	return defLogger{l: l, ctx: context.Background()}
}

type nopLogger struct{}

func (nopLogger) Trace(string, ...any) {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Fatal(string, ...any) {}

func (n nopLogger) WithContext(context.Context) Logger { return n }

// NopLogger discards everything
func NopLogger() Logger {
	return nopLogger{}
}
