// Package logger wraps zap behind a small structured-event interface so
// that packages under pkg/ do not import zap directly.
package logger

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger emits structured log events. The event string is a stable
// machine-readable identifier; obj carries free-form context.
type Logger interface {
	DebugObj(msg, event string, obj map[string]any)
	InfoObj(msg, event string, obj map[string]any)
	WarnObj(msg, event string, obj map[string]any)
	ErrorObj(msg, event string, obj map[string]any)
}

// NopLogger discards everything. Useful as a default collaborator.
type NopLogger struct{}

func (NopLogger) DebugObj(string, string, map[string]any) {}
func (NopLogger) InfoObj(string, string, map[string]any)  {}
func (NopLogger) WarnObj(string, string, map[string]any)  {}
func (NopLogger) ErrorObj(string, string, map[string]any) {}

type zapLogger struct {
	l *zap.Logger
}

// New builds a zap-backed Logger. level is one of debug|info|warn|error;
// development switches to the console encoder.
func New(level string, development bool) (Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &zapLogger{l: l}, nil
}

func (z *zapLogger) DebugObj(msg, event string, obj map[string]any) {
	z.l.Debug(msg, fields(event, obj)...)
}

func (z *zapLogger) InfoObj(msg, event string, obj map[string]any) {
	z.l.Info(msg, fields(event, obj)...)
}

func (z *zapLogger) WarnObj(msg, event string, obj map[string]any) {
	z.l.Warn(msg, fields(event, obj)...)
}

func (z *zapLogger) ErrorObj(msg, event string, obj map[string]any) {
	z.l.Error(msg, fields(event, obj)...)
}

// fields flattens the event id and context map into zap fields with a
// deterministic key order.
func fields(event string, obj map[string]any) []zap.Field {
	fs := make([]zap.Field, 0, len(obj)+1)
	fs = append(fs, zap.String("event", event))

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fs = append(fs, zap.Any(k, obj[k]))
	}
	return fs
}
