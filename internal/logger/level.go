package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// pinnedCore decides enablement from its own level instead of the wrapped
// core's, so a child logger can be louder or quieter than the global level.
type pinnedCore struct {
	zapcore.Core
	min zapcore.Level
}

func (p *pinnedCore) Enabled(l zapcore.Level) bool {
	return l >= p.min
}

//nolint:gocritic // zapcore passes entries by value.
func (p *pinnedCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !p.Enabled(ent.Level) {
		return ce
	}
	return ce.AddCore(ent, p)
}

func (p *pinnedCore) With(fields []zapcore.Field) zapcore.Core {
	return &pinnedCore{Core: p.Core.With(fields), min: p.min}
}

// WithLevel pins a derived logger to lvl regardless of SetLevel.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return &pinnedCore{Core: c, min: lvl}
	})
}

// NamedAt returns a child of the global logger pinned to the named level.
// An empty level follows the global one.
func NamedAt(name, level string) (*zap.SugaredLogger, error) {
	l := Named(name)
	if level == "" {
		return l, nil
	}
	lvl, ok := ParseLogLevel(level)
	if !ok {
		return nil, fmt.Errorf("logger %s: unknown level %q", name, level)
	}
	return l.WithOptions(WithLevel(lvl)), nil
}
