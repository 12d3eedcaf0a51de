// Package logger builds the process zap logger and carries request-scoped
// loggers through context.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options tune the logger beyond what the environment implies.
type Options struct {
	Level   string // debug, info, warn, error; empty keeps the environment default
	Format  string // json or console; empty keeps the environment default
	Service string // added as a "service" field when set
}

// New builds a logger for env. prod defaults to JSON at info, local/dev/docker
// to colored console at debug, and test discards everything.
func New(env string, opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "test":
		return zap.NewNop(), nil
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	switch opts.Format {
	case "":
	case FormatJSON:
		cfg.Encoding = FormatJSON
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	case FormatConsole:
		cfg.Encoding = FormatConsole
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	if opts.Service != "" {
		cfg.InitialFields = map[string]any{"service": opts.Service}
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
