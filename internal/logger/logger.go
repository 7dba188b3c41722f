package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour. Empty fields keep the preset's value.
type Options struct {
	Development bool
	Level       string // debug, info, warn, error
	Encoding    string // json or console
}

// New creates a new zap logger
func New(development bool) (*zap.Logger, error) {
	return Build(Options{Development: development})
}

// Build creates a zap logger from options.
func Build(opts Options) (*zap.Logger, error) {
	var cfg zap.Config

	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	switch opts.Encoding {
	case "":
	case "json", "console":
		cfg.Encoding = opts.Encoding
		if opts.Encoding == "json" {
			cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		}
	default:
		return nil, fmt.Errorf("unknown log encoding %q", opts.Encoding)
	}

	return cfg.Build(zap.Fields(zap.String("service", "quantmath")))
}

// Must creates a logger or panics
func Must(development bool) *zap.Logger {
	log, err := New(development)
	if err != nil {
		panic(err)
	}
	return log
}
