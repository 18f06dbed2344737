// Package logger builds the zap logger used by the CLI and the dashboard.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Standard field names for structured logging
const (
	FieldDataset     = "dataset"
	FieldFingerprint = "fingerprint"
	FieldOperation   = "operation"
	FieldCount       = "count"
	FieldTotalCount  = "total_count"
	FieldFile        = "file"
	FieldToken       = "token"
	FieldReason      = "reason"
	FieldTransaction = "transaction_id"
	FieldDurationMS  = "duration_ms"
	FieldCacheHit    = "cache_hit"
)

// Options control encoder, level and destination
type Options struct {
	Level string
	JSON  bool

	// File enables a rotating log file instead of stderr
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Output overrides the destination; used by tests
	Output io.Writer
}

// New builds a logger from opts
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, writer(opts), level)
	return zap.New(core), nil
}

func writer(opts Options) zapcore.WriteSyncer {
	switch {
	case opts.Output != nil:
		return zapcore.AddSync(opts.Output)
	case opts.File != "":
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    withDefault(opts.MaxSizeMB, 10),
			MaxBackups: withDefault(opts.MaxBackups, 3),
			MaxAge:     withDefault(opts.MaxAgeDays, 28),
		})
	default:
		return zapcore.Lock(os.Stderr)
	}
}

// ParseLevel accepts zap level names; empty means warn so the CLI stays quiet
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zapcore.WarnLevel, nil
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return level, errors.WithHint(
			errors.Wrapf(err, "invalid log level %q", s),
			"use one of debug, info, warn, error",
		)
	}
	return level, nil
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
