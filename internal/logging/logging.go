// Package logging provides the process-wide zap logger.
// Logs are written as JSON to a rotated file; outside production a
// human-readable console core is teed onto stderr as well.
package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger names used across the daemon.
const (
	NameCycle  = "cycle"
	NameStore  = "store"
	NameNotify = "notify"
	NameSensor = "sensor"
	NameWeb    = "web"
	NameConfig = "config"
)

// Options configures Init.
type Options struct {
	// Dir holds app.log. Empty disables the file core.
	Dir string
	// Level is the minimum level for both cores ("debug", "info", ...).
	Level string
	// Production drops the console core.
	Production bool
}

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init builds the process logger. It may be called more than once; the last
// call wins.
func Init(opts Options) error {
	level := zap.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
	}

	var cores []zapcore.Core

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, "app.log"),
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(logFile),
			level,
		))
	}

	if !opts.Production || len(cores) == 0 {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level))
	}

	set(zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)))
	return nil
}

// Named returns a child of the process logger.
func Named(name string, fields ...zap.Field) *zap.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	return l.Named(name).With(fields...)
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	l := logger
	mu.RUnlock()
	_ = l.Sync()
}

// SetTestCapture routes all logging at or above level into buf as JSON lines.
func SetTestCapture(buf *bytes.Buffer, level zapcore.Level) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(buf), level)
	set(zap.New(core))
}

// SetNop discards all logging.
func SetNop() {
	set(zap.NewNop())
}

func set(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}
