// Package logger provides process-wide logging for calcmesh.
// Servers log requests and chain hops at info level; debug messages are
// printed only when verbose mode is enabled via the --verbose flag.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	format            = domain.LogFormatConsole
	level             = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base    *zap.Logger
	rotator *lumberjack.Logger
)

func init() {
	rebuild()
}

// rebuild swaps the zap core. Callers hold mu, except init.
func rebuild() {
	sink := zapcore.Lock(zapcore.AddSync(output))
	if rotator != nil {
		sink = zapcore.Lock(zapcore.AddSync(rotator))
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if format == domain.LogFormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	base = zap.New(zapcore.NewCore(enc, sink, level))
}

// Setup applies log settings: level, encoder and optional file rotation.
func Setup(cfg domain.LogSettings) error {
	var lvl zapcore.Level
	if cfg.Level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}
	if cfg.Format != "" && !cfg.Format.IsValid() {
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	mu.Lock()
	defer mu.Unlock()
	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
	if cfg.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
	}
	if cfg.Format != "" {
		format = cfg.Format
	}
	if !verbose {
		level.SetLevel(lvl)
	}
	rebuild()
	return nil
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else if level.Level() == zapcore.DebugLevel {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// Sync flushes buffered entries and closes the rotated log file.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	if rotator != nil {
		return rotator.Close()
	}
	return nil
}

func sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sugar()
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	sugar().Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	sugar().Debugf("=== %s ===", name)
}

// Info prints an informational message.
func Info(format string, args ...any) {
	sugar().Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	sugar().Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	sugar().Errorf(format, args...)
}

// Infow logs msg with structured key/value pairs.
func Infow(msg string, keysAndValues ...any) {
	sugar().Infow(msg, keysAndValues...)
}
