// Package obslog builds the board's zap logger from config.LogConfig
// values and keeps it as the process logger.
package obslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects sinks and encoding. Zero values mean info level, console
// format on stdout, no file.
type Options struct {
	Level   string
	Format  string // json | console
	Console bool
	Color   bool
	File    string // empty disables the file sink
	Caller  bool
}

var (
	globalLogger *zap.Logger = zap.NewNop()
	closeFile    func() error
)

// L returns the process logger. It is a no-op logger until Init runs.
func L() *zap.Logger { return globalLogger }

// Init replaces the process logger. A previously opened log file is
// closed.
func Init(opts Options) error {
	logger, closer, err := New(opts, os.Stdout)
	if err != nil {
		return err
	}
	if closeFile != nil {
		_ = closeFile()
	}
	globalLogger = logger
	closeFile = closer
	return nil
}

// Sync flushes the process logger and closes its file sink.
func Sync() error {
	err := globalLogger.Sync()
	if closeFile != nil {
		if cerr := closeFile(); err == nil {
			err = cerr
		}
		closeFile = nil
	}
	return err
}

// New builds a logger writing to stdout and/or opts.File. The returned
// closer releases the file and is nil when no file was opened.
func New(opts Options, stdout io.Writer) (*zap.Logger, func() error, error) {
	level := parseLevel(opts.Level)
	format := normalizeFormat(opts.Format)

	var (
		cores  []zapcore.Core
		closer func() error
	)
	if opts.Console && stdout != nil {
		enc := newEncoder(format, opts.Color)
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(stdout), level))
	}

	if path := strings.TrimSpace(opts.File); path != "" {
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closer = f.Close
		// no color codes in files
		cores = append(cores, zapcore.NewCore(newEncoder(format, false), zapcore.AddSync(f), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), closer, nil
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel))
	if opts.Caller {
		logger = logger.WithOptions(zap.AddCaller())
	}
	return logger, closer, nil
}

func newEncoder(format string, color bool) zapcore.Encoder {
	if format == "json" {
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	}
	return zapcore.NewConsoleEncoder(consoleEncoderConfig(color))
}

func normalizeFormat(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return "json"
	}
	return "console"
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func consoleEncoderConfig(color bool) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.ConsoleSeparator = " | "
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
