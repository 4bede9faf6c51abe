package obslog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"chatty":  zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Format: "json", Console: true}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if closer != nil {
		t.Fatalf("no file requested, got closer")
	}
	logger.Info("hidden")
	logger.Warn("engine_start_failed", zap.String("path", "/bin/stockfish"))
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "engine_start_failed" || entry["path"] != "/bin/stockfish" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Console: true}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("board_started", zap.Int("depth", 15))
	_ = logger.Sync()
	out := buf.String()
	if !strings.Contains(out, " | INFO | board_started") || !strings.Contains(out, `"depth": 15`) {
		t.Fatalf("console output = %q", out)
	}
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	logger, closer, err := New(Options{}, nil)
	if err != nil || closer != nil {
		t.Fatalf("New: %p %v", closer, err)
	}
	if logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("expected nop logger")
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "board.log")
	if err := Init(Options{Level: "debug", Format: "json", File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { globalLogger = zap.NewNop() })

	if !L().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level not enabled")
	}
	L().Debug("move_committed", zap.String("move", "e2e4"))
	if err := Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !bytes.Contains(data, []byte(`"move":"e2e4"`)) {
		t.Fatalf("log file = %q", data)
	}
}
