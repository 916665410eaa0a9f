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

	"github.com/park285/arena-console/internal/config"
)

func TestJSONConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{Level: "warn", Format: "json", ToConsole: true}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("ws_connected")
	logger.Warn("command_dropped", zap.String("command", "pause"))
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "command_dropped" || entry["command"] != "pause" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestLegacyFormatIsPipeSeparated(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LogConfig{Format: "bogus", ToConsole: true}, &buf)
	logger.Info("ws_connected")
	_ = logger.Sync()
	if !strings.Contains(buf.String(), " | INFO | ") {
		t.Fatalf("legacy layout missing: %q", buf.String())
	}
}

func TestFileCore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "arena.log")
	logger, err := New(config.LogConfig{ToFile: true, File: path, Format: "console"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("session_started")
	_ = logger.Sync()
	raw, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(raw), "session_started") {
		t.Fatalf("file log: %q, %v", raw, err)
	}
}

func TestNoCoresIsNop(t *testing.T) {
	logger, err := New(config.LogConfig{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("expected a nop logger")
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("WARNING") != zapcore.WarnLevel || parseLevel("") != zapcore.InfoLevel || parseLevel("debug") != zapcore.DebugLevel {
		t.Fatalf("parseLevel mismatch")
	}
}
