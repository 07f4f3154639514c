package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("chatty", ""); err == nil {
		t.Fatal("New() error = nil, want invalid-level error")
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmux-mcp.log")

	logger, err := New("debug", path)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, "{") || !strings.Contains(line, `"msg":"hello"`) {
		t.Errorf("log line = %q, want JSON with msg field", line)
	}
}

func TestNew_DefaultsToStderr(t *testing.T) {
	logger, err := New("info", "")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if logger == nil {
		t.Fatal("logger is nil")
	}
}
