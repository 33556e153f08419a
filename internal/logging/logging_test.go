package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetLevel(t *testing.T) {
	original := GetLevel()
	defer SetLevel(original)

	SetLevel(LevelError)
	if GetLevel() != LevelError {
		t.Errorf("GetLevel() = %v, want error", GetLevel())
	}
	if IsDebugEnabled() {
		t.Error("IsDebugEnabled() = true at error level")
	}

	SetLevel(LevelDebug)
	if !IsDebugEnabled() {
		t.Error("IsDebugEnabled() = false at debug level")
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestTeeToFile(t *testing.T) {
	original := GetLevel()
	defer SetLevel(original)
	SetLevel(LevelInfo)

	path := filepath.Join(t.TempDir(), "run.log")
	closeLog, err := TeeToFile(path)
	if err != nil {
		t.Fatalf("TeeToFile() failed: %v", err)
	}

	Info("tee test message %d", 42)
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "tee test message 42") {
		t.Errorf("log file missing message, got: %q", data)
	}

	// After closing, new messages must not reach the file.
	size := len(data)
	Info("after close")
	data, _ = os.ReadFile(path)
	if len(data) != size {
		t.Error("log file grew after close function was called")
	}
}

func TestTeeToFileBadPath(t *testing.T) {
	if _, err := TeeToFile(filepath.Join(t.TempDir(), "no", "such", "dir", "x.log")); err == nil {
		t.Error("TeeToFile() with unwritable path should fail")
	}
}
