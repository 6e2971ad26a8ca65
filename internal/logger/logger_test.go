package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToConfiguredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "var", "habits.log")
	if err := Init(Config{File: path}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	Debug("hidden debug")
	Info("hidden info")
	Warn("Reminder not scheduled", "habit", "Read")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "Reminder not scheduled") || !strings.Contains(out, "habit=Read") {
		t.Errorf("warning missing from log: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("records below the default level were written: %q", out)
	}
}

func TestInitLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.log")
	if err := Init(Config{File: path, Level: "INFO"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	Info("Habit data restored")
	Debug("hidden debug")

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "Habit data restored") {
		t.Errorf("info record missing: %q", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("debug record written at info level: %q", data)
	}
}

func TestInitDebugOverridesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.log")
	if err := Init(Config{File: path, Level: "error", Debug: true}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	Debug("Automatic backup created")

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "Automatic backup created") {
		t.Errorf("debug record missing in debug mode: %q", data)
	}
}

func TestInitRejectsBadConfig(t *testing.T) {
	if err := Init(Config{}); err == nil {
		t.Error("expected error without a log file")
	}
	if err := Init(Config{File: filepath.Join(t.TempDir(), "x.log"), Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestDefaultFile(t *testing.T) {
	got := DefaultFile("/home/me/.config/stronghabit")
	if got != "/home/me/.config/stronghabit/logs/stronghabit.log" {
		t.Errorf("DefaultFile = %s", got)
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	_ = Close()
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}
