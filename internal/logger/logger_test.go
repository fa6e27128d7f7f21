package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pneumoscan/internal/config"
)

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Debug("debug %d", 1)
	l.Info("info %s", "two")
	l.Warning("warning")
	l.Error("error")

	out := buf.String()
	for _, want := range []string{"DEBUG   debug 1", "INFO    info two", "WARNING warning", "ERROR   error"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestFileLogger_WritesAndCleans(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir, LogLevel: "info"})

	l.Debug("hidden")
	l.Info("hello from info")

	data, err := os.ReadFile(filepath.Join(dir, InfoFile))
	if err != nil {
		t.Fatalf("Failed to read info log: %v", err)
	}
	if !strings.Contains(string(data), "hello from info") {
		t.Errorf("Expected info entry in file, got %q", string(data))
	}

	if err := l.CleanLogs(WarningFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, WarningFile))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty warning log, got %d bytes", info.Size())
	}
}
