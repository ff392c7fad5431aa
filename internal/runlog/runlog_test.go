package runlog

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func fixedLogger(buf *bytes.Buffer, level string) *Logger {
	l := New(buf, level)
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l
}

func TestLogger_FormatsSortedDetails(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, "debug")

	l.Info("resolved", map[string]interface{}{"targets": 3, "disabled": 14})

	want := "[2026-01-02 03:04:05.000] INFO: resolved disabled=14 targets=3\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, "warn")

	l.Debug("hidden", nil)
	l.Info("hidden", nil)
	l.Warn("shown", nil)
	l.Error("shown", nil)

	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Errorf("wrote %d lines, want 2:\n%s", got, buf.String())
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("filtered message leaked:\n%s", buf.String())
	}
}

func TestLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, "verbose")
	l.Debug("hidden", nil)
	l.Info("shown", nil)
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestLogger_NilIsSafe(t *testing.T) {
	var l *Logger
	l.Info("nothing", map[string]interface{}{"k": "v"})
	if err := l.Close(); err != nil {
		t.Errorf("Close() on nil logger = %v", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	l, path, err := Open(dir, "buildcomp-resolve", "info")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	l.Info("hello", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "INFO: hello") {
		t.Errorf("log file content = %q", data)
	}
}

func TestLogger_WriteIsRaw(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, "error")

	if _, err := l.Write([]byte("2026/01/02 plain line\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if buf.String() != "2026/01/02 plain line\n" {
		t.Errorf("got %q", buf.String())
	}

	var nilLogger *Logger
	if n, err := nilLogger.Write([]byte("x")); n != 1 || err != nil {
		t.Errorf("nil Write() = %d, %v", n, err)
	}
}
