// Package runlog writes a per-run log of configuration resolution: one
// timestamped line per event with key=value details.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level names used in log lines.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Logger is safe for concurrent use. A nil *Logger discards everything, so
// components can log unconditionally.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	min    int
	now    func() time.Time
}

// New returns a logger writing to w at or above level.
func New(w io.Writer, level string) *Logger {
	rank, ok := levelRank[strings.ToUpper(level)]
	if !ok {
		rank = levelRank[LevelInfo]
	}
	return &Logger{out: w, min: rank, now: time.Now}
}

// Open creates a log file named "<prefix>-<timestamp>.log" in dir.
func Open(dir, prefix, level string) (*Logger, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create log dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.log", prefix, time.Now().Format("20060102-150405"))
	logPath := filepath.Join(dir, name)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("open log file: %w", err)
	}
	l := New(file, level)
	l.closer = file
	return l, logPath, nil
}

func (l *Logger) log(level string, message string, details map[string]interface{}) {
	if l == nil || levelRank[level] < l.min {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", l.now().Format("2006-01-02 15:04:05.000"), level, message)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, details[k])
	}
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, b.String())
}

func (l *Logger) Debug(message string, details map[string]interface{}) {
	l.log(LevelDebug, message, details)
}

func (l *Logger) Info(message string, details map[string]interface{}) {
	l.log(LevelInfo, message, details)
}

func (l *Logger) Warn(message string, details map[string]interface{}) {
	l.log(LevelWarn, message, details)
}

func (l *Logger) Error(message string, details map[string]interface{}) {
	l.log(LevelError, message, details)
}

// Write appends p unformatted, so the standard log package can share the
// run log file.
func (l *Logger) Write(p []byte) (int, error) {
	if l == nil {
		return len(p), nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Write(p)
}

// Close closes the underlying file when the logger owns one.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
