// Package logging builds the process logger. The log file is opened once by
// the caller and closed on exit.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// DefaultFile is where run logs go unless configured otherwise.
const DefaultFile = "download.log"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel maps debug, info, warn and error onto slog levels. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	s = strings.TrimSpace(s)
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
	return l, nil
}

// New returns a text logger writing to w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Open appends to the file at path, creating it if needed. An empty path
// logs to stderr and the returned Closer is a no-op.
func Open(path, level string) (*slog.Logger, io.Closer, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		return New(os.Stderr, l), nopCloser{}, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	return New(f, l), f, nil
}
