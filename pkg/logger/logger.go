package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Loggers splits output by severity: informational lines go to stdout and
// errors to stderr.
type Loggers struct {
	DebugLogger *slog.Logger
	InfoLogger  *slog.Logger
	ErrorLogger *slog.Logger
}

func SetupLogger(level string) (*Loggers, error) {
	return NewLoggers(level, os.Stdout, os.Stderr)
}

func NewLoggers(level string, out, errOut io.Writer) (*Loggers, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	newHandler := func(w io.Writer) slog.Handler {
		return tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.DateTime,
			NoColor:    !isTerminal(w),
		})
	}

	return &Loggers{
		DebugLogger: slog.New(newHandler(out)),
		InfoLogger:  slog.New(newHandler(out)),
		ErrorLogger: slog.New(newHandler(errOut)),
	}, nil
}

// Discard returns loggers that drop everything, for tests.
func Discard() *Loggers {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Loggers{DebugLogger: l, InfoLogger: l, ErrorLogger: l}
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
