// Package logging sets up the process-wide slog logger. Records are JSON and
// go to a rotating file so the terminal UI never has its screen written over.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const FileName = "chatwidget.log"

type Options struct {
	Dir   string
	Level string
	// Stdout mirrors records to standard output. Only the served surface
	// turns it on.
	Stdout bool
}

// Init installs the default logger and returns it along with the rotating
// file, which the caller closes on exit.
func Init(opts Options) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	var w io.Writer = file
	if opts.Stdout {
		w = io.MultiWriter(os.Stdout, file)
	}

	logger := New(w, ParseLevel(opts.Level))
	slog.SetDefault(logger)
	return logger, file, nil
}

func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps a config level name to a slog level. Unknown names mean
// info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard is a logger for callers that have nowhere to write.
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError)
}
