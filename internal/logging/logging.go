// Package logging installs the process wide slog handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup makes a text or JSON handler at the given level the default logger.
func Setup(level, format string) (*slog.Logger, error) {
	return setup(os.Stderr, level, format)
}

func setup(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler

	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger, nil
}
