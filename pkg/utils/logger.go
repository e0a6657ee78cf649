package utils

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger builds the process logger. slog calls throughout the code base end up in the
// returned charmbracelet handler.
func NewLogger(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	handler.SetLevel(lvl)
	return slog.New(handler)
}

// SetupLogger installs NewLogger(os.Stdout, level) as the slog default.
func SetupLogger(level string) *slog.Logger {
	logger := NewLogger(os.Stdout, level)
	slog.SetDefault(logger)
	return logger
}
