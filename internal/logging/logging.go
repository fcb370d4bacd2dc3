package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the process-wide logger. Development mode writes readable
// text at debug level, everything else JSON at info level.
func Setup(service string, devMode bool) *slog.Logger {
	logger := New(os.Stdout, service, devMode)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger tagged with the service name.
func New(w io.Writer, service string, devMode bool) *slog.Logger {
	var handler slog.Handler
	if devMode {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler).With("service", service)
}

// Component returns the default logger scoped to one package.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
