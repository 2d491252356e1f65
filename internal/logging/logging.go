// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// newLogger builds a logger writing to w. Format "console" produces human readable
// output; anything else produces one JSON object per line. Unknown levels fall back to info.
func newLogger(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Setup builds the process logger and installs it as the global log.Logger
// and the default context logger. It is the only entry point.
func Setup(level, format string, w io.Writer) zerolog.Logger {
	logger := newLogger(level, format, w)
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger
}
