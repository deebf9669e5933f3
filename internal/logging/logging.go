// Package logging builds the zerolog loggers used across the service.
package logging

import (
    "io"
    "os"
    "strings"
    "time"

    "github.com/rs/zerolog"
)

// New returns the root logger.  Development environments get a human
// readable console writer; everything else logs JSON lines to stdout.
// Unknown level names fall back to info.
func New(env, level string) zerolog.Logger {
    var w io.Writer = os.Stdout
    if !isProduction(env) {
        w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
    }
    return NewWithWriter(w, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
    lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
    if err != nil || lvl == zerolog.NoLevel {
        lvl = zerolog.InfoLevel
    }
    return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Component derives a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
    return l.With().Str("component", name).Logger()
}

func isProduction(env string) bool {
    switch strings.ToLower(env) {
    case "production", "prod":
        return true
    }
    return false
}
