// Package logger provides a thin wrapper around zerolog.Logger with
// convenience constructors used throughout vaultkit.
//
// The Logger type embeds zerolog.Logger so all standard zerolog methods
// (Debug, Info, Warn, Error, Fatal, etc.) are available directly on *Logger.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger. Embedding zerolog.Logger
// exposes the full zerolog API while allowing helper methods without
// modifying the upstream type.
type Logger struct {
	zerolog.Logger
}

// New constructs a *Logger for the given role label (e.g. "scanner",
// "archive"). Output goes to stderr as human-readable console lines, or as
// JSON when jsonOutput is true, so command output on stdout stays parseable.
func New(role string, jsonOutput bool) *Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	if jsonOutput {
		out = os.Stderr
	}

	l := zerolog.New(out).With().
		Str("role", role).
		Timestamp().
		Logger()

	return &Logger{l}
}

// Nop returns a *Logger that discards all output. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// WithRole returns a child logger carrying a different role field.
func (l *Logger) WithRole(role string) *Logger {
	return &Logger{l.With().Str("role", role).Logger()}
}
