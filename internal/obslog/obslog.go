// Package obslog centralizes uthreads' structured logging so diagnostics
// carry a consistent component/kind shape instead of the original
// library's two hand-rolled stderr string prefixes.
package obslog

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger for the uthreads library. It is
// deliberately package-scoped rather than threaded through every call:
// the scheduler itself is a process-scope singleton (see DESIGN NOTES),
// and its diagnostics follow the same lifetime.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
	With().
	Timestamp().
	Str("component", "uthreads").
	Logger()

// Application logs an invalid-argument or resource-exhaustion failure:
// state is left unchanged, the caller receives a non-nil error, and this
// is purely informational. Replaces the original library's
// "thread library error: " stderr prefix.
func Application(op string, err error) {
	Log.Warn().Str("kind", "application").Str("op", op).Err(err).Msg("uthreads call failed")
}

// System logs an unrecoverable failure that is about to tear the whole
// library down via os.Exit. Replaces the original library's
// "system error: " stderr prefix.
func System(op string, err error) {
	Log.Error().Str("kind", "system").Str("op", op).Err(err).Msg("uthreads fatal error")
}
