// Package logx provides a structured logging wrapper based on zerolog.
//
// Command output goes to stdout via fmt; logx covers the background paths
// (realtime channel state changes, unread refreshes, frame parse errors)
// that degrade silently rather than surfacing to the user. Logs are written
// to stderr so they never interleave with command output.
package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog instance. Verbose switches from the
// default warn level to debug with a human-readable console writer; the
// CLK_LOG environment variable overrides the level either way.
func Init(verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var out io.Writer = os.Stderr
	level := zerolog.WarnLevel
	if verbose {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
		level = zerolog.DebugLevel
	}

	if env := strings.TrimSpace(os.Getenv("CLK_LOG")); env != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(env)); err == nil {
			level = parsed
		}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger().Level(level)
}

// Logger returns a pointer to the global zerolog.Logger instance.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Debug records a log message at the Debug level.
func Debug(msg string, fields ...any) {
	Logger().Debug().Fields(checkFields("Debug", fields)).Msg(msg)
}

// Warn records a log message at the Warn level.
func Warn(msg string, fields ...any) {
	Logger().Warn().Fields(checkFields("Warn", fields)).Msg(msg)
}

// Error records a log message at the Error level with an attached error.
func Error(err error, msg string, fields ...any) {
	Logger().Error().Err(err).Fields(checkFields("Error", fields)).Msg(msg)
}

// checkFields validates that the variadic fields parameter has an even
// number of elements (key-value pairs). If the count is odd the fields are
// dropped to prevent zerolog from panicking.
func checkFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msg("logx call received odd number of fields; fields ignored")
		return nil
	}
	return fields
}
