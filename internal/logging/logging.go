// Package logging configures the process-wide zerolog logger (spec.md §6's
// "RUST_LOG-style log level"). fenrir logs via the bare package-level
// zerolog/log logger with no explicit setup; this adds the one piece it
// never bothered with — turning a configured level string into
// zerolog.SetGlobalLevel — while keeping every call site's
// log.Info()/log.Error() idiom unchanged.
package logging

import (
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errUnrecognizedLevel = errors.New("logging: unrecognized level")

// Init sets the global zerolog level from a RUST_LOG-style string
// ("trace"|"debug"|"info"|"warn"|"error"|"off") and installs a
// console-friendly writer for local runs. Unrecognized levels fall back to
// info rather than failing startup over a typo'd flag.
func Init(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	parsed, err := parseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("unrecognized log level, defaulting to info")
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func parseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "off", "none", "silent":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, errUnrecognizedLevel
	}
}
