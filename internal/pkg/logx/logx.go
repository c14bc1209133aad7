/*
Package logx provides a structured logging wrapper based on zerolog.

It is responsible for building the global logger from Options (environment, level and
output), choosing between JSON and the human-readable console format, and providing
leveled helpers plus component-scoped child loggers for long-lived parts of the relay
such as the hub, the router and the emitter.
*/
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls how InitGlobalLogger builds the global logger.
type Options struct {
	// Development selects the colored console format and a debug default level.
	Development bool

	// Level is a zerolog level name ("debug", "info", "warn", ...).
	// Empty selects debug in development and info otherwise.
	Level string

	// Output receives the log stream. Nil selects stderr for the console format
	// and stdout for JSON.
	Output io.Writer
}

// ParseLevel resolves a level name for the given environment.
// An empty name picks the environment default; an unknown name is an error.
func ParseLevel(name string, development bool) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		if development {
			return zerolog.DebugLevel, nil
		}
		return zerolog.InfoLevel, nil
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q: %w", name, err)
	}
	return level, nil
}

// InitGlobalLogger replaces the global zerolog instance according to opts.
// Development output goes through ConsoleWriter with RFC3339 times; production output
// is one JSON object per line with Unix timestamps. Every entry carries caller information.
// The previous logger stays in place when opts.Level cannot be parsed.
func InitGlobalLogger(opts Options) error {
	level, err := ParseLevel(opts.Level, opts.Development)
	if err != nil {
		return err
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	out := opts.Output
	if out == nil {
		out = os.Stdout
		if opts.Development {
			out = os.Stderr
		}
	}

	if opts.Development {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    opts.Output != nil,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()

	return nil
}

// Logger returns a pointer to the global zerolog.Logger instance.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child of the global logger tagged with the component name.
// The child is detached: call it after InitGlobalLogger, typically from a constructor.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// checkFields validates that the variadic fields parameter holds key-value pairs.
// If the count is odd, it logs a warning and returns nil to prevent zerolog from panicking.
func checkFields(level zerolog.Level, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Stringer("log_level", level).
			Msgf("Logx call (%s) received odd number of fields: %v. Fields ignored.", level, fields)
		return nil
	}
	return fields
}

// write is the shared body of the leveled helpers. Callers are exactly one frame
// above it, so the recorded caller is the code that called Debug, Info, Warn or Error.
func write(level zerolog.Level, err error, msg string, fields []any) {
	fields = checkFields(level, fields)

	event := Logger().WithLevel(level)
	if err != nil {
		event = event.Err(err)
	}

	event.Fields(fields).
		CallerSkipFrame(2).
		Msg(msg)
}

// Debug records a log message at the Debug level with an optional key-value field list.
func Debug(msg string, fields ...any) {
	write(zerolog.DebugLevel, nil, msg, fields)
}

// Info records a log message at the Info level with an optional key-value field list.
func Info(msg string, fields ...any) {
	write(zerolog.InfoLevel, nil, msg, fields)
}

// Warn records a log message at the Warn level with an optional key-value field list.
func Warn(msg string, fields ...any) {
	write(zerolog.WarnLevel, nil, msg, fields)
}

// Error records err and a message at the Error level with an optional key-value field list.
func Error(err error, msg string, fields ...any) {
	write(zerolog.ErrorLevel, err, msg, fields)
}

// Fatal records err and a message at the Fatal level and then calls os.Exit(1).
// It does not go through write because only the Fatal event terminates the process.
func Fatal(err error, msg string, fields ...any) {
	fields = checkFields(zerolog.FatalLevel, fields)

	Logger().Fatal().
		Err(err).
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}
