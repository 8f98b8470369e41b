package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"ridewallet/config"
)

// New builds the process-wide logger. Output is JSON on stdout tagged with
// the service name; Pretty switches to the human console writer for local
// development.
func New(cfg config.LogConfig) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).
		Level(level(cfg.Level)).
		With().
		Timestamp().
		Str("service", "ridewallet").
		Caller().
		Logger()
}

// NewWithWriter builds a logger against an arbitrary writer, for tests.
func NewWithWriter(levelName string, out io.Writer) zerolog.Logger {
	return zerolog.New(out).
		Level(level(levelName)).
		With().
		Timestamp().
		Logger()
}

// level parses a config level name, falling back to info on anything
// unrecognized rather than failing startup.
func level(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
