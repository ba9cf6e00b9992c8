// Package logging configures the process-wide debug logger used by
// the object pool, the states and the repository to trace catalog and
// transaction mutations.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the global logger. It defaults to info level, writing a
// human-readable console line to stderr, until Init is called.
var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
}

// Config controls how the global logger is initialized.
type Config struct {
	Verbose bool      // raises the level to debug
	Output  io.Writer // defaults to os.Stderr
}

// Init reconfigures the global logger. Called once from the CLI
// entrypoint after flags are parsed.
func Init(cfg Config) {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	Logger = zerolog.New(zerolog.ConsoleWriter{Out: output, NoColor: false}).
		With().Timestamp().Logger().
		Level(level)
}

// WithComponent returns a child logger tagging every event with the
// given component name (e.g. "pool", "state", "walker").
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
