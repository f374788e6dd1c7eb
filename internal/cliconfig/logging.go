package cliconfig

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}

// Logger returns the process logger. Log output goes to stderr so the
// console renderer owns stdout.
func Logger() zerolog.Logger {
	return logger
}
