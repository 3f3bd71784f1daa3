// Package observability builds the CLI's logger and HTTP request logging.
package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger returns a console logger tagged with app and installs it as the
// global zerolog logger.
func NewLogger(app string, level zerolog.Level) zerolog.Logger {
	return newLogger(os.Stderr, app, level)
}

func newLogger(out io.Writer, app string, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
