package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger and returns a copy tagged
// with the service name and run id.
func InitLogger(serviceName, runID string, debug, pretty bool) zerolog.Logger {
	return initLogger(os.Stderr, serviceName, runID, debug, pretty)
}

func initLogger(out io.Writer, serviceName, runID string, debug, pretty bool) zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if pretty || os.Getenv("ENV") == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}

	log.Logger = log.With().Str("service", serviceName).Str("run_id", runID).Logger()
	return log.Logger
}
