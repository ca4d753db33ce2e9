package nexuscli

import (
	"os"

	"github.com/rs/zerolog"
)

func Logger(service Service) zerolog.Logger {
	logger := zerolog.New(os.Stdout)
	if CommonOpts.Console {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger.With().
		Timestamp().
		Str("service", service.Name).
		Str("version", service.Version).
		Logger()
}
