// Package logging configures the global zerolog logger used by all packages.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "AMSHAN_LOG_LEVEL"

const DefaultLevel = zerolog.InfoLevel

// InitLogger sets the global logger for app, writing human readable lines to
// stdout.
func InitLogger(app string, level string) zerolog.Logger {
	return initLogger(os.Stdout, app, level)
}

func initLogger(out io.Writer, app string, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	zerolog.SetGlobalLevel(ResolveLevel(level))
	return logger
}

// ResolveLevel returns the level from the environment, then from configured,
// falling back to info for empty or unknown names.
func ResolveLevel(configured string) zerolog.Level {
	for _, name := range []string{os.Getenv(EnvLevel), configured} {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		if level, err := zerolog.ParseLevel(name); err == nil {
			return level
		}
	}
	return DefaultLevel
}
