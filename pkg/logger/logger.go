// Package logx configures the process-wide zerolog logger.
package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const serviceName = "warranty-agent"

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
}

var DefaultConfig = &Config{}

// Init replaces the global zerolog logger. Call once at startup; the
// zero-argument form applies DefaultConfig.
func Init(opts ...Config) {
	conf := DefaultConfig
	if len(opts) > 0 {
		conf = &opts[0]
	}

	log.Logger = zerolog.New(writerFor(conf)).
		Level(levelFor(conf)).
		With().
		Timestamp().
		Str("service", serviceName).
		Caller().
		Logger()
}

func writerFor(conf *Config) io.Writer {
	if conf.PrettyFormat {
		return zerolog.NewConsoleWriter()
	}
	return os.Stdout
}

func levelFor(conf *Config) zerolog.Level {
	if conf.Debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
