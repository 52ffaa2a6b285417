package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	Console    bool   `mapstructure:"console" yaml:"console"`
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"`
}

// Setup initializes the global logger. Console output goes to stderr so that
// stdout stays reserved for progress lines.
func Setup(cfg Config) {
	SetupWithWriter(cfg, os.Stderr)
}

// SetupWithWriter is Setup with an explicit console destination. It falls
// back to the console when neither output is enabled or the log file cannot
// be opened.
func SetupWithWriter(cfg Config, console io.Writer) {
	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, consoleWriter(cfg, console))
	}

	var fileErr error
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, file)
		}
	}
	if len(writers) == 0 {
		writers = append(writers, consoleWriter(cfg, console))
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	if fileErr != nil {
		log.Error().Err(fileErr).Str("file", cfg.File).Msg("Failed to open log file")
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Str("configured_level", cfg.Level).Msg("Invalid log level, defaulting to info")
		return
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Stringer("level", level).Msg("Logger initialized")
}

func consoleWriter(cfg Config, out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
}

// ContextualLogger creates a logger carrying fields, e.g. the run ID.
func ContextualLogger(fields map[string]interface{}) zerolog.Logger {
	return log.With().Fields(fields).Logger()
}
