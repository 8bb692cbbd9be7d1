package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config describes logger runtime configuration.
type Config struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	TimeFormat  string `mapstructure:"time_format"`
	Caller      bool   `mapstructure:"caller"`
	PrettyPrint bool   `mapstructure:"pretty"`
}

// NewLogger builds the process root logger. Logs go to stderr so that command
// output on stdout (token boards, CSV exports) stays machine-readable.
func NewLogger(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = cfg.timeFormat()

	builder := zerolog.New(cfg.writer()).Level(cfg.level()).With().Timestamp()
	if cfg.Caller {
		builder = builder.Caller()
	}
	return builder.Logger()
}

// level parses the configured level, falling back to info on anything
// unrecognized rather than failing startup.
func (c Config) level() zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

func (c Config) timeFormat() string {
	if c.TimeFormat != "" {
		return c.TimeFormat
	}
	return time.RFC3339
}

func (c Config) writer() io.Writer {
	if c.PrettyPrint || strings.EqualFold(c.Format, "console") {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: c.timeFormat(),
		}
	}
	return os.Stderr
}
