// Package observability builds the slog logger shared by the compiler
// phases and the runtime orchestrator: JSON or text output, a
// runtime-adjustable level, and redaction of secret-bearing fields and
// URL query parameters before anything reaches a sink.
package observability

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/m-mizutani/masq"
)

// LoggingConfig is the logging section of the CLI configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"`
}

// level is the process-wide slog level; SetLogLevel adjusts it without
// rebuilding handlers.
var level slog.LevelVar

// secretParams strips credential-bearing query parameters out of any
// URL that ends up in a log line.
var secretParams = regexp.MustCompile(`(?i)(password|secret|token|apikey|api_key|credential)=[^&\s"']+`)

// fieldRedactor masks attribute values whose field name marks them as
// secrets, whatever struct they arrive in.
var fieldRedactor = masq.New(
	masq.WithFieldName("Password"),
	masq.WithFieldName("password"),
	masq.WithFieldName("Secret"),
	masq.WithFieldName("secret"),
	masq.WithFieldName("Token"),
	masq.WithFieldName("token"),
	masq.WithFieldName("APIKey"),
	masq.WithFieldName("apikey"),
	masq.WithFieldName("api_key"),
	masq.WithFieldName("Credential"),
	masq.WithFieldName("credential"),
)

// NewLogger builds a logger per cfg writing to stdout.
func NewLogger(cfg LoggingConfig) *slog.Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// NewLoggerWithWriter builds a logger per cfg writing to w. The level
// comes from the shared LevelVar so SetLogLevel applies to every
// logger this package has built.
func NewLoggerWithWriter(cfg LoggingConfig, w io.Writer) *slog.Logger {
	level.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level:     &level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a = fieldRedactor(groups, a)
			if a.Value.Kind() == slog.KindString {
				if redacted := secretParams.ReplaceAllString(a.Value.String(), "$1=[REDACTED]"); redacted != a.Value.String() {
					a.Value = slog.StringValue(redacted)
				}
			}
			if a.Key == slog.TimeKey && cfg.TimeFormat != "" {
				if ts, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(ts.Format(cfg.TimeFormat))
				}
			}
			return a
		},
	}

	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetDefault installs logger as the process default.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

// SetLogLevel adjusts the shared level at runtime.
func SetLogLevel(name string) {
	level.Set(parseLevel(name))
}

// LogLevel reports the shared level's current name.
func LogLevel() string {
	switch l := level.Level(); {
	case l <= slog.LevelDebug:
		return "debug"
	case l <= slog.LevelInfo:
		return "info"
	case l <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

func parseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
