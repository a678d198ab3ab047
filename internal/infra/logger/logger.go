// Package logger holds the bot's process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"subscription_reminder_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

const serviceName = "subscription_reminder_bot"

// Log is shared by every component. Until Init runs it writes plain text at info level.
var Log = logrus.New()

// Init applies the configured level and format to Log and points it at stdout.
func Init(cfg *config.AppConfig) {
	configure(Log, os.Stdout, cfg)
}

func configure(l *logrus.Logger, out io.Writer, cfg *config.AppConfig) {
	l.SetOutput(out)
	l.SetFormatter(formatterFor(cfg.Environment))

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
		l.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, falling back to info")
	}
	l.SetLevel(level)

	l.WithFields(logrus.Fields{
		"log_level":   level.String(),
		"environment": cfg.Environment,
	}).Debug("Logger configured")
}

// formatterFor picks JSON for the deployed environments, where logs go to a collector,
// and coloured text for a terminal otherwise.
func formatterFor(environment string) logrus.Formatter {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "production", "staging":
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		}
	default:
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.DateTime,
			ForceColors:     true,
		}
	}
}

// Component returns the entry a service logs through.
func Component(name string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"service":   serviceName,
		"component": name,
	})
}
