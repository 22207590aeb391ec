package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with component-scoped helpers
type Logger struct {
	*logrus.Logger
}

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// New creates a new logger instance with the given configuration
func New(config Config) (*Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	switch config.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	return &Logger{Logger: log}, nil
}

// Component returns an entry tagged with the owning component name
func (l *Logger) Component(name string) *logrus.Entry {
	return l.WithField("component", name)
}

// Upstream returns an entry tagged for a remote dependency call
func (l *Logger) Upstream(service, url string) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"upstream": service,
		"url":      url,
	})
}
