// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Options selects the level, format and destination of a logger
type Options struct {
	Level       string
	Environment string
	Output      io.Writer
}

// NewLogger builds the process logger. Production writes JSON and other
// environments get colored text. Every entry carries a service field.
func NewLogger(opts Options) *logrus.Logger {
	log := logrus.New()
	if opts.Output != nil {
		log.SetOutput(opts.Output)
	}

	if opts.Environment == "production" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		log.WithField("log_level", opts.Level).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.AddHook(serviceHook{})

	return log
}

// serviceHook stamps entries that do not already name a service
type serviceHook struct{}

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = "pitwall"
	}
	return nil
}

// Discard returns a logger that drops every entry
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard returns logger, or a discarding logger when it is nil
func OrDiscard(logger *logrus.Logger) *logrus.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
