// Package logger provides query logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// QueryLogger logs aggregation queries served to the presentation layer.
type QueryLogger struct {
	*logrus.Entry
}

// NewQueryLogger creates a new query logger.
func NewQueryLogger(baseLogger *logrus.Logger) *QueryLogger {
	return &QueryLogger{
		Entry: OrDiscard(baseLogger).WithField("component", "query"),
	}
}

// LogQuery logs a completed aggregation query.
func (ql *QueryLogger) LogQuery(view string, args map[string]interface{}, rows int, duration time.Duration) {
	ql.WithFields(logrus.Fields{
		"view":        view,
		"args":        args,
		"rows":        rows,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}).Debug("Query served")
}

// LogQueryError logs a query rejected with an error.
func (ql *QueryLogger) LogQueryError(view string, args map[string]interface{}, err error) {
	ql.WithFields(logrus.Fields{
		"view": view,
		"args": args,
	}).WithError(err).Warn("Query failed")
}
