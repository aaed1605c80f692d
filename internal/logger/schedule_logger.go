// Package logger provides schedule and feed logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ScheduleLogger provides dedicated logging for calendar and news loading.
type ScheduleLogger struct {
	*logrus.Entry
}

// NewScheduleLogger creates a new schedule logger.
func NewScheduleLogger(baseLogger *logrus.Logger) *ScheduleLogger {
	return &ScheduleLogger{
		Entry: OrDiscard(baseLogger).WithField("component", "schedule"),
	}
}

// LogScheduleLoaded logs a successful calendar load.
func (sl *ScheduleLogger) LogScheduleLoaded(season int, path string, entries, skipped int) {
	sl.WithFields(logrus.Fields{
		"season":     season,
		"path":       path,
		"entries":    entries,
		"skipped":    skipped,
		"event_type": "schedule_loaded",
	}).Info("Schedule loaded")
}

// LogEntrySkipped logs a calendar entry that could not be parsed.
func (sl *ScheduleLogger) LogEntrySkipped(season, index int, reason string) {
	sl.WithFields(logrus.Fields{
		"season":     season,
		"index":      index,
		"reason":     reason,
		"event_type": "entry_skipped",
	}).Warn("Skipping unparseable calendar entry")
}

// LogItemSkipped logs a news item that could not be used.
func (sl *ScheduleLogger) LogItemSkipped(feed string, index int, reason string) {
	sl.WithFields(logrus.Fields{
		"feed":       feed,
		"index":      index,
		"reason":     reason,
		"event_type": "item_skipped",
	}).Warn("Skipping malformed news item")
}

// LogFeedLoaded logs a news feed load.
func (sl *ScheduleLogger) LogFeedLoaded(feed string, items, skipped int) {
	sl.WithFields(logrus.Fields{
		"feed":       feed,
		"items":      items,
		"skipped":    skipped,
		"event_type": "feed_loaded",
	}).Info("News feed loaded")
}

// LogFeedFailed logs a news feed that could not be read.
func (sl *ScheduleLogger) LogFeedFailed(feed string, err error) {
	sl.WithFields(logrus.Fields{
		"feed":       feed,
		"event_type": "feed_failed",
	}).WithError(err).Warn("News feed unavailable")
}
