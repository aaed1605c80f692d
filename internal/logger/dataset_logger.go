// Package logger provides dataset-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// DatasetLogger provides dedicated logging for dataset store operations.
type DatasetLogger struct {
	*logrus.Entry
}

// NewDatasetLogger creates a new dataset logger.
func NewDatasetLogger(baseLogger *logrus.Logger) *DatasetLogger {
	return &DatasetLogger{
		Entry: OrDiscard(baseLogger).WithField("component", "dataset"),
	}
}

// LogLoadStarted logs the start of a dataset load.
func (dl *DatasetLogger) LogLoadStarted(dir string) {
	dl.WithFields(logrus.Fields{
		"dir":        dir,
		"event_type": "load_started",
	}).Info("Dataset load started")
}

// LogLoadCompleted logs a successful dataset load with per-table row counts.
func (dl *DatasetLogger) LogLoadCompleted(snapshotID string, rowCounts map[string]int, duration time.Duration) {
	dl.WithFields(logrus.Fields{
		"snapshot_id": snapshotID,
		"row_counts":  rowCounts,
		"duration_ms": duration.Milliseconds(),
		"event_type":  "load_completed",
	}).Info("Dataset loaded")
}

// LogLoadFailed logs a failed dataset load.
func (dl *DatasetLogger) LogLoadFailed(dir string, err error) {
	dl.WithFields(logrus.Fields{
		"dir":        dir,
		"event_type": "load_failed",
	}).WithError(err).Error("Dataset load failed")
}

// LogReferentialGaps logs result rows dropped from an aggregate by a join.
func (dl *DatasetLogger) LogReferentialGaps(view, dimension string, dropped int) {
	if dropped == 0 {
		return
	}
	dl.WithFields(logrus.Fields{
		"view":       view,
		"dimension":  dimension,
		"dropped":    dropped,
		"event_type": "referential_gap",
	}).Debug("Rows dropped by join")
}
