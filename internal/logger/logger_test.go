package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLogger(Options{Level: "loud", Environment: "production", Output: buf})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "loud", entry["log_level"])

	log = NewLogger(Options{Level: "debug", Output: buf})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewLoggerFormats(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLogger(Options{Level: "info", Environment: "production", Output: buf})
	log.WithField("component", "api").Info("Server started")

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "Server started", entry["message"])
	assert.Equal(t, "pitwall", entry["service"])
	assert.Equal(t, "api", entry["component"])
	assert.NotContains(t, entry, "msg")

	buf.Reset()
	log.WithField("service", "refresher").Info("Reloaded")
	entry = parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "refresher", entry["service"])

	buf.Reset()
	log = NewLogger(Options{Level: "info", Environment: "development", Output: buf})
	log.Info("Server started")
	assert.Nil(t, parseLogOutput(buf))
	assert.Contains(t, buf.String(), "Server started")
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	log, _ := setupTestLogger()
	assert.Same(t, log, OrDiscard(log))
}

func TestDatasetLoggerLoadCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	datasetLogger := NewDatasetLogger(log)

	datasetLogger.LogLoadCompleted("snap-1", map[string]int{"races": 3}, 15*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "dataset", logEntry["component"])
	assert.Equal(t, "snap-1", logEntry["snapshot_id"])
	assert.Equal(t, "load_completed", logEntry["event_type"])
}

func TestDatasetLoggerLoadFailed(t *testing.T) {
	log, buf := setupTestLogger()
	datasetLogger := NewDatasetLogger(log)

	datasetLogger.LogLoadFailed("/data", errors.New("boom"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "boom", logEntry["error"])
}

func TestDatasetLoggerReferentialGapsSkipsZero(t *testing.T) {
	log, buf := setupTestLogger()
	datasetLogger := NewDatasetLogger(log)

	datasetLogger.LogReferentialGaps("circuit_wins", "driver", 0)
	assert.Zero(t, buf.Len())

	datasetLogger.LogReferentialGaps("circuit_wins", "driver", 2)
	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(2), logEntry["dropped"])
}

func TestScheduleLoggerEntrySkipped(t *testing.T) {
	log, buf := setupTestLogger()
	scheduleLogger := NewScheduleLogger(log)

	scheduleLogger.LogEntrySkipped(2025, 4, "missing gp session")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "schedule", logEntry["component"])
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "missing gp session", logEntry["reason"])
}

func TestScheduleLoggerFeedLoaded(t *testing.T) {
	log, buf := setupTestLogger()
	scheduleLogger := NewScheduleLogger(log)

	scheduleLogger.LogFeedLoaded("paddock", 12, 1)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(12), logEntry["items"])
	assert.Equal(t, "feed_loaded", logEntry["event_type"])
}

func TestScheduleLoggerItemSkipped(t *testing.T) {
	log, buf := setupTestLogger()
	scheduleLogger := NewScheduleLogger(log)

	scheduleLogger.LogItemSkipped("paddock", 3, "missing link")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "paddock", logEntry["feed"])
	assert.Equal(t, float64(3), logEntry["index"])
	assert.Equal(t, "item_skipped", logEntry["event_type"])
}

func TestQueryLoggerQuery(t *testing.T) {
	log, buf := setupTestLogger()
	queryLogger := NewQueryLogger(log)

	queryLogger.LogQuery("top_drivers", map[string]interface{}{"limit": 5}, 5, time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "query", logEntry["component"])
	assert.Equal(t, "top_drivers", logEntry["view"])
}

func BenchmarkQueryLogger(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	queryLogger := NewQueryLogger(log)

	for i := 0; i < b.N; i++ {
		queryLogger.LogQuery("driver_championship", map[string]interface{}{"start_year": 2010}, 400, time.Millisecond)
	}
}
