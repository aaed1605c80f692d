// Package schedule loads season calendars and classifies their entries against
// the current time.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/models"
)

const sourceName = "schedule"

// extensions are tried in order within each candidate directory
var extensions = []string{".json", ".yaml", ".yml"}

// Store holds the calendar of one season
type Store struct {
	dirs     []string
	logger   *logger.ScheduleLogger
	validate *validator.Validate

	mu      sync.RWMutex
	season  int
	path    string
	entries []models.CalendarEntry
}

// NewStore creates a schedule store searching dirs in order
func NewStore(dirs []string, log *logrus.Logger) *Store {
	return &Store{
		dirs:     dirs,
		logger:   logger.NewScheduleLogger(log),
		validate: validator.New(),
	}
}

// FileName returns the document base name for a season, without extension
func FileName(season int) string {
	return fmt.Sprintf("f1-%d-schedule", season)
}

// Load reads the calendar for season, replacing any previously loaded one.
// A failed load leaves the store empty.
func (s *Store) Load(ctx context.Context, season int) error {
	start := time.Now()
	entries, path, err := s.read(ctx, season)
	metrics.RecordSourceLoad(sourceName, time.Since(start).Seconds(), err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.season, s.path, s.entries = 0, "", nil
		return fmt.Errorf("failed to load %d schedule: %w", season, err)
	}
	s.season, s.path, s.entries = season, path, entries
	return nil
}

// Entries returns a copy of the loaded calendar in document order
func (s *Store) Entries() ([]models.CalendarEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entries == nil {
		return nil, models.ErrStoreNotLoaded
	}
	out := make([]models.CalendarEntry, len(s.entries))
	for i := range s.entries {
		out[i] = s.entries[i].Clone()
	}
	return out, nil
}

// Classifier returns a classifier over the loaded calendar
func (s *Store) Classifier() (*Classifier, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	return NewClassifier(entries), nil
}

// Season returns the loaded season, or 0 when nothing is loaded
func (s *Store) Season() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.season
}

// Path returns the document the current calendar was read from
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Loaded reports whether a calendar is available
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries != nil
}

func (s *Store) locate(season int) (string, error) {
	tried := make([]string, 0, len(s.dirs)*len(extensions))
	for _, dir := range s.dirs {
		for _, ext := range extensions {
			path := filepath.Join(dir, FileName(season)+ext)
			info, err := os.Stat(path)
			if err == nil && !info.IsDir() {
				return path, nil
			}
			tried = append(tried, path)
		}
	}
	return "", models.NewSourceError(sourceName, models.ErrCodeSourceUnavailable,
		fmt.Sprintf("no calendar for season %d, tried %v", season, tried), nil)
}

func (s *Store) read(ctx context.Context, season int) ([]models.CalendarEntry, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	path, err := s.locate(season)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, models.NewSourceError(path, models.ErrCodeSourceUnavailable, "read failed", err)
	}
	doc, err := decodeDocument(path, data)
	if err != nil {
		return nil, path, models.NewSourceError(path, models.ErrCodeSourceMalformed, "decode failed", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, path, err
	}

	entries := make([]models.CalendarEntry, 0, len(doc.entries))
	seen := make(map[int]bool, len(doc.entries))
	skipped := 0
	for i, decode := range doc.entries {
		entry, err := s.decodeEntry(decode)
		if err == nil && seen[entry.Round] {
			err = fmt.Errorf("duplicate round %d", entry.Round)
		}
		if err != nil {
			skipped++
			s.logger.LogEntrySkipped(season, i, err.Error())
			continue
		}
		seen[entry.Round] = true
		entries = append(entries, entry)
	}
	metrics.RecordSkippedEntries(sourceName, skipped)

	if len(entries) == 0 {
		return nil, path, models.NewSourceError(path, models.ErrCodeSourceMalformed,
			fmt.Sprintf("no usable entries (%d skipped)", skipped), errors.New("empty calendar"))
	}

	s.logger.LogScheduleLoaded(season, path, len(entries), skipped)
	return entries, path, nil
}

func (s *Store) decodeEntry(decode entryDecoder) (models.CalendarEntry, error) {
	var raw rawEntry
	if err := decode(&raw); err != nil {
		return models.CalendarEntry{}, fmt.Errorf("decode failed: %w", err)
	}
	entry, err := raw.toEntry()
	if err != nil {
		return models.CalendarEntry{}, err
	}
	if err := s.validate.Struct(entry); err != nil {
		return models.CalendarEntry{}, err
	}
	return entry, nil
}
