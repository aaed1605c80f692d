// Package dataset loads the historical race-result tables into an immutable in-memory snapshot.
package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/models"
)

// Table names, which double as file stems inside the dataset directory
const (
	TableRaces        = "races"
	TableResults      = "results"
	TableDrivers      = "drivers"
	TableConstructors = "constructors"
	TableQualifying   = "qualifying"
)

// Store loads the dataset directory and holds the current snapshot.
// Concurrent reads are safe; concurrent Load calls must be serialized by the caller.
type Store struct {
	dir      string
	logger   *logger.DatasetLogger
	validate *validator.Validate

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewStore creates a store reading from dir
func NewStore(dir string, log *logrus.Logger) *Store {
	return &Store{
		dir:      dir,
		logger:   logger.NewDatasetLogger(log),
		validate: validator.New(),
	}
}

// Dir returns the dataset directory
func (s *Store) Dir() string {
	return s.dir
}

// Load reads all five tables and replaces the snapshot.
// Any failure leaves the store unusable until the next successful load.
func (s *Store) Load(ctx context.Context) error {
	start := time.Now()
	s.logger.LogLoadStarted(s.dir)

	snapshot, err := s.read(ctx)
	metrics.RecordSourceLoad("dataset", time.Since(start).Seconds(), err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot = nil
		s.logger.LogLoadFailed(s.dir, err)
		return fmt.Errorf("failed to load dataset from %s: %w", s.dir, err)
	}

	s.snapshot = snapshot
	counts := snapshot.RowCounts()
	for name, rows := range counts {
		metrics.UpdateDatasetRows(name, rows)
	}
	s.logger.LogLoadCompleted(snapshot.ID().String(), counts, time.Since(start))

	return nil
}

// Snapshot returns the current snapshot or ErrStoreNotLoaded
func (s *Store) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, models.ErrStoreNotLoaded
	}
	return s.snapshot, nil
}

// Loaded reports whether the last load succeeded
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot != nil
}

func (s *Store) read(ctx context.Context) (*Snapshot, error) {
	races, err := s.readRaces(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.readResults(ctx)
	if err != nil {
		return nil, err
	}
	drivers, err := s.readDrivers(ctx)
	if err != nil {
		return nil, err
	}
	constructors, err := s.readConstructors(ctx)
	if err != nil {
		return nil, err
	}
	qualifying, err := s.readQualifying(ctx)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(races, results, drivers, constructors, qualifying), nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

func (s *Store) readRaces(ctx context.Context) ([]models.Race, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := readTable(s.path(TableRaces), TableRaces, []string{"raceId", "year", "round", "name"})
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(t.rows))
	races := make([]models.Race, 0, len(t.rows))
	for i, row := range t.rows {
		var race models.Race
		if race.RaceID, err = t.requiredInt(row, i, "raceId"); err != nil {
			return nil, err
		}
		if race.Year, err = t.requiredInt(row, i, "year"); err != nil {
			return nil, err
		}
		if race.Round, err = t.requiredInt(row, i, "round"); err != nil {
			return nil, err
		}
		if c := t.optionalInt(row, "circuitId"); c != nil {
			race.CircuitID = *c
		}
		race.Name = t.field(row, "name")

		if err := s.validate.Struct(&race); err != nil {
			return nil, t.malformed(i, "race", fmt.Sprintf("%d", race.RaceID), err)
		}
		if seen[race.RaceID] {
			return nil, t.malformed(i, "raceId", fmt.Sprintf("%d", race.RaceID), fmt.Errorf("duplicate key"))
		}
		seen[race.RaceID] = true
		races = append(races, race)
	}

	return races, nil
}

func (s *Store) readResults(ctx context.Context) ([]models.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := readTable(s.path(TableResults), TableResults,
		[]string{"raceId", "driverId", "constructorId", "positionOrder", "points"})
	if err != nil {
		return nil, err
	}

	results := make([]models.Result, 0, len(t.rows))
	for i, row := range t.rows {
		var result models.Result
		if id := t.optionalInt(row, "resultId"); id != nil {
			result.ResultID = *id
		}
		if result.RaceID, err = t.requiredInt(row, i, "raceId"); err != nil {
			return nil, err
		}
		if result.DriverID, err = t.requiredInt(row, i, "driverId"); err != nil {
			return nil, err
		}
		if result.ConstructorID, err = t.requiredInt(row, i, "constructorId"); err != nil {
			return nil, err
		}
		result.PositionOrder = t.optionalInt(row, "positionOrder")
		if result.Points, err = t.points(row, i, "points"); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *Store) readDrivers(ctx context.Context) ([]models.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := readTable(s.path(TableDrivers), TableDrivers, []string{"driverId", "forename", "surname"})
	if err != nil {
		return nil, err
	}

	drivers := make([]models.Driver, 0, len(t.rows))
	for i, row := range t.rows {
		var driver models.Driver
		if driver.DriverID, err = t.requiredInt(row, i, "driverId"); err != nil {
			return nil, err
		}
		driver.Forename = t.field(row, "forename")
		driver.Surname = t.field(row, "surname")
		drivers = append(drivers, driver)
	}

	return drivers, nil
}

func (s *Store) readConstructors(ctx context.Context) ([]models.Constructor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := readTable(s.path(TableConstructors), TableConstructors, []string{"constructorId", "name"})
	if err != nil {
		return nil, err
	}

	constructors := make([]models.Constructor, 0, len(t.rows))
	for i, row := range t.rows {
		var constructor models.Constructor
		if constructor.ConstructorID, err = t.requiredInt(row, i, "constructorId"); err != nil {
			return nil, err
		}
		constructor.Name = t.field(row, "name")
		if err := s.validate.Struct(&constructor); err != nil {
			return nil, t.malformed(i, "constructor", fmt.Sprintf("%d", constructor.ConstructorID), err)
		}
		constructors = append(constructors, constructor)
	}

	return constructors, nil
}

func (s *Store) readQualifying(ctx context.Context) ([]models.Qualifying, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := readTable(s.path(TableQualifying), TableQualifying, []string{"raceId", "driverId"})
	if err != nil {
		return nil, err
	}

	rows := make([]models.Qualifying, 0, len(t.rows))
	for i, row := range t.rows {
		var q models.Qualifying
		if id := t.optionalInt(row, "qualifyId"); id != nil {
			q.QualifyID = *id
		}
		if q.RaceID, err = t.requiredInt(row, i, "raceId"); err != nil {
			return nil, err
		}
		if q.DriverID, err = t.requiredInt(row, i, "driverId"); err != nil {
			return nil, err
		}
		if c := t.optionalInt(row, "constructorId"); c != nil {
			q.ConstructorID = *c
		}
		q.Position = t.optionalInt(row, "position")
		q.Q1 = t.optionalString(row, "q1")
		q.Q2 = t.optionalString(row, "q2")
		q.Q3 = t.optionalString(row, "q3")
		rows = append(rows, q)
	}

	return rows, nil
}
