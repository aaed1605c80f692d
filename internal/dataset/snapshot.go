package dataset

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/pitwall/internal/models"
)

// Snapshot is an immutable, fully materialized copy of the five dataset tables.
// Accessors hand out copies so derived views can never alias store state.
type Snapshot struct {
	id           uuid.UUID
	loadedAt     time.Time
	races        map[int]models.Race
	results      []models.Result
	drivers      map[int]models.Driver
	constructors map[int]models.Constructor
	qualifying   []models.Qualifying
}

// NewSnapshot builds a snapshot from already normalized rows.
// Later rows win when a dimension key repeats.
func NewSnapshot(races []models.Race, results []models.Result, drivers []models.Driver, constructors []models.Constructor, qualifying []models.Qualifying) *Snapshot {
	s := &Snapshot{
		id:           uuid.New(),
		loadedAt:     time.Now().UTC(),
		races:        make(map[int]models.Race, len(races)),
		results:      make([]models.Result, len(results)),
		drivers:      make(map[int]models.Driver, len(drivers)),
		constructors: make(map[int]models.Constructor, len(constructors)),
		qualifying:   make([]models.Qualifying, len(qualifying)),
	}

	for _, r := range races {
		s.races[r.RaceID] = r
	}
	for i, r := range results {
		s.results[i] = copyResult(r)
	}
	for _, d := range drivers {
		s.drivers[d.DriverID] = d
	}
	for _, c := range constructors {
		s.constructors[c.ConstructorID] = c
	}
	for i, q := range qualifying {
		s.qualifying[i] = q.Clone()
	}

	return s
}

// ID returns the unique identifier of this load
func (s *Snapshot) ID() uuid.UUID {
	return s.id
}

// LoadedAt returns when the snapshot was materialized
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Race looks up a race by key
func (s *Snapshot) Race(raceID int) (models.Race, bool) {
	r, ok := s.races[raceID]
	return r, ok
}

// Driver looks up a driver by key
func (s *Snapshot) Driver(driverID int) (models.Driver, bool) {
	d, ok := s.drivers[driverID]
	return d, ok
}

// Constructor looks up a constructor by key
func (s *Snapshot) Constructor(constructorID int) (models.Constructor, bool) {
	c, ok := s.constructors[constructorID]
	return c, ok
}

// Results returns a copy of every result row in source order
func (s *Snapshot) Results() []models.Result {
	out := make([]models.Result, len(s.results))
	for i, r := range s.results {
		out[i] = copyResult(r)
	}
	return out
}

// ResultsForDriver returns a copy of the driver's results in source order
func (s *Snapshot) ResultsForDriver(driverID int) []models.Result {
	var out []models.Result
	for _, r := range s.results {
		if r.DriverID == driverID {
			out = append(out, copyResult(r))
		}
	}
	return out
}

// Races returns all races ordered by race key
func (s *Snapshot) Races() []models.Race {
	out := make([]models.Race, 0, len(s.races))
	for _, r := range s.races {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RaceID < out[j].RaceID })
	return out
}

// Drivers returns all drivers ordered by driver key
func (s *Snapshot) Drivers() []models.Driver {
	out := make([]models.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DriverID < out[j].DriverID })
	return out
}

// Constructors returns all constructors ordered by constructor key
func (s *Snapshot) Constructors() []models.Constructor {
	out := make([]models.Constructor, 0, len(s.constructors))
	for _, c := range s.constructors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConstructorID < out[j].ConstructorID })
	return out
}

// Qualifying returns a copy of the qualifying table in source order
func (s *Snapshot) Qualifying() []models.Qualifying {
	out := make([]models.Qualifying, len(s.qualifying))
	for i, q := range s.qualifying {
		out[i] = q.Clone()
	}
	return out
}

// RowCounts returns the number of rows held per table
func (s *Snapshot) RowCounts() map[string]int {
	return map[string]int{
		TableRaces:        len(s.races),
		TableResults:      len(s.results),
		TableDrivers:      len(s.drivers),
		TableConstructors: len(s.constructors),
		TableQualifying:   len(s.qualifying),
	}
}

func copyResult(r models.Result) models.Result {
	if r.PositionOrder != nil {
		pos := *r.PositionOrder
		r.PositionOrder = &pos
	}
	return r
}
