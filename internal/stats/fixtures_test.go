package stats

import (
	"github.com/shopspring/decimal"
	"github.com/yourusername/pitwall/internal/dataset"
	"github.com/yourusername/pitwall/internal/models"
)

const (
	hamilton   = 1
	verstappen = 830
	leclerc    = 844
)

func pos(p int) *int {
	return &p
}

func result(id, raceID, driverID, constructorID int, position *int, points int64) models.Result {
	return models.Result{
		ResultID:      id,
		RaceID:        raceID,
		DriverID:      driverID,
		ConstructorID: constructorID,
		PositionOrder: position,
		Points:        decimal.NewFromInt(points),
	}
}

func fixtureDrivers() []models.Driver {
	return []models.Driver{
		{DriverID: hamilton, Forename: "Lewis", Surname: "Hamilton"},
		{DriverID: verstappen, Forename: "Max", Surname: "Verstappen"},
		{DriverID: leclerc, Forename: "Charles", Surname: "Leclerc"},
	}
}

func fixtureConstructors() []models.Constructor {
	return []models.Constructor{
		{ConstructorID: 131, Name: "Mercedes"},
		{ConstructorID: 9, Name: "Red Bull"},
		{ConstructorID: 6, Name: "Ferrari"},
	}
}

// fixtureSnapshot holds two modern seasons of two rounds each plus one 2010 race.
//
//	2021: Hamilton 25, 0(DNF) | Verstappen 18, 25 | Leclerc 15, 18
//	2022: Hamilton 15, 18     | Verstappen 18, 25 | Leclerc 26, 12
//	2010: Hamilton wins Bahrain
func fixtureSnapshot() *dataset.Snapshot {
	races := []models.Race{
		{RaceID: 1, Year: 2021, Round: 1, CircuitID: 3, Name: "Bahrain Grand Prix"},
		{RaceID: 2, Year: 2021, Round: 2, CircuitID: 6, Name: "Monaco Grand Prix"},
		{RaceID: 3, Year: 2022, Round: 1, CircuitID: 3, Name: "Bahrain Grand Prix"},
		{RaceID: 4, Year: 2022, Round: 2, CircuitID: 6, Name: "Monaco Grand Prix"},
		{RaceID: 5, Year: 2010, Round: 1, CircuitID: 3, Name: "Bahrain Grand Prix"},
	}
	results := []models.Result{
		result(1, 1, hamilton, 131, pos(1), 25),
		result(2, 1, verstappen, 9, pos(2), 18),
		result(3, 1, leclerc, 6, pos(3), 15),
		result(4, 2, verstappen, 9, pos(1), 25),
		result(5, 2, leclerc, 6, pos(2), 18),
		result(6, 2, hamilton, 131, nil, 0),
		result(7, 3, leclerc, 6, pos(1), 26),
		result(8, 3, verstappen, 9, pos(2), 18),
		result(9, 3, hamilton, 131, pos(3), 15),
		result(10, 4, verstappen, 9, pos(1), 25),
		result(11, 4, hamilton, 131, pos(2), 18),
		result(12, 4, leclerc, 6, pos(4), 12),
		result(13, 5, hamilton, 131, pos(1), 25),
	}
	return dataset.NewSnapshot(races, results, fixtureDrivers(), fixtureConstructors(), nil)
}

// gapSnapshot adds results that reference an unknown race, driver and constructor
func gapSnapshot() *dataset.Snapshot {
	races := []models.Race{
		{RaceID: 1, Year: 2021, Round: 1, Name: "Bahrain Grand Prix"},
	}
	results := []models.Result{
		result(1, 1, hamilton, 131, pos(1), 25),
		result(2, 99, hamilton, 131, pos(1), 25),
		result(3, 1, 999, 9, pos(2), 18),
		result(4, 1, verstappen, 77, pos(3), 15),
	}
	return dataset.NewSnapshot(races, results, fixtureDrivers(), fixtureConstructors(), nil)
}

func newSnapshot(races []models.Race, results []models.Result, constructors []models.Constructor) *dataset.Snapshot {
	return dataset.NewSnapshot(races, results, fixtureDrivers(), constructors, nil)
}

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
