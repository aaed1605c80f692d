package stats

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/yourusername/pitwall/internal/dataset"
)

// DriverChampionship returns the cumulative points series of every driver for
// seasons from startYear onward, ordered by (year, driver, round).
func DriverChampionship(snap *dataset.Snapshot, startYear int) []DriverStanding {
	rows, _ := driverChampionship(snap, startYear)
	return rows
}

func driverChampionship(snap *dataset.Snapshot, startYear int) ([]DriverStanding, JoinGaps) {
	var gaps JoinGaps
	rows := make([]DriverStanding, 0)

	for _, result := range snap.Results() {
		race, ok := snap.Race(result.RaceID)
		if !ok {
			gaps.Race++
			continue
		}
		if race.Year < startYear {
			continue
		}
		driver, ok := snap.Driver(result.DriverID)
		if !ok {
			gaps.Driver++
			continue
		}

		rows = append(rows, DriverStanding{
			Year:            race.Year,
			Round:           race.Round,
			DriverName:      driver.FullName(),
			DriverID:        driver.DriverID,
			PointsThisRound: result.Points,
		})
	}

	// Stable so duplicate (year, driver, round) rows accumulate in source order
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.DriverID != b.DriverID {
			return a.DriverID < b.DriverID
		}
		return a.Round < b.Round
	})

	running := decimal.Zero
	for i := range rows {
		if i == 0 || rows[i].Year != rows[i-1].Year || rows[i].DriverID != rows[i-1].DriverID {
			running = decimal.Zero
		}
		running = running.Add(rows[i].PointsThisRound)
		rows[i].CumulativePoints = running
	}

	return rows, gaps
}

// ConstructorChampionship returns season points totals per constructor name for
// seasons from startYear onward, ordered by (year, name).
func ConstructorChampionship(snap *dataset.Snapshot, startYear int) []ConstructorSeason {
	rows, _ := constructorChampionship(snap, startYear)
	return rows
}

func constructorChampionship(snap *dataset.Snapshot, startYear int) ([]ConstructorSeason, JoinGaps) {
	type key struct {
		year int
		name string
	}

	var gaps JoinGaps
	totals := make(map[key]decimal.Decimal)

	for _, result := range snap.Results() {
		race, ok := snap.Race(result.RaceID)
		if !ok {
			gaps.Race++
			continue
		}
		constructor, ok := snap.Constructor(result.ConstructorID)
		if !ok {
			gaps.Constructor++
			continue
		}
		if race.Year < startYear {
			continue
		}

		k := key{year: race.Year, name: constructor.Name}
		totals[k] = totals[k].Add(result.Points)
	}

	rows := make([]ConstructorSeason, 0, len(totals))
	for k, points := range totals {
		rows = append(rows, ConstructorSeason{Year: k.year, ConstructorName: k.name, Points: points})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].ConstructorName < rows[j].ConstructorName
	})

	return rows, gaps
}
