package stats

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/yourusername/pitwall/internal/dataset"
	"github.com/yourusername/pitwall/internal/models"
)

// careerRecord holds one driver's career aggregates
type careerRecord struct {
	name        string
	wins        int
	podiums     int
	points      decimal.Decimal
	avgPosition *float64
}

// CompareDrivers compares two drivers' careers. Unclassified finishes count toward
// points but not toward wins, podiums or the average position. A driver that is
// unknown or has no result joined to a race is an invalid argument.
func CompareDrivers(snap *dataset.Snapshot, driverIDA, driverIDB int) (HeadToHead, error) {
	h, _, err := compareDrivers(snap, driverIDA, driverIDB)
	return h, err
}

func compareDrivers(snap *dataset.Snapshot, driverIDA, driverIDB int) (HeadToHead, JoinGaps, error) {
	var gaps JoinGaps

	a, err := career(snap, driverIDA, &gaps)
	if err != nil {
		return HeadToHead{}, gaps, err
	}
	b, err := career(snap, driverIDB, &gaps)
	if err != nil {
		return HeadToHead{}, gaps, err
	}

	return HeadToHead{
		Driver1:            a.name,
		Driver2:            b.name,
		Driver1Wins:        a.wins,
		Driver2Wins:        b.wins,
		Driver1Podiums:     a.podiums,
		Driver2Podiums:     b.podiums,
		Driver1TotalPoints: a.points,
		Driver2TotalPoints: b.points,
		Driver1AvgPosition: a.avgPosition,
		Driver2AvgPosition: b.avgPosition,
	}, gaps, nil
}

func career(snap *dataset.Snapshot, driverID int, gaps *JoinGaps) (careerRecord, error) {
	driver, ok := snap.Driver(driverID)
	if !ok {
		return careerRecord{}, fmt.Errorf("%w: unknown driver %d", models.ErrInvalidQueryArgument, driverID)
	}

	rec := careerRecord{name: driver.FullName(), points: decimal.Zero}
	joined := 0
	positionSum, classified := 0, 0

	for _, result := range snap.ResultsForDriver(driverID) {
		if _, ok := snap.Race(result.RaceID); !ok {
			gaps.Race++
			continue
		}
		joined++

		rec.points = rec.points.Add(result.Points)
		if result.IsWin() {
			rec.wins++
		}
		if result.IsPodium() {
			rec.podiums++
		}
		if result.IsClassified() {
			positionSum += *result.PositionOrder
			classified++
		}
	}

	if joined == 0 {
		return careerRecord{}, fmt.Errorf("%w: driver %d has no race results", models.ErrInvalidQueryArgument, driverID)
	}
	if classified > 0 {
		avg := float64(positionSum) / float64(classified)
		rec.avgPosition = &avg
	}

	return rec, nil
}

// TopDrivers ranks drivers by career points, highest first, breaking ties by
// driver id ascending. Rows are truncated to limit before the driver join, so a
// ranked driver missing from the drivers table is dropped rather than replaced.
func TopDrivers(snap *dataset.Snapshot, limit int) ([]DriverPoints, error) {
	rows, _, err := topDrivers(snap, limit)
	return rows, err
}

func topDrivers(snap *dataset.Snapshot, limit int) ([]DriverPoints, JoinGaps, error) {
	var gaps JoinGaps
	if limit <= 0 {
		return nil, gaps, fmt.Errorf("%w: limit must be positive, got %d", models.ErrInvalidQueryArgument, limit)
	}

	totals := make(map[int]decimal.Decimal)
	for _, result := range snap.Results() {
		totals[result.DriverID] = totals[result.DriverID].Add(result.Points)
	}

	ranked := make([]DriverPoints, 0, len(totals))
	for id, points := range totals {
		ranked = append(ranked, DriverPoints{DriverID: id, Points: points})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Points.Equal(ranked[j].Points) {
			return ranked[i].Points.GreaterThan(ranked[j].Points)
		}
		return ranked[i].DriverID < ranked[j].DriverID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	rows := make([]DriverPoints, 0, len(ranked))
	for _, row := range ranked {
		driver, ok := snap.Driver(row.DriverID)
		if !ok {
			gaps.Driver++
			continue
		}
		row.DriverName = driver.FullName()
		rows = append(rows, row)
	}

	return rows, gaps, nil
}
