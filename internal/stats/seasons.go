package stats

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/yourusername/pitwall/internal/dataset"
)

// AvailableSeasons returns the distinct race years from minYear onward, newest first
func AvailableSeasons(snap *dataset.Snapshot, minYear int) []int {
	seen := make(map[int]bool)
	years := make([]int, 0)
	for _, race := range snap.Races() {
		if race.Year >= minYear && !seen[race.Year] {
			seen[race.Year] = true
			years = append(years, race.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// FinalStandings ranks drivers in one season of a DriverChampionship series by
// their highest cumulative points, keeping the top n (all when n <= 0).
func FinalStandings(series []DriverStanding, year, n int) []DriverPoints {
	best := make(map[int]DriverPoints)
	for _, row := range series {
		if row.Year != year {
			continue
		}
		cur, ok := best[row.DriverID]
		if !ok || row.CumulativePoints.GreaterThan(cur.Points) {
			best[row.DriverID] = DriverPoints{
				DriverID:   row.DriverID,
				DriverName: row.DriverName,
				Points:     row.CumulativePoints,
			}
		}
	}

	standings := make([]DriverPoints, 0, len(best))
	for _, dp := range best {
		standings = append(standings, dp)
	}
	sort.Slice(standings, func(i, j int) bool {
		if !standings[i].Points.Equal(standings[j].Points) {
			return standings[i].Points.GreaterThan(standings[j].Points)
		}
		return standings[i].DriverID < standings[j].DriverID
	})
	if n > 0 && len(standings) > n {
		standings = standings[:n]
	}
	return standings
}

// SeasonProgression returns the round-by-round series of the top n drivers of a
// season, grouped by final rank and ordered by round within each driver.
func SeasonProgression(series []DriverStanding, year, n int) []DriverStanding {
	top := FinalStandings(series, year, n)
	rank := make(map[int]int, len(top))
	for i, dp := range top {
		rank[dp.DriverID] = i
	}

	rows := make([]DriverStanding, 0)
	for _, row := range series {
		if row.Year != year {
			continue
		}
		if _, ok := rank[row.DriverID]; ok {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rank[rows[i].DriverID], rank[rows[j].DriverID]
		if ri != rj {
			return ri < rj
		}
		return rows[i].Round < rows[j].Round
	})
	return rows
}

// Heatmap is a constructor x season pivot of points totals
type Heatmap struct {
	Years []int        `json:"years"`
	Rows  []HeatmapRow `json:"rows"`
}

// HeatmapRow holds one constructor's points per season, aligned with Heatmap.Years
type HeatmapRow struct {
	ConstructorName string            `json:"name"`
	Points          []decimal.Decimal `json:"points"`
	Total           decimal.Decimal   `json:"total"`
}

// ConstructorHeatmap pivots ConstructorChampionship rows into a constructor x year
// grid (missing seasons are zero) and keeps the top n constructors by total points.
func ConstructorHeatmap(seasons []ConstructorSeason, n int) Heatmap {
	yearSet := make(map[int]bool)
	byName := make(map[string]map[int]decimal.Decimal)
	for _, row := range seasons {
		yearSet[row.Year] = true
		if byName[row.ConstructorName] == nil {
			byName[row.ConstructorName] = make(map[int]decimal.Decimal)
		}
		byName[row.ConstructorName][row.Year] = byName[row.ConstructorName][row.Year].Add(row.Points)
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	rows := make([]HeatmapRow, 0, len(byName))
	for name, perYear := range byName {
		row := HeatmapRow{ConstructorName: name, Points: make([]decimal.Decimal, len(years)), Total: decimal.Zero}
		for i, y := range years {
			p, ok := perYear[y]
			if !ok {
				p = decimal.Zero
			}
			row.Points[i] = p
			row.Total = row.Total.Add(p)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Total.Equal(rows[j].Total) {
			return rows[i].Total.GreaterThan(rows[j].Total)
		}
		return rows[i].ConstructorName < rows[j].ConstructorName
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}

	return Heatmap{Years: years, Rows: rows}
}
