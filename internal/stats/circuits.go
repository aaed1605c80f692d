package stats

import (
	"fmt"
	"sort"

	"github.com/yourusername/pitwall/internal/dataset"
	"github.com/yourusername/pitwall/internal/models"
)

// CircuitWins counts wins per (grand prix, driver name), ordered by grand prix
// name ascending, wins descending, then driver name ascending.
func CircuitWins(snap *dataset.Snapshot) []CircuitWin {
	rows, _ := circuitWins(snap)
	return rows
}

func circuitWins(snap *dataset.Snapshot) ([]CircuitWin, JoinGaps) {
	type key struct {
		race   string
		driver string
	}

	var gaps JoinGaps
	counts := make(map[key]int)

	for _, result := range snap.Results() {
		race, ok := snap.Race(result.RaceID)
		if !ok {
			gaps.Race++
			continue
		}
		if !result.IsWin() {
			continue
		}
		driver, ok := snap.Driver(result.DriverID)
		if !ok {
			gaps.Driver++
			continue
		}
		counts[key{race: race.Name, driver: driver.FullName()}]++
	}

	rows := make([]CircuitWin, 0, len(counts))
	for k, wins := range counts {
		rows = append(rows, CircuitWin{RaceName: k.race, DriverName: k.driver, Wins: wins})
	}
	sortCircuitWins(rows)

	return rows, gaps
}

func sortCircuitWins(rows []CircuitWin) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.RaceName != b.RaceName {
			return a.RaceName < b.RaceName
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.DriverName < b.DriverName
	})
}

// CircuitNames returns the distinct grand prix names present in rows, sorted
func CircuitNames(rows []CircuitWin) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, row := range rows {
		if !seen[row.RaceName] {
			seen[row.RaceName] = true
			names = append(names, row.RaceName)
		}
	}
	sort.Strings(names)
	return names
}

// CircuitSummary describes the winners of a single grand prix
type CircuitSummary struct {
	RaceName   string       `json:"name"`
	TotalRaces int          `json:"total_races"`
	King       string       `json:"circuit_king"`
	Victories  int          `json:"victories"`
	Winners    []CircuitWin `json:"winners"`
}

// SummarizeCircuit builds the summary for raceName from CircuitWins rows,
// keeping at most limit winners (all when limit <= 0).
func SummarizeCircuit(rows []CircuitWin, raceName string, limit int) (CircuitSummary, error) {
	winners := make([]CircuitWin, 0)
	for _, row := range rows {
		if row.RaceName == raceName {
			winners = append(winners, row)
		}
	}
	if len(winners) == 0 {
		return CircuitSummary{}, fmt.Errorf("%w: no winners recorded for %q", models.ErrNotFound, raceName)
	}
	sortCircuitWins(winners)

	summary := CircuitSummary{
		RaceName:  raceName,
		King:      winners[0].DriverName,
		Victories: winners[0].Wins,
	}
	for _, w := range winners {
		summary.TotalRaces += w.Wins
	}
	if limit > 0 && len(winners) > limit {
		winners = winners[:limit]
	}
	summary.Winners = winners

	return summary, nil
}
