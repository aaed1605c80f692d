package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/pitwall/internal/models"
)

func TestCircuitWins(t *testing.T) {
	rows := CircuitWins(fixtureSnapshot())

	assert.Equal(t, []CircuitWin{
		{RaceName: "Bahrain Grand Prix", DriverName: "Lewis Hamilton", Wins: 2},
		{RaceName: "Bahrain Grand Prix", DriverName: "Charles Leclerc", Wins: 1},
		{RaceName: "Monaco Grand Prix", DriverName: "Max Verstappen", Wins: 2},
	}, rows)
}

func TestCircuitWinsTieBreakByDriverName(t *testing.T) {
	snap := fixtureSnapshot()
	results := snap.Results()
	// Leclerc takes a second Bahrain win, tying Hamilton
	results = append(results, result(14, 5, leclerc, 6, pos(1), 25))
	rows := CircuitWins(newSnapshot(snap.Races(), results, fixtureConstructors()))

	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "Charles Leclerc", rows[0].DriverName)
	assert.Equal(t, "Lewis Hamilton", rows[1].DriverName)
	assert.Equal(t, rows[0].Wins, rows[1].Wins)
}

func TestCircuitWinsCountOnlyFirstPlaces(t *testing.T) {
	for _, row := range CircuitWins(fixtureSnapshot()) {
		assert.Positive(t, row.Wins)
	}

	_, gaps := circuitWins(gapSnapshot())
	assert.Equal(t, JoinGaps{Race: 1}, gaps)
}

func TestCircuitNames(t *testing.T) {
	names := CircuitNames(CircuitWins(fixtureSnapshot()))
	assert.Equal(t, []string{"Bahrain Grand Prix", "Monaco Grand Prix"}, names)
}

func TestSummarizeCircuit(t *testing.T) {
	rows := CircuitWins(fixtureSnapshot())

	summary, err := SummarizeCircuit(rows, "Bahrain Grand Prix", 1)
	require.NoError(t, err)
	assert.Equal(t, "Lewis Hamilton", summary.King)
	assert.Equal(t, 2, summary.Victories)
	assert.Equal(t, 3, summary.TotalRaces)
	assert.Len(t, summary.Winners, 1)

	_, err = SummarizeCircuit(rows, "Las Vegas Grand Prix", 10)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
