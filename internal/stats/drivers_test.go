package stats

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/pitwall/internal/dataset"
	"github.com/yourusername/pitwall/internal/models"
)

func TestCompareDrivers(t *testing.T) {
	h, err := CompareDrivers(fixtureSnapshot(), hamilton, verstappen)
	require.NoError(t, err)

	assert.Equal(t, "Lewis Hamilton", h.Driver1)
	assert.Equal(t, "Max Verstappen", h.Driver2)
	assert.Equal(t, 2, h.Driver1Wins)
	assert.Equal(t, 2, h.Driver2Wins)
	assert.Equal(t, 4, h.Driver1Podiums)
	assert.Equal(t, 4, h.Driver2Podiums)
	assert.True(t, d(83).Equal(h.Driver1TotalPoints))
	assert.True(t, d(86).Equal(h.Driver2TotalPoints))
	require.NotNil(t, h.Driver1AvgPosition)
	require.NotNil(t, h.Driver2AvgPosition)
	assert.InDelta(t, 1.75, *h.Driver1AvgPosition, 1e-9)
	assert.InDelta(t, 1.5, *h.Driver2AvgPosition, 1e-9)

	leader, margin := h.Leader()
	assert.Equal(t, "Max Verstappen", leader)
	assert.True(t, d(3).Equal(margin))
}

func TestCompareDriversIsSymmetric(t *testing.T) {
	snap := fixtureSnapshot()
	ids := []int{hamilton, verstappen, leclerc}

	for _, a := range ids {
		for _, b := range ids {
			ab, err := CompareDrivers(snap, a, b)
			require.NoError(t, err)
			ba, err := CompareDrivers(snap, b, a)
			require.NoError(t, err)

			assert.Equal(t, ab.Swap(), ba)
			assert.Equal(t, ab.Driver1Wins, ba.Driver2Wins)
		}
	}
}

func TestCompareDriversWithoutClassifiedFinish(t *testing.T) {
	races := []models.Race{{RaceID: 1, Year: 2021, Round: 1, Name: "Bahrain Grand Prix"}}
	results := []models.Result{
		result(1, 1, hamilton, 131, nil, 0),
		result(2, 1, verstappen, 9, pos(1), 25),
	}
	h, err := CompareDrivers(newSnapshot(races, results, fixtureConstructors()), hamilton, verstappen)
	require.NoError(t, err)

	assert.Nil(t, h.Driver1AvgPosition)
	assert.Zero(t, h.Driver1Podiums)
	assert.NotNil(t, h.Driver2AvgPosition)
}

func TestCompareDriversInvalidArguments(t *testing.T) {
	snap := fixtureSnapshot()

	_, err := CompareDrivers(snap, hamilton, 4242)
	assert.ErrorIs(t, err, models.ErrInvalidQueryArgument)

	noResults := dataset.NewSnapshot(snap.Races(), nil, fixtureDrivers(), fixtureConstructors(), nil)
	_, err = CompareDrivers(noResults, hamilton, verstappen)
	assert.ErrorIs(t, err, models.ErrInvalidQueryArgument)
}

func TestTopDrivers(t *testing.T) {
	rows, err := TopDrivers(fixtureSnapshot(), 2)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Max Verstappen", rows[0].DriverName)
	assert.True(t, d(86).Equal(rows[0].Points))
	assert.Equal(t, "Lewis Hamilton", rows[1].DriverName)
	assert.True(t, d(83).Equal(rows[1].Points))
}

func TestTopDriversSingleLeader(t *testing.T) {
	races := []models.Race{{RaceID: 1, Year: 2021, Round: 1, Name: "Bahrain Grand Prix"}}
	results := []models.Result{
		result(1, 1, hamilton, 131, pos(1), 100),
		result(2, 1, hamilton, 131, pos(1), 50),
		result(3, 1, verstappen, 9, pos(2), 90),
	}

	rows, err := TopDrivers(newSnapshot(races, results, fixtureConstructors()), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, hamilton, rows[0].DriverID)
	assert.True(t, d(150).Equal(rows[0].Points))
}

func TestTopDriversTieBreakByDriverID(t *testing.T) {
	races := []models.Race{{RaceID: 1, Year: 2021, Round: 1, Name: "Bahrain Grand Prix"}}
	results := []models.Result{
		result(1, 1, leclerc, 6, pos(1), 10),
		result(2, 1, verstappen, 9, pos(2), 10),
	}

	rows, err := TopDrivers(newSnapshot(races, results, fixtureConstructors()), 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, verstappen, rows[0].DriverID)
	assert.Equal(t, leclerc, rows[1].DriverID)
}

func TestTopDriversInvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -3} {
		_, err := TopDrivers(fixtureSnapshot(), limit)
		assert.ErrorIs(t, err, models.ErrInvalidQueryArgument)
	}
}

func TestTopDriversDropsUnknownDriverAfterTruncation(t *testing.T) {
	rows, gaps, err := topDrivers(gapSnapshot(), 2)
	require.NoError(t, err)

	// Hamilton 50, unknown driver 999 18: the unknown driver takes a slot and is dropped
	require.Len(t, rows, 1)
	assert.Equal(t, hamilton, rows[0].DriverID)
	assert.True(t, decimal.NewFromInt(50).Equal(rows[0].Points))
	assert.Equal(t, 1, gaps.Driver)
}
