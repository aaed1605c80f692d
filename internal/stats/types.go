// Package stats derives championship, circuit and driver views from a dataset snapshot.
//
// Every exported function is a pure function of its snapshot argument: nothing is
// cached, nothing is mutated, and repeated calls with the same inputs return equal rows.
package stats

import (
	"github.com/shopspring/decimal"
)

// View names used for logging and metrics
const (
	ViewDriverChampionship      = "driver_championship"
	ViewConstructorChampionship = "constructor_championship"
	ViewCircuitWins             = "circuit_wins"
	ViewHeadToHead              = "head_to_head"
	ViewTopDrivers              = "top_drivers"
	ViewSeasons                 = "seasons"
)

// DriverStanding is one point of a driver's cumulative championship series
type DriverStanding struct {
	Year             int             `json:"year"`
	Round            int             `json:"round"`
	DriverName       string          `json:"driver_name"`
	DriverID         int             `json:"driver_id"`
	CumulativePoints decimal.Decimal `json:"cumulative_points"`
	PointsThisRound  decimal.Decimal `json:"points"`
}

// ConstructorSeason is a constructor's points total for one season
type ConstructorSeason struct {
	Year            int             `json:"year"`
	ConstructorName string          `json:"name"`
	Points          decimal.Decimal `json:"points"`
}

// CircuitWin counts a driver's victories at one grand prix
type CircuitWin struct {
	RaceName   string `json:"name"`
	DriverName string `json:"driver_name"`
	Wins       int    `json:"wins"`
}

// DriverPoints is a driver's points total
type DriverPoints struct {
	DriverID   int             `json:"driver_id"`
	DriverName string          `json:"driver_name"`
	Points     decimal.Decimal `json:"points"`
}

// HeadToHead compares two drivers over their careers.
// Average positions are nil when a driver has no classified finish.
type HeadToHead struct {
	Driver1            string          `json:"driver1"`
	Driver2            string          `json:"driver2"`
	Driver1Wins        int             `json:"driver1_wins"`
	Driver2Wins        int             `json:"driver2_wins"`
	Driver1Podiums     int             `json:"driver1_podiums"`
	Driver2Podiums     int             `json:"driver2_podiums"`
	Driver1TotalPoints decimal.Decimal `json:"driver1_total_points"`
	Driver2TotalPoints decimal.Decimal `json:"driver2_total_points"`
	Driver1AvgPosition *float64        `json:"driver1_avg_position"`
	Driver2AvgPosition *float64        `json:"driver2_avg_position"`
}

// Leader returns the driver with more career points and the margin.
// Equal totals go to the second driver.
func (h HeadToHead) Leader() (string, decimal.Decimal) {
	if h.Driver1TotalPoints.GreaterThan(h.Driver2TotalPoints) {
		return h.Driver1, h.Driver1TotalPoints.Sub(h.Driver2TotalPoints)
	}
	return h.Driver2, h.Driver2TotalPoints.Sub(h.Driver1TotalPoints)
}

func (h HeadToHead) clone() HeadToHead {
	h.Driver1AvgPosition = cloneFloat(h.Driver1AvgPosition)
	h.Driver2AvgPosition = cloneFloat(h.Driver2AvgPosition)
	return h
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Swap returns the same comparison with the drivers' sides exchanged
func (h HeadToHead) Swap() HeadToHead {
	return HeadToHead{
		Driver1:            h.Driver2,
		Driver2:            h.Driver1,
		Driver1Wins:        h.Driver2Wins,
		Driver2Wins:        h.Driver1Wins,
		Driver1Podiums:     h.Driver2Podiums,
		Driver2Podiums:     h.Driver1Podiums,
		Driver1TotalPoints: h.Driver2TotalPoints,
		Driver2TotalPoints: h.Driver1TotalPoints,
		Driver1AvgPosition: h.Driver2AvgPosition,
		Driver2AvgPosition: h.Driver1AvgPosition,
	}
}

// JoinGaps counts fact rows dropped because a dimension key did not resolve
type JoinGaps struct {
	Race        int
	Driver      int
	Constructor int
}

// Total returns the number of dropped rows
func (g JoinGaps) Total() int {
	return g.Race + g.Driver + g.Constructor
}
