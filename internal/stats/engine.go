package stats

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitwall/internal/cache"
	"github.com/yourusername/pitwall/internal/dataset"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/models"
)

// SnapshotSource supplies the dataset snapshot queries run against
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*dataset.Snapshot, error)
}

// SnapshotFunc adapts a function to SnapshotSource
type SnapshotFunc func(ctx context.Context) (*dataset.Snapshot, error)

// Snapshot calls f(ctx)
func (f SnapshotFunc) Snapshot(ctx context.Context) (*dataset.Snapshot, error) {
	return f(ctx)
}

// StoreSource serves the current snapshot of a dataset store
func StoreSource(store *dataset.Store) SnapshotSource {
	return SnapshotFunc(func(ctx context.Context) (*dataset.Snapshot, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return store.Snapshot()
	})
}

// Engine serves aggregate views over the current snapshot, memoizing results
// per snapshot when a cache is configured.
type Engine struct {
	source    SnapshotSource
	cache     *cache.ViewCache
	startYear int
	queries   *logger.QueryLogger
	datasets  *logger.DatasetLogger
}

// NewEngine creates a query engine. viewCache may be nil.
func NewEngine(source SnapshotSource, viewCache *cache.ViewCache, startYear int, log *logrus.Logger) *Engine {
	return &Engine{
		source:    source,
		cache:     viewCache,
		startYear: startYear,
		queries:   logger.NewQueryLogger(log),
		datasets:  logger.NewDatasetLogger(log),
	}
}

// StartYear returns the first season included in championship views
func (e *Engine) StartYear() int {
	return e.startYear
}

type computeFunc func(snap *dataset.Snapshot) (interface{}, int, JoinGaps, error)

// run resolves the snapshot, then serves view from cache or computes it.
// Cached values are shared, so callers copy what they return.
func (e *Engine) run(ctx context.Context, view string, args map[string]interface{}, keyArgs []interface{}, compute computeFunc) (interface{}, error) {
	start := time.Now()

	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		e.fail(view, args, start, err)
		return nil, err
	}

	rows := 0
	exec := func() (interface{}, error) {
		value, n, gaps, err := compute(snap)
		if err != nil {
			return nil, err
		}
		rows = n
		e.reportGaps(view, gaps)
		return value, nil
	}

	var value interface{}
	if e.cache != nil {
		value, err = e.cache.Fetch(cache.Key{SnapshotID: snap.ID(), View: view, Args: keyArgs}, exec)
	} else {
		value, err = exec()
	}
	if err != nil {
		e.fail(view, args, start, err)
		return nil, err
	}

	metrics.RecordQuery(view, time.Since(start).Seconds(), nil)
	e.queries.LogQuery(view, args, rows, time.Since(start))
	return value, nil
}

func (e *Engine) fail(view string, args map[string]interface{}, start time.Time, err error) {
	metrics.RecordQuery(view, time.Since(start).Seconds(), err)
	e.queries.LogQueryError(view, args, err)
}

func (e *Engine) reportGaps(view string, gaps JoinGaps) {
	for dimension, dropped := range map[string]int{
		dataset.TableRaces:        gaps.Race,
		dataset.TableDrivers:      gaps.Driver,
		dataset.TableConstructors: gaps.Constructor,
	} {
		metrics.RecordReferentialGaps(view, dimension, dropped)
		e.datasets.LogReferentialGaps(view, dimension, dropped)
	}
}

// Seasons lists the seasons from the engine's start year onward, newest first
func (e *Engine) Seasons(ctx context.Context) ([]int, error) {
	value, err := e.run(ctx, ViewSeasons, logrus.Fields{"min_year": e.startYear}, []interface{}{e.startYear},
		func(snap *dataset.Snapshot) (interface{}, int, JoinGaps, error) {
			years := AvailableSeasons(snap, e.startYear)
			return years, len(years), JoinGaps{}, nil
		})
	if err != nil {
		return nil, err
	}
	return slices.Clone(value.([]int)), nil
}

// DriverChampionship returns the cumulative points series from the start year onward
func (e *Engine) DriverChampionship(ctx context.Context) ([]DriverStanding, error) {
	value, err := e.run(ctx, ViewDriverChampionship, logrus.Fields{"start_year": e.startYear}, []interface{}{e.startYear},
		func(snap *dataset.Snapshot) (interface{}, int, JoinGaps, error) {
			rows, gaps := driverChampionship(snap, e.startYear)
			return rows, len(rows), gaps, nil
		})
	if err != nil {
		return nil, err
	}
	return slices.Clone(value.([]DriverStanding)), nil
}

// DriverChampionshipSeason returns the series of the top n drivers of one season
func (e *Engine) DriverChampionshipSeason(ctx context.Context, year, n int) ([]DriverStanding, error) {
	if err := e.checkSeason(year); err != nil {
		e.queries.LogQueryError(ViewDriverChampionship, logrus.Fields{"year": year}, err)
		return nil, err
	}
	series, err := e.DriverChampionship(ctx)
	if err != nil {
		return nil, err
	}
	return SeasonProgression(series, year, n), nil
}

// FinalStandings returns the top n drivers of one season by final points
func (e *Engine) FinalStandings(ctx context.Context, year, n int) ([]DriverPoints, error) {
	if err := e.checkSeason(year); err != nil {
		e.queries.LogQueryError(ViewDriverChampionship, logrus.Fields{"year": year}, err)
		return nil, err
	}
	series, err := e.DriverChampionship(ctx)
	if err != nil {
		return nil, err
	}
	return FinalStandings(series, year, n), nil
}

// ConstructorChampionship returns season totals per constructor from the start year onward
func (e *Engine) ConstructorChampionship(ctx context.Context) ([]ConstructorSeason, error) {
	value, err := e.run(ctx, ViewConstructorChampionship, logrus.Fields{"start_year": e.startYear}, []interface{}{e.startYear},
		func(snap *dataset.Snapshot) (interface{}, int, JoinGaps, error) {
			rows, gaps := constructorChampionship(snap, e.startYear)
			return rows, len(rows), gaps, nil
		})
	if err != nil {
		return nil, err
	}
	return slices.Clone(value.([]ConstructorSeason)), nil
}

// ConstructorHeatmap pivots constructor season totals for the top n constructors
func (e *Engine) ConstructorHeatmap(ctx context.Context, n int) (Heatmap, error) {
	seasons, err := e.ConstructorChampionship(ctx)
	if err != nil {
		return Heatmap{}, err
	}
	return ConstructorHeatmap(seasons, n), nil
}

// CircuitWins returns win counts per grand prix and driver
func (e *Engine) CircuitWins(ctx context.Context) ([]CircuitWin, error) {
	value, err := e.run(ctx, ViewCircuitWins, nil, nil,
		func(snap *dataset.Snapshot) (interface{}, int, JoinGaps, error) {
			rows, gaps := circuitWins(snap)
			return rows, len(rows), gaps, nil
		})
	if err != nil {
		return nil, err
	}
	return slices.Clone(value.([]CircuitWin)), nil
}

// CircuitNames lists every grand prix with at least one recorded win
func (e *Engine) CircuitNames(ctx context.Context) ([]string, error) {
	rows, err := e.CircuitWins(ctx)
	if err != nil {
		return nil, err
	}
	return CircuitNames(rows), nil
}

// CircuitSummary summarizes the winners of one grand prix
func (e *Engine) CircuitSummary(ctx context.Context, raceName string, limit int) (CircuitSummary, error) {
	rows, err := e.CircuitWins(ctx)
	if err != nil {
		return CircuitSummary{}, err
	}
	summary, err := SummarizeCircuit(rows, raceName, limit)
	if err != nil {
		e.queries.LogQueryError(ViewCircuitWins, logrus.Fields{"race_name": raceName}, err)
		return CircuitSummary{}, err
	}
	return summary, nil
}

// CompareDrivers returns the career head-to-head of two drivers
func (e *Engine) CompareDrivers(ctx context.Context, driverIDA, driverIDB int) (HeadToHead, error) {
	args := logrus.Fields{"driver_a": driverIDA, "driver_b": driverIDB}
	value, err := e.run(ctx, ViewHeadToHead, args, []interface{}{driverIDA, driverIDB},
		func(snap *dataset.Snapshot) (interface{}, int, JoinGaps, error) {
			h, gaps, err := compareDrivers(snap, driverIDA, driverIDB)
			return h, 1, gaps, err
		})
	if err != nil {
		return HeadToHead{}, err
	}
	return value.(HeadToHead).clone(), nil
}

// TopDrivers returns the limit highest scoring drivers of all time
func (e *Engine) TopDrivers(ctx context.Context, limit int) ([]DriverPoints, error) {
	value, err := e.run(ctx, ViewTopDrivers, logrus.Fields{"limit": limit}, []interface{}{limit},
		func(snap *dataset.Snapshot) (interface{}, int, JoinGaps, error) {
			rows, gaps, err := topDrivers(snap, limit)
			return rows, len(rows), gaps, err
		})
	if err != nil {
		return nil, err
	}
	return slices.Clone(value.([]DriverPoints)), nil
}

func (e *Engine) checkSeason(year int) error {
	if year < e.startYear {
		return fmt.Errorf("%w: season %d precedes start year %d", models.ErrInvalidQueryArgument, year, e.startYear)
	}
	return nil
}
