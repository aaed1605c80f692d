package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/pitwall/internal/cache"
	"github.com/yourusername/pitwall/internal/dataset"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/news"
	"github.com/yourusername/pitwall/internal/schedule"
	"github.com/yourusername/pitwall/internal/stats"
)

const calendar = `{
  "races": [
    {"round": 1, "name": "Australian", "location": "Melbourne",
     "sessions": {"qualifying": "2025-03-15T05:00:00Z", "gp": "2025-03-16T04:00:00Z"}},
    {"round": 2, "name": "Chinese", "location": "Shanghai",
     "sessions": {"sprint": "2025-03-22T03:00:00Z", "gp": "2025-03-23T07:00:00Z"}}
  ]
}`

const headlines = `{
  "items": [
    {"title": "Grid penalty confirmed", "link": "https://example.com/a", "published": "2025-03-19T10:00:00Z"},
    {"title": "Upgrade package arrives", "link": "https://example.com/b", "published": "2025-03-18T10:00:00Z"}
  ]
}`

var (
	beforeChina = time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	seasonOver  = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
)

func pos(p int) *int { return &p }

func fixtureSnapshot() *dataset.Snapshot {
	races := []models.Race{
		{RaceID: 1, Year: 2021, Round: 1, Name: "Bahrain Grand Prix"},
		{RaceID: 2, Year: 2022, Round: 1, Name: "Monaco Grand Prix"},
	}
	results := []models.Result{
		{ResultID: 1, RaceID: 1, DriverID: 1, ConstructorID: 131, PositionOrder: pos(1), Points: decimal.NewFromInt(25)},
		{ResultID: 2, RaceID: 1, DriverID: 830, ConstructorID: 9, PositionOrder: pos(2), Points: decimal.NewFromInt(18)},
		{ResultID: 3, RaceID: 2, DriverID: 830, ConstructorID: 9, PositionOrder: pos(1), Points: decimal.NewFromInt(25)},
		{ResultID: 4, RaceID: 2, DriverID: 1, ConstructorID: 131, PositionOrder: pos(2), Points: decimal.NewFromInt(18)},
	}
	drivers := []models.Driver{
		{DriverID: 1, Forename: "Lewis", Surname: "Hamilton"},
		{DriverID: 830, Forename: "Max", Surname: "Verstappen"},
	}
	constructors := []models.Constructor{
		{ConstructorID: 131, Name: "Mercedes"},
		{ConstructorID: 9, Name: "Red Bull"},
	}
	return dataset.NewSnapshot(races, results, drivers, constructors, nil)
}

type fixture struct {
	server   *Server
	schedule *schedule.Store
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, schedule.FileName(2025)+".json"), []byte(calendar), 0o644))
	feedPath := filepath.Join(dir, "news.json")
	require.NoError(t, os.WriteFile(feedPath, []byte(headlines), 0o644))

	snap := fixtureSnapshot()
	engine := stats.NewEngine(stats.SnapshotFunc(func(ctx context.Context) (*dataset.Snapshot, error) {
		return snap, nil
	}), cache.NewViewCache(time.Minute, time.Minute), 2015, logger.Discard())

	store := schedule.NewStore([]string{dir}, logger.Discard())
	agg := news.NewAggregator([]news.Feed{{Name: "local", Location: feedPath}}, news.DefaultHTTPClientConfig(), logger.Discard())
	t.Cleanup(func() { _ = agg.Close() })

	f := &fixture{schedule: store, now: beforeChina}
	f.server = New(Options{
		CountdownInterval: 20 * time.Millisecond,
		Engine:            engine,
		Schedule:          store,
		News:              agg,
		ScheduleLoader:    cache.NewLoader("schedule", 0, func(ctx context.Context) error { return store.Load(ctx, 2025) }),
		NewsLoader:        cache.NewLoader("news", 0, agg.Load),
		Clock:             func() time.Time { return f.now },
		Logger:            logger.Discard(),
	})
	return f
}

func (f *fixture) get(t *testing.T, path string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestSeasonsEndpoint(t *testing.T) {
	f := newFixture(t)

	var seasons []int
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/seasons", &seasons))
	assert.Equal(t, []int{2022, 2021}, seasons)
}

func TestDriverStandingsEndpoints(t *testing.T) {
	f := newFixture(t)

	var series []stats.DriverStanding
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/standings/drivers", &series))
	assert.Len(t, series, 4)

	var season []stats.DriverStanding
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/standings/drivers?year=2021&top=1", &season))
	require.Len(t, season, 1)
	assert.Equal(t, "Lewis Hamilton", season[0].DriverName)

	var final []stats.DriverPoints
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/standings/drivers/2022/final", &final))
	require.Len(t, final, 2)
	assert.Equal(t, "Max Verstappen", final[0].DriverName)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/v1/standings/drivers/2010/final", &errResp))
	assert.Equal(t, models.ErrCodeInvalidArgument, errResp.Code)
}

func TestQueryArgumentErrors(t *testing.T) {
	f := newFixture(t)

	paths := []string{
		"/api/v1/drivers/top?limit=abc",
		"/api/v1/drivers/top?limit=0",
		"/api/v1/drivers/compare?driver1=1",
		"/api/v1/drivers/compare?driver1=1&driver2=999",
		"/api/v1/standings/drivers/next/final",
		"/api/v1/news?limit=-1",
	}
	for _, path := range paths {
		var errResp ErrorResponse
		assert.Equal(t, http.StatusBadRequest, f.get(t, path, &errResp), path)
		assert.Equal(t, models.ErrCodeInvalidArgument, errResp.Code, path)
	}
}

func TestCircuitEndpoints(t *testing.T) {
	f := newFixture(t)

	var names []string
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/circuits", &names))
	assert.Equal(t, []string{"Bahrain Grand Prix", "Monaco Grand Prix"}, names)

	var summary stats.CircuitSummary
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/circuits/Monaco%20Grand%20Prix", &summary))
	assert.Equal(t, "Max Verstappen", summary.King)
	assert.Equal(t, 1, summary.TotalRaces)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/circuits/Imaginary%20Grand%20Prix", &errResp))
	assert.Equal(t, "not_found", errResp.Code)
}

func TestCompareDriversEndpoint(t *testing.T) {
	f := newFixture(t)

	var resp struct {
		HeadToHead stats.HeadToHead `json:"head_to_head"`
		Leader     string           `json:"leader"`
		Margin     string           `json:"margin"`
	}
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/drivers/compare?driver1=1&driver2=830", &resp))
	assert.Equal(t, "Lewis Hamilton", resp.HeadToHead.Driver1)
	assert.Equal(t, 1, resp.HeadToHead.Driver2Wins)
	assert.Equal(t, "Max Verstappen", resp.Leader)
	assert.Equal(t, "0", resp.Margin)
}

func TestScheduleEndpoints(t *testing.T) {
	f := newFixture(t)

	var remaining []schedule.FormattedEntry
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/schedule", &remaining))
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].IsNext)

	var entries []schedule.FormattedEntry
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/schedule?all=true", &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, schedule.StatusPast, entries[0].Status)
	assert.Equal(t, schedule.StatusNext, entries[1].Status)

	var next schedule.FormattedEntry
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/schedule/next", &next))
	assert.Equal(t, "Chinese Grand Prix", next.RaceName)
	assert.Equal(t, "CHN", next.CountryCode)

	var update CountdownUpdate
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/schedule/countdown", &update))
	assert.Equal(t, int64(3), update.Countdown.Days)
	assert.Equal(t, int64(7), update.Countdown.Hours)
	assert.False(t, update.Countdown.Expired)

	f.now = seasonOver
	var errResp ErrorResponse
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/schedule/next", &errResp))
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/schedule/countdown", &errResp))
}

func TestScheduleUnavailable(t *testing.T) {
	store := schedule.NewStore([]string{t.TempDir()}, logger.Discard())
	srv := New(Options{
		Schedule:       store,
		ScheduleLoader: cache.NewLoader("schedule", 0, func(ctx context.Context) error { return store.Load(ctx, 2025) }),
		Logger:         logger.Discard(),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/schedule", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, models.ErrCodeSourceUnavailable, errResp.Code)
}

func TestNewsEndpoint(t *testing.T) {
	f := newFixture(t)

	var items []news.Item
	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/news?limit=1", &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Grid penalty confirmed", items[0].Title)
	assert.Equal(t, "local", items[0].Source)
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{models.ErrInvalidQueryArgument, http.StatusBadRequest},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrStoreNotLoaded, http.StatusServiceUnavailable},
		{models.NewSourceError("races", models.ErrCodeSourceMalformed, "bad header", nil), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tt.err)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}

func TestCountdownStream(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.schedule.Load(context.Background(), 2025))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.server.Hub().Run(ctx)

	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/countdown"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg struct {
			Type string          `json:"type"`
			Data CountdownUpdate `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypeCountdown, msg.Type)
		assert.Equal(t, 2, msg.Data.Race.Round)
	}

	assert.Eventually(t, func() bool { return f.server.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestCountdownStreamAfterHubStops(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.schedule.Load(context.Background(), 2025))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		f.server.Hub().Run(ctx)
		close(stopped)
	}()
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown hub did not stop")
	}

	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/countdown"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
	assert.Equal(t, 0, f.server.Hub().ClientCount())
}

func TestCountdownMessageSeasonComplete(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.schedule.Load(context.Background(), 2025))

	assert.Equal(t, MessageTypeCountdown, f.server.countdownMessage().Type)

	f.now = seasonOver
	assert.Equal(t, MessageTypeSeasonComplete, f.server.countdownMessage().Type)
}
