package schedule

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/models"
)

const calendarJSON = `{
  "races": [
    {
      "round": 1,
      "name": "Australian",
      "location": "Melbourne",
      "sessions": {
        "fp1": "2025-03-14T01:30:00Z",
        "qualifying": "2025-03-15T05:00:00Z",
        "gp": "2025-03-16T04:00:00Z"
      }
    },
    {
      "round": 2,
      "name": "Chinese",
      "location": "Shanghai",
      "sessions": {
        "sprintQualifying": "2025-03-21T07:30:00Z",
        "sprint": "2025-03-22T03:00:00Z",
        "gp": "2025-03-23T07:00:00Z"
      }
    },
    {
      "round": 3,
      "name": "Japanese",
      "location": "Suzuka",
      "sessions": {"gp": "not-a-date"}
    },
    {
      "name": "Bahrain",
      "location": "Sakhir",
      "sessions": {"gp": "2025-04-13T15:00:00Z"}
    },
    {
      "round": 5,
      "name": "Saudi Arabian",
      "location": "Jeddah",
      "sessions": {"fp1": "2025-04-18T13:30:00Z"}
    }
  ]
}`

const calendarYAML = `races:
  - round: 1
    name: Australian
    location: Melbourne
    sessions:
      gp: "2025-03-16T04:00:00Z"
  - round: 2
    name: Chinese
    location: Shanghai
    sessions:
      gp: "2025-03-23T07:00:00Z"
`

func writeCalendar(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStoreLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeCalendar(t, dir, "f1-2025-schedule.json", calendarJSON)

	store := NewStore([]string{dir}, logger.Discard())
	require.NoError(t, store.Load(context.Background(), 2025))

	entries, err := store.Entries()
	require.NoError(t, err)
	// Round 3 has a bad timestamp, the fourth entry has no round, round 5 has no gp
	require.Len(t, entries, 2)
	assert.Equal(t, 2025, store.Season())
	assert.Equal(t, path, store.Path())

	first := entries[0]
	assert.Equal(t, 1, first.Round)
	assert.Equal(t, "Australian", first.Name)
	assert.Equal(t, "Melbourne", first.Location)
	gp, ok := first.GrandPrixTime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC), gp)

	sessions := entries[1].OrderedSessions()
	require.Len(t, sessions, 3)
	assert.Equal(t, models.SessionSprintQualifying, sessions[0].Kind)
	assert.Equal(t, models.SessionSprint, sessions[1].Kind)
	assert.Equal(t, models.SessionGrandPrix, sessions[2].Kind)
}

func TestStoreLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeCalendar(t, dir, "f1-2025-schedule.yaml", calendarYAML)

	store := NewStore([]string{dir}, logger.Discard())
	require.NoError(t, store.Load(context.Background(), 2025))

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Chinese", entries[1].Name)
}

func TestStoreSearchesCandidateDirsInOrder(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	first, second := t.TempDir(), t.TempDir()
	writeCalendar(t, second, "f1-2025-schedule.json", calendarJSON)
	want := writeCalendar(t, first, "f1-2025-schedule.yaml", calendarYAML)

	store := NewStore([]string{missing, first, second}, logger.Discard())
	require.NoError(t, store.Load(context.Background(), 2025))
	assert.Equal(t, want, store.Path())
}

func TestStoreLoadFailures(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{name: "absent", wantErr: models.ErrSourceUnavailable},
		{name: "empty", file: "f1-2025-schedule.json", content: "  ", wantErr: models.ErrSourceMalformed},
		{name: "invalid json", file: "f1-2025-schedule.json", content: `{"races": [`, wantErr: models.ErrSourceMalformed},
		{name: "missing races", file: "f1-2025-schedule.json", content: `{"season": 2025}`, wantErr: models.ErrSourceMalformed},
		{name: "invalid yaml", file: "f1-2025-schedule.yaml", content: "races: [\n  - {", wantErr: models.ErrSourceMalformed},
		{
			name:    "no usable entries",
			file:    "f1-2025-schedule.json",
			content: `{"races": [{"round": 1, "name": "Monaco", "sessions": {"gp": "soon"}}]}`,
			wantErr: models.ErrSourceMalformed,
		},
		{name: "zero entries", file: "f1-2025-schedule.json", content: `{"races": []}`, wantErr: models.ErrSourceMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				writeCalendar(t, dir, tt.file, tt.content)
			}

			store := NewStore([]string{dir}, logger.Discard())
			err := store.Load(context.Background(), 2025)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, store.Loaded())

			_, err = store.Entries()
			assert.ErrorIs(t, err, models.ErrStoreNotLoaded)
		})
	}
}

func TestStoreSkipsBadEntries(t *testing.T) {
	const good = `{"round": 1, "name": "Australian", "location": "Melbourne", "sessions": {"gp": "2025-03-16T04:00:00Z"}}`

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "string round",
			file:    "f1-2025-schedule.json",
			content: `{"races": [` + good + `, {"round": "two", "name": "Chinese", "sessions": {"gp": "2025-03-23T07:00:00Z"}}]}`,
		},
		{
			name:    "numeric gp",
			file:    "f1-2025-schedule.json",
			content: `{"races": [` + good + `, {"round": 2, "name": "Chinese", "sessions": {"gp": 12345}}]}`,
		},
		{
			name:    "unparsable gp",
			file:    "f1-2025-schedule.json",
			content: `{"races": [` + good + `, {"round": 2, "name": "Chinese", "sessions": {"gp": "not-a-date"}}]}`,
		},
		{
			name:    "duplicate round",
			file:    "f1-2025-schedule.json",
			content: `{"races": [` + good + `, {"round": 1, "name": "Chinese", "sessions": {"gp": "2025-03-23T07:00:00Z"}}]}`,
		},
		{
			name: "yaml string round",
			file: "f1-2025-schedule.yaml",
			content: `races:
  - round: 1
    name: Australian
    location: Melbourne
    sessions:
      gp: "2025-03-16T04:00:00Z"
  - round: two
    name: Chinese
    sessions:
      gp: "2025-03-23T07:00:00Z"
`,
		},
		{
			name: "yaml nested sessions",
			file: "f1-2025-schedule.yaml",
			content: `races:
  - round: 1
    name: Australian
    location: Melbourne
    sessions:
      gp: "2025-03-16T04:00:00Z"
  - round: 2
    name: Chinese
    sessions:
      gp: [2025, 3, 23]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeCalendar(t, dir, tt.file, tt.content)

			store := NewStore([]string{dir}, logger.Discard())
			require.NoError(t, store.Load(context.Background(), 2025))

			entries, err := store.Entries()
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, 1, entries[0].Round)
			assert.Equal(t, "Australian", entries[0].Name)
		})
	}
}

func TestStoreFailedReloadClearsCalendar(t *testing.T) {
	dir := t.TempDir()
	writeCalendar(t, dir, "f1-2025-schedule.json", calendarJSON)

	store := NewStore([]string{dir}, logger.Discard())
	require.NoError(t, store.Load(context.Background(), 2025))
	require.True(t, store.Loaded())

	err := store.Load(context.Background(), 2026)
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.False(t, store.Loaded())
	assert.Zero(t, store.Season())
}

func TestStoreEntriesAreCopies(t *testing.T) {
	dir := t.TempDir()
	writeCalendar(t, dir, "f1-2025-schedule.json", calendarJSON)
	store := NewStore([]string{dir}, logger.Discard())
	require.NoError(t, store.Load(context.Background(), 2025))

	entries, err := store.Entries()
	require.NoError(t, err)
	shifted := entries[0].Sessions[models.SessionGrandPrix].Add(time.Hour)
	entries[0].Sessions[models.SessionGrandPrix] = &shifted
	entries[0].Name = "Changed"

	again, err := store.Entries()
	require.NoError(t, err)
	assert.Equal(t, "Australian", again[0].Name)
	gp, _ := again[0].GrandPrixTime()
	assert.Equal(t, time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC), gp)
}

func TestStoreLoadCanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeCalendar(t, dir, "f1-2025-schedule.json", calendarJSON)
	store := NewStore([]string{dir}, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Load(ctx, 2025), context.Canceled)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2025-03-16T04:00:00Z", time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC)},
		{"2025-03-16T06:00:00+02:00", time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC)},
		{"2025-03-16T04:00:00", time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC)},
		{" 2025-03-16T04:00 ", time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.True(t, tt.want.Equal(got), tt.raw)
	}

	_, err := parseTimestamp("16/03/2025")
	assert.Error(t, err)
}
