package schedule

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/yourusername/pitwall/internal/models"
	"gopkg.in/yaml.v3"
)

// document is a decoded season calendar. Entries are decoded one at a time so
// a badly typed entry can be skipped without rejecting the whole file.
type document struct {
	entries []entryDecoder
}

type entryDecoder func(*rawEntry) error

type rawEntry struct {
	Round    *int               `json:"round" yaml:"round"`
	Name     string             `json:"name" yaml:"name"`
	Location string             `json:"location" yaml:"location"`
	Sessions map[string]*string `json:"sessions" yaml:"sessions"`
}

// timestampLayouts are tried in order; zoneless timestamps are read as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func decodeDocument(path string, data []byte) (*document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty document")
	}

	var decoders []entryDecoder
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc struct {
			Races []yaml.Node `yaml:"races"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc.Races == nil {
			return nil, errors.New("missing races list")
		}
		decoders = make([]entryDecoder, len(doc.Races))
		for i := range doc.Races {
			node := &doc.Races[i]
			decoders[i] = func(r *rawEntry) error { return node.Decode(r) }
		}
	default:
		var doc struct {
			Races []json.RawMessage `json:"races"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc.Races == nil {
			return nil, errors.New("missing races list")
		}
		decoders = make([]entryDecoder, len(doc.Races))
		for i := range doc.Races {
			raw := doc.Races[i]
			decoders[i] = func(r *rawEntry) error { return json.Unmarshal(raw, r) }
		}
	}
	return &document{entries: decoders}, nil
}

// toEntry converts a raw document entry. Unknown session kinds are ignored;
// a bad timestamp or a missing grand prix session rejects the entry.
func (r rawEntry) toEntry() (models.CalendarEntry, error) {
	entry := models.CalendarEntry{
		Name:     strings.TrimSpace(r.Name),
		Location: strings.TrimSpace(r.Location),
		Sessions: make(map[models.SessionKind]*time.Time),
	}
	if r.Round == nil {
		return entry, errors.New("missing round")
	}
	entry.Round = *r.Round

	for name, raw := range r.Sessions {
		kind := models.SessionKind(name)
		if !kind.IsValid() {
			continue
		}
		if raw == nil || strings.TrimSpace(*raw) == "" {
			continue
		}
		ts, err := parseTimestamp(*raw)
		if err != nil {
			return entry, fmt.Errorf("session %s: %w", name, err)
		}
		entry.Sessions[kind] = &ts
	}

	if _, ok := entry.GrandPrixTime(); !ok {
		return entry, errors.New("missing gp session")
	}
	return entry, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}
