package schedule

import (
	"sort"
	"time"

	"github.com/yourusername/pitwall/internal/models"
)

// Status is the temporal state of a calendar entry relative to an instant
type Status string

// Entry statuses
const (
	StatusPast     Status = "past"
	StatusNext     Status = "next"
	StatusUpcoming Status = "upcoming"
)

// Date and time layouts of formatted entries
const (
	DateLayout = "January 02, 2006"
	TimeLayout = "15:04"
)

// countryCodes maps calendar names to ISO country codes
var countryCodes = map[string]string{
	"Australian":     "AUS",
	"Chinese":        "CHN",
	"Japanese":       "JPN",
	"Bahrain":        "BHR",
	"Saudi Arabian":  "SAU",
	"Miami":          "USA",
	"Emilia Romagna": "ITA",
	"Monaco":         "MCO",
	"Spanish":        "ESP",
	"Canadian":       "CAN",
	"Austrian":       "AUT",
	"British":        "GBR",
	"Belgian":        "BEL",
	"Hungarian":      "HUN",
	"Dutch":          "NLD",
	"Italian":        "ITA",
	"Azerbaijan":     "AZE",
	"Singapore":      "SGP",
	"United States":  "USA",
	"Mexican":        "MEX",
	"Brazilian":      "BRA",
	"Las Vegas":      "USA",
	"Qatar":          "QAT",
	"Abu Dhabi":      "UAE",
}

// DefaultCountryCode is used for names without a known country
const DefaultCountryCode = "F1"

// CountryCode returns the country code for a calendar name
func CountryCode(name string) string {
	if code, ok := countryCodes[name]; ok {
		return code
	}
	return DefaultCountryCode
}

// FormattedEntry is a calendar entry prepared for presentation
type FormattedEntry struct {
	Round       int              `json:"round"`
	Name        string           `json:"name"`
	RaceName    string           `json:"race_name"`
	CountryCode string           `json:"country_code"`
	Location    string           `json:"location"`
	GrandPrix   time.Time        `json:"date"`
	DateStr     string           `json:"date_str"`
	TimeStr     string           `json:"time_str"`
	Status      Status           `json:"status"`
	IsNext      bool             `json:"is_next"`
	Sessions    []models.Session `json:"sessions"`
}

// Classifier evaluates a calendar against a supplied instant. It keeps no
// temporal state, so every call reflects the instant it is given.
type Classifier struct {
	entries []models.CalendarEntry
}

// NewClassifier creates a classifier. Entries without a grand prix session are ignored.
func NewClassifier(entries []models.CalendarEntry) *Classifier {
	kept := make([]models.CalendarEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := e.GrandPrixTime(); ok {
			kept = append(kept, e.Clone())
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, _ := kept[i].GrandPrixTime()
		b, _ := kept[j].GrandPrixTime()
		return a.Before(b)
	})
	return &Classifier{entries: kept}
}

// Len returns the number of classifiable entries
func (c *Classifier) Len() int {
	return len(c.entries)
}

// Classify returns every entry formatted with its status at now, ascending by grand prix time
func (c *Classifier) Classify(now time.Time) []FormattedEntry {
	out := make([]FormattedEntry, 0, len(c.entries))
	nextSeen := false
	for i := range c.entries {
		entry := &c.entries[i]
		gp, _ := entry.GrandPrixTime()

		status := StatusUpcoming
		switch {
		case gp.Before(now):
			status = StatusPast
		case !nextSeen:
			status = StatusNext
			nextSeen = true
		}
		out = append(out, format(entry, gp, status))
	}
	return out
}

// FormattedSchedule returns the next and upcoming entries at now. Past entries are omitted.
func (c *Classifier) FormattedSchedule(now time.Time) []FormattedEntry {
	all := c.Classify(now)
	out := make([]FormattedEntry, 0, len(all))
	for _, e := range all {
		if e.Status != StatusPast {
			out = append(out, e)
		}
	}
	return out
}

// NextRace returns the entry in state next, or false when the season is complete
func (c *Classifier) NextRace(now time.Time) (FormattedEntry, bool) {
	for _, e := range c.Classify(now) {
		if e.Status == StatusNext {
			return e, true
		}
	}
	return FormattedEntry{}, false
}

func format(entry *models.CalendarEntry, gp time.Time, status Status) FormattedEntry {
	return FormattedEntry{
		Round:       entry.Round,
		Name:        entry.Name,
		RaceName:    entry.Name + " Grand Prix",
		CountryCode: CountryCode(entry.Name),
		Location:    entry.Location,
		GrandPrix:   gp,
		DateStr:     gp.Format(DateLayout),
		TimeStr:     gp.Format(TimeLayout),
		Status:      status,
		IsNext:      status == StatusNext,
		Sessions:    entry.OrderedSessions(),
	}
}
