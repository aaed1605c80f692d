package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/schedule"
)

const (
	defaultTopDrivers     = 10
	defaultFinalDrivers   = 10
	defaultSeasonDrivers  = 5
	defaultHeatmapTeams   = 10
	defaultCircuitWinners = 10
	defaultNewsItems      = 20
)

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	if err := ensure(r.Context(), s.opts.DatasetLoader); err != nil {
		writeError(w, err)
		return
	}
	seasons, err := s.opts.Engine.Seasons(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seasons)
}

// handleDriverStandings serves the full series, or one season's top drivers when ?year= is set
func (s *Server) handleDriverStandings(w http.ResponseWriter, r *http.Request) {
	if err := ensure(r.Context(), s.opts.DatasetLoader); err != nil {
		writeError(w, err)
		return
	}

	year, err := intParam(r, "year", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	if year == 0 {
		rows, err := s.opts.Engine.DriverChampionship(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
		return
	}

	top, err := intParam(r, "top", defaultSeasonDrivers)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := s.opts.Engine.DriverChampionshipSeason(r.Context(), year, top)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleFinalStandings(w http.ResponseWriter, r *http.Request) {
	if err := ensure(r.Context(), s.opts.DatasetLoader); err != nil {
		writeError(w, err)
		return
	}

	rawYear := chi.URLParam(r, "year")
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		writeError(w, invalidArgument("year", rawYear))
		return
	}
	top, err := intParam(r, "top", defaultFinalDrivers)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := s.opts.Engine.FinalStandings(r.Context(), year, top)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleConstructorStandings(w http.ResponseWriter, r *http.Request) {
	if err := ensure(r.Context(), s.opts.DatasetLoader); err != nil {
		writeError(w, err)
		return
	}
	rows, err := s.opts.Engine.ConstructorChampionship(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleConstructorHeatmap(w http.ResponseWriter, r *http.Request) {
	if err := ensure(r.Context(), s.opts.DatasetLoader); err != nil {
		writeError(w, err)
		return
	}
	top, err := intParam(r, "top", defaultHeatmapTeams)
	if err != nil {
		writeError(w, err)
		return
	}
	heatmap, err := s.opts.Engine.ConstructorHeatmap(r.Context(), top)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, heatmap)
}

func (s *Server) handleCircuits(w http.ResponseWriter, r *http.Request) {
	if err := ensure(r.Context(), s.opts.DatasetLoader); err != nil {
		writeError(w, err)
		return
	}
	names, err := s.opts.Engine.CircuitNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleCircuit(w http.ResponseWriter, r *http.Request) {
	if err := ensure(r.Context(), s.opts.DatasetLoader); err != nil {
		writeError(w, err)
		return
	}

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, &argumentError{name: "name", msg: "is not a valid path segment"})
		return
	}
	top, err := intParam(r, "top", defaultCircuitWinners)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.opts.Engine.CircuitSummary(r.Context(), name, top)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTopDrivers(w http.ResponseWriter, r *http.Request) {
	if err := ensure(r.Context(), s.opts.DatasetLoader); err != nil {
		writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit", defaultTopDrivers)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := s.opts.Engine.TopDrivers(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// compareResponse adds the points leader to a head-to-head
type compareResponse struct {
	HeadToHead interface{} `json:"head_to_head"`
	Leader     string      `json:"leader"`
	Margin     string      `json:"margin"`
}

func (s *Server) handleCompareDrivers(w http.ResponseWriter, r *http.Request) {
	if err := ensure(r.Context(), s.opts.DatasetLoader); err != nil {
		writeError(w, err)
		return
	}

	a, err := requiredIntParam(r, "driver1")
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := requiredIntParam(r, "driver2")
	if err != nil {
		writeError(w, err)
		return
	}

	h, err := s.opts.Engine.CompareDrivers(r.Context(), a, b)
	if err != nil {
		writeError(w, err)
		return
	}
	leader, margin := h.Leader()
	writeJSON(w, http.StatusOK, compareResponse{HeadToHead: h, Leader: leader, Margin: margin.String()})
}

func (s *Server) classifier(r *http.Request) (*schedule.Classifier, error) {
	if s.opts.Schedule == nil {
		return nil, models.NewSourceError("schedule", models.ErrCodeSourceUnavailable, "not configured", nil)
	}
	if err := ensure(r.Context(), s.opts.ScheduleLoader); err != nil {
		return nil, err
	}
	return s.opts.Schedule.Classifier()
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	c, err := s.classifier(r)
	if err != nil {
		writeError(w, err)
		return
	}
	// ?all=true keeps past rounds
	if r.URL.Query().Get("all") == "true" {
		writeJSON(w, http.StatusOK, c.Classify(s.clock()))
		return
	}
	writeJSON(w, http.StatusOK, c.FormattedSchedule(s.clock()))
}

func (s *Server) handleNextRace(w http.ResponseWriter, r *http.Request) {
	c, err := s.classifier(r)
	if err != nil {
		writeError(w, err)
		return
	}
	next, ok := c.NextRace(s.clock())
	if !ok {
		writeError(w, errSeasonComplete)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	c, err := s.classifier(r)
	if err != nil {
		writeError(w, err)
		return
	}
	update, ok := countdownTo(c, s.clock())
	if !ok {
		writeError(w, errSeasonComplete)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.opts.News == nil {
		writeError(w, models.NewSourceError("news", models.ErrCodeSourceUnavailable, "no feeds configured", nil))
		return
	}
	if err := ensure(r.Context(), s.opts.NewsLoader); err != nil {
		writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit", defaultNewsItems)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := s.opts.News.Latest(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

var errSeasonComplete = &seasonCompleteError{}

type seasonCompleteError struct{}

func (e *seasonCompleteError) Error() string { return "season complete: no upcoming race" }
func (e *seasonCompleteError) Unwrap() error { return models.ErrNotFound }
