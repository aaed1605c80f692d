package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/yourusername/pitwall/internal/models"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, models.ErrInvalidQueryArgument):
		status, code = http.StatusBadRequest, models.ErrCodeInvalidArgument
	case errors.Is(err, models.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrStoreNotLoaded):
		status, code = http.StatusServiceUnavailable, "not_loaded"
	case errors.Is(err, models.ErrSourceUnavailable):
		status, code = http.StatusServiceUnavailable, models.ErrCodeSourceUnavailable
	case errors.Is(err, models.ErrSourceMalformed):
		status, code = http.StatusServiceUnavailable, models.ErrCodeSourceMalformed
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

// intParam reads an integer query parameter, falling back to def when absent
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidArgument(name, raw)
	}
	return v, nil
}

func requiredIntParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, &argumentError{name: name, msg: "is required"}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidArgument(name, raw)
	}
	return v, nil
}

type argumentError struct {
	name string
	msg  string
}

func (e *argumentError) Error() string {
	return "parameter " + e.name + " " + e.msg
}

func (e *argumentError) Unwrap() error {
	return models.ErrInvalidQueryArgument
}

func invalidArgument(name, raw string) error {
	return &argumentError{name: name, msg: "must be an integer, got " + strconv.Quote(raw)}
}
