package models

import "errors"

// Error taxonomy shared by the stores and the aggregation engine
var (
	ErrSourceUnavailable    = errors.New("source unavailable")
	ErrSourceMalformed      = errors.New("source malformed")
	ErrReferentialGap       = errors.New("referential gap")
	ErrInvalidQueryArgument = errors.New("invalid query argument")
	ErrStoreNotLoaded       = errors.New("store not loaded")
	ErrNotFound             = errors.New("record not found")
)

// Source error codes
const (
	ErrCodeSourceUnavailable = "source_unavailable"
	ErrCodeSourceMalformed   = "source_malformed"
	ErrCodeReferentialGap    = "referential_gap"
	ErrCodeInvalidArgument   = "invalid_query_argument"
)

// SourceError describes a failure reading or parsing an external source
type SourceError struct {
	Source  string // table, document or feed name
	Code    string // one of the ErrCode constants
	Message string
	Err     error // underlying error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error
func (e SourceError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the error code
func (e SourceError) Is(target error) bool {
	switch e.Code {
	case ErrCodeSourceUnavailable:
		return target == ErrSourceUnavailable
	case ErrCodeSourceMalformed:
		return target == ErrSourceMalformed
	case ErrCodeReferentialGap:
		return target == ErrReferentialGap
	case ErrCodeInvalidArgument:
		return target == ErrInvalidQueryArgument
	}
	return false
}

// NewSourceError creates a new source error
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
