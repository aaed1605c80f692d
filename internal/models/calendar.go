package models

import (
	"time"
)

// SessionKind identifies a session within a grand prix weekend
type SessionKind string

// Session kinds as they appear in the schedule documents
const (
	SessionPractice1        SessionKind = "fp1"
	SessionPractice2        SessionKind = "fp2"
	SessionPractice3        SessionKind = "fp3"
	SessionQualifying       SessionKind = "qualifying"
	SessionSprint           SessionKind = "sprint"
	SessionSprintQualifying SessionKind = "sprintQualifying"
	SessionGrandPrix        SessionKind = "gp"
)

// SessionOrder is the canonical weekend order used when listing sessions
var SessionOrder = []SessionKind{
	SessionPractice1,
	SessionSprintQualifying,
	SessionPractice2,
	SessionSprint,
	SessionPractice3,
	SessionQualifying,
	SessionGrandPrix,
}

// IsValid reports whether the kind is one of the known session kinds
func (k SessionKind) IsValid() bool {
	for _, known := range SessionOrder {
		if k == known {
			return true
		}
	}
	return false
}

// CalendarEntry represents one round of a season calendar
type CalendarEntry struct {
	Round    int                        `json:"round" validate:"required,gt=0"`
	Name     string                     `json:"name" validate:"required"`
	Location string                     `json:"location"`
	Sessions map[SessionKind]*time.Time `json:"sessions"`
}

// GrandPrixTime returns the canonical timestamp of the entry
func (e *CalendarEntry) GrandPrixTime() (time.Time, bool) {
	if e.Sessions == nil {
		return time.Time{}, false
	}
	ts := e.Sessions[SessionGrandPrix]
	if ts == nil {
		return time.Time{}, false
	}
	return *ts, true
}

// Session is a single named session with its start time
type Session struct {
	Kind  SessionKind `json:"kind"`
	Start time.Time   `json:"start"`
}

// OrderedSessions returns the scheduled sessions in weekend order, skipping absent ones
func (e *CalendarEntry) OrderedSessions() []Session {
	sessions := make([]Session, 0, len(e.Sessions))
	for _, kind := range SessionOrder {
		if ts := e.Sessions[kind]; ts != nil {
			sessions = append(sessions, Session{Kind: kind, Start: *ts})
		}
	}
	return sessions
}

// Clone returns a deep copy so callers can never alias store state
func (e *CalendarEntry) Clone() CalendarEntry {
	out := CalendarEntry{
		Round:    e.Round,
		Name:     e.Name,
		Location: e.Location,
		Sessions: make(map[SessionKind]*time.Time, len(e.Sessions)),
	}
	for k, v := range e.Sessions {
		if v == nil {
			out.Sessions[k] = nil
			continue
		}
		ts := *v
		out.Sessions[k] = &ts
	}
	return out
}
