package models

import (
	"github.com/shopspring/decimal"
)

// Result represents one driver's classification in one race
type Result struct {
	ResultID      int             `json:"result_id"`
	RaceID        int             `json:"race_id" validate:"required"`
	DriverID      int             `json:"driver_id" validate:"required"`
	ConstructorID int             `json:"constructor_id" validate:"required"`
	PositionOrder *int            `json:"position_order"` // nil when not classified
	Points        decimal.Decimal `json:"points"`
}

// IsClassified reports whether the result carries a numeric finishing position
func (r *Result) IsClassified() bool {
	return r.PositionOrder != nil
}

// IsWin reports whether the result is a classified first place
func (r *Result) IsWin() bool {
	return r.PositionOrder != nil && *r.PositionOrder == 1
}

// IsPodium reports whether the result is a classified top-three finish
func (r *Result) IsPodium() bool {
	return r.PositionOrder != nil && *r.PositionOrder >= 1 && *r.PositionOrder <= 3
}

// Qualifying represents a qualifying session classification
type Qualifying struct {
	QualifyID     int     `json:"qualify_id"`
	RaceID        int     `json:"race_id" validate:"required"`
	DriverID      int     `json:"driver_id" validate:"required"`
	ConstructorID int     `json:"constructor_id"`
	Position      *int    `json:"position"`
	Q1            *string `json:"q1,omitempty"`
	Q2            *string `json:"q2,omitempty"`
	Q3            *string `json:"q3,omitempty"`
}

// Clone returns a copy that shares no pointers with q
func (q Qualifying) Clone() Qualifying {
	if q.Position != nil {
		pos := *q.Position
		q.Position = &pos
	}
	q.Q1 = cloneString(q.Q1)
	q.Q2 = cloneString(q.Q2)
	q.Q3 = cloneString(q.Q3)
	return q
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
