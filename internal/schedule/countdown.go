package schedule

import (
	"time"
)

// Countdown is the time remaining until a target instant
type Countdown struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
	Expired bool  `json:"expired"`
}

// CalculateCountdown decomposes target - now into days, hours, minutes and
// whole seconds. A target in the past yields a zero countdown marked expired.
func CalculateCountdown(target, now time.Time) Countdown {
	delta := target.Sub(now)
	if delta < 0 {
		return Countdown{Expired: true}
	}

	total := int64(delta / time.Second)
	return Countdown{
		Days:    total / 86400,
		Hours:   total % 86400 / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

// Duration returns the countdown as a duration
func (c Countdown) Duration() time.Duration {
	return time.Duration(c.Days)*24*time.Hour +
		time.Duration(c.Hours)*time.Hour +
		time.Duration(c.Minutes)*time.Minute +
		time.Duration(c.Seconds)*time.Second
}
