package quota

import (
	"time"
)

// dayLayout is the canonical encoding of a UTC calendar day.
const dayLayout = "2006-01-02"

// DayOf returns the UTC calendar day of t in canonical form.
func DayOf(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// NextMidnightUTC returns the instant the current UTC day (per t) ends.
func NextMidnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
}

// UsageRecord is the per-principal stored state.
//
// Count is only meaningful relative to Day: a record whose Day is not the
// current UTC day is logically equivalent to zero usage, whatever the stored
// integer says.
type UsageRecord struct {
	// Day is the UTC calendar day the count applies to ("YYYY-MM-DD").
	Day string `json:"day"`

	// Count is the number of recorded requests on Day.
	Count int64 `json:"count"`
}

// Snapshot reports a principal's standing against the daily limit.
type Snapshot struct {
	Limit     int64     `json:"limit"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}
