package scheduling

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DateSet holds calendar dates, ignoring time of day.
type DateSet map[string]struct{}

// NewDateSet builds a set from the provided dates.
func NewDateSet(dates ...time.Time) DateSet {
	set := make(DateSet, len(dates))
	for _, d := range dates {
		set.Add(d)
	}
	return set
}

// Add inserts the calendar date of t.
func (s DateSet) Add(t time.Time) {
	if t.IsZero() {
		return
	}
	s[DateKey(t)] = struct{}{}
}

// Has reports whether the calendar date of t is in the set.
func (s DateSet) Has(t time.Time) bool {
	_, ok := s[DateKey(t)]
	return ok
}

// DateKey formats the calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// DateOf strips the time of day, keeping the calendar date of t in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads YYYY-MM-DD or an RFC 3339 timestamp and returns its calendar date.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return DateOf(t), nil
}

// CountSessions walks forward from start one calendar day at a time and returns the
// day on which the target-th session falls. A day holds a session when its weekday is
// allowed and it is not a break date. A zero target yields the day before start; an
// empty allowed set with a positive target yields the zero time.
func CountSessions(start time.Time, allowed WeekdaySet, breaks DateSet, target int) time.Time {
	current := DateOf(start)
	if target > 0 && allowed.Empty() {
		return time.Time{}
	}
	for count := 0; count < target; current = current.AddDate(0, 0, 1) {
		if allowed.Has(current.Weekday()) && !breaks.Has(current) {
			count++
		}
	}
	return current.AddDate(0, 0, -1)
}
