package scheduling

import (
	"strings"
	"time"
)

// WeekdaySet is a bitmask of time.Weekday values.
type WeekdaySet uint8

// weekOrder lists weekdays Monday first, the order used for display and iteration.
var weekOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
}

// NewWeekdaySet builds a set from the provided weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var set WeekdaySet
	for _, day := range days {
		set = set.Add(day)
	}
	return set
}

// Add returns a copy of the set including day.
func (s WeekdaySet) Add(day time.Weekday) WeekdaySet {
	if day < time.Sunday || day > time.Saturday {
		return s
	}
	return s | 1<<uint(day)
}

// Has reports whether day belongs to the set.
func (s WeekdaySet) Has(day time.Weekday) bool {
	if day < time.Sunday || day > time.Saturday {
		return false
	}
	return s&(1<<uint(day)) != 0
}

// Intersect returns the weekdays present in both sets.
func (s WeekdaySet) Intersect(other WeekdaySet) WeekdaySet {
	return s & other
}

// SubsetOf reports whether every weekday of s is also in other.
func (s WeekdaySet) SubsetOf(other WeekdaySet) bool {
	return s&^other == 0
}

// Empty reports whether the set holds no weekday.
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Days returns the members ordered Monday to Sunday.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for _, day := range weekOrder {
		if s.Has(day) {
			days = append(days, day)
		}
	}
	return days
}

// Names returns lower-case weekday names ordered Monday to Sunday.
func (s WeekdaySet) Names() []string {
	days := s.Days()
	names := make([]string, len(days))
	for i, day := range days {
		names[i] = WeekdayName(day)
	}
	return names
}

// ParseWeekday accepts full or three-letter English weekday names, case-insensitive.
func ParseWeekday(raw string) (time.Weekday, bool) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(raw))]
	return day, ok
}

// ParseWeekdaySet parses a list of weekday names, skipping unknown entries.
func ParseWeekdaySet(names []string) WeekdaySet {
	var set WeekdaySet
	for _, name := range names {
		if day, ok := ParseWeekday(name); ok {
			set = set.Add(day)
		}
	}
	return set
}

// WeekdayName returns the lower-case English name of day.
func WeekdayName(day time.Weekday) string {
	return strings.ToLower(day.String())
}
