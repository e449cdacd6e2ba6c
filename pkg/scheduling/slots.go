package scheduling

import (
	"database/sql/driver"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DefaultGranularity is the slot alignment in minutes.
const DefaultGranularity = 30

// TimeSlot is a half-open interval [Start, End) in minutes from midnight.
type TimeSlot struct {
	Start int
	End   int
}

// ParseTimeSlot reads a "HH:MM-HH:MM" label.
func ParseTimeSlot(raw string) (TimeSlot, error) {
	return parseTimeSlot(raw, ParseClock)
}

// ParseLegacyTimeSlot reads a label using ParseLegacyClock for both ends.
func ParseLegacyTimeSlot(raw string) (TimeSlot, error) {
	return parseTimeSlot(raw, ParseLegacyClock)
}

func parseTimeSlot(raw string, clock func(string) (int, error)) (TimeSlot, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "-", 2)
	if len(parts) != 2 {
		return TimeSlot{}, fmt.Errorf("invalid time slot %q", raw)
	}
	start, err := clock(parts[0])
	if err != nil {
		return TimeSlot{}, err
	}
	end, err := clock(parts[1])
	if err != nil {
		return TimeSlot{}, err
	}
	if start >= end {
		return TimeSlot{}, fmt.Errorf("time slot %q must start before it ends", raw)
	}
	return TimeSlot{Start: start, End: end}, nil
}

// Label renders the canonical "HH:MM-HH:MM" form.
func (t TimeSlot) Label() string {
	return FormatClock(t.Start) + "-" + FormatClock(t.End)
}

// String implements fmt.Stringer.
func (t TimeSlot) String() string {
	return t.Label()
}

// Duration returns the slot length in minutes.
func (t TimeSlot) Duration() int {
	return t.End - t.Start
}

// IsZero reports whether the slot is unset.
func (t TimeSlot) IsZero() bool {
	return t.Start == 0 && t.End == 0
}

// Aligned reports whether both ends fall on a granularity boundary.
func (t TimeSlot) Aligned(granularity int) bool {
	if granularity <= 0 {
		return true
	}
	return t.Start%granularity == 0 && t.End%granularity == 0
}

// MarshalText encodes the slot as its label.
func (t TimeSlot) MarshalText() ([]byte, error) {
	if t.IsZero() {
		return []byte{}, nil
	}
	return []byte(t.Label()), nil
}

// UnmarshalText decodes a label.
func (t *TimeSlot) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*t = TimeSlot{}
		return nil
	}
	parsed, err := ParseTimeSlot(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the slot as its label.
func (t TimeSlot) Value() (driver.Value, error) {
	return t.Label(), nil
}

// Scan reads a label column.
func (t *TimeSlot) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	case nil:
		*t = TimeSlot{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeSlot", src)
	}
}

// DayAvailability lists the free windows of a staff member per weekday.
type DayAvailability map[time.Weekday][]TimeSlot

// Validate checks ordering, alignment and overlap of every day's windows.
func (a DayAvailability) Validate(granularity int) error {
	for day, slots := range a {
		sorted := sortedSlots(slots)
		for i, slot := range sorted {
			if slot.Start >= slot.End {
				return fmt.Errorf("%s: slot %s is empty", WeekdayName(day), slot.Label())
			}
			if !slot.Aligned(granularity) {
				return fmt.Errorf("%s: slot %s is not aligned to %d minutes", WeekdayName(day), slot.Label(), granularity)
			}
			if i > 0 && sorted[i-1].End > slot.Start {
				return fmt.Errorf("%s: slots %s and %s overlap", WeekdayName(day), sorted[i-1].Label(), slot.Label())
			}
		}
	}
	return nil
}

// Days returns the set of weekdays with at least one window.
func (a DayAvailability) Days() WeekdaySet {
	var set WeekdaySet
	for day, slots := range a {
		if len(slots) > 0 {
			set = set.Add(day)
		}
	}
	return set
}

// SlotMerger combines adjacent availability windows into session-length slots.
type SlotMerger struct {
	granularity int
}

// NewSlotMerger builds a merger aligned to granularity minutes; non-positive values use DefaultGranularity.
func NewSlotMerger(granularity int) *SlotMerger {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	return &SlotMerger{granularity: granularity}
}

// Granularity returns the alignment in minutes.
func (m *SlotMerger) Granularity() int {
	return m.granularity
}

// GenerateOfferableSlots merges the windows of activeDays into slots lasting at least
// sessionLengthHours. Windows are combined only when strictly contiguous, and a span is
// offered only when it ends on a granularity boundary. Results are unique and ordered by
// start time; an empty result means the staff member cannot host the session.
func (m *SlotMerger) GenerateOfferableSlots(sessionLengthHours float64, availability DayAvailability, activeDays WeekdaySet) []TimeSlot {
	if !positive(sessionLengthHours) {
		return nil
	}
	required := int(math.Round(sessionLengthHours * 60))

	seen := make(map[TimeSlot]struct{})
	var pool []TimeSlot
	for _, day := range activeDays.Days() {
		for _, slot := range availability[day] {
			if _, ok := seen[slot]; ok {
				continue
			}
			seen[slot] = struct{}{}
			pool = append(pool, slot)
		}
	}
	pool = sortedSlots(pool)

	result := make([]TimeSlot, 0)
	offered := make(map[TimeSlot]struct{})
	for i := range pool {
		span := pool[i]
		for j := i; span.Duration() < required && j+1 < len(pool); j++ {
			next := pool[j+1]
			if next.Start != span.End {
				break
			}
			span.End = next.End
		}
		if span.Duration() < required || span.End%m.granularity != 0 {
			continue
		}
		if _, ok := offered[span]; ok {
			continue
		}
		offered[span] = struct{}{}
		result = append(result, span)
	}
	return result
}

// GenerateOfferableSlots runs a SlotMerger with DefaultGranularity.
func GenerateOfferableSlots(sessionLengthHours float64, availability DayAvailability, activeDays WeekdaySet) []TimeSlot {
	return NewSlotMerger(DefaultGranularity).GenerateOfferableSlots(sessionLengthHours, availability, activeDays)
}

// Labels renders slots as their labels.
func Labels(slots []TimeSlot) []string {
	labels := make([]string, len(slots))
	for i, slot := range slots {
		labels[i] = slot.Label()
	}
	return labels
}

// sortedSlots orders by start, then end, so the result does not depend on which weekday
// contributed a window first.
func sortedSlots(slots []TimeSlot) []TimeSlot {
	out := make([]TimeSlot, len(slots))
	copy(out, slots)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start == out[j].Start {
			return out[i].End < out[j].End
		}
		return out[i].Start < out[j].Start
	})
	return out
}
