package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// Frequency describes on which weekdays the sessions of an enrollment take place.
type Frequency string

// Supported frequencies.
const (
	FrequencyDaily         Frequency = "DAILY"
	FrequencyAlternateDays Frequency = "ALTERNATE_DAYS"
	FrequencyWeekend       Frequency = "WEEKEND"
	FrequencyOnlySunday    Frequency = "ONLY_SUNDAY"
	FrequencyOnlySaturday  Frequency = "ONLY_SATURDAY"
)

var frequencyOrder = []Frequency{
	FrequencyDaily,
	FrequencyAlternateDays,
	FrequencyWeekend,
	FrequencyOnlySunday,
	FrequencyOnlySaturday,
}

var frequencyWeekdays = map[Frequency]WeekdaySet{
	FrequencyDaily:         NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday),
	FrequencyAlternateDays: NewWeekdaySet(time.Monday, time.Wednesday, time.Friday),
	FrequencyWeekend:       NewWeekdaySet(time.Saturday, time.Sunday),
	FrequencyOnlySunday:    NewWeekdaySet(time.Sunday),
	FrequencyOnlySaturday:  NewWeekdaySet(time.Saturday),
}

var frequencyLabels = map[Frequency]string{
	FrequencyDaily:         "Daily",
	FrequencyAlternateDays: "Alternate Days",
	FrequencyWeekend:       "Weekend",
	FrequencyOnlySunday:    "Only Sunday",
	FrequencyOnlySaturday:  "Only Saturday",
}

// keys are lower-cased with spaces, dashes and underscores removed
var frequencyAliases = map[string]Frequency{
	"daily":         FrequencyDaily,
	"alternatedays": FrequencyAlternateDays,
	"alternateday":  FrequencyAlternateDays,
	"weekend":       FrequencyWeekend,
	"weekends":      FrequencyWeekend,
	"onlysunday":    FrequencyOnlySunday,
	"sunday":        FrequencyOnlySunday,
	"onlysaturday":  FrequencyOnlySaturday,
	"saturday":      FrequencyOnlySaturday,
}

// ParseFrequency resolves a frequency from its canonical or display spelling, case-insensitive.
func ParseFrequency(raw string) (Frequency, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	f, ok := frequencyAliases[key]
	return f, ok
}

// Frequencies lists every supported frequency in display order.
func Frequencies() []Frequency {
	out := make([]Frequency, len(frequencyOrder))
	copy(out, frequencyOrder)
	return out
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	_, ok := frequencyWeekdays[f]
	return ok
}

// Weekdays returns the weekdays on which sessions of this frequency are held.
func (f Frequency) Weekdays() WeekdaySet {
	return frequencyWeekdays[f]
}

// Label returns the human readable name, e.g. "Alternate Days".
func (f Frequency) Label() string {
	if label, ok := frequencyLabels[f]; ok {
		return label
	}
	return string(f)
}

// UnmarshalText accepts any spelling understood by ParseFrequency. Empty input yields the zero value.
func (f *Frequency) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*f = ""
		return nil
	}
	parsed, ok := ParseFrequency(string(text))
	if !ok {
		return fmt.Errorf("unknown frequency %q", string(text))
	}
	*f = parsed
	return nil
}

// OfferableFrequencies returns the frequencies a student may pick for a staff member.
// The staff policy narrows the candidates and every result only uses working days.
func OfferableFrequencies(policy Frequency, workingDays WeekdaySet) []Frequency {
	var candidates []Frequency
	switch policy {
	case FrequencyAlternateDays:
		candidates = []Frequency{FrequencyAlternateDays}
	case FrequencyWeekend:
		candidates = []Frequency{FrequencyWeekend, FrequencyOnlySaturday, FrequencyOnlySunday}
	case FrequencyOnlySunday:
		candidates = []Frequency{FrequencyOnlySunday}
	case FrequencyOnlySaturday:
		candidates = []Frequency{FrequencyOnlySaturday}
	default:
		candidates = frequencyOrder
	}

	out := make([]Frequency, 0, len(candidates))
	for _, f := range candidates {
		if f.Weekdays().SubsetOf(workingDays) {
			out = append(out, f)
		}
	}
	return out
}
