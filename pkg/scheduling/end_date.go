package scheduling

import (
	"math"
	"time"
)

// ceilTolerance absorbs floating point noise such as 1.1/0.1 = 11.000000000000002.
const ceilTolerance = 1e-9

// EndDateInput carries everything needed to project an enrollment's last session.
type EndDateInput struct {
	TotalDurationHours float64
	SessionLengthHours float64
	Frequency          Frequency
	StartDate          time.Time
	BreakDates         []time.Time
}

// SessionCount returns how many sessions of sessionLength cover total hours.
func SessionCount(totalHours, sessionLengthHours float64) int {
	if !positive(totalHours) || !positive(sessionLengthHours) {
		return 0
	}
	return int(math.Ceil(totalHours/sessionLengthHours - ceilTolerance))
}

// ComputeEndDate projects the date of the last session. The boolean is false when any
// required input is missing or non-positive; partial input is never computed.
func ComputeEndDate(in EndDateInput) (time.Time, bool) {
	if !positive(in.TotalDurationHours) || !positive(in.SessionLengthHours) {
		return time.Time{}, false
	}
	if !in.Frequency.Valid() || in.StartDate.IsZero() {
		return time.Time{}, false
	}

	sessions := SessionCount(in.TotalDurationHours, in.SessionLengthHours)
	end := CountSessions(in.StartDate, in.Frequency.Weekdays(), NewDateSet(in.BreakDates...), sessions)
	if end.IsZero() {
		return time.Time{}, false
	}
	return end, true
}

func positive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
