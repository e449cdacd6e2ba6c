package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

// Staff is an instructor who runs batches.
//
// Availability is stored as a JSON object keyed by lower-case weekday name, each
// holding a list of "HH:MM-HH:MM" windows.
type Staff struct {
	ID              string               `db:"id" json:"id"`
	Name            string               `db:"name" json:"name"`
	Email           string               `db:"email" json:"email"`
	WorkingDays     pq.StringArray       `db:"working_days" json:"working_days"`
	Availability    types.JSONText       `db:"availability" json:"availability"`
	FrequencyPolicy scheduling.Frequency `db:"frequency_policy" json:"frequency_policy,omitempty"`
	MaxHoursPerDay  int                  `db:"max_hours_per_day" json:"max_hours_per_day"`
	CourseIDs       pq.StringArray       `db:"course_ids" json:"course_ids"`
	CreatedAt       time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time            `db:"updated_at" json:"updated_at"`
}

// WorkingDaySet parses WorkingDays, ignoring unknown names.
func (s *Staff) WorkingDaySet() scheduling.WeekdaySet {
	return scheduling.ParseWeekdaySet(s.WorkingDays)
}

// Teaches reports whether the staff member is assigned to courseID.
func (s *Staff) Teaches(courseID string) bool {
	for _, id := range s.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}
