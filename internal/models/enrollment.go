package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

// PaymentMode describes how an enrollment is being paid.
type PaymentMode string

const (
	PaymentModeFull        PaymentMode = "FULL"
	PaymentModeInstallment PaymentMode = "INSTALLMENT"
)

// Enrollment is a student's registration for a course with a chosen schedule.
// EndDate is derived from the other schedule fields and never set by clients.
type Enrollment struct {
	ID                 string               `db:"id" json:"id"`
	StudentID          string               `db:"student_id" json:"student_id"`
	CourseID           string               `db:"course_id" json:"course_id"`
	StaffID            string               `db:"staff_id" json:"staff_id"`
	CourseType         CourseType           `db:"course_type" json:"course_type"`
	ComboCourseIDs     pq.StringArray       `db:"combo_course_ids" json:"combo_course_ids,omitempty"`
	TotalDurationHours float64              `db:"total_duration_hours" json:"total_duration_hours"`
	SessionLengthHours float64              `db:"session_length_hours" json:"session_length_hours"`
	Frequency          scheduling.Frequency `db:"frequency" json:"frequency"`
	TimeSlot           scheduling.TimeSlot  `db:"time_slot" json:"time_slot"`
	StartDate          *time.Time           `db:"start_date" json:"start_date,omitempty"`
	BreakDates         pq.StringArray       `db:"break_dates" json:"break_dates"`
	EndDate            *time.Time           `db:"end_date" json:"end_date"`
	PaymentMode        PaymentMode          `db:"payment_mode" json:"payment_mode"`
	CreatedAt          time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time            `db:"updated_at" json:"updated_at"`
}

// BreakDateValues parses BreakDates, skipping malformed entries.
func (e *Enrollment) BreakDateValues() []time.Time {
	out := make([]time.Time, 0, len(e.BreakDates))
	for _, raw := range e.BreakDates {
		if d, err := scheduling.ParseDate(raw); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// EndDateInput maps the enrollment onto the end date calculator's input.
func (e *Enrollment) EndDateInput() scheduling.EndDateInput {
	in := scheduling.EndDateInput{
		TotalDurationHours: e.TotalDurationHours,
		SessionLengthHours: e.SessionLengthHours,
		Frequency:          e.Frequency,
		BreakDates:         e.BreakDateValues(),
	}
	if e.StartDate != nil {
		in.StartDate = *e.StartDate
	}
	return in
}
