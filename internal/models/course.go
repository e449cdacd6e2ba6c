package models

import "time"

// CourseType distinguishes single-course enrollments from bundles.
type CourseType string

const (
	CourseTypeIndividual CourseType = "INDIVIDUAL"
	CourseTypeCombo      CourseType = "COMBO"
)

// MaxComboCourses caps how many courses a combo enrollment may bundle.
const MaxComboCourses = 10

// Course is a catalogue entry taught in batches.
type Course struct {
	ID                  string     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	CourseType          CourseType `db:"course_type" json:"course_type"`
	DurationHours       float64    `db:"duration_hours" json:"duration_hours"`
	MaxStudentsPerBatch int        `db:"max_students_per_batch" json:"max_students_per_batch"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}
