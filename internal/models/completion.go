package models

import "time"

// Completion records a student finishing a batch.
type Completion struct {
	ID          string    `db:"id" json:"id"`
	BatchID     string    `db:"batch_id" json:"batch_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	StaffID     string    `db:"staff_id" json:"staff_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
	CompletedBy string    `db:"completed_by" json:"completed_by"`
}

// StaffCompletionRow counts completions for one staff member in one month.
type StaffCompletionRow struct {
	StaffID   string `db:"staff_id" json:"staff_id"`
	StaffName string `db:"staff_name" json:"staff_name"`
	Month     string `db:"month" json:"month"`
	Completed int    `db:"completed" json:"completed"`
}

// CompletionFilter bounds the completion report by month (inclusive, YYYY-MM).
type CompletionFilter struct {
	StaffID   string
	FromMonth string
	ToMonth   string
}
