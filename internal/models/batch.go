package models

import (
	"strings"
	"time"

	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

// BatchKey identifies a batch by what it teaches, who teaches it and when.
type BatchKey struct {
	CourseID  string
	StaffID   string
	TimeSlot  scheduling.TimeSlot
	Frequency scheduling.Frequency
}

// String renders the key for lock names and logs.
func (k BatchKey) String() string {
	return strings.Join([]string{k.CourseID, k.StaffID, k.TimeSlot.Label(), string(k.Frequency)}, "|")
}

// BatchStudent is a seat taken in a batch.
type BatchStudent struct {
	StudentID    string    `db:"student_id" json:"student_id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	JoinedAt     time.Time `db:"joined_at" json:"joined_at"`
}

// Batch is a group of students sharing a course, staff member, slot and frequency.
// Students and WaitingList are loaded alongside the row; WaitingList holds pending
// entries only, oldest first.
type Batch struct {
	ID          string               `db:"id" json:"id"`
	CourseID    string               `db:"course_id" json:"course_id"`
	StaffID     string               `db:"staff_id" json:"staff_id"`
	TimeSlot    scheduling.TimeSlot  `db:"time_slot" json:"time_slot"`
	Frequency   scheduling.Frequency `db:"frequency" json:"frequency"`
	MaxStudents int                  `db:"max_students" json:"max_students"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`

	Students    []BatchStudent `db:"-" json:"students"`
	WaitingList []WaitingEntry `db:"-" json:"waiting_list"`

	// Resolved and Completed carry changes made since load; Save persists and clears them.
	Resolved  []WaitingEntry `db:"-" json:"-"`
	Completed []Completion   `db:"-" json:"-"`
}

// Key returns the batch's identifying key.
func (b *Batch) Key() BatchKey {
	return BatchKey{CourseID: b.CourseID, StaffID: b.StaffID, TimeSlot: b.TimeSlot, Frequency: b.Frequency}
}

// Full reports whether every seat is taken.
func (b *Batch) Full() bool {
	return len(b.Students) >= b.MaxStudents
}

// Vacancies returns the number of free seats.
func (b *Batch) Vacancies() int {
	if n := b.MaxStudents - len(b.Students); n > 0 {
		return n
	}
	return 0
}

// StudentIndex returns the position of studentID in Students or -1.
func (b *Batch) StudentIndex(studentID string) int {
	for i, s := range b.Students {
		if s.StudentID == studentID {
			return i
		}
	}
	return -1
}

// PendingIndex returns the position of studentID's pending entry or -1.
func (b *Batch) PendingIndex(studentID string) int {
	for i, e := range b.WaitingList {
		if e.StudentID == studentID && e.Status == WaitingStatusPending {
			return i
		}
	}
	return -1
}

// BatchSummary is a list row with occupancy counters.
type BatchSummary struct {
	ID           string               `db:"id" json:"id"`
	CourseID     string               `db:"course_id" json:"course_id"`
	CourseName   string               `db:"course_name" json:"course_name"`
	StaffID      string               `db:"staff_id" json:"staff_id"`
	StaffName    string               `db:"staff_name" json:"staff_name"`
	TimeSlot     scheduling.TimeSlot  `db:"time_slot" json:"time_slot"`
	Frequency    scheduling.Frequency `db:"frequency" json:"frequency"`
	MaxStudents  int                  `db:"max_students" json:"max_students"`
	StudentCount int                  `db:"student_count" json:"student_count"`
	WaitingCount int                  `db:"waiting_count" json:"waiting_count"`
}

// Vacancies returns the number of free seats.
func (s BatchSummary) Vacancies() int {
	if n := s.MaxStudents - s.StudentCount; n > 0 {
		return n
	}
	return 0
}

// DelayedStudent is a seat whose enrollment end date has already passed.
type DelayedStudent struct {
	BatchID     string               `db:"batch_id" json:"batch_id"`
	CourseID    string               `db:"course_id" json:"course_id"`
	CourseName  string               `db:"course_name" json:"course_name"`
	StaffID     string               `db:"staff_id" json:"staff_id"`
	StaffName   string               `db:"staff_name" json:"staff_name"`
	TimeSlot    scheduling.TimeSlot  `db:"time_slot" json:"time_slot"`
	Frequency   scheduling.Frequency `db:"frequency" json:"frequency"`
	StudentID   string               `db:"student_id" json:"student_id"`
	StudentName string               `db:"student_name" json:"student_name"`
	EndDate     time.Time            `db:"end_date" json:"end_date"`
}

// BatchFilter narrows batch list queries. Empty fields match everything.
type BatchFilter struct {
	CourseID  string
	StaffID   string
	Frequency scheduling.Frequency
}
