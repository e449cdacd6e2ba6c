package models

import (
	"time"

	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

// WaitingStatus is the lifecycle state of a waiting-list entry.
type WaitingStatus string

const (
	WaitingStatusPending     WaitingStatus = "PENDING_APPROVAL"
	WaitingStatusApproved    WaitingStatus = "APPROVED"
	WaitingStatusDisapproved WaitingStatus = "DISAPPROVED"
)

// WaitingEntry is a student queued for a full batch.
type WaitingEntry struct {
	ID                 string               `db:"id" json:"id"`
	BatchID            string               `db:"batch_id" json:"batch_id"`
	StudentID          string               `db:"student_id" json:"student_id"`
	EnrollmentID       string               `db:"enrollment_id" json:"enrollment_id"`
	PreferredTimeSlot  scheduling.TimeSlot  `db:"preferred_time_slot" json:"preferred_time_slot"`
	PreferredFrequency scheduling.Frequency `db:"preferred_frequency" json:"preferred_frequency"`
	Reason             string               `db:"reason" json:"reason"`
	Status             WaitingStatus        `db:"status" json:"status"`
	QueuedAt           time.Time            `db:"queued_at" json:"queued_at"`
	ResolvedAt         *time.Time           `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy         *string              `db:"resolved_by" json:"resolved_by,omitempty"`
}

// WaitingListItem is a pending entry enriched for the admin review screen.
// VacantBatchID points at a non-full batch with the same course and slot, if one exists.
type WaitingListItem struct {
	WaitingEntry
	CourseID      string               `db:"course_id" json:"course_id"`
	CourseName    string               `db:"course_name" json:"course_name"`
	StaffID       string               `db:"staff_id" json:"staff_id"`
	StaffName     string               `db:"staff_name" json:"staff_name"`
	StudentName   string               `db:"student_name" json:"student_name"`
	BatchTimeSlot scheduling.TimeSlot  `db:"batch_time_slot" json:"batch_time_slot"`
	BatchFreq     scheduling.Frequency `db:"batch_frequency" json:"batch_frequency"`
	VacantBatchID *string              `db:"-" json:"vacant_batch_id,omitempty"`
}
