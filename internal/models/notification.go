package models

import "github.com/noah-isme/course-batch-api/pkg/scheduling"

// NotificationKind names the waiting-list transition a student is told about.
type NotificationKind string

const (
	NotificationWaitlisted  NotificationKind = "WAITLISTED"
	NotificationApproved    NotificationKind = "APPROVED"
	NotificationDisapproved NotificationKind = "DISAPPROVED"
)

// NotificationEvent is queued for delivery after a batch decision has been saved.
type NotificationEvent struct {
	Kind      NotificationKind     `json:"kind"`
	StudentID string               `json:"student_id"`
	BatchID   string               `json:"batch_id"`
	CourseID  string               `json:"course_id"`
	TimeSlot  scheduling.TimeSlot  `json:"time_slot"`
	Frequency scheduling.Frequency `json:"frequency"`
	Reason    string               `json:"reason,omitempty"`
}
