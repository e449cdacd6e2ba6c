package dto

import "github.com/noah-isme/course-batch-api/pkg/scheduling"

// AssignBatchRequest asks to seat a student in the batch for course, staff, slot and frequency.
type AssignBatchRequest struct {
	StudentID          string               `json:"student_id" validate:"required"`
	EnrollmentID       string               `json:"enrollment_id" validate:"required"`
	CourseID           string               `json:"course_id" validate:"required"`
	StaffID            string               `json:"staff_id" validate:"required"`
	TimeSlot           scheduling.TimeSlot  `json:"time_slot"`
	Frequency          scheduling.Frequency `json:"frequency" validate:"required"`
	SessionLengthHours float64              `json:"session_length_hours" validate:"gte=0"`
}

// BatchListQuery filters batch list endpoints.
type BatchListQuery struct {
	CourseID  string `form:"course_id"`
	StaffID   string `form:"staff_id"`
	Frequency string `form:"frequency"`
}

// CompletionReportQuery filters the staff completion report.
type CompletionReportQuery struct {
	StaffID string `form:"staff_id"`
	From    string `form:"from" validate:"omitempty,datetime=2006-01"`
	To      string `form:"to" validate:"omitempty,datetime=2006-01"`
	Format  string `form:"format" validate:"omitempty,oneof=json csv pdf"`
}

// WaitingDecisionRequest optionally explains an approve or disapprove decision.
type WaitingDecisionRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
