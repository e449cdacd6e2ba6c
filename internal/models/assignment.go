package models

import "github.com/noah-isme/course-batch-api/pkg/scheduling"

// AssignmentOutcome reports where an assignment attempt placed the student.
type AssignmentOutcome string

const (
	OutcomeAssigned   AssignmentOutcome = "ASSIGNED"
	OutcomeWaitlisted AssignmentOutcome = "WAITLISTED"
)

// SlotSuggestion is an alternative slot offered to a waitlisted student.
// BatchID is empty when no batch exists yet for the slot.
type SlotSuggestion struct {
	TimeSlot  scheduling.TimeSlot  `json:"time_slot"`
	Frequency scheduling.Frequency `json:"frequency"`
	BatchID   string               `json:"batch_id,omitempty"`
	Vacancies int                  `json:"vacancies"`
}

// AssignmentResult is the outcome of placing a student.
type AssignmentResult struct {
	Outcome     AssignmentOutcome `json:"outcome"`
	Batch       *Batch            `json:"batch"`
	Entry       *WaitingEntry     `json:"entry,omitempty"`
	Suggestions []SlotSuggestion  `json:"suggestions,omitempty"`
	Reason      string            `json:"reason,omitempty"`
}
