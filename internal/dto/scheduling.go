package dto

import "github.com/noah-isme/course-batch-api/pkg/scheduling"

// EndDateRequest carries the inputs of an end date projection. Missing values yield a null end date.
type EndDateRequest struct {
	TotalDurationHours float64              `json:"total_duration_hours" validate:"gte=0"`
	SessionLengthHours float64              `json:"session_length_hours" validate:"gte=0"`
	Frequency          scheduling.Frequency `json:"frequency"`
	StartDate          string               `json:"start_date"`
	BreakDates         []string             `json:"break_dates"`
}

// EndDateResponse returns the projected last session date as YYYY-MM-DD, or null when unset.
type EndDateResponse struct {
	EndDate  *string `json:"end_date"`
	Sessions int     `json:"sessions"`
}

// OfferableSlotsResponse lists merged slots a staff member can host.
type OfferableSlotsResponse struct {
	StaffID            string                `json:"staff_id"`
	SessionLengthHours float64               `json:"session_length_hours"`
	Frequency          scheduling.Frequency  `json:"frequency,omitempty"`
	ActiveDays         []string              `json:"active_days"`
	Slots              []scheduling.TimeSlot `json:"slots"`
}

// FrequencyOption is a selectable frequency with its display label.
type FrequencyOption struct {
	Value scheduling.Frequency `json:"value"`
	Label string               `json:"label"`
	Days  []string             `json:"days"`
}
