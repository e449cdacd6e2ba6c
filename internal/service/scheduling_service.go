package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-batch-api/internal/dto"
	"github.com/noah-isme/course-batch-api/internal/models"
	appErrors "github.com/noah-isme/course-batch-api/pkg/errors"
	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

type staffReader interface {
	FindByID(ctx context.Context, id string) (*models.Staff, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

type enrollmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	UpdateSchedule(ctx context.Context, id string, totalDurationHours float64, endDate *time.Time) error
}

// SchedulingOptions tunes slot generation.
type SchedulingOptions struct {
	SlotGranularity      int
	LegacyClock          bool
	AvailabilityCacheTTL time.Duration
}

// SchedulingService exposes end date projection and slot offering for staff members.
type SchedulingService struct {
	staff       staffReader
	courses     courseReader
	enrollments enrollmentStore
	cache       *CacheService
	merger      *scheduling.SlotMerger
	opts        SchedulingOptions
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSchedulingService constructs SchedulingService.
func NewSchedulingService(staff staffReader, courses courseReader, enrollments enrollmentStore, cache *CacheService, opts SchedulingOptions, validate *validator.Validate, logger *zap.Logger) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulingService{
		staff:       staff,
		courses:     courses,
		enrollments: enrollments,
		cache:       cache,
		merger:      scheduling.NewSlotMerger(opts.SlotGranularity),
		opts:        opts,
		validator:   validate,
		logger:      logger,
	}
}

// EndDate projects the last session date for an ad-hoc request. Incomplete input is not an
// error; the response simply carries a null end date.
func (s *SchedulingService) EndDate(ctx context.Context, req dto.EndDateRequest) (*dto.EndDateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, err.Error())
	}

	in := scheduling.EndDateInput{
		TotalDurationHours: req.TotalDurationHours,
		SessionLengthHours: req.SessionLengthHours,
		Frequency:          req.Frequency,
	}
	if req.StartDate != "" {
		start, err := scheduling.ParseDate(req.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidInput, "start_date must be YYYY-MM-DD")
		}
		in.StartDate = start
	}
	for _, raw := range req.BreakDates {
		d, err := scheduling.ParseDate(raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("break date %q must be YYYY-MM-DD", raw))
		}
		in.BreakDates = append(in.BreakDates, d)
	}

	resp := &dto.EndDateResponse{}
	end, ok := scheduling.ComputeEndDate(in)
	if !ok {
		return resp, nil
	}
	label := scheduling.DateKey(end)
	resp.EndDate = &label
	resp.Sessions = scheduling.SessionCount(in.TotalDurationHours, in.SessionLengthHours)
	return resp, nil
}

// RecomputeEnrollmentEndDate derives the total duration and end date of a stored enrollment
// and persists both. Combo enrollments sum the durations of their component courses.
func (s *SchedulingService) RecomputeEnrollmentEndDate(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	total, err := s.totalDuration(ctx, enrollment)
	if err != nil {
		return nil, err
	}
	enrollment.TotalDurationHours = total

	var endDate *time.Time
	if end, ok := scheduling.ComputeEndDate(enrollment.EndDateInput()); ok {
		endDate = &end
	}
	if err := s.enrollments.UpdateSchedule(ctx, enrollment.ID, total, endDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store enrollment end date")
	}
	enrollment.EndDate = endDate
	return enrollment, nil
}

func (s *SchedulingService) totalDuration(ctx context.Context, enrollment *models.Enrollment) (float64, error) {
	if enrollment.CourseType == models.CourseTypeCombo {
		if len(enrollment.ComboCourseIDs) == 0 || len(enrollment.ComboCourseIDs) > models.MaxComboCourses {
			return 0, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("combo enrollments bundle between 1 and %d courses", models.MaxComboCourses))
		}
		courses, err := s.courses.FindByIDs(ctx, enrollment.ComboCourseIDs)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load combo courses")
		}
		if len(courses) != len(uniqueStrings(enrollment.ComboCourseIDs)) {
			return 0, appErrors.Clone(appErrors.ErrInvalidInput, "combo enrollment references unknown courses")
		}
		var total float64
		for _, course := range courses {
			total += course.DurationHours
		}
		return total, nil
	}

	if enrollment.TotalDurationHours > 0 {
		return enrollment.TotalDurationHours, nil
	}
	course, err := s.courses.FindByID(ctx, enrollment.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course.DurationHours, nil
}

// OfferableSlots merges the staff member's availability on the days the frequency meets.
// An empty frequency considers every working day.
func (s *SchedulingService) OfferableSlots(ctx context.Context, staffID string, sessionLengthHours float64, frequency scheduling.Frequency) ([]scheduling.TimeSlot, error) {
	slots, _, err := s.offerable(ctx, staffID, sessionLengthHours, frequency)
	return slots, err
}

// OfferableSlotsResponse wraps OfferableSlots with the weekdays used to compute it.
func (s *SchedulingService) OfferableSlotsResponse(ctx context.Context, staffID string, sessionLengthHours float64, frequency scheduling.Frequency) (*dto.OfferableSlotsResponse, error) {
	slots, days, err := s.offerable(ctx, staffID, sessionLengthHours, frequency)
	if err != nil {
		return nil, err
	}
	return &dto.OfferableSlotsResponse{
		StaffID:            staffID,
		SessionLengthHours: sessionLengthHours,
		Frequency:          frequency,
		ActiveDays:         days.Names(),
		Slots:              slots,
	}, nil
}

func (s *SchedulingService) offerable(ctx context.Context, staffID string, sessionLengthHours float64, frequency scheduling.Frequency) ([]scheduling.TimeSlot, scheduling.WeekdaySet, error) {
	if sessionLengthHours <= 0 {
		return nil, 0, appErrors.Clone(appErrors.ErrInvalidInput, "session_length must be positive")
	}
	staff, err := s.loadStaff(ctx, staffID)
	if err != nil {
		return nil, 0, err
	}
	if staff.MaxHoursPerDay > 0 && sessionLengthHours > float64(staff.MaxHoursPerDay) {
		return nil, 0, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("session length exceeds the staff limit of %d hours per day", staff.MaxHoursPerDay))
	}

	availability, err := s.availability(ctx, staff)
	if err != nil {
		return nil, 0, err
	}
	activeDays, err := s.activeDays(staff, availability, frequency)
	if err != nil {
		return nil, 0, err
	}

	slots := s.merger.GenerateOfferableSlots(sessionLengthHours, availability, activeDays)
	if len(slots) == 0 {
		return nil, activeDays, appErrors.ErrNoOfferableSlot
	}
	return slots, activeDays, nil
}

// FrequencyOptions lists the frequencies a student may choose for the staff member.
func (s *SchedulingService) FrequencyOptions(ctx context.Context, staffID string) ([]dto.FrequencyOption, error) {
	staff, err := s.loadStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	working := s.workingDays(ctx, staff)
	frequencies := scheduling.OfferableFrequencies(staff.FrequencyPolicy, working)
	options := make([]dto.FrequencyOption, 0, len(frequencies))
	for _, f := range frequencies {
		options = append(options, dto.FrequencyOption{Value: f, Label: f.Label(), Days: f.Weekdays().Names()})
	}
	return options, nil
}

// SessionLengthOptions lists whole-hour session lengths from 1 to the staff member's daily cap.
func (s *SchedulingService) SessionLengthOptions(ctx context.Context, staffID string) ([]int, error) {
	staff, err := s.loadStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	options := make([]int, 0, staff.MaxHoursPerDay)
	for h := 1; h <= staff.MaxHoursPerDay; h++ {
		options = append(options, h)
	}
	return options, nil
}

func (s *SchedulingService) loadStaff(ctx context.Context, staffID string) (*models.Staff, error) {
	staff, err := s.staff.FindByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	return staff, nil
}

func (s *SchedulingService) workingDays(ctx context.Context, staff *models.Staff) scheduling.WeekdaySet {
	if days := staff.WorkingDaySet(); !days.Empty() {
		return days
	}
	availability, err := s.availability(ctx, staff)
	if err != nil {
		return 0
	}
	return availability.Days()
}

func (s *SchedulingService) activeDays(staff *models.Staff, availability scheduling.DayAvailability, frequency scheduling.Frequency) (scheduling.WeekdaySet, error) {
	working := staff.WorkingDaySet()
	if working.Empty() {
		working = availability.Days()
	}
	if frequency == "" {
		return working, nil
	}
	if !frequency.Valid() {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, "unknown frequency")
	}
	if !containsFrequency(scheduling.OfferableFrequencies(staff.FrequencyPolicy, working), frequency) {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("%s is not offered by this staff member", frequency.Label()))
	}
	return working.Intersect(frequency.Weekdays()), nil
}

func availabilityCacheKey(staffID string) string {
	return "staff:availability:" + staffID
}

// availability decodes the staff member's windows, consulting the cache first. Cached
// entries hold canonical labels so the legacy clock applies only to stored data.
func (s *SchedulingService) availability(ctx context.Context, staff *models.Staff) (scheduling.DayAvailability, error) {
	key := availabilityCacheKey(staff.ID)
	var cached map[string][]string
	if s.cache.Get(ctx, key, &cached) {
		if parsed, err := decodeAvailability(cached, scheduling.ParseTimeSlot); err == nil {
			return parsed, nil
		}
		s.cache.Invalidate(ctx, key)
	}

	raw := map[string][]string{}
	if len(staff.Availability) > 0 {
		if err := json.Unmarshal(staff.Availability, &raw); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, "staff availability is malformed")
		}
	}
	parse := scheduling.ParseTimeSlot
	if s.opts.LegacyClock {
		parse = scheduling.ParseLegacyTimeSlot
	}
	availability, err := decodeAvailability(raw, parse)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, "staff availability is malformed")
	}
	if err := availability.Validate(s.merger.Granularity()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, "staff availability is malformed")
	}

	s.cache.Set(ctx, key, encodeAvailability(availability), s.opts.AvailabilityCacheTTL)
	return availability, nil
}

func decodeAvailability(raw map[string][]string, parse func(string) (scheduling.TimeSlot, error)) (scheduling.DayAvailability, error) {
	out := make(scheduling.DayAvailability, len(raw))
	for name, labels := range raw {
		day, ok := scheduling.ParseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		for _, label := range labels {
			slot, err := parse(label)
			if err != nil {
				return nil, err
			}
			out[day] = append(out[day], slot)
		}
	}
	return out, nil
}

func encodeAvailability(availability scheduling.DayAvailability) map[string][]string {
	out := make(map[string][]string, len(availability))
	for day, slots := range availability {
		out[scheduling.WeekdayName(day)] = scheduling.Labels(slots)
	}
	return out
}

func containsFrequency(list []scheduling.Frequency, f scheduling.Frequency) bool {
	for _, candidate := range list {
		if candidate == f {
			return true
		}
	}
	return false
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
