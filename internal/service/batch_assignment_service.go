package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-batch-api/internal/dto"
	"github.com/noah-isme/course-batch-api/internal/models"
	appErrors "github.com/noah-isme/course-batch-api/pkg/errors"
	"github.com/noah-isme/course-batch-api/pkg/lock"
	applog "github.com/noah-isme/course-batch-api/pkg/logger"
	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

const (
	decisionApprove    = "APPROVE"
	decisionDisapprove = "DISAPPROVE"
	decisionComplete   = "COMPLETE"
)

type batchStore interface {
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	GetByKey(ctx context.Context, key models.BatchKey) (*models.Batch, error)
	Save(ctx context.Context, batch *models.Batch) error
	ActiveBatchIDForStudent(ctx context.Context, studentID string) (string, error)
	ListSummaries(ctx context.Context, filter models.BatchFilter) ([]models.BatchSummary, error)
	ListVacant(ctx context.Context, filter models.BatchFilter) ([]models.BatchSummary, error)
	ListWaiting(ctx context.Context, filter models.BatchFilter) ([]models.WaitingListItem, error)
	ListDelayed(ctx context.Context, asOf time.Time) ([]models.DelayedStudent, error)
}

type paymentChecker interface {
	IsPaidOrPartial(ctx context.Context, enrollmentID string) (bool, error)
}

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type slotOfferer interface {
	OfferableSlots(ctx context.Context, staffID string, sessionLengthHours float64, frequency scheduling.Frequency) ([]scheduling.TimeSlot, error)
}

type batchNotifier interface {
	Notify(ctx context.Context, event models.NotificationEvent) error
}

// BatchAssignmentOptions tunes batch creation and lock handling.
type BatchAssignmentOptions struct {
	DefaultMaxStudents int
	LockTimeout        time.Duration
	Now                func() time.Time
}

// BatchAssignmentService places students into batches and resolves waiting lists.
// Every mutation of a batch runs under the batch's lock from load to save. Seating a student
// also holds the student's lock, taken first, so one student cannot be seated twice.
type BatchAssignmentService struct {
	batches     batchStore
	enrollments enrollmentReader
	courses     courseReader
	payments    paymentChecker
	slots       slotOfferer
	notifier    batchNotifier
	locker      lock.Locker
	metrics     *MetricsService
	opts        BatchAssignmentOptions
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewBatchAssignmentService constructs BatchAssignmentService. A nil locker falls back to an
// in-process keyed mutex.
func NewBatchAssignmentService(
	batches batchStore,
	enrollments enrollmentReader,
	courses courseReader,
	payments paymentChecker,
	slots slotOfferer,
	notifier batchNotifier,
	locker lock.Locker,
	metrics *MetricsService,
	opts BatchAssignmentOptions,
	validate *validator.Validate,
	logger *zap.Logger,
) *BatchAssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if opts.DefaultMaxStudents <= 0 {
		opts.DefaultMaxStudents = 10
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BatchAssignmentService{
		batches:     batches,
		enrollments: enrollments,
		courses:     courses,
		payments:    payments,
		slots:       slots,
		notifier:    notifier,
		locker:      locker,
		metrics:     metrics,
		opts:        opts,
		validator:   validate,
		logger:      logger,
	}
}

// AttemptAssign seats the student in the batch matching the request, creating the batch when
// none exists. A full batch queues the student for approval instead. Repeating a request
// returns the existing placement unchanged.
func (s *BatchAssignmentService) AttemptAssign(ctx context.Context, actor models.Actor, req dto.AssignBatchRequest) (result *models.AssignmentResult, err error) {
	defer func() {
		var outcome models.AssignmentOutcome
		if result != nil {
			outcome = result.Outcome
		}
		s.metrics.RecordAssignment(outcome, err)
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, err.Error())
	}
	if !req.Frequency.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "unknown frequency")
	}
	if actor.Role == "" || (actor.Role == models.RoleStudent && actor.UserID != req.StudentID) {
		return nil, appErrors.ErrUnauthorizedRole
	}

	enrollment, err := s.loadEnrollment(ctx, req.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.StudentID != req.StudentID {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "enrollment belongs to another student")
	}
	if !enrollmentCovers(enrollment, req.CourseID) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "enrollment does not include the course")
	}

	slot := req.TimeSlot
	if slot.IsZero() {
		slot = enrollment.TimeSlot
	}
	if slot.IsZero() || slot.Start >= slot.End {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "time_slot is required")
	}

	hours := sessionLength(req, enrollment, slot)
	if err := s.ensureOffered(ctx, req.StaffID, slot, hours, req.Frequency); err != nil {
		return nil, err
	}

	key := models.BatchKey{CourseID: req.CourseID, StaffID: req.StaffID, TimeSlot: slot, Frequency: req.Frequency}
	releaseStudent, err := s.acquireStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	defer releaseStudent()
	release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	result, err = s.assignLocked(ctx, key, req)
	release()
	if err != nil {
		return nil, err
	}

	if result.Outcome == models.OutcomeWaitlisted {
		result.Suggestions = s.suggestions(ctx, key, hours)
	}
	return result, nil
}

// ensureOffered rejects slots and frequencies the staff member cannot host.
func (s *BatchAssignmentService) ensureOffered(ctx context.Context, staffID string, slot scheduling.TimeSlot, sessionLengthHours float64, frequency scheduling.Frequency) error {
	offerable, err := s.slots.OfferableSlots(ctx, staffID, sessionLengthHours, frequency)
	if err != nil {
		return appErrors.FromError(err)
	}
	for _, candidate := range offerable {
		if candidate == slot {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNoOfferableSlot, fmt.Sprintf("time slot %s is not offered by staff %s for %s", slot.Label(), staffID, frequency.Label()))
}

func (s *BatchAssignmentService) assignLocked(ctx context.Context, key models.BatchKey, req dto.AssignBatchRequest) (*models.AssignmentResult, error) {
	batch, err := s.batches.GetByKey(ctx, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		batch, err = s.newBatch(ctx, key)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	if batch.StudentIndex(req.StudentID) >= 0 {
		return &models.AssignmentResult{Outcome: models.OutcomeAssigned, Batch: batch}, nil
	}
	if idx := batch.PendingIndex(req.StudentID); idx >= 0 {
		entry := batch.WaitingList[idx]
		return &models.AssignmentResult{Outcome: models.OutcomeWaitlisted, Batch: batch, Entry: &entry, Reason: entry.Reason}, nil
	}
	if err := s.ensureNotSeatedElsewhere(ctx, req.StudentID, batch.ID); err != nil {
		return nil, err
	}

	now := s.opts.Now().UTC()
	if !batch.Full() {
		batch.Students = append(batch.Students, models.BatchStudent{StudentID: req.StudentID, EnrollmentID: req.EnrollmentID, JoinedAt: now})
		if err := s.batches.Save(ctx, batch); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save batch")
		}
		applog.For(ctx, s.logger).Info("student assigned", zap.String("batch_id", batch.ID), zap.String("student_id", req.StudentID), zap.String("batch_key", key.String()))
		return &models.AssignmentResult{Outcome: models.OutcomeAssigned, Batch: batch}, nil
	}

	entry := models.WaitingEntry{
		ID:                 uuid.NewString(),
		BatchID:            batch.ID,
		StudentID:          req.StudentID,
		EnrollmentID:       req.EnrollmentID,
		PreferredTimeSlot:  key.TimeSlot,
		PreferredFrequency: key.Frequency,
		Reason:             fmt.Sprintf("batch is full (%d/%d)", len(batch.Students), batch.MaxStudents),
		Status:             models.WaitingStatusPending,
		QueuedAt:           now,
	}
	batch.WaitingList = append(batch.WaitingList, entry)
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save batch")
	}
	applog.For(ctx, s.logger).Info("student waitlisted", zap.String("batch_id", batch.ID), zap.String("student_id", req.StudentID), zap.Int("position", len(batch.WaitingList)))
	s.notify(ctx, models.NotificationWaitlisted, batch, req.StudentID, entry.Reason)
	return &models.AssignmentResult{Outcome: models.OutcomeWaitlisted, Batch: batch, Entry: &entry, Reason: entry.Reason}, nil
}

func (s *BatchAssignmentService) newBatch(ctx context.Context, key models.BatchKey) (*models.Batch, error) {
	maxStudents := s.opts.DefaultMaxStudents
	course, err := s.courses.FindByID(ctx, key.CourseID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.MaxStudentsPerBatch > 0 {
		maxStudents = course.MaxStudentsPerBatch
	}
	if maxStudents < 1 {
		maxStudents = 1
	}
	now := s.opts.Now().UTC()
	return &models.Batch{
		ID:          uuid.NewString(),
		CourseID:    key.CourseID,
		StaffID:     key.StaffID,
		TimeSlot:    key.TimeSlot,
		Frequency:   key.Frequency,
		MaxStudents: maxStudents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Approve moves a pending student into the batch. The batch must have a free seat and the
// student's enrollment must be paid or partially paid.
func (s *BatchAssignmentService) Approve(ctx context.Context, actor models.Actor, batchID, studentID string) (*models.Batch, error) {
	batch, err := s.decide(ctx, actor, decisionApprove, batchID, studentID, func(batch *models.Batch, idx int) error {
		entry := batch.WaitingList[idx]
		if batch.Full() {
			return appErrors.ErrCapacityExceeded
		}
		if err := s.ensureNotSeatedElsewhere(ctx, studentID, batch.ID); err != nil {
			return err
		}
		paid, err := s.payments.IsPaidOrPartial(ctx, entry.EnrollmentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check payment")
		}
		if !paid {
			return appErrors.ErrPaymentRequired
		}

		now := s.opts.Now().UTC()
		s.resolve(batch, idx, models.WaitingStatusApproved, actor, now)
		batch.Students = append(batch.Students, models.BatchStudent{StudentID: studentID, EnrollmentID: entry.EnrollmentID, JoinedAt: now})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, models.NotificationApproved, batch, studentID, "")
	return batch, nil
}

// Disapprove removes a pending entry from the queue without seating the student.
func (s *BatchAssignmentService) Disapprove(ctx context.Context, actor models.Actor, batchID, studentID, reason string) (*models.Batch, error) {
	batch, err := s.decide(ctx, actor, decisionDisapprove, batchID, studentID, func(batch *models.Batch, idx int) error {
		if reason != "" {
			batch.WaitingList[idx].Reason = reason
		}
		s.resolve(batch, idx, models.WaitingStatusDisapproved, actor, s.opts.Now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, models.NotificationDisapproved, batch, studentID, reason)
	return batch, nil
}

// decide runs fn against the student's pending entry under the student and batch locks and
// saves the batch when fn succeeds.
func (s *BatchAssignmentService) decide(ctx context.Context, actor models.Actor, decision, batchID, studentID string, fn func(batch *models.Batch, idx int) error) (batch *models.Batch, err error) {
	defer func() {
		code := ""
		if err != nil {
			code = appErrors.FromError(err).Code
		}
		s.metrics.RecordWaitingDecision(decision, code)
	}()

	if !actor.IsAdmin() {
		return nil, appErrors.ErrUnauthorizedRole
	}

	releaseStudent, err := s.acquireStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	defer releaseStudent()
	batch, release, err := s.lockBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	defer release()

	idx := batch.PendingIndex(studentID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "student has no pending entry in this batch")
	}
	if err := fn(batch, idx); err != nil {
		return nil, err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save batch")
	}
	applog.For(ctx, s.logger).Info("waiting entry resolved",
		zap.String("decision", decision),
		zap.String("batch_id", batch.ID),
		zap.String("student_id", studentID),
		zap.String("actor_id", actor.UserID),
	)
	return batch, nil
}

func (s *BatchAssignmentService) resolve(batch *models.Batch, idx int, status models.WaitingStatus, actor models.Actor, at time.Time) {
	entry := batch.WaitingList[idx]
	entry.Status = status
	entry.ResolvedAt = &at
	resolvedBy := actor.UserID
	entry.ResolvedBy = &resolvedBy
	batch.WaitingList = append(batch.WaitingList[:idx:idx], batch.WaitingList[idx+1:]...)
	batch.Resolved = append(batch.Resolved, entry)
}

// MarkComplete removes a seated student and records the completion. Admins may complete any
// batch; staff only their own.
func (s *BatchAssignmentService) MarkComplete(ctx context.Context, actor models.Actor, batchID, studentID string) (completion *models.Completion, err error) {
	defer func() {
		code := ""
		if err != nil {
			code = appErrors.FromError(err).Code
		}
		s.metrics.RecordWaitingDecision(decisionComplete, code)
	}()

	if !actor.IsAdmin() && actor.Role != models.RoleStaff {
		return nil, appErrors.ErrUnauthorizedRole
	}

	batch, release, err := s.lockBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	defer release()

	if !actor.IsAdmin() && batch.StaffID != actor.UserID {
		return nil, appErrors.ErrUnauthorizedRole
	}
	idx := batch.StudentIndex(studentID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not in this batch")
	}

	record := models.Completion{
		ID:          uuid.NewString(),
		BatchID:     batch.ID,
		CourseID:    batch.CourseID,
		StaffID:     batch.StaffID,
		StudentID:   studentID,
		CompletedAt: s.opts.Now().UTC(),
		CompletedBy: actor.UserID,
	}
	batch.Students = append(batch.Students[:idx:idx], batch.Students[idx+1:]...)
	batch.Completed = append(batch.Completed, record)
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save batch")
	}
	applog.For(ctx, s.logger).Info("student completed batch", zap.String("batch_id", batch.ID), zap.String("student_id", studentID))
	return &record, nil
}

// ListWaiting returns pending entries oldest first, each pointing at a vacant batch of the
// same course and slot when one exists.
func (s *BatchAssignmentService) ListWaiting(ctx context.Context, filter models.BatchFilter) ([]models.WaitingListItem, error) {
	items, err := s.batches.ListWaiting(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list waiting entries")
	}
	if len(items) == 0 {
		return items, nil
	}
	vacant, err := s.batches.ListVacant(ctx, models.BatchFilter{CourseID: filter.CourseID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vacant batches")
	}
	byCourseSlot := make(map[string]string, len(vacant))
	for _, b := range vacant {
		key := b.CourseID + "|" + b.TimeSlot.Label()
		if _, ok := byCourseSlot[key]; !ok {
			byCourseSlot[key] = b.ID
		}
	}
	for i := range items {
		if id, ok := byCourseSlot[items[i].CourseID+"|"+items[i].BatchTimeSlot.Label()]; ok {
			id := id
			items[i].VacantBatchID = &id
		}
	}
	return items, nil
}

// ListBatches returns batches matching filter with their occupancy.
func (s *BatchAssignmentService) ListBatches(ctx context.Context, filter models.BatchFilter) ([]models.BatchSummary, error) {
	batches, err := s.batches.ListSummaries(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, nil
}

// ListVacant returns batches with at least one free seat.
func (s *BatchAssignmentService) ListVacant(ctx context.Context, filter models.BatchFilter) ([]models.BatchSummary, error) {
	batches, err := s.batches.ListVacant(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vacant batches")
	}
	return batches, nil
}

// ListDelayed returns seated students whose enrollment ended before asOf.
func (s *BatchAssignmentService) ListDelayed(ctx context.Context, asOf time.Time) ([]models.DelayedStudent, error) {
	if asOf.IsZero() {
		asOf = s.opts.Now()
	}
	delayed, err := s.batches.ListDelayed(ctx, scheduling.DateOf(asOf))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list delayed students")
	}
	return delayed, nil
}

// lockBatch resolves the batch's key, takes its lock and reloads it so the caller sees the
// state committed by the previous holder.
func (s *BatchAssignmentService) lockBatch(ctx context.Context, batchID string) (*models.Batch, func(), error) {
	batch, err := s.loadBatch(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	release, err := s.acquire(ctx, batch.Key())
	if err != nil {
		return nil, nil, err
	}
	batch, err = s.loadBatch(ctx, batchID)
	if err != nil {
		release()
		return nil, nil, err
	}
	return batch, release, nil
}

func (s *BatchAssignmentService) acquire(ctx context.Context, key models.BatchKey) (func(), error) {
	return s.takeLock(ctx, "batch:"+key.String(), "batch is busy, retry later")
}

// acquireStudent guards the one-seat-per-student check across batches. It is always taken
// before any batch lock.
func (s *BatchAssignmentService) acquireStudent(ctx context.Context, studentID string) (func(), error) {
	return s.takeLock(ctx, "student:"+studentID, "student has another placement in progress, retry later")
}

func (s *BatchAssignmentService) takeLock(ctx context.Context, name, busy string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()

	started := time.Now()
	release, err := s.locker.Lock(lockCtx, name)
	s.metrics.ObserveLockWait(time.Since(started))
	if err != nil {
		if ctx.Err() != nil {
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "request cancelled while waiting for lock")
		}
		applog.For(ctx, s.logger).Warn("lock not acquired", zap.String("lock_key", name), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, busy)
	}
	return release, nil
}

func (s *BatchAssignmentService) loadBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

func (s *BatchAssignmentService) loadEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

func (s *BatchAssignmentService) ensureNotSeatedElsewhere(ctx context.Context, studentID, batchID string) error {
	active, err := s.batches.ActiveBatchIDForStudent(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student batches")
	}
	if active != "" && active != batchID {
		return appErrors.Clone(appErrors.ErrConflict, "student already belongs to another batch")
	}
	return nil
}

// suggestions lists other slots for the same course, staff and frequency: vacant batches
// first, then offerable slots that have no batch yet. Lookup failures only shorten the list.
func (s *BatchAssignmentService) suggestions(ctx context.Context, key models.BatchKey, sessionLengthHours float64) []models.SlotSuggestion {
	out := make([]models.SlotSuggestion, 0)
	taken := map[string]struct{}{key.TimeSlot.Label(): {}}

	vacant, err := s.batches.ListVacant(ctx, models.BatchFilter{CourseID: key.CourseID, StaffID: key.StaffID, Frequency: key.Frequency})
	if err != nil {
		applog.For(ctx, s.logger).Warn("vacant batch lookup failed", zap.String("batch_key", key.String()), zap.Error(err))
	}
	for _, b := range vacant {
		label := b.TimeSlot.Label()
		if _, ok := taken[label]; ok {
			continue
		}
		taken[label] = struct{}{}
		out = append(out, models.SlotSuggestion{TimeSlot: b.TimeSlot, Frequency: b.Frequency, BatchID: b.ID, Vacancies: b.Vacancies()})
	}

	if s.slots == nil || sessionLengthHours <= 0 {
		return out
	}
	offerable, err := s.slots.OfferableSlots(ctx, key.StaffID, sessionLengthHours, key.Frequency)
	if err != nil {
		applog.For(ctx, s.logger).Debug("no offerable slots for suggestions", zap.String("staff_id", key.StaffID), zap.Error(err))
		return out
	}
	for _, slot := range offerable {
		label := slot.Label()
		if _, ok := taken[label]; ok {
			continue
		}
		taken[label] = struct{}{}
		out = append(out, models.SlotSuggestion{TimeSlot: slot, Frequency: key.Frequency})
	}
	return out
}

func (s *BatchAssignmentService) notify(ctx context.Context, kind models.NotificationKind, batch *models.Batch, studentID, reason string) {
	if s.notifier == nil {
		return
	}
	event := models.NotificationEvent{
		Kind:      kind,
		StudentID: studentID,
		BatchID:   batch.ID,
		CourseID:  batch.CourseID,
		TimeSlot:  batch.TimeSlot,
		Frequency: batch.Frequency,
		Reason:    reason,
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		applog.For(ctx, s.logger).Warn("notification not queued", zap.String("kind", string(kind)), zap.String("student_id", studentID), zap.Error(err))
	}
}

func enrollmentCovers(enrollment *models.Enrollment, courseID string) bool {
	if enrollment.CourseID == courseID {
		return true
	}
	for _, id := range enrollment.ComboCourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

func sessionLength(req dto.AssignBatchRequest, enrollment *models.Enrollment, slot scheduling.TimeSlot) float64 {
	switch {
	case req.SessionLengthHours > 0:
		return req.SessionLengthHours
	case enrollment.SessionLengthHours > 0:
		return enrollment.SessionLengthHours
	default:
		return float64(slot.Duration()) / 60
	}
}
