package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-batch-api/internal/dto"
	"github.com/noah-isme/course-batch-api/internal/models"
	appErrors "github.com/noah-isme/course-batch-api/pkg/errors"
	"github.com/noah-isme/course-batch-api/pkg/lock"
	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

type memoryBatchStore struct {
	mu        sync.Mutex
	batches   map[string]*models.Batch
	resolved  []models.WaitingEntry
	completed []models.Completion
	delayed   []models.DelayedStudent
	delayedAt time.Time
	saves     int
	saveErr   error
}

func newMemoryBatchStore(batches ...*models.Batch) *memoryBatchStore {
	store := &memoryBatchStore{batches: map[string]*models.Batch{}}
	for _, b := range batches {
		store.batches[b.ID] = cloneBatch(b)
	}
	return store
}

func cloneBatch(b *models.Batch) *models.Batch {
	c := *b
	c.Students = append([]models.BatchStudent(nil), b.Students...)
	c.WaitingList = append([]models.WaitingEntry(nil), b.WaitingList...)
	c.Resolved = nil
	c.Completed = nil
	return &c
}

func (m *memoryBatchStore) get(id string) *models.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneBatch(m.batches[id])
}

func (m *memoryBatchStore) FindByID(_ context.Context, id string) (*models.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneBatch(b), nil
}

func (m *memoryBatchStore) GetByKey(_ context.Context, key models.BatchKey) (*models.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.batches {
		if b.Key() == key {
			return cloneBatch(b), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryBatchStore) Save(_ context.Context, batch *models.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.resolved = append(m.resolved, batch.Resolved...)
	m.completed = append(m.completed, batch.Completed...)
	batch.Resolved = nil
	batch.Completed = nil
	m.batches[batch.ID] = cloneBatch(batch)
	m.saves++
	return nil
}

func (m *memoryBatchStore) ActiveBatchIDForStudent(_ context.Context, studentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range m.batches {
		if b.StudentIndex(studentID) >= 0 {
			return id, nil
		}
	}
	return "", nil
}

func matchesFilter(b *models.Batch, filter models.BatchFilter) bool {
	return (filter.CourseID == "" || b.CourseID == filter.CourseID) &&
		(filter.StaffID == "" || b.StaffID == filter.StaffID) &&
		(filter.Frequency == "" || b.Frequency == filter.Frequency)
}

func (m *memoryBatchStore) ListSummaries(_ context.Context, filter models.BatchFilter) ([]models.BatchSummary, error) {
	return m.summaries(filter, false), nil
}

func (m *memoryBatchStore) ListVacant(_ context.Context, filter models.BatchFilter) ([]models.BatchSummary, error) {
	return m.summaries(filter, true), nil
}

func (m *memoryBatchStore) summaries(filter models.BatchFilter, vacantOnly bool) []models.BatchSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BatchSummary
	for _, b := range m.batches {
		if !matchesFilter(b, filter) || (vacantOnly && b.Full()) {
			continue
		}
		out = append(out, models.BatchSummary{
			ID:           b.ID,
			CourseID:     b.CourseID,
			StaffID:      b.StaffID,
			TimeSlot:     b.TimeSlot,
			Frequency:    b.Frequency,
			MaxStudents:  b.MaxStudents,
			StudentCount: len(b.Students),
			WaitingCount: len(b.WaitingList),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryBatchStore) ListWaiting(_ context.Context, filter models.BatchFilter) ([]models.WaitingListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WaitingListItem
	for _, b := range m.batches {
		if !matchesFilter(b, filter) {
			continue
		}
		for _, e := range b.WaitingList {
			out = append(out, models.WaitingListItem{
				WaitingEntry:  e,
				CourseID:      b.CourseID,
				StaffID:       b.StaffID,
				BatchTimeSlot: b.TimeSlot,
				BatchFreq:     b.Frequency,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QueuedAt.Equal(out[j].QueuedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].QueuedAt.Before(out[j].QueuedAt)
	})
	return out, nil
}

func (m *memoryBatchStore) ListDelayed(_ context.Context, asOf time.Time) ([]models.DelayedStudent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delayedAt = asOf
	return m.delayed, nil
}

type paymentStub map[string]bool

func (p paymentStub) IsPaidOrPartial(_ context.Context, enrollmentID string) (bool, error) {
	return p[enrollmentID], nil
}

type slotOffererStub struct {
	slots       []scheduling.TimeSlot
	frequencies []scheduling.Frequency
	err         error
}

func (s slotOffererStub) OfferableSlots(_ context.Context, _ string, _ float64, frequency scheduling.Frequency) ([]scheduling.TimeSlot, error) {
	if s.err != nil {
		return nil, s.err
	}
	if frequency != "" && len(s.frequencies) > 0 && !containsFrequency(s.frequencies, frequency) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "frequency not offered")
	}
	return s.slots, nil
}

// slowSeatStore widens the window between the seat check and the save.
type slowSeatStore struct {
	*memoryBatchStore
	delay time.Duration
}

func (s *slowSeatStore) ActiveBatchIDForStudent(ctx context.Context, studentID string) (string, error) {
	time.Sleep(s.delay)
	return s.memoryBatchStore.ActiveBatchIDForStudent(ctx, studentID)
}

func (m *memoryBatchStore) seatsFor(studentID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, b := range m.batches {
		if b.StudentIndex(studentID) >= 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (r *recordingNotifier) Notify(_ context.Context, event models.NotificationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) kinds() []models.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.NotificationKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return start.Add(time.Duration(n) * time.Minute)
	}
}

func mustSlot(t *testing.T, label string) scheduling.TimeSlot {
	t.Helper()
	slot, err := scheduling.ParseTimeSlot(label)
	require.NoError(t, err)
	return slot
}

var (
	admin      = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	superAdmin = models.Actor{UserID: "root", Role: models.RoleSuperAdmin}
	staffActor = models.Actor{UserID: "staff-1", Role: models.RoleStaff}
)

type batchFixture struct {
	store       *memoryBatchStore
	enrollments *enrollmentStoreStub
	courses     *courseReaderStub
	payments    paymentStub
	notifier    *recordingNotifier
	svc         *BatchAssignmentService
}

func newBatchFixture(t *testing.T, maxStudents int, batches ...*models.Batch) *batchFixture {
	t.Helper()
	f := &batchFixture{
		store:       newMemoryBatchStore(batches...),
		enrollments: newEnrollmentStoreStub(),
		courses:     &courseReaderStub{courses: map[string]*models.Course{"course-1": {ID: "course-1", MaxStudentsPerBatch: maxStudents}}},
		payments:    paymentStub{},
		notifier:    &recordingNotifier{},
	}
	for i := 1; i <= 12; i++ {
		id := fmt.Sprintf("s%d", i)
		f.enrollments.enrollments["e-"+id] = &models.Enrollment{ID: "e-" + id, StudentID: id, CourseID: "course-1", StaffID: "staff-1", SessionLengthHours: 2}
	}
	slots := slotOffererStub{
		slots:       []scheduling.TimeSlot{mustSlot(t, "10:00-12:00"), mustSlot(t, "14:00-16:00")},
		frequencies: []scheduling.Frequency{scheduling.FrequencyAlternateDays},
	}
	f.svc = NewBatchAssignmentService(f.store, f.enrollments, f.courses, f.payments, slots, f.notifier, nil, NewMetricsService(),
		BatchAssignmentOptions{DefaultMaxStudents: 5, LockTimeout: time.Second, Now: steppingClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))}, nil, nil)
	return f
}

func assignRequest(t *testing.T, studentID, slot string) dto.AssignBatchRequest {
	return dto.AssignBatchRequest{
		StudentID:    studentID,
		EnrollmentID: "e-" + studentID,
		CourseID:     "course-1",
		StaffID:      "staff-1",
		TimeSlot:     mustSlot(t, slot),
		Frequency:    scheduling.FrequencyAlternateDays,
	}
}

func seededBatch(t *testing.T, id, slot string, maxStudents int, students []string, pending ...string) *models.Batch {
	b := &models.Batch{
		ID:          id,
		CourseID:    "course-1",
		StaffID:     "staff-1",
		TimeSlot:    mustSlot(t, slot),
		Frequency:   scheduling.FrequencyAlternateDays,
		MaxStudents: maxStudents,
	}
	for _, s := range students {
		b.Students = append(b.Students, models.BatchStudent{StudentID: s, EnrollmentID: "e-" + s})
	}
	queued := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	for i, s := range pending {
		b.WaitingList = append(b.WaitingList, models.WaitingEntry{
			ID:           "w-" + s,
			BatchID:      id,
			StudentID:    s,
			EnrollmentID: "e-" + s,
			Status:       models.WaitingStatusPending,
			QueuedAt:     queued.Add(time.Duration(i) * time.Hour),
		})
	}
	return b
}

func TestAttemptAssignCreatesBatchAndIsIdempotent(t *testing.T) {
	f := newBatchFixture(t, 2)
	ctx := context.Background()

	result, err := f.svc.AttemptAssign(ctx, admin, assignRequest(t, "s1", "10:00-12:00"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAssigned, result.Outcome)
	assert.Equal(t, 2, result.Batch.MaxStudents)
	require.Len(t, result.Batch.Students, 1)
	assert.Equal(t, 1, f.store.saves)

	again, err := f.svc.AttemptAssign(ctx, admin, assignRequest(t, "s1", "10:00-12:00"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAssigned, again.Outcome)
	assert.Equal(t, result.Batch.ID, again.Batch.ID)
	assert.Len(t, again.Batch.Students, 1)
	assert.Equal(t, 1, f.store.saves)
}

func TestAttemptAssignUsesDefaultCapacityWhenCourseHasNone(t *testing.T) {
	f := newBatchFixture(t, 0)

	result, err := f.svc.AttemptAssign(context.Background(), admin, assignRequest(t, "s1", "10:00-12:00"))
	require.NoError(t, err)
	assert.Equal(t, 5, result.Batch.MaxStudents)
}

func TestAttemptAssignWaitlistsWhenFull(t *testing.T) {
	vacant := seededBatch(t, "b-vacant", "16:00-18:00", 3, []string{"s9"})
	f := newBatchFixture(t, 1, seededBatch(t, "b-full", "10:00-12:00", 1, []string{"s1"}), vacant)
	ctx := context.Background()

	result, err := f.svc.AttemptAssign(ctx, admin, assignRequest(t, "s2", "10:00-12:00"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeWaitlisted, result.Outcome)
	require.NotNil(t, result.Entry)
	assert.Equal(t, models.WaitingStatusPending, result.Entry.Status)
	assert.Equal(t, "e-s2", result.Entry.EnrollmentID)
	assert.NotEmpty(t, result.Reason)
	assert.Len(t, result.Batch.Students, 1)

	require.Len(t, result.Suggestions, 2)
	assert.Equal(t, "16:00-18:00", result.Suggestions[0].TimeSlot.Label())
	assert.Equal(t, "b-vacant", result.Suggestions[0].BatchID)
	assert.Equal(t, 2, result.Suggestions[0].Vacancies)
	assert.Equal(t, "14:00-16:00", result.Suggestions[1].TimeSlot.Label())
	assert.Empty(t, result.Suggestions[1].BatchID)

	saves := f.store.saves
	again, err := f.svc.AttemptAssign(ctx, admin, assignRequest(t, "s2", "10:00-12:00"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeWaitlisted, again.Outcome)
	assert.Equal(t, result.Entry.ID, again.Entry.ID)
	assert.Len(t, f.store.get("b-full").WaitingList, 1)
	assert.Equal(t, saves, f.store.saves)
	assert.Equal(t, []models.NotificationKind{models.NotificationWaitlisted}, f.notifier.kinds())
}

func TestAttemptAssignRejectsStudentSeatedElsewhere(t *testing.T) {
	f := newBatchFixture(t, 2, seededBatch(t, "b-1", "10:00-12:00", 2, []string{"s1"}))

	_, err := f.svc.AttemptAssign(context.Background(), admin, assignRequest(t, "s1", "14:00-16:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Zero(t, f.store.saves)
}

func TestAttemptAssignRoleAndInputChecks(t *testing.T) {
	f := newBatchFixture(t, 2)
	ctx := context.Background()

	_, err := f.svc.AttemptAssign(ctx, models.Actor{UserID: "x"}, assignRequest(t, "s1", "10:00-12:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorizedRole))

	_, err = f.svc.AttemptAssign(ctx, models.Actor{UserID: "s2", Role: models.RoleStudent}, assignRequest(t, "s1", "10:00-12:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorizedRole))

	result, err := f.svc.AttemptAssign(ctx, models.Actor{UserID: "s1", Role: models.RoleStudent}, assignRequest(t, "s1", "10:00-12:00"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAssigned, result.Outcome)

	req := assignRequest(t, "s2", "10:00-12:00")
	req.EnrollmentID = "e-s3"
	_, err = f.svc.AttemptAssign(ctx, admin, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidInput))

	req = assignRequest(t, "s2", "10:00-12:00")
	req.CourseID = "course-2"
	_, err = f.svc.AttemptAssign(ctx, admin, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidInput))

	req = assignRequest(t, "s2", "10:00-12:00")
	req.Frequency = "MONTHLY"
	_, err = f.svc.AttemptAssign(ctx, admin, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidInput))

	req = assignRequest(t, "s2", "10:00-12:00")
	req.EnrollmentID = "missing"
	_, err = f.svc.AttemptAssign(ctx, admin, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAttemptAssignRejectsSlotsTheStaffDoesNotOffer(t *testing.T) {
	f := newBatchFixture(t, 2)
	ctx := context.Background()

	_, err := f.svc.AttemptAssign(ctx, admin, assignRequest(t, "s1", "03:07-04:13"))
	assert.True(t, appErrors.Is(err, appErrors.ErrNoOfferableSlot))

	_, err = f.svc.AttemptAssign(ctx, admin, assignRequest(t, "s1", "16:00-18:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrNoOfferableSlot))

	req := assignRequest(t, "s1", "10:00-12:00")
	req.Frequency = scheduling.FrequencyWeekend
	_, err = f.svc.AttemptAssign(ctx, admin, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidInput))

	f.svc.slots = slotOffererStub{err: appErrors.ErrNoOfferableSlot}
	_, err = f.svc.AttemptAssign(ctx, admin, assignRequest(t, "s1", "10:00-12:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrNoOfferableSlot))

	assert.Empty(t, f.store.batches)
	assert.Zero(t, f.store.saves)
}

func TestAttemptAssignChecksStaffAvailability(t *testing.T) {
	f := newBatchFixture(t, 2)
	staff := &staffReaderStub{staff: map[string]*models.Staff{"staff-1": alternateDaysStaff()}}
	f.svc.slots = newSchedulingServiceForTest(staff, f.courses, f.enrollments, newMemoryCacheRepo())
	ctx := context.Background()

	_, err := f.svc.AttemptAssign(ctx, admin, assignRequest(t, "s1", "03:07-04:13"))
	assert.True(t, appErrors.Is(err, appErrors.ErrNoOfferableSlot))

	_, err = f.svc.AttemptAssign(ctx, admin, assignRequest(t, "s1", "14:00-16:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrNoOfferableSlot))

	req := assignRequest(t, "s1", "10:00-12:00")
	req.Frequency = scheduling.FrequencyWeekend
	_, err = f.svc.AttemptAssign(ctx, admin, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidInput))
	assert.Empty(t, f.store.batches)

	result, err := f.svc.AttemptAssign(ctx, admin, assignRequest(t, "s1", "16:00-18:00"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAssigned, result.Outcome)
	assert.Equal(t, "16:00-18:00", result.Batch.TimeSlot.Label())
}

func TestAttemptAssignFallsBackToEnrollmentSlot(t *testing.T) {
	f := newBatchFixture(t, 2)
	f.enrollments.enrollments["e-s1"].TimeSlot = mustSlot(t, "14:00-16:00")

	req := assignRequest(t, "s1", "10:00-12:00")
	req.TimeSlot = scheduling.TimeSlot{}
	result, err := f.svc.AttemptAssign(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, "14:00-16:00", result.Batch.TimeSlot.Label())
}

func TestAttemptAssignConcurrentRequestsRespectCapacity(t *testing.T) {
	f := newBatchFixture(t, 3)
	ctx := context.Background()

	requests := make([]dto.AssignBatchRequest, 10)
	for i := range requests {
		requests[i] = assignRequest(t, fmt.Sprintf("s%d", i+1), "10:00-12:00")
	}

	var wg sync.WaitGroup
	results := make([]*models.AssignmentResult, 10)
	errs := make([]error, 10)
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.AttemptAssign(ctx, admin, requests[i])
		}(i)
	}
	wg.Wait()

	assigned, waitlisted := 0, 0
	for i := range results {
		require.NoError(t, errs[i])
		switch results[i].Outcome {
		case models.OutcomeAssigned:
			assigned++
		case models.OutcomeWaitlisted:
			waitlisted++
		}
	}
	assert.Equal(t, 3, assigned)
	assert.Equal(t, 7, waitlisted)

	require.Len(t, f.store.batches, 1)
	for id := range f.store.batches {
		batch := f.store.get(id)
		assert.Len(t, batch.Students, 3)
		assert.Len(t, batch.WaitingList, 7)
	}
}

func TestAttemptAssignSeatsStudentOnceAcrossConcurrentSlots(t *testing.T) {
	f := newBatchFixture(t, 3)
	f.svc.batches = &slowSeatStore{memoryBatchStore: f.store, delay: 20 * time.Millisecond}
	ctx := context.Background()

	requests := []dto.AssignBatchRequest{assignRequest(t, "s1", "10:00-12:00"), assignRequest(t, "s1", "14:00-16:00")}
	results := make([]*models.AssignmentResult, len(requests))
	errs := make([]error, len(requests))
	var wg sync.WaitGroup
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.AttemptAssign(ctx, admin, requests[i])
		}(i)
	}
	wg.Wait()

	assigned, conflicts := 0, 0
	for i := range requests {
		if errs[i] != nil {
			assert.True(t, appErrors.Is(errs[i], appErrors.ErrConflict))
			conflicts++
			continue
		}
		assert.Equal(t, models.OutcomeAssigned, results[i].Outcome)
		assigned++
	}
	assert.Equal(t, 1, assigned)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, f.store.seatsFor("s1"), 1)
}

func TestApproveSeatsStudentOnceAcrossConcurrentBatches(t *testing.T) {
	f := newBatchFixture(t, 2,
		seededBatch(t, "b-1", "10:00-12:00", 2, nil, "s1"),
		seededBatch(t, "b-2", "14:00-16:00", 2, nil, "s1"),
	)
	f.payments["e-s1"] = true
	f.svc.batches = &slowSeatStore{memoryBatchStore: f.store, delay: 20 * time.Millisecond}
	ctx := context.Background()

	ids := []string{"b-1", "b-2"}
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(ctx, admin, id, "s1")
		}(i, id)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Len(t, f.store.seatsFor("s1"), 1)
}

func TestAttemptAssignReportsBusyStudent(t *testing.T) {
	f := newBatchFixture(t, 2)
	locker := lock.NewKeyedMutex()
	f.svc.locker = locker
	f.svc.opts.LockTimeout = 20 * time.Millisecond

	release, err := locker.Lock(context.Background(), "student:s1")
	require.NoError(t, err)
	defer release()

	_, err = f.svc.AttemptAssign(context.Background(), admin, assignRequest(t, "s1", "10:00-12:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Zero(t, f.store.saves)
}

func TestAttemptAssignReportsBusyBatch(t *testing.T) {
	f := newBatchFixture(t, 2)
	locker := lock.NewKeyedMutex()
	f.svc.locker = locker
	f.svc.opts.LockTimeout = 20 * time.Millisecond

	req := assignRequest(t, "s1", "10:00-12:00")
	key := models.BatchKey{CourseID: req.CourseID, StaffID: req.StaffID, TimeSlot: req.TimeSlot, Frequency: req.Frequency}
	release, err := locker.Lock(context.Background(), "batch:"+key.String())
	require.NoError(t, err)
	defer release()

	_, err = f.svc.AttemptAssign(context.Background(), admin, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Zero(t, f.store.saves)
}

func TestApproveSeatsPendingStudent(t *testing.T) {
	f := newBatchFixture(t, 2, seededBatch(t, "b-1", "10:00-12:00", 2, []string{"s1"}, "s2", "s3"))
	f.payments["e-s2"] = true

	batch, err := f.svc.Approve(context.Background(), admin, "b-1", "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, batch.StudentIndex("s2"))
	assert.Equal(t, -1, batch.PendingIndex("s2"))

	stored := f.store.get("b-1")
	assert.Len(t, stored.Students, 2)
	require.Len(t, stored.WaitingList, 1)
	assert.Equal(t, "s3", stored.WaitingList[0].StudentID)

	require.Len(t, f.store.resolved, 1)
	assert.Equal(t, models.WaitingStatusApproved, f.store.resolved[0].Status)
	require.NotNil(t, f.store.resolved[0].ResolvedBy)
	assert.Equal(t, "admin-1", *f.store.resolved[0].ResolvedBy)
	assert.NotNil(t, f.store.resolved[0].ResolvedAt)
	assert.Equal(t, []models.NotificationKind{models.NotificationApproved}, f.notifier.kinds())
}

func TestApproveGates(t *testing.T) {
	ctx := context.Background()

	t.Run("role", func(t *testing.T) {
		f := newBatchFixture(t, 2, seededBatch(t, "b-1", "10:00-12:00", 2, nil, "s2"))
		f.payments["e-s2"] = true
		_, err := f.svc.Approve(ctx, staffActor, "b-1", "s2")
		assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorizedRole))
		_, err = f.svc.Approve(ctx, models.Actor{UserID: "s2", Role: models.RoleStudent}, "b-1", "s2")
		assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorizedRole))
		assert.Zero(t, f.store.saves)
	})

	t.Run("not pending", func(t *testing.T) {
		f := newBatchFixture(t, 2, seededBatch(t, "b-1", "10:00-12:00", 2, []string{"s1"}))
		_, err := f.svc.Approve(ctx, admin, "b-1", "s1")
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
		_, err = f.svc.Approve(ctx, admin, "missing", "s1")
		assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	})

	t.Run("capacity checked before payment", func(t *testing.T) {
		f := newBatchFixture(t, 1, seededBatch(t, "b-1", "10:00-12:00", 1, []string{"s1"}, "s2"))
		_, err := f.svc.Approve(ctx, superAdmin, "b-1", "s2")
		assert.True(t, appErrors.Is(err, appErrors.ErrCapacityExceeded))

		stored := f.store.get("b-1")
		assert.Len(t, stored.Students, 1)
		require.Len(t, stored.WaitingList, 1)
		assert.Equal(t, models.WaitingStatusPending, stored.WaitingList[0].Status)
		assert.Zero(t, f.store.saves)
	})

	t.Run("payment", func(t *testing.T) {
		f := newBatchFixture(t, 2, seededBatch(t, "b-1", "10:00-12:00", 2, nil, "s2"))
		_, err := f.svc.Approve(ctx, admin, "b-1", "s2")
		assert.True(t, appErrors.Is(err, appErrors.ErrPaymentRequired))
		assert.Len(t, f.store.get("b-1").WaitingList, 1)
		assert.Zero(t, f.store.saves)
		assert.Empty(t, f.notifier.kinds())
	})

	t.Run("seated elsewhere", func(t *testing.T) {
		f := newBatchFixture(t, 2,
			seededBatch(t, "b-1", "10:00-12:00", 2, nil, "s2"),
			seededBatch(t, "b-2", "14:00-16:00", 2, []string{"s2"}),
		)
		f.payments["e-s2"] = true
		_, err := f.svc.Approve(ctx, admin, "b-1", "s2")
		assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	})
}

func TestDisapproveLeavesStudentsUntouched(t *testing.T) {
	f := newBatchFixture(t, 1, seededBatch(t, "b-1", "10:00-12:00", 1, []string{"s1"}, "s2"))

	_, err := f.svc.Disapprove(context.Background(), staffActor, "b-1", "s2", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorizedRole))

	batch, err := f.svc.Disapprove(context.Background(), admin, "b-1", "s2", "prefers evenings")
	require.NoError(t, err)
	assert.Empty(t, batch.WaitingList)
	assert.Len(t, batch.Students, 1)

	require.Len(t, f.store.resolved, 1)
	assert.Equal(t, models.WaitingStatusDisapproved, f.store.resolved[0].Status)
	assert.Equal(t, "prefers evenings", f.store.resolved[0].Reason)
	assert.Equal(t, []models.NotificationKind{models.NotificationDisapproved}, f.notifier.kinds())

	_, err = f.svc.Disapprove(context.Background(), admin, "b-1", "s2", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestWaitingListIsFIFOWithVacantMatch(t *testing.T) {
	f := newBatchFixture(t, 1,
		seededBatch(t, "b-1", "10:00-12:00", 1, []string{"s1"}),
		&models.Batch{ID: "b-other", CourseID: "course-1", StaffID: "staff-2", TimeSlot: mustSlot(t, "10:00-12:00"), Frequency: scheduling.FrequencyDaily, MaxStudents: 4},
	)
	ctx := context.Background()
	for _, id := range []string{"s4", "s2", "s3"} {
		result, err := f.svc.AttemptAssign(ctx, admin, assignRequest(t, id, "10:00-12:00"))
		require.NoError(t, err)
		require.Equal(t, models.OutcomeWaitlisted, result.Outcome)
	}

	items, err := f.svc.ListWaiting(ctx, models.BatchFilter{CourseID: "course-1"})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "s4", items[0].StudentID)
	assert.Equal(t, "s2", items[1].StudentID)
	assert.Equal(t, "s3", items[2].StudentID)
	for _, item := range items {
		require.NotNil(t, item.VacantBatchID)
		assert.Equal(t, "b-other", *item.VacantBatchID)
	}

	f.payments["e-s4"] = true
	f.payments["e-s2"] = true
	_, err = f.svc.MarkComplete(ctx, admin, "b-1", "s1")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, admin, "b-1", "s4")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, admin, "b-1", "s2")
	assert.True(t, appErrors.Is(err, appErrors.ErrCapacityExceeded))
}

func TestMarkComplete(t *testing.T) {
	f := newBatchFixture(t, 2, seededBatch(t, "b-1", "10:00-12:00", 2, []string{"s1", "s2"}))
	ctx := context.Background()

	_, err := f.svc.MarkComplete(ctx, models.Actor{UserID: "staff-9", Role: models.RoleStaff}, "b-1", "s1")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorizedRole))

	_, err = f.svc.MarkComplete(ctx, models.Actor{UserID: "s1", Role: models.RoleStudent}, "b-1", "s1")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorizedRole))

	_, err = f.svc.MarkComplete(ctx, staffActor, "b-1", "s7")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	completion, err := f.svc.MarkComplete(ctx, staffActor, "b-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", completion.StaffID)
	assert.Equal(t, "course-1", completion.CourseID)
	assert.Equal(t, "staff-1", completion.CompletedBy)

	stored := f.store.get("b-1")
	require.Len(t, stored.Students, 1)
	assert.Equal(t, "s2", stored.Students[0].StudentID)
	require.Len(t, f.store.completed, 1)
	assert.Equal(t, "s1", f.store.completed[0].StudentID)
}

func TestSaveFailureLeavesStateUnchanged(t *testing.T) {
	f := newBatchFixture(t, 2, seededBatch(t, "b-1", "10:00-12:00", 2, nil, "s2"))
	f.payments["e-s2"] = true
	f.store.saveErr = fmt.Errorf("connection reset")

	_, err := f.svc.Approve(context.Background(), admin, "b-1", "s2")
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
	stored := f.store.get("b-1")
	assert.Empty(t, stored.Students)
	assert.Len(t, stored.WaitingList, 1)
	assert.Empty(t, f.notifier.kinds())
}

func TestListDelayedUsesCalendarDate(t *testing.T) {
	f := newBatchFixture(t, 2)
	f.store.delayed = []models.DelayedStudent{{BatchID: "b-1", StudentID: "s1"}}

	out, err := f.svc.ListDelayed(context.Background(), time.Date(2024, 5, 3, 17, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), f.store.delayedAt)
}

func TestListBatchesIncludesFullBatches(t *testing.T) {
	full := seededBatch(t, "b-full", "10:00-12:00", 1, []string{"s1"})
	open := seededBatch(t, "b-open", "14:00-16:00", 3, []string{"s2"})
	f := newBatchFixture(t, 3, full, open)

	all, err := f.svc.ListBatches(context.Background(), models.BatchFilter{CourseID: "course-1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b-full", all[0].ID)
	assert.Equal(t, 1, all[0].StudentCount)

	vacant, err := f.svc.ListVacant(context.Background(), models.BatchFilter{CourseID: "course-1"})
	require.NoError(t, err)
	require.Len(t, vacant, 1)
	assert.Equal(t, "b-open", vacant[0].ID)
}
