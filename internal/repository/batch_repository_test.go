package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-batch-api/internal/models"
	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var batchRowColumns = []string{"id", "course_id", "staff_id", "time_slot", "frequency", "max_students", "created_at", "updated_at"}

func TestBatchRepositoryGetByKeyLoadsMembers(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	slot, _ := scheduling.ParseTimeSlot("10:00-12:00")
	key := models.BatchKey{CourseID: "course-1", StaffID: "staff-1", TimeSlot: slot, Frequency: scheduling.FrequencyDaily}

	mock.ExpectQuery("FROM batches WHERE course_id = \\$1 AND staff_id = \\$2 AND time_slot = \\$3 AND frequency = \\$4").
		WithArgs("course-1", "staff-1", "10:00-12:00", "DAILY").
		WillReturnRows(sqlmock.NewRows(batchRowColumns).AddRow("batch-1", "course-1", "staff-1", "10:00-12:00", "DAILY", 2, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM batch_students WHERE batch_id = $1")).
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "enrollment_id", "joined_at"}).AddRow("student-1", "enr-1", now))
	mock.ExpectQuery("FROM batch_waiting_entries WHERE batch_id = \\$1 AND status = 'PENDING_APPROVAL' ORDER BY queued_at, id").
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "batch_id", "student_id", "enrollment_id", "preferred_time_slot", "preferred_frequency", "reason", "status", "queued_at", "resolved_at", "resolved_by"}).
			AddRow("w-1", "batch-1", "student-2", "enr-2", "10:00-12:00", "DAILY", "batch full", "PENDING_APPROVAL", now, nil, nil))

	batch, err := repo.GetByKey(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "batch-1", batch.ID)
	assert.Equal(t, slot, batch.TimeSlot)
	assert.Equal(t, scheduling.FrequencyDaily, batch.Frequency)
	require.Len(t, batch.Students, 1)
	assert.Equal(t, "student-1", batch.Students[0].StudentID)
	require.Len(t, batch.WaitingList, 1)
	assert.Equal(t, models.WaitingStatusPending, batch.WaitingList[0].Status)
	assert.Nil(t, batch.WaitingList[0].ResolvedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectQuery("FROM batches WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositorySavePersistsInOneTransaction(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	joined := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	resolvedAt := joined.Add(time.Hour)
	admin := "admin-1"
	batch := &models.Batch{
		CourseID:    "course-1",
		StaffID:     "staff-1",
		TimeSlot:    scheduling.TimeSlot{Start: 600, End: 720},
		Frequency:   scheduling.FrequencyDaily,
		MaxStudents: 2,
		Students:    []models.BatchStudent{{StudentID: "student-1", EnrollmentID: "enr-1", JoinedAt: joined}},
		Resolved: []models.WaitingEntry{{
			ID: "w-1", StudentID: "student-1", EnrollmentID: "enr-1", Status: models.WaitingStatusApproved,
			QueuedAt: joined, ResolvedAt: &resolvedAt, ResolvedBy: &admin,
		}},
		Completed: []models.Completion{{StudentID: "student-9", CourseID: "course-1", StaffID: "staff-1", CompletedAt: joined, CompletedBy: admin}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO batches").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM batch_students WHERE batch_id = $1")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO batch_students").
		WithArgs(sqlmock.AnyArg(), "student-1", "enr-1", joined).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO batch_waiting_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO batch_completions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), batch))
	assert.NotEmpty(t, batch.ID)
	assert.Nil(t, batch.Resolved)
	assert.Nil(t, batch.Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositorySaveRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	batch := &models.Batch{
		ID:          "batch-1",
		CourseID:    "course-1",
		StaffID:     "staff-1",
		TimeSlot:    scheduling.TimeSlot{Start: 600, End: 720},
		Frequency:   scheduling.FrequencyDaily,
		MaxStudents: 1,
		Resolved:    []models.WaitingEntry{{ID: "w-1", Status: models.WaitingStatusDisapproved}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO batches").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM batch_students").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO batch_waiting_entries").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), batch)
	require.Error(t, err)
	assert.Len(t, batch.Resolved, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryActiveBatchIDForStudent(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT batch_id FROM batch_students WHERE student_id = $1 LIMIT 1")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"batch_id"}).AddRow("batch-7"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT batch_id FROM batch_students WHERE student_id = $1 LIMIT 1")).
		WithArgs("student-2").
		WillReturnError(sql.ErrNoRows)

	id, err := repo.ActiveBatchIDForStudent(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "batch-7", id)

	id, err = repo.ActiveBatchIDForStudent(context.Background(), "student-2")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryListVacantAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "course_name", "staff_id", "staff_name", "time_slot", "frequency", "max_students", "student_count", "waiting_count"}).
		AddRow("batch-1", "course-1", "Guitar", "staff-1", "Rina", "10:00-12:00", "DAILY", 4, 3, 0)
	mock.ExpectQuery("b.course_id = \\$1 AND b.frequency = \\$2 AND .* < b.max_students ORDER BY").
		WithArgs("course-1", "DAILY").
		WillReturnRows(rows)

	summaries, err := repo.ListVacant(context.Background(), models.BatchFilter{CourseID: "course-1", Frequency: scheduling.FrequencyDaily})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Vacancies())
	assert.Equal(t, "10:00-12:00", summaries[0].TimeSlot.Label())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryListDelayed(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("e.end_date < \\$1").
		WithArgs(asOf).
		WillReturnRows(sqlmock.NewRows([]string{"batch_id", "course_id", "course_name", "staff_id", "staff_name", "time_slot", "frequency", "student_id", "student_name", "end_date"}).
			AddRow("batch-1", "course-1", "Guitar", "staff-1", "Rina", "10:00-12:00", "DAILY", "student-1", "Ayu", end))

	delayed, err := repo.ListDelayed(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, delayed, 1)
	assert.Equal(t, end, delayed[0].EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
