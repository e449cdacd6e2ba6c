package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-batch-api/internal/models"
	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

func TestStaffRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "working_days", "availability", "frequency_policy", "max_hours_per_day", "course_ids", "created_at", "updated_at"}).
		AddRow("staff-1", "Rina", "rina@example.com", "{monday,wednesday,friday}", `{"monday":["10:00-11:00"]}`, "ALTERNATE_DAYS", 3, "{course-1,course-2}", now, now)
	mock.ExpectQuery("FROM staff s\\s+LEFT JOIN staff_courses").
		WithArgs("staff-1").
		WillReturnRows(rows)

	staff, err := repo.FindByID(context.Background(), "staff-1")
	require.NoError(t, err)
	assert.Equal(t, scheduling.FrequencyAlternateDays, staff.FrequencyPolicy)
	assert.Equal(t, scheduling.FrequencyAlternateDays.Weekdays(), staff.WorkingDaySet())
	assert.True(t, staff.Teaches("course-2"))
	assert.False(t, staff.Teaches("course-3"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryMonthlyByStaff(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	mock.ExpectQuery("WHERE c.staff_id = \\$1 AND .* >= \\$2 GROUP BY").
		WithArgs("staff-1", "2024-01").
		WillReturnRows(sqlmock.NewRows([]string{"staff_id", "staff_name", "month", "completed"}).
			AddRow("staff-1", "Rina", "2024-01", 3).
			AddRow("staff-1", "Rina", "2024-02", 1))

	rows, err := repo.MonthlyByStaff(context.Background(), models.CompletionFilter{StaffID: "staff-1", FromMonth: "2024-01"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
