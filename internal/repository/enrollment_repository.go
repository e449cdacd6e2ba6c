package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-batch-api/internal/models"
)

const enrollmentColumns = `id, student_id, course_id, staff_id, course_type, combo_course_ids, total_duration_hours, session_length_hours,
	frequency, time_slot, start_date, break_dates, end_date, payment_mode, created_at, updated_at`

// EnrollmentRepository persists enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID fetches an enrollment.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// UpdateSchedule stores the derived total duration and end date. A nil endDate clears it.
func (r *EnrollmentRepository) UpdateSchedule(ctx context.Context, id string, totalDurationHours float64, endDate *time.Time) error {
	const query = `UPDATE enrollments SET total_duration_hours = $2, end_date = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, totalDurationHours, endDate, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update enrollment schedule: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
