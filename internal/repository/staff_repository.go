package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-batch-api/internal/models"
)

// StaffRepository reads staff members with their availability and course assignments.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// FindByID fetches a staff member including the courses they teach.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	const query = `SELECT s.id, s.name, s.email, s.working_days, s.availability, COALESCE(s.frequency_policy, '') AS frequency_policy, s.max_hours_per_day,
		COALESCE(array_agg(sc.course_id) FILTER (WHERE sc.course_id IS NOT NULL), '{}') AS course_ids,
		s.created_at, s.updated_at
		FROM staff s
		LEFT JOIN staff_courses sc ON sc.staff_id = s.id
		WHERE s.id = $1
		GROUP BY s.id`
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, err
	}
	return &staff, nil
}
