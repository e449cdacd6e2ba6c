package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-batch-api/internal/models"
)

// CompletionRepository aggregates recorded batch completions.
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository constructs a CompletionRepository.
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// MonthlyByStaff counts completions per staff member and calendar month.
func (r *CompletionRepository) MonthlyByStaff(ctx context.Context, filter models.CompletionFilter) ([]models.StaffCompletionRow, error) {
	var conditions []string
	var args []interface{}
	if filter.StaffID != "" {
		conditions = append(conditions, fmt.Sprintf("c.staff_id = $%d", len(args)+1))
		args = append(args, filter.StaffID)
	}
	if filter.FromMonth != "" {
		conditions = append(conditions, fmt.Sprintf("to_char(c.completed_at, 'YYYY-MM') >= $%d", len(args)+1))
		args = append(args, filter.FromMonth)
	}
	if filter.ToMonth != "" {
		conditions = append(conditions, fmt.Sprintf("to_char(c.completed_at, 'YYYY-MM') <= $%d", len(args)+1))
		args = append(args, filter.ToMonth)
	}

	query := `SELECT c.staff_id, s.name AS staff_name, to_char(c.completed_at, 'YYYY-MM') AS month, COUNT(*) AS completed
		FROM batch_completions c
		JOIN staff s ON s.id = c.staff_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " GROUP BY c.staff_id, s.name, month ORDER BY month, s.name"

	rows := []models.StaffCompletionRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate completions: %w", err)
	}
	return rows, nil
}
