package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-batch-api/internal/models"
	"github.com/noah-isme/course-batch-api/pkg/database"
)

const (
	batchColumns   = `id, course_id, staff_id, time_slot, frequency, max_students, created_at, updated_at`
	waitingColumns = `id, batch_id, student_id, enrollment_id, preferred_time_slot, preferred_frequency, reason, status, queued_at, resolved_at, resolved_by`

	batchSummarySelect = `SELECT b.id, b.course_id, c.name AS course_name, b.staff_id, s.name AS staff_name, b.time_slot, b.frequency, b.max_students,
		(SELECT COUNT(*) FROM batch_students bs WHERE bs.batch_id = b.id) AS student_count,
		(SELECT COUNT(*) FROM batch_waiting_entries w WHERE w.batch_id = b.id AND w.status = 'PENDING_APPROVAL') AS waiting_count
		FROM batches b
		JOIN courses c ON c.id = b.course_id
		JOIN staff s ON s.id = b.staff_id
		WHERE 1=1`
)

// BatchRepository persists batches together with their seats and waiting lists.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs a BatchRepository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// FindByID loads a batch with its students and pending waiting entries.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	const query = `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// GetByKey loads the batch matching key. sql.ErrNoRows is returned when none exists.
func (r *BatchRepository) GetByKey(ctx context.Context, key models.BatchKey) (*models.Batch, error) {
	const query = `SELECT ` + batchColumns + ` FROM batches WHERE course_id = $1 AND staff_id = $2 AND time_slot = $3 AND frequency = $4`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, key.CourseID, key.StaffID, key.TimeSlot, key.Frequency); err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *BatchRepository) loadMembers(ctx context.Context, batch *models.Batch) error {
	const studentsQuery = `SELECT student_id, enrollment_id, joined_at FROM batch_students WHERE batch_id = $1 ORDER BY joined_at, student_id`
	students := []models.BatchStudent{}
	if err := r.db.SelectContext(ctx, &students, studentsQuery, batch.ID); err != nil {
		return fmt.Errorf("load batch students: %w", err)
	}

	const waitingQuery = `SELECT ` + waitingColumns + ` FROM batch_waiting_entries WHERE batch_id = $1 AND status = 'PENDING_APPROVAL' ORDER BY queued_at, id`
	waiting := []models.WaitingEntry{}
	if err := r.db.SelectContext(ctx, &waiting, waitingQuery, batch.ID); err != nil {
		return fmt.Errorf("load waiting list: %w", err)
	}

	batch.Students = students
	batch.WaitingList = waiting
	return nil
}

// Save writes the batch row, replaces its seats, upserts pending and resolved waiting
// entries and records completions in a single transaction.
func (r *BatchRepository) Save(ctx context.Context, batch *models.Batch) error {
	now := time.Now().UTC()
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const upsertBatch = `INSERT INTO batches (id, course_id, staff_id, time_slot, frequency, max_students, created_at, updated_at)
			VALUES (:id, :course_id, :staff_id, :time_slot, :frequency, :max_students, :created_at, :updated_at)
			ON CONFLICT (id) DO UPDATE
			SET max_students = EXCLUDED.max_students,
			    updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, upsertBatch, batch); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM batch_students WHERE batch_id = $1`, batch.ID); err != nil {
			return fmt.Errorf("clear batch students: %w", err)
		}
		const insertStudent = `INSERT INTO batch_students (batch_id, student_id, enrollment_id, joined_at) VALUES ($1, $2, $3, $4)`
		for _, student := range batch.Students {
			if _, err := tx.ExecContext(ctx, insertStudent, batch.ID, student.StudentID, student.EnrollmentID, student.JoinedAt); err != nil {
				return fmt.Errorf("insert batch student: %w", err)
			}
		}

		const upsertEntry = `INSERT INTO batch_waiting_entries (id, batch_id, student_id, enrollment_id, preferred_time_slot, preferred_frequency, reason, status, queued_at, resolved_at, resolved_by)
			VALUES (:id, :batch_id, :student_id, :enrollment_id, :preferred_time_slot, :preferred_frequency, :reason, :status, :queued_at, :resolved_at, :resolved_by)
			ON CONFLICT (id) DO UPDATE
			SET status = EXCLUDED.status,
			    resolved_at = EXCLUDED.resolved_at,
			    resolved_by = EXCLUDED.resolved_by`
		for _, group := range [][]models.WaitingEntry{batch.WaitingList, batch.Resolved} {
			for i := range group {
				entry := &group[i]
				if entry.ID == "" {
					entry.ID = uuid.NewString()
				}
				entry.BatchID = batch.ID
				if _, err := tx.NamedExecContext(ctx, upsertEntry, entry); err != nil {
					return fmt.Errorf("upsert waiting entry: %w", err)
				}
			}
		}

		const insertCompletion = `INSERT INTO batch_completions (id, batch_id, course_id, staff_id, student_id, completed_at, completed_by)
			VALUES (:id, :batch_id, :course_id, :staff_id, :student_id, :completed_at, :completed_by)`
		for i := range batch.Completed {
			completion := &batch.Completed[i]
			if completion.ID == "" {
				completion.ID = uuid.NewString()
			}
			completion.BatchID = batch.ID
			if _, err := tx.NamedExecContext(ctx, insertCompletion, completion); err != nil {
				return fmt.Errorf("insert completion: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	batch.Resolved = nil
	batch.Completed = nil
	return nil
}

// ActiveBatchIDForStudent returns the batch currently seating studentID, or "" when none.
func (r *BatchRepository) ActiveBatchIDForStudent(ctx context.Context, studentID string) (string, error) {
	const query = `SELECT batch_id FROM batch_students WHERE student_id = $1 LIMIT 1`
	var batchID string
	if err := r.db.GetContext(ctx, &batchID, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find active batch: %w", err)
	}
	return batchID, nil
}

// ListSummaries returns batches matching filter with occupancy counters.
func (r *BatchRepository) ListSummaries(ctx context.Context, filter models.BatchFilter) ([]models.BatchSummary, error) {
	return r.listSummaries(ctx, filter, false)
}

// ListVacant returns batches with at least one free seat.
func (r *BatchRepository) ListVacant(ctx context.Context, filter models.BatchFilter) ([]models.BatchSummary, error) {
	return r.listSummaries(ctx, filter, true)
}

func (r *BatchRepository) listSummaries(ctx context.Context, filter models.BatchFilter, vacantOnly bool) ([]models.BatchSummary, error) {
	conditions, args := batchConditions(filter)
	if vacantOnly {
		conditions = append(conditions, "(SELECT COUNT(*) FROM batch_students bs WHERE bs.batch_id = b.id) < b.max_students")
	}

	query := batchSummarySelect
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.name, s.name, b.time_slot"

	summaries := []models.BatchSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return summaries, nil
}

func batchConditions(filter models.BatchFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("b.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.StaffID != "" {
		conditions = append(conditions, fmt.Sprintf("b.staff_id = $%d", len(args)+1))
		args = append(args, filter.StaffID)
	}
	if filter.Frequency != "" {
		conditions = append(conditions, fmt.Sprintf("b.frequency = $%d", len(args)+1))
		args = append(args, string(filter.Frequency))
	}
	return conditions, args
}

// ListWaiting returns pending waiting entries across batches, oldest first.
func (r *BatchRepository) ListWaiting(ctx context.Context, filter models.BatchFilter) ([]models.WaitingListItem, error) {
	conditions, args := batchConditions(filter)
	query := `SELECT w.id, w.batch_id, w.student_id, w.enrollment_id, w.preferred_time_slot, w.preferred_frequency, w.reason, w.status, w.queued_at, w.resolved_at, w.resolved_by,
		b.course_id, c.name AS course_name, b.staff_id, s.name AS staff_name, st.name AS student_name,
		b.time_slot AS batch_time_slot, b.frequency AS batch_frequency
		FROM batch_waiting_entries w
		JOIN batches b ON b.id = w.batch_id
		JOIN courses c ON c.id = b.course_id
		JOIN staff s ON s.id = b.staff_id
		JOIN students st ON st.id = w.student_id
		WHERE w.status = 'PENDING_APPROVAL'`
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY w.queued_at, w.id"

	items := []models.WaitingListItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list waiting entries: %w", err)
	}
	return items, nil
}

// ListDelayed returns seated students whose enrollment ended before asOf.
func (r *BatchRepository) ListDelayed(ctx context.Context, asOf time.Time) ([]models.DelayedStudent, error) {
	const query = `SELECT b.id AS batch_id, b.course_id, c.name AS course_name, b.staff_id, s.name AS staff_name, b.time_slot, b.frequency,
		bs.student_id, st.name AS student_name, e.end_date
		FROM batch_students bs
		JOIN batches b ON b.id = bs.batch_id
		JOIN enrollments e ON e.id = bs.enrollment_id
		JOIN courses c ON c.id = b.course_id
		JOIN staff s ON s.id = b.staff_id
		JOIN students st ON st.id = bs.student_id
		WHERE e.end_date IS NOT NULL AND e.end_date < $1
		ORDER BY e.end_date, b.id`
	delayed := []models.DelayedStudent{}
	if err := r.db.SelectContext(ctx, &delayed, query, asOf); err != nil {
		return nil, fmt.Errorf("list delayed batches: %w", err)
	}
	return delayed, nil
}
