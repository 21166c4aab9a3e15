package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// AssignmentRepository persists committed sessions in course_schedules.
// Write methods take the executor so callers can group them in one transaction.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository builds an assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const assignmentColumns = `id, course_id, day_of_week, time_slot, duration_minutes, source, created_at`

// ListAll returns every committed session. A nil executor reads outside any transaction.
func (r *AssignmentRepository) ListAll(ctx context.Context, exec sqlx.QueryerContext) ([]models.Assignment, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + assignmentColumns + ` FROM course_schedules ORDER BY course_id ASC, day_of_week ASC, time_slot ASC`
	var items []models.Assignment
	if err := sqlx.SelectContext(ctx, exec, &items, query); err != nil {
		return nil, fmt.Errorf("list course schedules: %w", err)
	}
	return items, nil
}

// DeleteByCourse removes every session of a course and returns the count.
func (r *AssignmentRepository) DeleteByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int, error) {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM course_schedules WHERE course_id = $1`, courseID)
	if err != nil {
		return 0, fmt.Errorf("delete course schedules for %s: %w", courseID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete course schedules for %s: %w", courseID, err)
	}
	return int(affected), nil
}

// ReplaceForCourse swaps a course's sessions for items.
func (r *AssignmentRepository) ReplaceForCourse(ctx context.Context, exec sqlx.ExtContext, courseID string, items []models.Assignment) error {
	if _, err := r.DeleteByCourse(ctx, exec, courseID); err != nil {
		return err
	}
	return r.insert(ctx, exec, items)
}

// ReplaceAll swaps the whole timetable for items.
func (r *AssignmentRepository) ReplaceAll(ctx context.Context, exec sqlx.ExtContext, items []models.Assignment) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM course_schedules`); err != nil {
		return fmt.Errorf("clear course schedules: %w", err)
	}
	return r.insert(ctx, exec, items)
}

func (r *AssignmentRepository) insert(ctx context.Context, exec sqlx.ExtContext, items []models.Assignment) error {
	if len(items) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO course_schedules (id, course_id, day_of_week, time_slot, duration_minutes, source, created_at)
VALUES (:id, :course_id, :day_of_week, :time_slot, :duration_minutes, :source, :created_at)`

	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		if item.Source == "" {
			item.Source = models.AssignmentGenerated
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, item); err != nil {
			return fmt.Errorf("insert course schedule %s %s %s: %w", item.CourseID, item.DayOfWeek, item.TimeSlot, err)
		}
	}
	return nil
}
