package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// RunRepository stores generation run history in schedule_runs.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository builds a run repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a run row.
func (r *RunRepository) Create(ctx context.Context, exec sqlx.ExtContext, run *models.GenerationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if len(run.Unscheduled) == 0 {
		run.Unscheduled = []byte("[]")
	}
	const query = `
INSERT INTO schedule_runs (id, trigger, status, scheduled_courses, total_courses, placed_sessions, unscheduled_count, evaluations, unscheduled, error_message, requested_by, started_at, finished_at)
VALUES (:id, :trigger, :status, :scheduled_courses, :total_courses, :placed_sessions, :unscheduled_count, :evaluations, :unscheduled, :error_message, :requested_by, :started_at, :finished_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, run); err != nil {
		return fmt.Errorf("insert schedule run: %w", err)
	}
	return nil
}

const runColumns = `id, trigger, status, scheduled_courses, total_courses, placed_sessions, unscheduled_count, evaluations, unscheduled, error_message, requested_by, started_at, finished_at`

// ListRecent returns the latest runs, newest first, and the total count.
func (r *RunRepository) ListRecent(ctx context.Context, limit, offset int) ([]models.GenerationRun, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM schedule_runs`); err != nil {
		return nil, 0, fmt.Errorf("count schedule runs: %w", err)
	}
	query := `SELECT ` + runColumns + ` FROM schedule_runs ORDER BY started_at DESC LIMIT $1 OFFSET $2`
	var runs []models.GenerationRun
	if err := r.db.SelectContext(ctx, &runs, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list schedule runs: %w", err)
	}
	return runs, total, nil
}

// FindByID returns one run. A missing run yields sql.ErrNoRows.
func (r *RunRepository) FindByID(ctx context.Context, id string) (*models.GenerationRun, error) {
	query := `SELECT ` + runColumns + ` FROM schedule_runs WHERE id = $1`
	var run models.GenerationRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule run %s: %w", id, err)
	}
	return &run, nil
}
