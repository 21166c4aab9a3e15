package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ResourceRepository loads teachers, rooms and groups with their declared
// unavailability in one round trip.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository builds a resource repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// ListAll returns every teacher, room and group.
func (r *ResourceRepository) ListAll(ctx context.Context) ([]models.Resource, error) {
	const query = `SELECT 'teacher' AS kind, id, full_name AS name, unavailable FROM teachers
UNION ALL
SELECT 'room' AS kind, id, name, unavailable FROM rooms
UNION ALL
SELECT 'group' AS kind, id, name, unavailable FROM student_groups
ORDER BY kind ASC, id ASC`
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}
