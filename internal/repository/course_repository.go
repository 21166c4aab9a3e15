package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// CourseRepository reads courses together with the names of their subject,
// teacher, group and room.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository builds a course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseSelect = `SELECT c.id, c.name, c.subject_id, s.name AS subject_name,
c.teacher_id, t.full_name AS teacher_name,
c.group_id, g.name AS group_name, g.size AS group_size,
c.room_id, r.name AS room_name,
c.weekly_sessions, c.active,
EXISTS (SELECT 1 FROM teacher_skills ts WHERE ts.teacher_id = c.teacher_id AND ts.subject_id = c.subject_id) AS teacher_qualified,
c.created_at, c.updated_at
FROM courses c
JOIN subjects s ON s.id = c.subject_id
JOIN teachers t ON t.id = c.teacher_id
JOIN student_groups g ON g.id = c.group_id
LEFT JOIN rooms r ON r.id = c.room_id`

// ListActive returns every active course ordered by name and id.
func (r *CourseRepository) ListActive(ctx context.Context) ([]models.Course, error) {
	query := courseSelect + ` WHERE c.active = TRUE ORDER BY c.name ASC, c.id ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list active courses: %w", err)
	}
	return courses, nil
}

// FindByID returns one course, active or not. sql.ErrNoRows is returned as is.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := courseSelect + ` WHERE c.id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}
