package models

import "time"

// AssignmentSource records how an assignment was produced.
type AssignmentSource string

const (
	AssignmentGenerated AssignmentSource = "generated"
	AssignmentManual    AssignmentSource = "manual"
)

// Assignment is one committed session of a course, stored in course_schedules.
// DayOfWeek is a canonical day name and TimeSlot a canonical hour band.
type Assignment struct {
	ID              string           `db:"id" json:"id"`
	CourseID        string           `db:"course_id" json:"course_id"`
	DayOfWeek       string           `db:"day_of_week" json:"day_of_week"`
	TimeSlot        string           `db:"time_slot" json:"time_slot"`
	DurationMinutes int              `db:"duration_minutes" json:"duration_minutes"`
	Source          AssignmentSource `db:"source" json:"source"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}
