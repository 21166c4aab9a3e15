package models

import "time"

// Course is a (subject, teacher, group, optional room) binding that must be
// scheduled WeeklySessions times per week.
type Course struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	SubjectID        string    `db:"subject_id" json:"subject_id"`
	SubjectName      string    `db:"subject_name" json:"subject_name"`
	TeacherID        string    `db:"teacher_id" json:"teacher_id"`
	TeacherName      string    `db:"teacher_name" json:"teacher_name"`
	GroupID          string    `db:"group_id" json:"group_id"`
	GroupName        string    `db:"group_name" json:"group_name"`
	GroupSize        int       `db:"group_size" json:"group_size"`
	RoomID           *string   `db:"room_id" json:"room_id,omitempty"`
	RoomName         *string   `db:"room_name" json:"room_name,omitempty"`
	WeeklySessions   int       `db:"weekly_sessions" json:"weekly_sessions"`
	Active           bool      `db:"active" json:"active"`
	TeacherQualified bool      `db:"teacher_qualified" json:"teacher_qualified"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Room returns the room id or an empty string when the course has no room.
func (c Course) Room() string {
	if c.RoomID == nil {
		return ""
	}
	return *c.RoomID
}
