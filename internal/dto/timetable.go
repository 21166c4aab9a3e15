package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
)

// ProposedSlot is one manually requested session.
type ProposedSlot struct {
	Day      string `json:"day" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Duration int    `json:"duration" validate:"omitempty,min=15,max=240"`
}

// ManualScheduleRequest proposes the full weekly schedule of one course.
type ManualScheduleRequest struct {
	Slots []ProposedSlot `json:"slots" validate:"required,min=1,max=21,dive"`
}

// ConflictReport describes one conflict of a proposed slot.
type ConflictReport struct {
	Type                  string `json:"type"`
	Message               string `json:"message"`
	Day                   string `json:"day"`
	Time                  string `json:"time"`
	ConflictingCourseID   string `json:"conflictingCourseId,omitempty"`
	ConflictingCourseName string `json:"conflictingCourseName,omitempty"`
}

// ConflictCheckResponse is the result of a read-only conflict preview.
type ConflictCheckResponse struct {
	CourseID     string           `json:"courseId"`
	HasConflicts bool             `json:"hasConflicts"`
	Conflicts    []ConflictReport `json:"conflicts"`
}

// CommittedSlot is a stored session as returned to clients.
type CommittedSlot struct {
	Day             string `json:"day"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"durationMinutes"`
}

// ManualScheduleResponse confirms a manual commit.
type ManualScheduleResponse struct {
	CourseID  string          `json:"courseId"`
	Slots     []CommittedSlot `json:"slots"`
	Validated bool            `json:"validated"`
}

// ClearScheduleResponse reports how many sessions were removed.
type ClearScheduleResponse struct {
	CourseID string `json:"courseId"`
	Removed  int    `json:"removed"`
}

// UnscheduledSession is a session the generator could not place.
type UnscheduledSession struct {
	CourseID   string `json:"courseId"`
	CourseName string `json:"courseName"`
	Session    int    `json:"session"`
	Reason     string `json:"reason"`
}

// GenerateScheduleResponse summarises a generation pass.
type GenerateScheduleResponse struct {
	RunID               string               `json:"runId"`
	Status              string               `json:"status"`
	ScheduledCourses    int                  `json:"scheduledCourses"`
	TotalCourses        int                  `json:"totalCourses"`
	PlacedSessions      int                  `json:"placedSessions"`
	UnscheduledSessions []UnscheduledSession `json:"unscheduledSessions"`
	Warnings            []string             `json:"warnings,omitempty"`
	DurationMillis      int64                `json:"durationMillis"`
}

// GenerationRunStatus tracks an asynchronous generation request.
type GenerationRunStatus struct {
	ID          string                    `json:"id"`
	State       string                    `json:"state"`
	Attempts    int                       `json:"attempts"`
	Result      *GenerateScheduleResponse `json:"result,omitempty"`
	Error       string                    `json:"error,omitempty"`
	RequestedBy string                    `json:"requestedBy,omitempty"`
	EnqueuedAt  time.Time                 `json:"enqueuedAt"`
	StartedAt   *time.Time                `json:"startedAt,omitempty"`
	FinishedAt  *time.Time                `json:"finishedAt,omitempty"`
}

// Async run states.
const (
	RunQueued    = "queued"
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// TimetableViewQuery selects a projection.
type TimetableViewQuery struct {
	View string `form:"view" json:"view" validate:"omitempty,oneof=all teacher group room"`
	ID   string `form:"id" json:"id"`
}

// TimetableExportQuery selects a projection and an output format.
type TimetableExportQuery struct {
	TimetableViewQuery
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}

// ProjectionResponse is a dense timetable grid.
type ProjectionResponse struct {
	View  string           `json:"view"`
	ID    string           `json:"id,omitempty"`
	Days  []string         `json:"days"`
	Times []string         `json:"times"`
	Cells []scheduler.Cell `json:"cells"`
}

// VerificationResponse reports clashes found in the committed timetable.
type VerificationResponse struct {
	Valid       bool             `json:"valid"`
	Assignments int              `json:"assignments"`
	Conflicts   []ConflictReport `json:"conflicts"`
}
