package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// GenerationStatus is the outcome of a generation pass.
type GenerationStatus string

const (
	GenerationSucceeded GenerationStatus = "succeeded"
	GenerationPartial   GenerationStatus = "partial"
	GenerationFailed    GenerationStatus = "failed"
)

// GenerationTrigger tells how a pass was started.
type GenerationTrigger string

const (
	TriggerSync  GenerationTrigger = "sync"
	TriggerAsync GenerationTrigger = "async"
)

// GenerationRun is the bookkeeping row written for every generation pass.
type GenerationRun struct {
	ID               string            `db:"id" json:"id"`
	Trigger          GenerationTrigger `db:"trigger" json:"trigger"`
	Status           GenerationStatus  `db:"status" json:"status"`
	ScheduledCourses int               `db:"scheduled_courses" json:"scheduled_courses"`
	TotalCourses     int               `db:"total_courses" json:"total_courses"`
	PlacedSessions   int               `db:"placed_sessions" json:"placed_sessions"`
	UnscheduledCount int               `db:"unscheduled_count" json:"unscheduled_count"`
	Evaluations      int               `db:"evaluations" json:"evaluations"`
	Unscheduled      types.JSONText    `db:"unscheduled" json:"unscheduled"`
	ErrorMessage     *string           `db:"error_message" json:"error_message,omitempty"`
	RequestedBy      *string           `db:"requested_by" json:"requested_by,omitempty"`
	StartedAt        time.Time         `db:"started_at" json:"started_at"`
	FinishedAt       time.Time         `db:"finished_at" json:"finished_at"`
}
