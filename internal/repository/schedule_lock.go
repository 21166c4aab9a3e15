package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrScheduleLocked is returned when another transaction holds the timetable lock.
var ErrScheduleLocked = errors.New("timetable lock held by another writer")

// timetableLockKey is the advisory lock id shared by every timetable writer.
const timetableLockKey int64 = 0x7474_6162_6c65

// ScheduleLock serialises timetable writers across processes with a
// transaction scoped Postgres advisory lock.
type ScheduleLock struct{}

// NewScheduleLock builds the lock helper.
func NewScheduleLock() *ScheduleLock {
	return &ScheduleLock{}
}

// Acquire tries to take the lock inside the caller's transaction. It does not
// wait; the lock is released on commit or rollback.
func (l *ScheduleLock) Acquire(ctx context.Context, exec sqlx.QueryerContext) error {
	var acquired bool
	if err := sqlx.GetContext(ctx, exec, &acquired, `SELECT pg_try_advisory_xact_lock($1)`, timetableLockKey); err != nil {
		return fmt.Errorf("acquire timetable lock: %w", err)
	}
	if !acquired {
		return ErrScheduleLocked
	}
	return nil
}
