package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, cfg.Scheduler.WorkingDays)
	assert.Equal(t, 7, cfg.Scheduler.DayStartHour)
	assert.Equal(t, 15, cfg.Scheduler.DayEndHour)
	assert.True(t, cfg.Scheduler.ValidateOnCommit)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.RunTimeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCHEDULER_WORKING_DAYS", "Monday, Wednesday ,Friday")
	t.Setenv("SCHEDULER_VALIDATE_ON_COMMIT", "false")
	t.Setenv("SCHEDULER_RUN_TIMEOUT", "not-a-duration")
	t.Setenv("TIMETABLE_CACHE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"Monday", "Wednesday", "Friday"}, cfg.Scheduler.WorkingDays)
	assert.False(t, cfg.Scheduler.ValidateOnCommit)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.RunTimeout, "invalid durations fall back")
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
}
