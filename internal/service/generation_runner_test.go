package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type generatorStub struct {
	mu      sync.Mutex
	results []error
	calls   []GenerateOptions
	runs    map[string]*models.GenerationRun
}

func (g *generatorStub) Generate(ctx context.Context, opts GenerateOptions) (*dto.GenerateScheduleResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, opts)
	if len(g.results) > 0 {
		err := g.results[0]
		g.results = g.results[1:]
		if err != nil {
			return nil, err
		}
	}
	return &dto.GenerateScheduleResponse{RunID: opts.RunID, Status: string(models.GenerationSucceeded), PlacedSessions: 4}, nil
}

func (g *generatorStub) GetRun(ctx context.Context, id string) (*models.GenerationRun, error) {
	if run, ok := g.runs[id]; ok {
		return run, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found")
}

func (g *generatorStub) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func waitForState(t *testing.T, r *GenerationRunner, id, state string) *dto.GenerationRunStatus {
	t.Helper()
	var status *dto.GenerationRunStatus
	require.Eventually(t, func() bool {
		var err error
		status, err = r.Status(context.Background(), id)
		return err == nil && status.State == state
	}, 2*time.Second, 5*time.Millisecond)
	return status
}

func TestGenerationRunnerRunsQueuedJob(t *testing.T) {
	gen := &generatorStub{}
	runner := NewGenerationRunner(gen, NewMetricsService(), nil, GenerationRunnerConfig{RetryDelay: time.Millisecond})
	runner.Start(context.Background())
	defer runner.Stop()

	queued, err := runner.Enqueue("admin-1")
	require.NoError(t, err)
	assert.Equal(t, dto.RunQueued, queued.State)

	status := waitForState(t, runner, queued.ID, dto.RunSucceeded)
	require.NotNil(t, status.Result)
	assert.Equal(t, queued.ID, status.Result.RunID)
	assert.Equal(t, 1, status.Attempts)
	assert.NotNil(t, status.FinishedAt)

	require.Equal(t, 1, gen.callCount())
	assert.Equal(t, models.TriggerAsync, gen.calls[0].Trigger)
	assert.Equal(t, "admin-1", gen.calls[0].RequestedBy)
	assert.Equal(t, queued.ID, gen.calls[0].RunID)
}

func TestGenerationRunnerRetriesBusyTimetable(t *testing.T) {
	gen := &generatorStub{results: []error{appErrors.Clone(appErrors.ErrScheduleBusy, ""), nil}}
	runner := NewGenerationRunner(gen, nil, nil, GenerationRunnerConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	runner.Start(context.Background())
	defer runner.Stop()

	queued, err := runner.Enqueue("admin-1")
	require.NoError(t, err)

	status := waitForState(t, runner, queued.ID, dto.RunSucceeded)
	assert.Equal(t, 2, status.Attempts)
	assert.Empty(t, status.Error)
	assert.Equal(t, 2, gen.callCount())
}

func TestGenerationRunnerFailsOnPermanentError(t *testing.T) {
	gen := &generatorStub{results: []error{appErrors.Clone(appErrors.ErrInternal, "database gone")}}
	runner := NewGenerationRunner(gen, nil, nil, GenerationRunnerConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	runner.Start(context.Background())
	defer runner.Stop()

	queued, err := runner.Enqueue("")
	require.NoError(t, err)

	status := waitForState(t, runner, queued.ID, dto.RunFailed)
	assert.Contains(t, status.Error, "database gone")
	assert.Equal(t, 1, gen.callCount())
}

func TestGenerationRunnerEnqueueBeforeStart(t *testing.T) {
	runner := NewGenerationRunner(&generatorStub{}, nil, nil, GenerationRunnerConfig{})
	_, err := runner.Enqueue("admin-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestGenerationRunnerStatusFallsBackToHistory(t *testing.T) {
	started := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	requestedBy := "admin-2"
	gen := &generatorStub{runs: map[string]*models.GenerationRun{
		"run-old": {
			ID:               "run-old",
			Status:           models.GenerationPartial,
			ScheduledCourses: 3,
			TotalCourses:     4,
			PlacedSessions:   7,
			Unscheduled:      types.JSONText(`[{"courseId":"c4","courseName":"Art","session":1,"reason":"no_feasible_slot"}]`),
			RequestedBy:      &requestedBy,
			StartedAt:        started,
			FinishedAt:       started.Add(1500 * time.Millisecond),
		},
	}}
	runner := NewGenerationRunner(gen, nil, nil, GenerationRunnerConfig{})

	status, err := runner.Status(context.Background(), "run-old")
	require.NoError(t, err)
	assert.Equal(t, dto.RunSucceeded, status.State)
	assert.Equal(t, "admin-2", status.RequestedBy)
	require.NotNil(t, status.Result)
	assert.Equal(t, "partial", status.Result.Status)
	assert.Equal(t, int64(1500), status.Result.DurationMillis)
	require.Len(t, status.Result.UnscheduledSessions, 1)
	assert.Equal(t, "c4", status.Result.UnscheduledSessions[0].CourseID)

	_, err = runner.Status(context.Background(), "unknown")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.False(t, errors.Is(err, sql.ErrNoRows))
}

func TestGenerationRunnerEvictsFinishedRuns(t *testing.T) {
	runner := NewGenerationRunner(&generatorStub{}, nil, nil, GenerationRunnerConfig{HistoryLimit: 2})
	runner.mu.Lock()
	runner.remember(&dto.GenerationRunStatus{ID: "a", State: dto.RunSucceeded})
	runner.remember(&dto.GenerationRunStatus{ID: "b", State: dto.RunQueued})
	runner.remember(&dto.GenerationRunStatus{ID: "c", State: dto.RunQueued})
	runner.mu.Unlock()

	assert.NotContains(t, runner.runs, "a")
	assert.Contains(t, runner.runs, "b")
	assert.Contains(t, runner.runs, "c")
	assert.Equal(t, []string{"b", "c"}, runner.order)
}
