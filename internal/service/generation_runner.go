package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

const generationJobType = "timetable.generate"

type timetableGenerator interface {
	Generate(ctx context.Context, opts GenerateOptions) (*dto.GenerateScheduleResponse, error)
	GetRun(ctx context.Context, id string) (*models.GenerationRun, error)
}

// GenerationRunnerConfig tunes the background generation queue.
type GenerationRunnerConfig struct {
	MaxRetries   int
	RetryDelay   time.Duration
	BufferSize   int
	HistoryLimit int
}

// GenerationRunner runs generation passes in the background on a single
// worker, so queued requests execute one after another. Busy passes are
// retried; anything else fails the run.
type GenerationRunner struct {
	generator timetableGenerator
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       GenerationRunnerConfig

	mu    sync.Mutex
	runs  map[string]*dto.GenerationRunStatus
	order []string
	now   func() time.Time
}

// NewGenerationRunner builds the runner and its queue. Call Start before Enqueue.
func NewGenerationRunner(generator timetableGenerator, metrics *MetricsService, logger *zap.Logger, cfg GenerationRunnerConfig) *GenerationRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 100
	}
	r := &GenerationRunner{
		generator: generator,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		runs:      make(map[string]*dto.GenerationRunStatus),
		now:       time.Now,
	}
	r.queue = jobs.NewQueue("timetable-generation", r.Handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		RetryIf:    appErrors.IsRetryable,
		OnGiveUp:   r.giveUp,
		Logger:     logger,
	})
	return r
}

// Start launches the worker.
func (r *GenerationRunner) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop drains the worker.
func (r *GenerationRunner) Stop() {
	r.queue.Stop()
}

// Enqueue schedules a generation pass and returns its queued status. The run
// id becomes the id of the persisted generation run.
func (r *GenerationRunner) Enqueue(requestedBy string) (*dto.GenerationRunStatus, error) {
	id := uuid.NewString()
	status := &dto.GenerationRunStatus{
		ID:          id,
		State:       dto.RunQueued,
		RequestedBy: requestedBy,
		EnqueuedAt:  r.now().UTC(),
	}
	r.mu.Lock()
	r.remember(status)
	r.mu.Unlock()

	err := r.queue.Enqueue(jobs.Job{ID: id, Type: generationJobType, Payload: requestedBy, Enqueued: status.EnqueuedAt})
	if err != nil {
		r.mu.Lock()
		delete(r.runs, id)
		r.mu.Unlock()
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Wrap(err, appErrors.ErrScheduleBusy.Code, appErrors.ErrScheduleBusy.Status, "too many generation requests queued")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation")
	}
	r.metrics.SetQueueDepth(r.queue.Pending())
	r.logger.Info("generation queued", zap.String("run_id", id), zap.String("requested_by", requestedBy))
	return copyStatus(status), nil
}

// Status reports an async run. Runs no longer held in memory are looked up
// in the run history.
func (r *GenerationRunner) Status(ctx context.Context, id string) (*dto.GenerationRunStatus, error) {
	r.mu.Lock()
	status, ok := r.runs[id]
	if ok {
		out := copyStatus(status)
		r.mu.Unlock()
		return out, nil
	}
	r.mu.Unlock()

	run, err := r.generator.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return statusFromRun(run), nil
}

// Handle executes one queued generation job.
func (r *GenerationRunner) Handle(ctx context.Context, job jobs.Job) error {
	requestedBy, _ := job.Payload.(string)
	started := r.now().UTC()
	r.update(job.ID, func(s *dto.GenerationRunStatus) {
		s.State = dto.RunRunning
		s.Attempts = job.Attempt + 1
		s.StartedAt = &started
	})
	r.metrics.SetQueueDepth(r.queue.Pending())

	result, err := r.generator.Generate(ctx, GenerateOptions{
		RunID:       job.ID,
		Trigger:     models.TriggerAsync,
		RequestedBy: requestedBy,
	})
	if err != nil {
		r.update(job.ID, func(s *dto.GenerationRunStatus) {
			s.State = dto.RunQueued
			s.Error = err.Error()
		})
		return err
	}

	finished := r.now().UTC()
	r.update(job.ID, func(s *dto.GenerationRunStatus) {
		s.State = dto.RunSucceeded
		s.Result = result
		s.Error = ""
		s.FinishedAt = &finished
	})
	return nil
}

func (r *GenerationRunner) giveUp(job jobs.Job, err error) {
	finished := r.now().UTC()
	r.update(job.ID, func(s *dto.GenerationRunStatus) {
		s.State = dto.RunFailed
		s.Error = err.Error()
		s.FinishedAt = &finished
	})
	r.logger.Warn("generation failed", zap.String("run_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
}

func (r *GenerationRunner) update(id string, fn func(*dto.GenerationRunStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status, ok := r.runs[id]; ok {
		fn(status)
	}
}

// remember stores status and evicts the oldest finished runs over the limit.
// Caller holds r.mu.
func (r *GenerationRunner) remember(status *dto.GenerationRunStatus) {
	r.runs[status.ID] = status
	r.order = append(r.order, status.ID)
	if len(r.order) <= r.cfg.HistoryLimit {
		return
	}
	kept := r.order[:0]
	excess := len(r.order) - r.cfg.HistoryLimit
	for _, id := range r.order {
		s, ok := r.runs[id]
		if !ok {
			continue
		}
		if excess > 0 && (s.State == dto.RunSucceeded || s.State == dto.RunFailed) {
			delete(r.runs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

func copyStatus(s *dto.GenerationRunStatus) *dto.GenerationRunStatus {
	out := *s
	return &out
}

func statusFromRun(run *models.GenerationRun) *dto.GenerationRunStatus {
	started := run.StartedAt
	finished := run.FinishedAt
	status := &dto.GenerationRunStatus{
		ID:         run.ID,
		Attempts:   1,
		EnqueuedAt: run.StartedAt,
		StartedAt:  &started,
		FinishedAt: &finished,
	}
	if run.RequestedBy != nil {
		status.RequestedBy = *run.RequestedBy
	}
	switch run.Status {
	case models.GenerationFailed:
		status.State = dto.RunFailed
		if run.ErrorMessage != nil {
			status.Error = *run.ErrorMessage
		}
	default:
		status.State = dto.RunSucceeded
		result := &dto.GenerateScheduleResponse{
			RunID:            run.ID,
			Status:           string(run.Status),
			ScheduledCourses: run.ScheduledCourses,
			TotalCourses:     run.TotalCourses,
			PlacedSessions:   run.PlacedSessions,
			DurationMillis:   run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
		}
		if err := run.Unscheduled.Unmarshal(&result.UnscheduledSessions); err != nil {
			status.Error = fmt.Sprintf("stored unscheduled sessions unreadable: %v", err)
		}
		status.Result = result
	}
	return status
}
