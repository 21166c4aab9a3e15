package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type courseReader interface {
	ListActive(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type resourceReader interface {
	ListAll(ctx context.Context) ([]models.Resource, error)
}

type assignmentStore interface {
	ListAll(ctx context.Context, exec sqlx.QueryerContext) ([]models.Assignment, error)
	DeleteByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int, error)
	ReplaceForCourse(ctx context.Context, exec sqlx.ExtContext, courseID string, items []models.Assignment) error
	ReplaceAll(ctx context.Context, exec sqlx.ExtContext, items []models.Assignment) error
}

type scheduleLocker interface {
	Acquire(ctx context.Context, exec sqlx.QueryerContext) error
}

type runRecorder interface {
	Create(ctx context.Context, exec sqlx.ExtContext, run *models.GenerationRun) error
	ListRecent(ctx context.Context, limit, offset int) ([]models.GenerationRun, int, error)
	FindByID(ctx context.Context, id string) (*models.GenerationRun, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type timetableCache interface {
	InvalidateTimetable(ctx context.Context) error
}

// TimetableConfig governs the working week and allocator limits.
type TimetableConfig struct {
	Grid             *scheduler.Grid
	MaxIterations    int
	ValidateOnCommit bool
	RunTimeout       time.Duration
}

// GenerateOptions describes who asked for a generation pass and how.
type GenerateOptions struct {
	RunID       string
	Trigger     models.GenerationTrigger
	RequestedBy string
}

// TimetableService owns the committed timetable. Generation, manual commits
// and clears are exclusive writers; previews, verification and projections
// are concurrent readers. Across processes writers are serialised by a
// Postgres advisory lock taken inside the write transaction.
type TimetableService struct {
	courses     courseReader
	resources   resourceReader
	assignments assignmentStore
	lock        scheduleLocker
	runs        runRecorder
	tx          txProvider
	cache       timetableCache
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         TimetableConfig

	mu      sync.RWMutex
	version atomic.Uint64
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	courses courseReader,
	resources resourceReader,
	assignments assignmentStore,
	lock scheduleLocker,
	runs runRecorder,
	tx txProvider,
	cache timetableCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Grid == nil {
		cfg.Grid = scheduler.DefaultGrid()
	}
	return &TimetableService{
		courses:     courses,
		resources:   resources,
		assignments: assignments,
		lock:        lock,
		runs:        runs,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Grid returns the working week shared by every operation.
func (s *TimetableService) Grid() *scheduler.Grid {
	return s.cfg.Grid
}

// snapshot is the committed timetable as the scheduler sees it.
type snapshot struct {
	courses      []scheduler.Course
	byID         map[string]models.Course
	availability *scheduler.Availability
	state        *scheduler.State
	warnings     []string
}

// loadSnapshot reads courses, resources and, when withState is set, the
// committed assignments in parallel. Assignments are read through exec so a
// writer sees them under its lock; nil reads outside any transaction.
func (s *TimetableService) loadSnapshot(ctx context.Context, exec sqlx.QueryerContext, withState bool) (*snapshot, error) {
	var (
		courses     []models.Course
		resources   []models.Resource
		assignments []models.Assignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = s.courses.ListActive(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		resources, err = s.resources.ListAll(gctx)
		return err
	})
	if withState {
		g.Go(func() error {
			var err error
			assignments, err = s.assignments.ListAll(gctx, exec)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable data")
	}

	snap := &snapshot{
		courses:      make([]scheduler.Course, 0, len(courses)),
		byID:         make(map[string]models.Course, len(courses)),
		availability: scheduler.NewAvailability(),
		state:        scheduler.NewState(),
	}
	for _, c := range courses {
		snap.courses = append(snap.courses, toSchedulerCourse(c))
		snap.byID[c.ID] = c
	}
	snap.warnings = append(snap.warnings, registerResources(snap.availability, resources)...)

	if withState {
		for _, a := range assignments {
			course, ok := snap.byID[a.CourseID]
			if !ok {
				continue
			}
			slot, err := scheduler.ParseSlot(a.DayOfWeek, a.TimeSlot, a.DurationMinutes)
			if err != nil {
				snap.warnings = append(snap.warnings, fmt.Sprintf("ignoring stored session %s of course %s: %v", a.ID, a.CourseID, err))
				continue
			}
			snap.state.Add(toSchedulerCourse(course), slot)
		}
	}
	return snap, nil
}

// registerResources loads declared unavailability. An entity whose windows
// cannot be read is left unregistered, which makes it unavailable everywhere.
func registerResources(av *scheduler.Availability, resources []models.Resource) []string {
	var warnings []string
	for _, r := range resources {
		kind := scheduler.ResourceKind(r.Kind)
		if !kind.Valid() {
			warnings = append(warnings, fmt.Sprintf("unknown resource kind %q for %s", r.Kind, r.ID))
			continue
		}
		stored, err := r.Windows()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s %s is unavailable: %v", r.Kind, r.ID, err))
			continue
		}
		windows := make([]scheduler.Window, 0, len(stored))
		valid := true
		for _, w := range stored {
			window, err := scheduler.ParseWindow(string(w.Day), w.Time)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s %s is unavailable: bad window %s %s: %v", r.Kind, r.ID, w.Day, w.Time, err))
				valid = false
				break
			}
			windows = append(windows, window)
		}
		if valid {
			av.Register(kind, r.ID, windows...)
		}
	}
	return warnings
}

func toSchedulerCourse(c models.Course) scheduler.Course {
	course := scheduler.Course{
		ID:             c.ID,
		Name:           c.Name,
		TeacherID:      c.TeacherID,
		GroupID:        c.GroupID,
		RoomID:         c.Room(),
		WeeklySessions: c.WeeklySessions,
		SubjectName:    c.SubjectName,
		TeacherName:    c.TeacherName,
		GroupName:      c.GroupName,
	}
	if c.RoomName != nil {
		course.RoomName = *c.RoomName
	}
	return course
}

// withLockedTx runs fn in one transaction that holds the timetable lock.
func (s *TimetableService) withLockedTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.lock.Acquire(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrScheduleLocked) {
			return appErrors.Wrap(err, appErrors.ErrScheduleBusy.Code, appErrors.ErrScheduleBusy.Status, appErrors.ErrScheduleBusy.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable")
	}
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable")
	}
	return nil
}

// Version counts committed writes in this process. Readers compare it across
// a load to tell whether what they read may already be stale.
func (s *TimetableService) Version() uint64 {
	return s.version.Load()
}

// invalidate publishes a committed write: the version moves before the cached
// projections are dropped.
func (s *TimetableService) invalidate(ctx context.Context) {
	s.version.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTimetable(ctx); err != nil {
		s.logger.Warn("timetable cache invalidation failed", zap.Error(err))
	}
}

// Generate rebuilds the whole timetable from scratch and replaces the stored
// one atomically. Sessions that cannot be placed are reported, not fatal.
func (s *TimetableService) Generate(ctx context.Context, opts GenerateOptions) (*dto.GenerateScheduleResponse, error) {
	if opts.Trigger == "" {
		opts.Trigger = models.TriggerSync
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	snap, err := s.loadSnapshot(ctx, nil, false)
	if err != nil {
		return nil, err
	}

	warnings := snap.warnings
	for _, id := range sortedCourseIDs(snap.byID) {
		if c := snap.byID[id]; !c.TeacherQualified {
			warnings = append(warnings, fmt.Sprintf("teacher %s is not registered for subject %s (course %s)", c.TeacherID, c.SubjectID, c.ID))
		}
	}

	allocCtx := ctx
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		allocCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}
	state := scheduler.NewState()
	result, err := scheduler.NewAllocator(s.cfg.Grid, snap.availability, s.cfg.MaxIterations).Allocate(allocCtx, snap.courses, state)
	if err != nil {
		if errors.Is(err, scheduler.ErrInvalidCourse) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate timetable")
	}

	placed := state.Assignments()
	items := make([]models.Assignment, 0, len(placed))
	for _, a := range placed {
		items = append(items, models.Assignment{
			CourseID:        a.Course.ID,
			DayOfWeek:       a.Slot.Day().String(),
			TimeSlot:        a.Slot.Label(),
			DurationMinutes: a.Slot.Minutes(),
			Source:          models.AssignmentGenerated,
		})
	}

	unscheduled := make([]dto.UnscheduledSession, 0, len(result.Unscheduled))
	for _, u := range result.Unscheduled {
		unscheduled = append(unscheduled, dto.UnscheduledSession{
			CourseID:   u.CourseID,
			CourseName: u.CourseName,
			Session:    u.Session,
			Reason:     u.Reason,
		})
	}
	status := models.GenerationSucceeded
	if !result.Complete() {
		status = models.GenerationPartial
	}
	payload, err := json.Marshal(unscheduled)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode unscheduled sessions")
	}
	run := &models.GenerationRun{
		ID:               opts.RunID,
		Trigger:          opts.Trigger,
		Status:           status,
		ScheduledCourses: result.ScheduledCourses,
		TotalCourses:     result.TotalCourses,
		PlacedSessions:   result.PlacedSessions,
		UnscheduledCount: len(result.Unscheduled),
		Evaluations:      result.Evaluations,
		Unscheduled:      payload,
		RequestedBy:      optionalString(opts.RequestedBy),
		StartedAt:        started.UTC(),
	}

	err = s.withLockedTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.assignments.ReplaceAll(ctx, tx, items); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store generated timetable")
		}
		run.FinishedAt = time.Now().UTC()
		if err := s.runs.Create(ctx, tx, run); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generation run")
		}
		return nil
	})
	if err != nil {
		s.recordFailedRun(ctx, run, err)
		return nil, err
	}
	s.invalidate(ctx)

	elapsed := time.Since(started)
	s.metrics.ObserveGeneration(string(opts.Trigger), string(status), len(unscheduled), elapsed)
	s.logger.Info("timetable generated",
		zap.String("run_id", run.ID),
		zap.String("trigger", string(opts.Trigger)),
		zap.String("status", string(status)),
		zap.Int("scheduled_courses", result.ScheduledCourses),
		zap.Int("total_courses", result.TotalCourses),
		zap.Int("placed_sessions", result.PlacedSessions),
		zap.Int("unscheduled", len(unscheduled)),
		zap.Int("evaluations", result.Evaluations),
		zap.Duration("elapsed", elapsed),
	)
	for _, w := range warnings {
		s.logger.Warn("generation warning", zap.String("run_id", run.ID), zap.String("warning", w))
	}

	return &dto.GenerateScheduleResponse{
		RunID:               run.ID,
		Status:              string(status),
		ScheduledCourses:    result.ScheduledCourses,
		TotalCourses:        result.TotalCourses,
		PlacedSessions:      result.PlacedSessions,
		UnscheduledSessions: unscheduled,
		Warnings:            warnings,
		DurationMillis:      elapsed.Milliseconds(),
	}, nil
}

// recordFailedRun keeps a trace of a pass whose write was rolled back. Busy
// passes are retried by the caller and are not recorded.
func (s *TimetableService) recordFailedRun(ctx context.Context, run *models.GenerationRun, cause error) {
	if appErrors.IsRetryable(cause) {
		return
	}
	failed := *run
	failed.Status = models.GenerationFailed
	failed.FinishedAt = time.Now().UTC()
	failed.ErrorMessage = optionalString(cause.Error())
	if err := s.runs.Create(ctx, nil, &failed); err != nil {
		s.logger.Error("failed to record failed generation run", zap.Error(err))
	}
	s.metrics.ObserveGeneration(string(run.Trigger), string(models.GenerationFailed), run.UnscheduledCount, failed.FinishedAt.Sub(run.StartedAt))
}

// loadCourse fetches an active course or returns a typed error.
func (s *TimetableService) loadCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s is inactive", courseID))
	}
	return course, nil
}

func (s *TimetableService) parseRequest(req dto.ManualScheduleRequest) ([]scheduler.Slot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manual schedule payload")
	}
	proposals := make([]scheduler.Proposal, 0, len(req.Slots))
	for _, p := range req.Slots {
		proposals = append(proposals, scheduler.Proposal{Day: p.Day, Time: p.Time, Duration: p.Duration})
	}
	slots, err := scheduler.ParseProposals(s.cfg.Grid, proposals)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return slots, nil
}

// CheckConflicts previews a manual schedule without writing anything. Every
// conflict of every proposed slot is reported.
func (s *TimetableService) CheckConflicts(ctx context.Context, courseID string, req dto.ManualScheduleRequest) (*dto.ConflictCheckResponse, error) {
	slots, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}
	model, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.loadSnapshot(ctx, nil, true)
	if err != nil {
		return nil, err
	}
	conflicts := scheduler.CheckManual(snap.availability, snap.state, toSchedulerCourse(*model), slots)
	reports := toConflictReports(conflicts)
	for _, c := range conflicts {
		s.metrics.RecordConflict(string(c.Type))
	}
	return &dto.ConflictCheckResponse{
		CourseID:     courseID,
		HasConflicts: len(reports) > 0,
		Conflicts:    reports,
	}, nil
}

// CommitManual replaces a course's sessions with the proposed slots. Unless
// commit validation is disabled, any conflict refuses the whole commit.
func (s *TimetableService) CommitManual(ctx context.Context, courseID string, req dto.ManualScheduleRequest) (*dto.ManualScheduleResponse, error) {
	slots, err := s.parseRequest(req)
	if err != nil {
		s.metrics.RecordManualCommit("invalid")
		return nil, err
	}
	model, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	course := toSchedulerCourse(*model)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.Assignment, 0, len(slots))
	committed := make([]dto.CommittedSlot, 0, len(slots))
	for _, slot := range slots {
		items = append(items, models.Assignment{
			CourseID:        courseID,
			DayOfWeek:       slot.Day().String(),
			TimeSlot:        slot.Label(),
			DurationMinutes: slot.Minutes(),
			Source:          models.AssignmentManual,
		})
		committed = append(committed, dto.CommittedSlot{
			Day:             slot.Day().String(),
			Time:            slot.Label(),
			DurationMinutes: slot.Minutes(),
		})
	}

	// The check reads the stored timetable inside the locked transaction so
	// no other writer can commit between the check and the replace.
	var conflicts []scheduler.Conflict
	err = s.withLockedTx(ctx, func(tx *sqlx.Tx) error {
		if s.cfg.ValidateOnCommit {
			snap, err := s.loadSnapshot(ctx, tx, true)
			if err != nil {
				return err
			}
			if conflicts = scheduler.CheckManual(snap.availability, snap.state, course, slots); len(conflicts) > 0 {
				return appErrors.WithDetails(
					appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("proposed schedule for course %s has %d conflict(s)", courseID, len(conflicts))),
					toConflictReports(conflicts),
				)
			}
		}
		if err := s.assignments.ReplaceForCourse(ctx, tx, courseID, items); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to store schedule for course %s", courseID))
		}
		return nil
	})
	if len(conflicts) > 0 {
		for _, c := range conflicts {
			s.metrics.RecordConflict(string(c.Type))
		}
		s.metrics.RecordManualCommit("rejected")
		s.logger.Info("manual schedule refused",
			zap.String("course_id", courseID),
			zap.Int("conflicts", len(conflicts)),
		)
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.metrics.RecordManualCommit("committed")
	s.logger.Info("manual schedule committed",
		zap.String("course_id", courseID),
		zap.Int("slots", len(items)),
		zap.Bool("validated", s.cfg.ValidateOnCommit),
	)

	return &dto.ManualScheduleResponse{CourseID: courseID, Slots: committed, Validated: s.cfg.ValidateOnCommit}, nil
}

// ClearCourse removes every session of a course.
func (s *TimetableService) ClearCourse(ctx context.Context, courseID string) (*dto.ClearScheduleResponse, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	err = s.withLockedTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		removed, err = s.assignments.DeleteByCourse(ctx, tx, course.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to clear schedule for course %s", course.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("course schedule cleared", zap.String("course_id", course.ID), zap.Int("removed", removed))
	return &dto.ClearScheduleResponse{CourseID: course.ID, Removed: removed}, nil
}

// Verify scans the committed timetable for clashes, which can only appear
// when commits bypass validation.
func (s *TimetableService) Verify(ctx context.Context) (*dto.VerificationResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.loadSnapshot(ctx, nil, true)
	if err != nil {
		return nil, err
	}
	reports := toConflictReports(scheduler.Verify(snap.state))
	return &dto.VerificationResponse{
		Valid:       len(reports) == 0,
		Assignments: snap.state.Len(),
		Conflicts:   reports,
	}, nil
}

// CommittedAssignments returns the stored timetable in scheduler form.
func (s *TimetableService) CommittedAssignments(ctx context.Context) ([]scheduler.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.loadSnapshot(ctx, nil, true)
	if err != nil {
		return nil, err
	}
	return snap.state.Assignments(), nil
}

// ListRuns pages through generation history, newest first.
func (s *TimetableService) ListRuns(ctx context.Context, page, pageSize int) ([]models.GenerationRun, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	runs, total, err := s.runs.ListRecent(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generation runs")
	}
	return runs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// GetRun returns one persisted generation run.
func (s *TimetableService) GetRun(ctx context.Context, id string) (*models.GenerationRun, error) {
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation run")
	}
	return run, nil
}

func toConflictReports(conflicts []scheduler.Conflict) []dto.ConflictReport {
	reports := make([]dto.ConflictReport, 0, len(conflicts))
	for _, c := range conflicts {
		reports = append(reports, dto.ConflictReport{
			Type:                  string(c.Type),
			Message:               c.Message,
			Day:                   c.Slot.Day().String(),
			Time:                  c.Slot.Label(),
			ConflictingCourseID:   c.CourseID,
			ConflictingCourseName: c.CourseName,
		})
	}
	return reports
}

func sortedCourseIDs(courses map[string]models.Course) []string {
	ids := make([]string, 0, len(courses))
	for id := range courses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
