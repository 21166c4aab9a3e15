package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type committedTimetable interface {
	Grid() *scheduler.Grid
	Version() uint64
	CommittedAssignments(ctx context.Context) ([]scheduler.Assignment, error)
}

// ProjectionService renders dense timetable grids, cached per view.
type ProjectionService struct {
	timetable committedTimetable
	cache     *CacheService
	logger    *zap.Logger
}

// NewProjectionService constructs a projection service. cache may be nil.
func NewProjectionService(timetable committedTimetable, cache *CacheService, logger *zap.Logger) *ProjectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectionService{timetable: timetable, cache: cache, logger: logger}
}

// ParseView validates the query into a view.
func (s *ProjectionService) ParseView(query dto.TimetableViewQuery) (scheduler.View, error) {
	view, err := scheduler.ParseView(query.View, query.ID)
	if err != nil {
		return scheduler.View{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return view, nil
}

// Project returns the dense grid for view. The boolean reports a cache hit.
// Cache failures fall through to the store. A grid loaded while a write was
// committed is served but never left in the cache.
func (s *ProjectionService) Project(ctx context.Context, view scheduler.View) (*dto.ProjectionResponse, bool, error) {
	key := ProjectionCacheKey(view)
	var cached dto.ProjectionResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	version := s.timetable.Version()
	assignments, err := s.timetable.CommittedAssignments(ctx)
	if err != nil {
		return nil, false, err
	}
	grid := s.timetable.Grid()
	days := grid.Days()
	dayNames := make([]string, 0, len(days))
	for _, d := range days {
		dayNames = append(dayNames, d.String())
	}
	resp := &dto.ProjectionResponse{
		View:  string(view.Kind),
		ID:    view.ID,
		Days:  dayNames,
		Times: grid.Labels(),
		Cells: scheduler.Project(grid, assignments, view),
	}

	s.store(ctx, key, resp, version)
	return resp, false, nil
}

// store caches resp unless a write was published since version was read. A
// write published during the Set may have invalidated before the entry
// landed, so the entry is dropped again in that case.
func (s *ProjectionService) store(ctx context.Context, key string, resp *dto.ProjectionResponse, version uint64) {
	if !s.cache.Enabled() || s.timetable.Version() != version {
		return
	}
	if err := s.cache.Set(ctx, key, resp, 0); err != nil {
		s.logger.Debug("projection not cached", zap.String("key", key), zap.Error(err))
		return
	}
	if s.timetable.Version() != version {
		_ = s.cache.Invalidate(ctx, key)
	}
}
