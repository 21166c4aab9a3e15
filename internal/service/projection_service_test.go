package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

type committedStub struct {
	grid        *scheduler.Grid
	assignments []scheduler.Assignment
	version     uint64
	calls       int
	err         error
	onLoad      func()
}

func (s *committedStub) Grid() *scheduler.Grid { return s.grid }

func (s *committedStub) Version() uint64 { return s.version }

func (s *committedStub) CommittedAssignments(ctx context.Context) ([]scheduler.Assignment, error) {
	s.calls++
	loaded := append([]scheduler.Assignment(nil), s.assignments...)
	if s.onLoad != nil {
		s.onLoad()
	}
	return loaded, s.err
}

func cellAt(cells []scheduler.Cell, day, time string) scheduler.Cell {
	for _, c := range cells {
		if c.Day == day && c.Time == time {
			return c
		}
	}
	return scheduler.Cell{}
}

func slotAt(t *testing.T, day scheduler.Day, hour int) scheduler.Slot {
	t.Helper()
	slot, err := scheduler.NewSlot(day, hour, 60)
	require.NoError(t, err)
	return slot
}

func sampleCommitted(t *testing.T) *committedStub {
	algebra := scheduler.Course{ID: "c1", Name: "Algebra", TeacherID: "t1", TeacherName: "Ana", GroupID: "g1", RoomID: "r1", RoomName: "Lab 1", WeeklySessions: 1}
	history := scheduler.Course{ID: "c2", Name: "History", TeacherID: "t2", GroupID: "g2", WeeklySessions: 1}
	return &committedStub{
		grid: scheduler.DefaultGrid(),
		assignments: []scheduler.Assignment{
			{Course: algebra, Slot: slotAt(t, scheduler.Monday, 8)},
			{Course: history, Slot: slotAt(t, scheduler.Monday, 8)},
		},
	}
}

func TestProjectionServiceCachesPerView(t *testing.T) {
	committed := sampleCommitted(t)
	repo := newMemoryCache()
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	svc := NewProjectionService(committed, cache, zap.NewNop())

	view, err := svc.ParseView(dto.TimetableViewQuery{View: "teacher", ID: "t1"})
	require.NoError(t, err)

	first, hit, err := svc.Project(context.Background(), view)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, first.Cells, 40)
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, first.Days)
	require.NotNil(t, first.Cells[1].Course)
	assert.Equal(t, "Algebra", first.Cells[1].Course.Name)
	assert.Contains(t, repo.data, "timetable:view:teacher:t1")

	second, hit, err := svc.Project(context.Background(), view)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, committed.calls)
	assert.Equal(t, first.Cells[1].Course.ID, second.Cells[1].Course.ID)

	require.NoError(t, cache.InvalidateTimetable(context.Background()))
	assert.Equal(t, []string{"timetable:view:*"}, repo.deleted)
	_, hit, err = svc.Project(context.Background(), view)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, committed.calls)
}

func TestProjectionServiceDoesNotCacheGridLoadedDuringWrite(t *testing.T) {
	committed := sampleCommitted(t)
	repo := newMemoryCache()
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	svc := NewProjectionService(committed, cache, zap.NewNop())
	view := scheduler.View{Kind: scheduler.ViewTeacher, ID: "t1"}
	geometry := scheduler.Course{ID: "c3", Name: "Geometry", TeacherID: "t1", GroupID: "g2", WeeklySessions: 1}

	// A write lands after the read but before the grid is cached.
	committed.onLoad = func() {
		committed.onLoad = nil
		committed.assignments = append(committed.assignments, scheduler.Assignment{Course: geometry, Slot: slotAt(t, scheduler.Tuesday, 9)})
		committed.version++
		require.NoError(t, cache.InvalidateTimetable(context.Background()))
	}

	first, hit, err := svc.Project(context.Background(), view)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, cellAt(first.Cells, "Tuesday", "09:00-10:00").Course)
	assert.NotContains(t, repo.data, "timetable:view:teacher:t1")

	second, hit, err := svc.Project(context.Background(), view)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, committed.calls)
	cell := cellAt(second.Cells, "Tuesday", "09:00-10:00")
	require.NotNil(t, cell.Course)
	assert.Equal(t, "Geometry", cell.Course.Name)
	assert.Contains(t, repo.data, "timetable:view:teacher:t1")

	_, hit, err = svc.Project(context.Background(), view)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestProjectionServiceCacheFailureFallsThrough(t *testing.T) {
	committed := sampleCommitted(t)
	repo := newMemoryCache()
	repo.getErr = errors.New("redis down")
	svc := NewProjectionService(committed, NewCacheService(repo, nil, time.Minute, nil, true), nil)

	resp, hit, err := svc.Project(context.Background(), scheduler.View{Kind: scheduler.ViewAll})
	require.NoError(t, err)
	assert.False(t, hit)
	require.NotNil(t, resp.Cells[1].Course)
	assert.Len(t, resp.Cells[1].Courses, 2)
}

func TestProjectionServiceWithoutCache(t *testing.T) {
	committed := sampleCommitted(t)
	svc := NewProjectionService(committed, nil, nil)

	resp, hit, err := svc.Project(context.Background(), scheduler.View{Kind: scheduler.ViewRoom, ID: "r9"})
	require.NoError(t, err)
	assert.False(t, hit)
	for _, cell := range resp.Cells {
		assert.Nil(t, cell.Course)
	}

	_, err = svc.ParseView(dto.TimetableViewQuery{View: "teacher"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestExportServiceRendersCSVGrid(t *testing.T) {
	committed := sampleCommitted(t)
	svc := NewExportService(NewProjectionService(committed, nil, nil), zap.NewNop(), export.NewCSVExporter(), nil)
	svc.now = func() time.Time { return time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC) }

	result, err := svc.Export(context.Background(), scheduler.View{Kind: scheduler.ViewAll}, "")
	require.NoError(t, err)
	assert.Equal(t, "timetable_all_20240701_093000.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "Time,Monday,Tuesday,Wednesday,Thursday,Friday", lines[0])
	assert.Equal(t, `08:00-09:00,"Algebra (Ana, Lab 1); History (t2)",,,,`, lines[2])
}

func TestExportServiceRendersPDF(t *testing.T) {
	committed := sampleCommitted(t)
	svc := NewExportService(NewProjectionService(committed, nil, nil), nil, nil, nil)

	result, err := svc.Export(context.Background(), scheduler.View{Kind: scheduler.ViewGroup, ID: "g1"}, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
	assert.True(t, strings.HasPrefix(result.Filename, "timetable_group-g1_"))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(NewProjectionService(sampleCommitted(t), nil, nil), nil, nil, nil)
	_, err := svc.Export(context.Background(), scheduler.View{Kind: scheduler.ViewAll}, "xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
