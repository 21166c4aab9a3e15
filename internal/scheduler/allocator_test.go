package scheduler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekGrid(t *testing.T, startHour, endHour int) *Grid {
	t.Helper()
	grid, err := NewGrid([]Day{Monday, Tuesday, Wednesday, Thursday, Friday}, startHour, endHour)
	require.NoError(t, err)
	return grid
}

func registerAll(av *Availability, courses ...Course) {
	for _, c := range courses {
		if !av.Known(ResourceTeacher, c.TeacherID) {
			av.Register(ResourceTeacher, c.TeacherID)
		}
		if !av.Known(ResourceGroup, c.GroupID) {
			av.Register(ResourceGroup, c.GroupID)
		}
		if c.RoomID != "" && !av.Known(ResourceRoom, c.RoomID) {
			av.Register(ResourceRoom, c.RoomID)
		}
	}
}

func keysOf(state *State, courseID string) []SlotKey {
	var keys []SlotKey
	for _, s := range state.CourseSlots(courseID) {
		keys = append(keys, s.Key())
	}
	return keys
}

func TestAllocateSharedTeacherUsesDistinctSlots(t *testing.T) {
	courses := []Course{
		{ID: "c1", Name: "Algebra", TeacherID: "t1", GroupID: "g1", WeeklySessions: 1},
		{ID: "c2", Name: "Geometry", TeacherID: "t1", GroupID: "g2", WeeklySessions: 1},
	}
	av := NewAvailability()
	registerAll(av, courses...)
	state := NewState()

	result, err := NewAllocator(weekGrid(t, 8, 16), av, 0).Allocate(context.Background(), courses, state)
	require.NoError(t, err)

	assert.True(t, result.Complete())
	assert.Equal(t, 2, result.ScheduledCourses)
	require.Len(t, keysOf(state, "c1"), 1)
	require.Len(t, keysOf(state, "c2"), 1)
	assert.NotEqual(t, keysOf(state, "c1")[0], keysOf(state, "c2")[0])
	assert.Empty(t, Verify(state))
}

func TestAllocateHonoursTeacherUnavailability(t *testing.T) {
	window, err := ParseWindow("Monday", "08:00-10:00")
	require.NoError(t, err)
	course := Course{ID: "c1", Name: "Physics", TeacherID: "t1", GroupID: "g1", WeeklySessions: 1}
	av := NewAvailability()
	av.Register(ResourceTeacher, "t1", window)
	av.Register(ResourceGroup, "g1")
	state := NewState()

	result, err := NewAllocator(weekGrid(t, 8, 16), av, 0).Allocate(context.Background(), []Course{course}, state)
	require.NoError(t, err)
	require.True(t, result.Complete())

	keys := keysOf(state, "c1")
	require.Len(t, keys, 1)
	assert.NotEqual(t, SlotKey{Monday, 8}, keys[0])
	assert.NotEqual(t, SlotKey{Monday, 9}, keys[0])
	assert.Equal(t, SlotKey{Tuesday, 8}, keys[0], "earliest hour wins over the blocked day's later hours")
}

func TestAllocateSpreadsSessionsAcrossDays(t *testing.T) {
	courses := []Course{
		{ID: "c-math", Name: "Mathematics", TeacherID: "t1", GroupID: "g1", RoomID: "r1", WeeklySessions: 2},
		{ID: "c-bio", Name: "Biology", TeacherID: "t2", GroupID: "g1", RoomID: "r2", WeeklySessions: 2},
		{ID: "c-hist", Name: "History", TeacherID: "t3", GroupID: "g1", RoomID: "r3", WeeklySessions: 2},
	}
	av := NewAvailability()
	registerAll(av, courses...)
	state := NewState()

	result, err := NewAllocator(weekGrid(t, 8, 16), av, 0).Allocate(context.Background(), courses, state)
	require.NoError(t, err)

	assert.True(t, result.Complete())
	assert.Equal(t, 3, result.ScheduledCourses)
	assert.Equal(t, 6, result.PlacedSessions)
	assert.Equal(t, 6, state.Len())
	assert.Empty(t, Verify(state))

	days := map[Day]bool{}
	for _, a := range state.Assignments() {
		days[a.Slot.Day()] = true
	}
	assert.GreaterOrEqual(t, len(days), 3)

	for _, c := range courses {
		keys := keysOf(state, c.ID)
		require.Len(t, keys, 2)
		assert.NotEqual(t, keys[0].Day, keys[1].Day, "sessions of %s share a day", c.ID)
	}
}

func TestAllocatePlacesMostConstrainedFirst(t *testing.T) {
	// c-narrow can only use Monday 08:00; c-wide would take it first by id order.
	teacherWindows := []Window{}
	for _, day := range []Day{Monday, Tuesday, Wednesday, Thursday, Friday} {
		from := 8 * 60
		if day == Monday {
			from = 9 * 60
		}
		teacherWindows = append(teacherWindows, Window{Day: day, StartMinute: from, EndMinute: 10 * 60})
	}
	courses := []Course{
		{ID: "a-wide", Name: "Art", TeacherID: "t-wide", GroupID: "g1", WeeklySessions: 1},
		{ID: "z-narrow", Name: "Zoology", TeacherID: "t-narrow", GroupID: "g1", WeeklySessions: 1},
	}
	av := NewAvailability()
	av.Register(ResourceTeacher, "t-wide")
	av.Register(ResourceTeacher, "t-narrow", teacherWindows...)
	av.Register(ResourceGroup, "g1")
	state := NewState()

	result, err := NewAllocator(weekGrid(t, 8, 10), av, 0).Allocate(context.Background(), courses, state)
	require.NoError(t, err)

	assert.True(t, result.Complete())
	assert.Equal(t, []SlotKey{{Monday, 8}}, keysOf(state, "z-narrow"))
	assert.Equal(t, []SlotKey{{Tuesday, 8}}, keysOf(state, "a-wide"))
}

func TestAllocateReportsUnplaceableSessions(t *testing.T) {
	grid, err := NewGrid([]Day{Monday}, 8, 10)
	require.NoError(t, err)
	courses := []Course{
		{ID: "c1", Name: "Chemistry", TeacherID: "t1", GroupID: "g1", WeeklySessions: 3},
		{ID: "c2", Name: "Drama", TeacherID: "t-missing", GroupID: "g2", WeeklySessions: 1},
	}
	av := NewAvailability()
	av.Register(ResourceTeacher, "t1")
	av.Register(ResourceGroup, "g1")
	av.Register(ResourceGroup, "g2")
	state := NewState()

	result, err := NewAllocator(grid, av, 0).Allocate(context.Background(), courses, state)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ScheduledCourses)
	assert.Equal(t, 2, result.TotalCourses)
	assert.Equal(t, 2, result.PlacedSessions)
	assert.Equal(t, 4, result.TotalSessions)
	require.Len(t, result.Unscheduled, 2)
	assert.ElementsMatch(t, []UnscheduledSession{
		{CourseID: "c2", CourseName: "Drama", Session: 1, Reason: ReasonNoFeasibleSlot},
		{CourseID: "c1", CourseName: "Chemistry", Session: 3, Reason: ReasonNoFeasibleSlot},
	}, result.Unscheduled)
	assert.Equal(t, result.TotalSessions, result.PlacedSessions+len(result.Unscheduled))
	assert.Empty(t, Verify(state))
}

func TestAllocateRejectsInvalidCourseBeforeMutation(t *testing.T) {
	av := NewAvailability()
	state := NewState()
	courses := []Course{
		{ID: "c1", TeacherID: "t1", GroupID: "g1", WeeklySessions: 1},
		{ID: "c2", TeacherID: "t1", GroupID: "g1", WeeklySessions: 0},
	}
	registerAll(av, courses...)

	_, err := NewAllocator(weekGrid(t, 8, 10), av, 0).Allocate(context.Background(), courses, state)
	assert.ErrorIs(t, err, ErrInvalidCourse)
	assert.Zero(t, state.Len())
}

func TestAllocateTerminatesWithinBudget(t *testing.T) {
	var courses []Course
	for i := 0; i < 12; i++ {
		courses = append(courses, Course{
			ID:             fmt.Sprintf("c%02d", i),
			TeacherID:      fmt.Sprintf("t%d", i%3),
			GroupID:        fmt.Sprintf("g%d", i%4),
			WeeklySessions: 4,
		})
	}
	av := NewAvailability()
	registerAll(av, courses...)
	state := NewState()

	result, err := NewAllocator(weekGrid(t, 8, 12), av, 50).Allocate(context.Background(), courses, state)
	require.NoError(t, err)

	assert.LessOrEqual(t, result.Evaluations, 50)
	assert.False(t, result.Complete())
	assert.Equal(t, result.TotalSessions, result.PlacedSessions+len(result.Unscheduled))
	for _, u := range result.Unscheduled {
		assert.Equal(t, ReasonIterationLimit, u.Reason)
	}
	assert.Empty(t, Verify(state))
}

func TestAllocateStopsOnCanceledContext(t *testing.T) {
	courses := []Course{
		{ID: "c1", TeacherID: "t1", GroupID: "g1", WeeklySessions: 2},
		{ID: "c2", TeacherID: "t2", GroupID: "g2", WeeklySessions: 1},
	}
	av := NewAvailability()
	registerAll(av, courses...)
	state := NewState()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewAllocator(weekGrid(t, 8, 12), av, 0).Allocate(ctx, courses, state)
	require.NoError(t, err)

	assert.Zero(t, state.Len())
	require.Len(t, result.Unscheduled, 3)
	for _, u := range result.Unscheduled {
		assert.Equal(t, ReasonCanceled, u.Reason)
	}
}

func TestAllocateIsDeterministic(t *testing.T) {
	courses := []Course{
		{ID: "c3", Name: "C", TeacherID: "t1", GroupID: "g1", RoomID: "r1", WeeklySessions: 3},
		{ID: "c1", Name: "A", TeacherID: "t2", GroupID: "g1", RoomID: "r1", WeeklySessions: 2},
		{ID: "c2", Name: "B", TeacherID: "t1", GroupID: "g2", WeeklySessions: 2},
	}
	run := func(input []Course) []Assignment {
		av := NewAvailability()
		registerAll(av, input...)
		state := NewState()
		_, err := NewAllocator(weekGrid(t, 8, 11), av, 0).Allocate(context.Background(), input, state)
		require.NoError(t, err)
		return state.Assignments()
	}

	first := run(courses)
	reversed := []Course{courses[2], courses[1], courses[0]}
	assert.Equal(t, first, run(reversed))
}
