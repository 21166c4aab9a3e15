package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, day, label string) Slot {
	t.Helper()
	slot, err := ParseSlot(day, label, 0)
	require.NoError(t, err)
	return slot
}

func TestManualCheckReportsRoomConflict(t *testing.T) {
	x := Course{ID: "x", Name: "Chemistry", TeacherID: "t1", GroupID: "g1", RoomID: "lab", WeeklySessions: 1}
	y := Course{ID: "y", Name: "Biology", TeacherID: "t2", GroupID: "g2", RoomID: "lab", WeeklySessions: 1}
	av := NewAvailability()
	registerAll(av, x, y)
	state := NewState()
	state.Add(y, mustSlot(t, "Monday", "09:00-10:00"))

	slots, err := ParseProposals(weekGrid(t, 8, 16), []Proposal{{Day: "Monday", Time: "09:00-10:00"}})
	require.NoError(t, err)

	conflicts := CheckManual(av, state, x, slots)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictRoom, conflicts[0].Type)
	assert.Equal(t, "y", conflicts[0].CourseID)
	assert.Equal(t, "Biology", conflicts[0].CourseName)
	assert.Contains(t, conflicts[0].Message, "Biology")
}

func TestReportIsExhaustive(t *testing.T) {
	course := Course{ID: "c1", Name: "Art", TeacherID: "t1", GroupID: "g1", RoomID: "r1", WeeklySessions: 1}
	other := Course{ID: "c2", Name: "Music", TeacherID: "t1", GroupID: "g1", RoomID: "r1", WeeklySessions: 1}
	window, err := ParseWindow("Tuesday", "10:00-11:00")
	require.NoError(t, err)

	av := NewAvailability()
	av.Register(ResourceTeacher, "t1", window)
	av.Register(ResourceRoom, "r1", window)
	av.Register(ResourceGroup, "g1", window)
	state := NewState()
	slot := mustSlot(t, "Tuesday", "10:00")
	state.Add(other, slot)

	conflicts := NewDetector(av, state).Report(course, slot)
	require.Len(t, conflicts, 6)
	types := make([]ConflictType, 0, len(conflicts))
	for _, c := range conflicts {
		types = append(types, c.Type)
	}
	assert.Equal(t, []ConflictType{
		ConflictTeacher, ConflictRoom, ConflictGroup,
		ConflictTeacher, ConflictRoom, ConflictGroup,
	}, types)
	assert.Empty(t, conflicts[0].CourseID, "availability conflicts name no course")
	assert.Equal(t, "c2", conflicts[3].CourseID)

	assert.False(t, NewDetector(av, state).Feasible(course, slot.Key()))
}

func TestReportIgnoresOwnAssignments(t *testing.T) {
	course := Course{ID: "c1", Name: "Art", TeacherID: "t1", GroupID: "g1", WeeklySessions: 2}
	av := NewAvailability()
	registerAll(av, course)
	state := NewState()
	slot := mustSlot(t, "Monday", "08:00-09:00")
	state.Add(course, slot)

	assert.Empty(t, CheckManual(av, state, course, []Slot{slot}))
}

func TestCheckIsIdempotentAgainstOwnCommit(t *testing.T) {
	x := Course{ID: "x", Name: "Chemistry", TeacherID: "t1", GroupID: "g1", RoomID: "lab", WeeklySessions: 2}
	y := Course{ID: "y", Name: "Biology", TeacherID: "t2", GroupID: "g2", RoomID: "lab", WeeklySessions: 1}
	av := NewAvailability()
	registerAll(av, x, y)
	state := NewState()
	state.Add(y, mustSlot(t, "Monday", "09:00-10:00"))

	slots, err := ParseProposals(weekGrid(t, 8, 16), []Proposal{
		{Day: "Monday", Time: "10:00-11:00"},
		{Day: "Wednesday", Time: "09:00-10:00"},
	})
	require.NoError(t, err)
	require.Empty(t, CheckManual(av, state, x, slots))

	ApplyManual(state, x, slots)
	assert.Empty(t, CheckManual(av, state, x, slots), "re-checking a committed proposal must stay clean")
	assert.Empty(t, Verify(state))

	ApplyManual(state, x, slots[:1])
	assert.Len(t, state.CourseSlots("x"), 1)
	assert.Equal(t, 2, state.Len())
}

func TestDurationDoesNotWidenConflicts(t *testing.T) {
	// The grid is hour-granular: a 90 minute 09:00 session does not occupy 10:00.
	long := Course{ID: "c1", Name: "Lab", TeacherID: "t1", GroupID: "g1", WeeklySessions: 1}
	next := Course{ID: "c2", Name: "Seminar", TeacherID: "t1", GroupID: "g1", WeeklySessions: 1}
	av := NewAvailability()
	registerAll(av, long, next)
	state := NewState()
	slot, err := ParseSlot("Monday", "09:00-10:30", 0)
	require.NoError(t, err)
	state.Add(long, slot)

	assert.True(t, NewDetector(av, state).Feasible(next, SlotKey{Monday, 10}))
}

func TestParseProposalsValidation(t *testing.T) {
	grid := weekGrid(t, 8, 16)

	_, err := ParseProposals(grid, nil)
	assert.ErrorIs(t, err, ErrInvalidProposal)

	_, err = ParseProposals(grid, []Proposal{{Day: "Monday"}})
	var perr *ProposalError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "time", perr.Field)

	_, err = ParseProposals(grid, []Proposal{{Day: "Someday", Time: "08:00-09:00"}})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "day", perr.Field)

	_, err = ParseProposals(grid, []Proposal{{Day: "Saturday", Time: "08:00-09:00"}})
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, ErrInvalidProposal)

	_, err = ParseProposals(grid, []Proposal{
		{Day: "Monday", Time: "08:00-09:00"},
		{Day: "1", Time: "08:00", Duration: 45},
	})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Index)
}

func TestVerifyFindsClashes(t *testing.T) {
	a := Course{ID: "a", Name: "A", TeacherID: "t1", GroupID: "g1", WeeklySessions: 1}
	b := Course{ID: "b", Name: "B", TeacherID: "t1", GroupID: "g2", WeeklySessions: 1}
	state := NewState()
	slot := mustSlot(t, "Friday", "13:00")
	state.Add(a, slot)
	state.Add(b, slot)

	conflicts := Verify(state)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictTeacher, conflicts[0].Type)
	assert.Equal(t, "b", conflicts[0].CourseID)

	state.RemoveCourse("b")
	assert.Empty(t, Verify(state))
}

func TestVerifyReportsDuplicatePlacement(t *testing.T) {
	a := Course{ID: "a", Name: "Physics", TeacherID: "t1", GroupID: "g1", RoomID: "r1", WeeklySessions: 2}
	state := NewState()
	state.Add(a, mustSlot(t, "Wednesday", "10:00"))
	state.Add(a, mustSlot(t, "Wednesday", "10:00-11:00"))

	conflicts := Verify(state)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictDuplicate, conflicts[0].Type)
	assert.Equal(t, "a", conflicts[0].CourseID)
	assert.Contains(t, conflicts[0].Message, "placed twice")
	for _, c := range conflicts {
		assert.NotEqual(t, ConflictGroup, c.Type)
	}
}
