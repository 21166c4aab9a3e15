package scheduler

import (
	"fmt"
	"sort"
)

// ConflictType names the resource a conflict is about, or a duplicate placement.
type ConflictType string

const (
	ConflictTeacher   ConflictType = "teacher"
	ConflictRoom      ConflictType = "room"
	ConflictGroup     ConflictType = "group"
	// ConflictDuplicate is a course stored twice in one cell. Only Verify
	// reports it; proposals reject repeated slots before any check.
	ConflictDuplicate ConflictType = "duplicate"
)

// Conflict describes one violated rule for a proposed slot. CourseID and
// CourseName identify the clashing course and are empty when the conflict
// comes from declared unavailability.
type Conflict struct {
	Type       ConflictType
	Message    string
	Slot       Slot
	CourseID   string
	CourseName string
}

// Detector checks proposed placements against availability and a state.
type Detector struct {
	availability *Availability
	state        *State
}

// NewDetector binds a detector to a read-only availability model and state.
func NewDetector(availability *Availability, state *State) *Detector {
	return &Detector{availability: availability, state: state}
}

// Feasible is the fail-fast check used while allocating. Assignments of the
// course itself are ignored, so callers must keep a course off cells it
// already holds.
func (d *Detector) Feasible(course Course, key SlotKey) bool {
	if !d.availability.IsAvailable(ResourceTeacher, course.TeacherID, key) ||
		!d.availability.IsAvailable(ResourceRoom, course.RoomID, key) ||
		!d.availability.IsAvailable(ResourceGroup, course.GroupID, key) {
		return false
	}
	for _, other := range d.state.bySlot[key] {
		if other.Course.ID == course.ID {
			continue
		}
		if clashes(course, other.Course) {
			return false
		}
	}
	return true
}

// Report lists every conflict the course would have at slot: availability
// first (teacher, room, group), then one entry per clashing resource of each
// other course in the cell, ordered by course name.
func (d *Detector) Report(course Course, slot Slot) []Conflict {
	key := slot.Key()
	var conflicts []Conflict

	if !d.availability.IsAvailable(ResourceTeacher, course.TeacherID, key) {
		conflicts = append(conflicts, Conflict{
			Type:    ConflictTeacher,
			Message: fmt.Sprintf("teacher %s is not available on %s", displayName(course.TeacherName, course.TeacherID), key),
			Slot:    slot,
		})
	}
	if !d.availability.IsAvailable(ResourceRoom, course.RoomID, key) {
		conflicts = append(conflicts, Conflict{
			Type:    ConflictRoom,
			Message: fmt.Sprintf("room %s is not available on %s", displayName(course.RoomName, course.RoomID), key),
			Slot:    slot,
		})
	}
	if !d.availability.IsAvailable(ResourceGroup, course.GroupID, key) {
		conflicts = append(conflicts, Conflict{
			Type:    ConflictGroup,
			Message: fmt.Sprintf("group %s is not available on %s", displayName(course.GroupName, course.GroupID), key),
			Slot:    slot,
		})
	}

	others := d.state.At(key)
	sort.Slice(others, func(i, j int) bool { return courseLess(others[i].Course, others[j].Course) })
	for _, other := range others {
		if other.Course.ID == course.ID {
			continue
		}
		conflicts = append(conflicts, sharedResourceConflicts(course, other.Course, slot)...)
	}
	return conflicts
}

// Verify scans a whole state and reports every pair of courses that share a
// resource in the same cell. A valid timetable yields nothing.
func Verify(state *State) []Conflict {
	keys := make([]SlotKey, 0, len(state.bySlot))
	for key := range state.bySlot {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Day != keys[j].Day {
			return keys[i].Day < keys[j].Day
		}
		return keys[i].Hour < keys[j].Hour
	})

	var conflicts []Conflict
	for _, key := range keys {
		items := state.At(key)
		sort.Slice(items, func(i, j int) bool { return courseLess(items[i].Course, items[j].Course) })
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				if items[i].Course.ID == items[j].Course.ID {
					conflicts = append(conflicts, Conflict{
						Type:       ConflictDuplicate,
						Message:    fmt.Sprintf("%s is placed twice on %s", items[i].Course.label(), key),
						Slot:       items[j].Slot,
						CourseID:   items[j].Course.ID,
						CourseName: items[j].Course.Name,
					})
					continue
				}
				conflicts = append(conflicts, sharedResourceConflicts(items[i].Course, items[j].Course, items[i].Slot)...)
			}
		}
	}
	return conflicts
}

func sharedResourceConflicts(course, other Course, slot Slot) []Conflict {
	var conflicts []Conflict
	key := slot.Key()
	if course.TeacherID != "" && course.TeacherID == other.TeacherID {
		conflicts = append(conflicts, Conflict{
			Type:       ConflictTeacher,
			Message:    fmt.Sprintf("teacher %s already teaches %s on %s", displayName(course.TeacherName, course.TeacherID), other.label(), key),
			Slot:       slot,
			CourseID:   other.ID,
			CourseName: other.Name,
		})
	}
	if course.RoomID != "" && course.RoomID == other.RoomID {
		conflicts = append(conflicts, Conflict{
			Type:       ConflictRoom,
			Message:    fmt.Sprintf("room %s is already used by %s on %s", displayName(course.RoomName, course.RoomID), other.label(), key),
			Slot:       slot,
			CourseID:   other.ID,
			CourseName: other.Name,
		})
	}
	if course.GroupID != "" && course.GroupID == other.GroupID {
		conflicts = append(conflicts, Conflict{
			Type:       ConflictGroup,
			Message:    fmt.Sprintf("group %s already attends %s on %s", displayName(course.GroupName, course.GroupID), other.label(), key),
			Slot:       slot,
			CourseID:   other.ID,
			CourseName: other.Name,
		})
	}
	return conflicts
}

func clashes(a, b Course) bool {
	return (a.TeacherID != "" && a.TeacherID == b.TeacherID) ||
		(a.RoomID != "" && a.RoomID == b.RoomID) ||
		(a.GroupID != "" && a.GroupID == b.GroupID)
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
