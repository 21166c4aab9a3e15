package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidCourse is returned when a course cannot be scheduled as described.
var ErrInvalidCourse = errors.New("invalid course")

// Course is the scheduler's view of a course: who teaches whom, where, and
// how many times a week. Display names are carried for reports only.
type Course struct {
	ID             string
	Name           string
	TeacherID      string
	GroupID        string
	RoomID         string
	WeeklySessions int

	SubjectName string
	TeacherName string
	GroupName   string
	RoomName    string
}

// Validate checks the fields the allocator relies on.
func (c Course) Validate() error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidCourse)
	case strings.TrimSpace(c.TeacherID) == "":
		return fmt.Errorf("%w: course %s has no teacher", ErrInvalidCourse, c.ID)
	case strings.TrimSpace(c.GroupID) == "":
		return fmt.Errorf("%w: course %s has no group", ErrInvalidCourse, c.ID)
	case c.WeeklySessions < 1:
		return fmt.Errorf("%w: course %s has %d weekly sessions", ErrInvalidCourse, c.ID, c.WeeklySessions)
	}
	return nil
}

func (c Course) label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Assignment places one session of a course at a slot.
type Assignment struct {
	Course Course
	Slot   Slot
}

// State is the set of assignments for one run or one committed timetable,
// indexed by cell and by course. It is not safe for concurrent use; the
// owner serialises access.
type State struct {
	bySlot   map[SlotKey][]Assignment
	byCourse map[string][]Slot
	count    int
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		bySlot:   make(map[SlotKey][]Assignment),
		byCourse: make(map[string][]Slot),
	}
}

// Add records an assignment. It performs no conflict checks.
func (s *State) Add(course Course, slot Slot) {
	key := slot.Key()
	s.bySlot[key] = append(s.bySlot[key], Assignment{Course: course, Slot: slot})
	s.byCourse[course.ID] = append(s.byCourse[course.ID], slot)
	s.count++
}

// RemoveCourse drops every assignment of the course and returns how many were removed.
func (s *State) RemoveCourse(courseID string) int {
	slots, ok := s.byCourse[courseID]
	if !ok {
		return 0
	}
	for _, slot := range slots {
		key := slot.Key()
		kept := s.bySlot[key][:0]
		for _, a := range s.bySlot[key] {
			if a.Course.ID != courseID {
				kept = append(kept, a)
			}
		}
		if len(kept) == 0 {
			delete(s.bySlot, key)
		} else {
			s.bySlot[key] = kept
		}
	}
	delete(s.byCourse, courseID)
	s.count -= len(slots)
	return len(slots)
}

// At returns the assignments occupying key.
func (s *State) At(key SlotKey) []Assignment {
	items := s.bySlot[key]
	out := make([]Assignment, len(items))
	copy(out, items)
	return out
}

// CourseSlots returns the slots currently held by the course.
func (s *State) CourseSlots(courseID string) []Slot {
	items := s.byCourse[courseID]
	out := make([]Slot, len(items))
	copy(out, items)
	return out
}

// Len is the number of assignments.
func (s *State) Len() int { return s.count }

// Assignments lists everything ordered by day, hour, course name and id.
func (s *State) Assignments() []Assignment {
	out := make([]Assignment, 0, s.count)
	for _, items := range s.bySlot {
		out = append(out, items...)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Slot.day != b.Slot.day {
			return a.Slot.day < b.Slot.day
		}
		if a.Slot.hour != b.Slot.hour {
			return a.Slot.hour < b.Slot.hour
		}
		return courseLess(a.Course, b.Course)
	})
	return out
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	clone := NewState()
	for _, a := range s.Assignments() {
		clone.Add(a.Course, a.Slot)
	}
	return clone
}

func courseLess(a, b Course) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
