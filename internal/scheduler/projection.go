package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidView is returned for unknown view kinds or a missing view id.
var ErrInvalidView = errors.New("invalid view")

// ViewKind selects which assignments a projection shows.
type ViewKind string

const (
	ViewAll     ViewKind = "all"
	ViewTeacher ViewKind = "teacher"
	ViewGroup   ViewKind = "group"
	ViewRoom    ViewKind = "room"
)

// View is a projection filter. ID is empty for ViewAll.
type View struct {
	Kind ViewKind
	ID   string
}

// ParseView validates a view kind and id. An empty kind means ViewAll.
func ParseView(kind, id string) (View, error) {
	k := ViewKind(strings.ToLower(strings.TrimSpace(kind)))
	id = strings.TrimSpace(id)
	switch k {
	case "", ViewAll:
		return View{Kind: ViewAll}, nil
	case ViewTeacher, ViewGroup, ViewRoom:
		if id == "" {
			return View{}, fmt.Errorf("%w: %s view requires an id", ErrInvalidView, k)
		}
		return View{Kind: k, ID: id}, nil
	default:
		return View{}, fmt.Errorf("%w: %q", ErrInvalidView, kind)
	}
}

// Matches reports whether the course belongs in the view.
func (v View) Matches(course Course) bool {
	switch v.Kind {
	case ViewTeacher:
		return course.TeacherID == v.ID
	case ViewGroup:
		return course.GroupID == v.ID
	case ViewRoom:
		return course.RoomID == v.ID
	default:
		return true
	}
}

// CacheKey identifies the view in the projection cache.
func (v View) CacheKey() string {
	if v.Kind == ViewAll || v.Kind == "" {
		return string(ViewAll)
	}
	return string(v.Kind) + ":" + v.ID
}

// CourseSummary is what a cell shows about a course.
type CourseSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	SubjectName     string `json:"subjectName,omitempty"`
	TeacherID       string `json:"teacherId"`
	TeacherName     string `json:"teacherName,omitempty"`
	GroupID         string `json:"groupId"`
	GroupName       string `json:"groupName,omitempty"`
	RoomID          string `json:"roomId,omitempty"`
	RoomName        string `json:"roomName,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Cell is one grid position. Course is nil for an empty cell; Courses lists
// every match when more than one course occupies the cell.
type Cell struct {
	Day     string          `json:"day"`
	Time    string          `json:"time"`
	Course  *CourseSummary  `json:"course"`
	Courses []CourseSummary `json:"courses,omitempty"`
}

// Project renders a dense grid: exactly one cell per grid slot, in grid order,
// whether or not anything is placed there. Assignments outside the grid are
// not shown.
func Project(grid *Grid, assignments []Assignment, view View) []Cell {
	byKey := make(map[SlotKey][]Assignment)
	for _, a := range assignments {
		if !view.Matches(a.Course) {
			continue
		}
		byKey[a.Slot.Key()] = append(byKey[a.Slot.Key()], a)
	}

	cells := make([]Cell, 0, grid.Size())
	grid.Each(func(slot Slot) bool {
		cell := Cell{Day: slot.Day().String(), Time: slot.Label()}
		items := byKey[slot.Key()]
		if len(items) > 0 {
			sort.Slice(items, func(i, j int) bool { return courseLess(items[i].Course, items[j].Course) })
			summaries := make([]CourseSummary, 0, len(items))
			for _, a := range items {
				summaries = append(summaries, summarize(a))
			}
			first := summaries[0]
			cell.Course = &first
			if len(summaries) > 1 {
				cell.Courses = summaries
			}
		}
		cells = append(cells, cell)
		return true
	})
	return cells
}

func summarize(a Assignment) CourseSummary {
	c := a.Course
	return CourseSummary{
		ID:              c.ID,
		Name:            c.Name,
		SubjectName:     c.SubjectName,
		TeacherID:       c.TeacherID,
		TeacherName:     c.TeacherName,
		GroupID:         c.GroupID,
		GroupName:       c.GroupName,
		RoomID:          c.RoomID,
		RoomName:        c.RoomName,
		DurationMinutes: a.Slot.Minutes(),
	}
}
