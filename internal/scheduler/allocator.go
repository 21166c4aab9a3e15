package scheduler

import (
	"context"
	"sort"
)

// Reasons attached to sessions the allocator could not place.
const (
	ReasonNoFeasibleSlot = "no_feasible_slot"
	ReasonIterationLimit = "iteration_limit"
	ReasonCanceled       = "canceled"
)

// UnscheduledSession is one session left without a slot. Session is 1-based.
type UnscheduledSession struct {
	CourseID   string
	CourseName string
	Session    int
	Reason     string
}

// Result summarises an allocation pass.
type Result struct {
	ScheduledCourses int
	TotalCourses     int
	PlacedSessions   int
	TotalSessions    int
	Evaluations      int
	Unscheduled      []UnscheduledSession
}

// Complete reports whether every session was placed.
func (r Result) Complete() bool {
	return len(r.Unscheduled) == 0
}

// Allocator places courses onto a grid greedily, most constrained course
// first. It never backtracks; a session with no feasible slot is reported
// and the pass continues.
type Allocator struct {
	grid           *Grid
	availability   *Availability
	maxEvaluations int
}

// NewAllocator builds an allocator. maxEvaluations bounds the number of
// candidate slot checks per pass; zero or less means unbounded.
func NewAllocator(grid *Grid, availability *Availability, maxEvaluations int) *Allocator {
	return &Allocator{grid: grid, availability: availability, maxEvaluations: maxEvaluations}
}

type budget struct {
	limit int
	used  int
}

func (b *budget) spend() bool {
	if b.limit > 0 && b.used >= b.limit {
		return false
	}
	b.used++
	return true
}

// Allocate places every course's weekly sessions into state. Courses are
// validated before state is touched.
//
// At each turn the remaining course with the fewest feasible cells goes next
// (ties: more weekly sessions, then id). For each session the allocator
// prefers a day the course has not used yet, then the earliest hour, then the
// earliest day; when every feasible day is already used it takes the earliest
// hour overall.
func (a *Allocator) Allocate(ctx context.Context, courses []Course, state *State) (Result, error) {
	for _, course := range courses {
		if err := course.Validate(); err != nil {
			return Result{}, err
		}
	}

	result := Result{TotalCourses: len(courses)}
	remaining := make([]Course, len(courses))
	copy(remaining, courses)
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].ID < remaining[j].ID })
	for _, course := range remaining {
		result.TotalSessions += course.WeeklySessions
	}

	detector := NewDetector(a.availability, state)
	b := &budget{limit: a.maxEvaluations}

	for len(remaining) > 0 {
		if ctx.Err() != nil {
			result.Unscheduled = append(result.Unscheduled, abandon(remaining, state, ReasonCanceled)...)
			break
		}

		next, exhausted := a.mostConstrained(detector, remaining, state, b)
		if exhausted {
			result.Unscheduled = append(result.Unscheduled, abandon(remaining, state, ReasonIterationLimit)...)
			break
		}
		course := remaining[next]
		remaining = append(remaining[:next], remaining[next+1:]...)

		placed, unscheduled, stopped := a.placeCourse(ctx, detector, course, state, b)
		result.PlacedSessions += placed
		result.Unscheduled = append(result.Unscheduled, unscheduled...)
		if len(unscheduled) == 0 {
			result.ScheduledCourses++
		}
		if stopped != "" {
			result.Unscheduled = append(result.Unscheduled, abandon(remaining, state, stopped)...)
			break
		}
	}

	result.Evaluations = b.used
	return result, nil
}

// mostConstrained returns the index of the course to place next. exhausted is
// true when the evaluation budget ran out while counting.
func (a *Allocator) mostConstrained(detector *Detector, remaining []Course, state *State, b *budget) (int, bool) {
	best, bestCount := -1, 0
	for i, course := range remaining {
		count, ok := a.countFeasible(detector, course, state, b)
		if !ok {
			return 0, true
		}
		if best < 0 || count < bestCount {
			best, bestCount = i, count
			continue
		}
		if count > bestCount {
			continue
		}
		current := remaining[best]
		if course.WeeklySessions > current.WeeklySessions ||
			(course.WeeklySessions == current.WeeklySessions && course.ID < current.ID) {
			best = i
		}
	}
	return best, false
}

func (a *Allocator) countFeasible(detector *Detector, course Course, state *State, b *budget) (int, bool) {
	held := heldCells(course, state)
	count, ok := 0, true
	a.grid.Each(func(slot Slot) bool {
		key := slot.Key()
		if held[key] {
			return true
		}
		if !b.spend() {
			ok = false
			return false
		}
		if detector.Feasible(course, key) {
			count++
		}
		return true
	})
	return count, ok
}

// placeCourse places the course's sessions one by one. stopped carries the
// reason when the pass must end early.
func (a *Allocator) placeCourse(ctx context.Context, detector *Detector, course Course, state *State, b *budget) (int, []UnscheduledSession, string) {
	held := heldCells(course, state)
	usedDays := make(map[Day]bool, course.WeeklySessions)
	for key := range held {
		usedDays[key.Day] = true
	}

	var unscheduled []UnscheduledSession
	placed := 0
	for session := 1; session <= course.WeeklySessions; session++ {
		reason := ""
		if ctx.Err() != nil {
			reason = ReasonCanceled
		}
		var candidates []Slot
		if reason == "" {
			var ok bool
			candidates, ok = a.feasibleSlots(detector, course, held, b)
			if !ok {
				reason = ReasonIterationLimit
			}
		}
		if reason != "" {
			for rest := session; rest <= course.WeeklySessions; rest++ {
				unscheduled = append(unscheduled, UnscheduledSession{
					CourseID: course.ID, CourseName: course.Name, Session: rest, Reason: reason,
				})
			}
			return placed, unscheduled, reason
		}
		if len(candidates) == 0 {
			unscheduled = append(unscheduled, UnscheduledSession{
				CourseID: course.ID, CourseName: course.Name, Session: session, Reason: ReasonNoFeasibleSlot,
			})
			continue
		}

		slot := a.pick(candidates, usedDays)
		state.Add(course, slot)
		held[slot.Key()] = true
		usedDays[slot.Day()] = true
		placed++
	}
	return placed, unscheduled, ""
}

func (a *Allocator) feasibleSlots(detector *Detector, course Course, held map[SlotKey]bool, b *budget) ([]Slot, bool) {
	var candidates []Slot
	ok := true
	a.grid.Each(func(slot Slot) bool {
		key := slot.Key()
		if held[key] {
			return true
		}
		if !b.spend() {
			ok = false
			return false
		}
		if detector.Feasible(course, key) {
			candidates = append(candidates, slot)
		}
		return true
	})
	return candidates, ok
}

// pick chooses among candidates, which arrive in grid order.
func (a *Allocator) pick(candidates []Slot, usedDays map[Day]bool) Slot {
	var best Slot
	found := false
	for _, slot := range candidates {
		if usedDays[slot.Day()] {
			continue
		}
		if !found || slot.hour < best.hour || (slot.hour == best.hour && a.grid.before(slot.Key(), best.Key())) {
			best, found = slot, true
		}
	}
	if found {
		return best
	}
	best = candidates[0]
	for _, slot := range candidates[1:] {
		if slot.hour < best.hour {
			best = slot
		}
	}
	return best
}

func heldCells(course Course, state *State) map[SlotKey]bool {
	held := make(map[SlotKey]bool, course.WeeklySessions)
	for _, slot := range state.CourseSlots(course.ID) {
		held[slot.Key()] = true
	}
	return held
}

func abandon(courses []Course, state *State, reason string) []UnscheduledSession {
	var out []UnscheduledSession
	for _, course := range courses {
		already := len(state.CourseSlots(course.ID))
		for session := already + 1; session <= course.WeeklySessions; session++ {
			out = append(out, UnscheduledSession{
				CourseID: course.ID, CourseName: course.Name, Session: session, Reason: reason,
			})
		}
	}
	return out
}
