package scheduler

import (
	"errors"
	"fmt"
)

// ErrInvalidProposal marks a structurally invalid manual proposal.
var ErrInvalidProposal = errors.New("invalid proposal")

// Proposal is one manually requested slot in wire form.
type Proposal struct {
	Day      string
	Time     string
	Duration int
}

// ProposalError points at the offending proposal entry.
type ProposalError struct {
	Index int
	Field string
	Err   error
}

func (e *ProposalError) Error() string {
	return fmt.Sprintf("slots[%d].%s: %v", e.Index, e.Field, e.Err)
}

func (e *ProposalError) Unwrap() error { return e.Err }

// ParseProposals checks a manual proposal structurally: every entry needs a
// parseable day and time inside the grid, and no two entries may share a
// cell. It never looks at other courses.
func ParseProposals(grid *Grid, proposals []Proposal) ([]Slot, error) {
	if len(proposals) == 0 {
		return nil, fmt.Errorf("%w: at least one slot is required", ErrInvalidProposal)
	}
	seen := make(map[SlotKey]int, len(proposals))
	slots := make([]Slot, 0, len(proposals))
	for i, p := range proposals {
		if p.Day == "" {
			return nil, &ProposalError{Index: i, Field: "day", Err: fmt.Errorf("%w: day is required", ErrInvalidProposal)}
		}
		if p.Time == "" {
			return nil, &ProposalError{Index: i, Field: "time", Err: fmt.Errorf("%w: time is required", ErrInvalidProposal)}
		}
		slot, err := ParseSlot(p.Day, p.Time, p.Duration)
		if err != nil {
			field := "time"
			switch {
			case errors.Is(err, ErrInvalidDay):
				field = "day"
			case errors.Is(err, ErrInvalidDuration):
				field = "duration"
			}
			return nil, &ProposalError{Index: i, Field: field, Err: err}
		}
		if grid != nil && !grid.Contains(slot.Key()) {
			return nil, &ProposalError{Index: i, Field: "time", Err: fmt.Errorf("%w: %s is outside the working week", ErrInvalidProposal, slot.Key())}
		}
		if first, dup := seen[slot.Key()]; dup {
			return nil, &ProposalError{Index: i, Field: "time", Err: fmt.Errorf("%w: duplicates slots[%d] (%s)", ErrInvalidProposal, first, slot.Key())}
		}
		seen[slot.Key()] = i
		slots = append(slots, slot)
	}
	return slots, nil
}

// CheckManual reports every conflict the proposed slots would have against
// the state, ignoring the course's own current assignments.
func CheckManual(availability *Availability, state *State, course Course, slots []Slot) []Conflict {
	detector := NewDetector(availability, state)
	var conflicts []Conflict
	for _, slot := range slots {
		conflicts = append(conflicts, detector.Report(course, slot)...)
	}
	return conflicts
}

// ApplyManual replaces the course's assignments in state with slots.
func ApplyManual(state *State, course Course, slots []Slot) {
	state.RemoveCourse(course.ID)
	for _, slot := range slots {
		state.Add(course, slot)
	}
}
