package scheduler

import "fmt"

// Grid is the finite set of schedulable (day, hour) cells of one week. The
// same grid is shared by allocation, validation and projection.
type Grid struct {
	days      []Day
	dayOrder  map[Day]int
	startHour int
	endHour   int
}

// NewGrid builds a grid for the given working days (in display order) and the
// hour range [startHour, endHour).
func NewGrid(days []Day, startHour, endHour int) (*Grid, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: no working days", ErrInvalidDay)
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("%w: working hours %d-%d", ErrInvalidTime, startHour, endHour)
	}
	order := make(map[Day]int, len(days))
	ordered := make([]Day, 0, len(days))
	for _, day := range days {
		if !day.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrInvalidDay, int(day))
		}
		if _, dup := order[day]; dup {
			continue
		}
		order[day] = len(ordered)
		ordered = append(ordered, day)
	}
	return &Grid{days: ordered, dayOrder: order, startHour: startHour, endHour: endHour}, nil
}

// DefaultGrid is Monday to Friday, 07:00 to 15:00.
func DefaultGrid() *Grid {
	g, _ := NewGrid([]Day{Monday, Tuesday, Wednesday, Thursday, Friday}, 7, 15)
	return g
}

// Days returns a copy of the working days.
func (g *Grid) Days() []Day {
	out := make([]Day, len(g.days))
	copy(out, g.days)
	return out
}

// Hours returns every starting hour of the grid.
func (g *Grid) Hours() []int {
	hours := make([]int, 0, g.endHour-g.startHour)
	for h := g.startHour; h < g.endHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Labels returns the hour band labels in order.
func (g *Grid) Labels() []string {
	labels := make([]string, 0, g.endHour-g.startHour)
	for h := g.startHour; h < g.endHour; h++ {
		labels = append(labels, HourLabel(h))
	}
	return labels
}

// Size is the number of cells (days x hours).
func (g *Grid) Size() int {
	return len(g.days) * (g.endHour - g.startHour)
}

// Contains reports whether the cell belongs to the grid.
func (g *Grid) Contains(key SlotKey) bool {
	if _, ok := g.dayOrder[key.Day]; !ok {
		return false
	}
	return key.Hour >= g.startHour && key.Hour < g.endHour
}

// Each yields one-hour slots day by day, hour by hour, until fn returns false.
// Every call starts from the first cell.
func (g *Grid) Each(fn func(Slot) bool) {
	for _, day := range g.days {
		for h := g.startHour; h < g.endHour; h++ {
			if !fn(Slot{day: day, hour: h, minutes: defaultSlotMinutes}) {
				return
			}
		}
	}
}

// Slots materialises the whole grid.
func (g *Grid) Slots() []Slot {
	slots := make([]Slot, 0, g.Size())
	g.Each(func(s Slot) bool {
		slots = append(slots, s)
		return true
	})
	return slots
}

// before orders keys the way Each yields them.
func (g *Grid) before(a, b SlotKey) bool {
	da, db := g.dayOrder[a.Day], g.dayOrder[b.Day]
	if da != db {
		return da < db
	}
	return a.Hour < b.Hour
}
