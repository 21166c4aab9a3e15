package scheduler

import "fmt"

// ResourceKind names the three entity kinds that carry availability.
type ResourceKind string

const (
	ResourceTeacher ResourceKind = "teacher"
	ResourceRoom    ResourceKind = "room"
	ResourceGroup   ResourceKind = "group"
)

// Valid reports whether k is a known resource kind.
func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceTeacher, ResourceRoom, ResourceGroup:
		return true
	default:
		return false
	}
}

// Window is a declared unavailability on one day, in minutes of the day,
// covering [StartMinute, EndMinute).
type Window struct {
	Day         Day
	StartMinute int
	EndMinute   int
}

// ParseWindow parses a stored window such as ("Monday", "08:00-10:00").
func ParseWindow(day, timeRange string) (Window, error) {
	d, err := ParseDay(day)
	if err != nil {
		return Window{}, err
	}
	start, end, err := ParseTimeRange(timeRange)
	if err != nil {
		return Window{}, err
	}
	return Window{Day: d, StartMinute: start, EndMinute: end}, nil
}

// Blocks reports whether the window overlaps the hour band of key. A window
// that touches only part of an hour blocks the whole hour.
func (w Window) Blocks(key SlotKey) bool {
	if w.Day != key.Day {
		return false
	}
	from := key.Hour * 60
	return from < w.EndMinute && from+60 > w.StartMinute
}

func (w Window) String() string {
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d", w.Day, w.StartMinute/60, w.StartMinute%60, w.EndMinute/60, w.EndMinute%60)
}

// Availability answers "is entity E free at slot S" for every registered
// teacher, room and group. It is built once per run and read-only afterwards.
type Availability struct {
	windows map[ResourceKind]map[string][]Window
}

// NewAvailability returns an empty model where nothing is known.
func NewAvailability() *Availability {
	return &Availability{windows: map[ResourceKind]map[string][]Window{
		ResourceTeacher: {},
		ResourceRoom:    {},
		ResourceGroup:   {},
	}}
}

// Register declares an entity and its unavailability windows. Registering an
// entity with no windows marks it available everywhere. Registering the same
// entity again appends windows.
func (a *Availability) Register(kind ResourceKind, id string, windows ...Window) {
	byID, ok := a.windows[kind]
	if !ok {
		byID = map[string][]Window{}
		a.windows[kind] = byID
	}
	byID[id] = append(byID[id], windows...)
}

// Known reports whether the entity was registered.
func (a *Availability) Known(kind ResourceKind, id string) bool {
	_, ok := a.windows[kind][id]
	return ok
}

// IsAvailable reports whether the entity is free at key. An empty id means the
// course has no such entity and is always available. An unknown id is
// unavailable everywhere.
func (a *Availability) IsAvailable(kind ResourceKind, id string, key SlotKey) bool {
	if id == "" {
		return true
	}
	windows, ok := a.windows[kind][id]
	if !ok {
		return false
	}
	for _, w := range windows {
		if w.Blocks(key) {
			return false
		}
	}
	return true
}
