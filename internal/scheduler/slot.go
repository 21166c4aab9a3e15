// Package scheduler holds the timetable engine: slot grid, availability,
// conflict detection, greedy allocation and grid projection. It performs no
// I/O; callers load entities and persist the resulting assignments.
package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidDay is returned when a day cannot be mapped to a weekday.
	ErrInvalidDay = errors.New("invalid day")
	// ErrInvalidTime is returned for malformed time labels or ranges.
	ErrInvalidTime = errors.New("invalid time")
	// ErrInvalidDuration is returned for durations outside the supported range.
	ErrInvalidDuration = errors.New("invalid duration")
)

// Day identifies a weekday. Monday is 1 and Sunday is 7.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Valid reports whether d is one of the seven weekdays.
func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

// String returns the canonical day name ("Monday".."Sunday").
func (d Day) String() string {
	if d.Valid() {
		return dayNames[d]
	}
	return fmt.Sprintf("Day(%d)", int(d))
}

// ParseDay maps a canonical name (case-insensitive) or an integer to a Day.
// Integers 1..7 are Monday..Sunday and 0 is accepted as Sunday.
func ParseDay(raw string) (Day, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDay)
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n == 0 {
			return Sunday, nil
		}
		if d := Day(n); d.Valid() {
			return d, nil
		}
		return 0, fmt.Errorf("%w: %d", ErrInvalidDay, n)
	}
	for i := Monday; i <= Sunday; i++ {
		if strings.EqualFold(dayNames[i], value) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDay, raw)
}

// ParseDays parses an ordered list of days, dropping duplicates.
func ParseDays(raw []string) ([]Day, error) {
	seen := make(map[Day]bool, len(raw))
	days := make([]Day, 0, len(raw))
	for _, item := range raw {
		day, err := ParseDay(item)
		if err != nil {
			return nil, err
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	return days, nil
}

// SlotKey is the hour-granular cell a slot occupies. Two slots conflict when
// their keys are equal, whatever their durations.
type SlotKey struct {
	Day  Day
	Hour int
}

// Label renders the canonical hour band of the key, e.g. "08:00-09:00".
func (k SlotKey) Label() string {
	return HourLabel(k.Hour)
}

func (k SlotKey) String() string {
	return k.Day.String() + " " + k.Label()
}

// Slot is an immutable (day, hour, duration) value. Build it with NewSlot or
// ParseSlot so the fields are always valid.
type Slot struct {
	day     Day
	hour    int
	minutes int
}

const (
	defaultSlotMinutes = 60
	maxSlotMinutes     = 240
)

// NewSlot validates and builds a slot. A zero minutes value means one hour.
func NewSlot(day Day, hour, minutes int) (Slot, error) {
	if !day.Valid() {
		return Slot{}, fmt.Errorf("%w: %d", ErrInvalidDay, int(day))
	}
	if hour < 0 || hour > 23 {
		return Slot{}, fmt.Errorf("%w: hour %d out of range", ErrInvalidTime, hour)
	}
	if minutes == 0 {
		minutes = defaultSlotMinutes
	}
	if minutes < 15 || minutes > maxSlotMinutes || minutes%15 != 0 {
		return Slot{}, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, minutes)
	}
	return Slot{day: day, hour: hour, minutes: minutes}, nil
}

// ParseSlot builds a slot from wire values. timeLabel is either a start time
// ("09:00") or a range ("09:00-10:30"); the start must be on the hour. An
// explicit durationMinutes overrides the length implied by the range.
func ParseSlot(day, timeLabel string, durationMinutes int) (Slot, error) {
	d, err := ParseDay(day)
	if err != nil {
		return Slot{}, err
	}
	start, end, err := parseTimeLabel(timeLabel)
	if err != nil {
		return Slot{}, err
	}
	if start%60 != 0 {
		return Slot{}, fmt.Errorf("%w: %q does not start on the hour", ErrInvalidTime, timeLabel)
	}
	minutes := durationMinutes
	if minutes == 0 && end > start {
		minutes = end - start
	}
	return NewSlot(d, start/60, minutes)
}

// Day returns the slot's weekday.
func (s Slot) Day() Day { return s.day }

// Hour returns the starting hour (0-23).
func (s Slot) Hour() int { return s.hour }

// Minutes returns the stated duration. It does not affect conflicts.
func (s Slot) Minutes() int { return s.minutes }

// Key returns the grid cell the slot occupies.
func (s Slot) Key() SlotKey { return SlotKey{Day: s.day, Hour: s.hour} }

// Label returns the canonical hour band of the slot.
func (s Slot) Label() string { return HourLabel(s.hour) }

func (s Slot) String() string {
	return fmt.Sprintf("%s %s (%dm)", s.day, s.Label(), s.minutes)
}

// HourLabel formats the hour band starting at hour, e.g. 8 -> "08:00-09:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00-%02d:00", hour, hour+1)
}

// ParseTimeRange parses "HH:MM-HH:MM" into start and end minutes of the day.
func ParseTimeRange(raw string) (start, end int, err error) {
	start, end, err = parseTimeLabel(raw)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("%w: %q is not a range", ErrInvalidTime, raw)
	}
	return start, end, nil
}

// parseTimeLabel returns start and end minutes; end is zero when raw has no range.
func parseTimeLabel(raw string) (int, int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, 0, fmt.Errorf("%w: empty", ErrInvalidTime)
	}
	parts := strings.SplitN(value, "-", 2)
	start, err := parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 1 {
		return start, 0, nil
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("%w: %q ends before it starts", ErrInvalidTime, raw)
	}
	return start, end, nil
}

func parseClock(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(value, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return hour*60 + minute, nil
}
