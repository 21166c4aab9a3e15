package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx/types"
)

// ResourceKind identifies the table a Resource row came from.
type ResourceKind string

const (
	ResourceTeacher ResourceKind = "teacher"
	ResourceRoom    ResourceKind = "room"
	ResourceGroup   ResourceKind = "group"
)

// DayValue accepts a day name or a weekday number in JSON and keeps it as text.
type DayValue string

// UnmarshalJSON implements json.Unmarshaler.
func (d *DayValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DayValue(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("day must be a name or a number: %w", err)
	}
	*d = DayValue(strconv.Itoa(n))
	return nil
}

// UnavailableWindow is a stored unavailability entry such as
// {"day": "Monday", "time": "08:00-10:00"}.
type UnavailableWindow struct {
	Day  DayValue `json:"day"`
	Time string   `json:"time"`
}

// UnavailableWindows is the decoded unavailable JSONB array.
type UnavailableWindows []UnavailableWindow

// Resource is a teacher, room or group with its declared unavailability.
// Unavailable stays undecoded so malformed entries can be reported instead
// of failing the whole load.
type Resource struct {
	Kind        ResourceKind   `db:"kind" json:"kind"`
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Unavailable types.JSONText `db:"unavailable" json:"unavailable"`
}

// Windows decodes the stored unavailability list.
func (r Resource) Windows() (UnavailableWindows, error) {
	if len(bytes.TrimSpace(r.Unavailable)) == 0 {
		return nil, nil
	}
	var windows UnavailableWindows
	if err := r.Unavailable.Unmarshal(&windows); err != nil {
		return nil, fmt.Errorf("%s %s: unmarshal unavailable windows: %w", r.Kind, r.ID, err)
	}
	return windows, nil
}
