package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Meeting is a scheduled meeting as returned by GET /meetings/.
type Meeting struct {
	ID        ID        `json:"id"`
	Title     string    `json:"title"`
	StartTime LocalTime `json:"start_time"`
	EndTime   LocalTime `json:"end_time"`
	RoomName  string    `json:"room_name"`
	Hosts     []string  `json:"hosts"`
	Status    string    `json:"status"`
}

// Validate checks the fields every meeting carries.
func (m Meeting) Validate() error {
	switch {
	case m.ID == "":
		return errors.New("meeting is missing id")
	case m.Title == "":
		return errors.New("meeting is missing title")
	case m.StartTime.IsZero():
		return errors.New("meeting is missing start_time")
	}
	return nil
}

// Duration returns the scheduled length of the meeting.
func (m *Meeting) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime.Time)
}

// localLayouts are tried in order after RFC 3339. The backend emits naive
// date-times without a zone, these are read as local time.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// LocalTime is a timestamp that decodes RFC 3339 values as well as
// zone-less date-times.
type LocalTime struct {
	time.Time
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}

	for _, layout := range localLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("invalid time %q", s)
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339))
}
