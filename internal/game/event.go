package game

import "time"

// EventType names something that happened in a session
type EventType string

const (
	EventSelected        EventType = "selected"
	EventDeselected      EventType = "deselected"
	EventDragStarted     EventType = "drag_started"
	EventDragCancelled   EventType = "drag_cancelled"
	EventMatched         EventType = "matched"
	EventMismatched      EventType = "mismatched"
	EventReverted        EventType = "reverted"
	EventRoundComplete   EventType = "round_complete"
	EventTick            EventType = "tick"
	EventTimeUp          EventType = "time_up"
	EventRestarted       EventType = "restarted"
	EventSettingsChanged EventType = "settings_changed"
)

// Event is emitted to the session listener after the session lock is released
type Event struct {
	Type       EventType `json:"type"`
	Round      int       `json:"round"`
	Cards      []string  `json:"cards,omitempty"`
	Word       string    `json:"word,omitempty"`
	Count      int       `json:"count,omitempty"`
	Points     int       `json:"points,omitempty"`
	Score      int       `json:"score"`
	Combo      int       `json:"combo"`
	Matched    int       `json:"matched"`
	Remaining  int       `json:"remaining"`
	TimeLeftMs int64     `json:"time_left_ms,omitempty"`
	At         time.Time `json:"at"`
}
