package models

import "time"

// EventType names a lifecycle event published to the optional sinks.
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventSessionEnded   EventType = "session_ended"
	EventRatingRecorded EventType = "rating_recorded"
)

// End reasons carried by session_ended events.
const (
	EndReasonExit    = "exit"
	EndReasonNext    = "exit_next"
	EndReasonRestart = "restart"
)

// LifecycleEvent is the envelope handed to event sinks.
type LifecycleEvent struct {
	ID       string    `json:"id"`
	Type     EventType `json:"type"`
	RoomID   string    `json:"room_id,omitempty"`
	Users    []UserID  `json:"users"`
	Messages int       `json:"messages,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Score    int       `json:"score,omitempty"`
	At       time.Time `json:"at"`
}
