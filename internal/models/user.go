package models

import "time"

// UserID is the opaque numeric handle supplied by the messaging platform.
// Telegram chat ids are positive; anonymous WebSocket identities are negative.
type UserID int64

// IsAnon reports whether the identity was minted for a WebSocket client.
func (u UserID) IsAnon() bool { return u < 0 }

// State is the position of a user in the lifecycle state machine.
type State int

const (
	StateSearching State = iota
	StateInChat
	StateRating
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateInChat:
		return "in_chat"
	case StateRating:
		return "rating"
	default:
		return "unknown"
	}
}

// UserProfile is cached display metadata. It is never authoritative and is
// refreshed from every inbound event that carries it.
type UserProfile struct {
	Handle      string    `json:"handle,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	SeenAt      time.Time `json:"seen_at"`
}

// Empty reports whether the profile carries nothing worth disclosing.
func (p UserProfile) Empty() bool {
	return p.Handle == "" && p.DisplayName == ""
}
