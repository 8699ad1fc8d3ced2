package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRoom is the archive record of one 1-on-1 session. It is written for
// audit only; the live pairing state never reads it back.
type ChatRoom struct {
	// RoomID is the session UUID assigned when the pair was formed.
	RoomID    string     `gorm:"primaryKey" json:"room_id"`
	User1ID   int64      `gorm:"index" json:"user1_id"`
	User2ID   int64      `gorm:"index" json:"user2_id"`
	IsActive  bool       `gorm:"index" json:"is_active"`
	Messages  int        `json:"messages"`
	EndReason string     `json:"end_reason,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// BeforeCreate assigns a RoomID when the caller did not set one.
func (r *ChatRoom) BeforeCreate(tx *gorm.DB) (err error) {
	if r.RoomID == "" {
		r.RoomID = uuid.New().String()
	}
	return
}
