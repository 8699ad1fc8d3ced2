package models

import "time"

// RatingRecord archives one recorded score. The live average is kept in
// memory; these rows are never read back by the engine.
type RatingRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"uniqueIndex" json:"event_id"`
	RaterID   int64     `gorm:"index" json:"rater_id"`
	TargetID  int64     `gorm:"index" json:"target_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
