package storage

import (
	"context"
	"fmt"

	"anonpair/backend/internal/models"
)

// Archive writes lifecycle events into Storage. It is an event sink.
type Archive struct {
	Store Storage
}

func NewArchive(s Storage) *Archive {
	return &Archive{Store: s}
}

func (a *Archive) Name() string { return "archive" }

func (a *Archive) Deliver(ctx context.Context, ev models.LifecycleEvent) error {
	switch ev.Type {
	case models.EventSessionStarted:
		if len(ev.Users) != 2 {
			return fmt.Errorf("session %s: want 2 users, got %d", ev.RoomID, len(ev.Users))
		}
		return a.Store.SaveRoom(ctx, &models.ChatRoom{
			RoomID:    ev.RoomID,
			User1ID:   int64(ev.Users[0]),
			User2ID:   int64(ev.Users[1]),
			IsActive:  true,
			StartedAt: ev.At,
		})
	case models.EventSessionEnded:
		return a.Store.CloseRoom(ctx, ev.RoomID, ev.Messages, ev.Reason, ev.At)
	case models.EventRatingRecorded:
		if len(ev.Users) != 2 {
			return fmt.Errorf("rating %s: want rater and target, got %d users", ev.ID, len(ev.Users))
		}
		return a.Store.SaveRating(ctx, &models.RatingRecord{
			EventID:   ev.ID,
			RaterID:   int64(ev.Users[0]),
			TargetID:  int64(ev.Users[1]),
			Score:     ev.Score,
			CreatedAt: ev.At,
		})
	default:
		return nil
	}
}
