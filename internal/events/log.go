package events

import (
	"context"
	"log"

	"anonpair/backend/internal/models"
)

// LogSink writes one line per event. It is always installed.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Deliver(_ context.Context, ev models.LifecycleEvent) error {
	switch ev.Type {
	case models.EventSessionEnded:
		log.Printf("INFO: %s room=%s users=%v messages=%d reason=%s", ev.Type, ev.RoomID, ev.Users, ev.Messages, ev.Reason)
	case models.EventRatingRecorded:
		log.Printf("INFO: %s users=%v score=%d", ev.Type, ev.Users, ev.Score)
	default:
		log.Printf("INFO: %s room=%s users=%v", ev.Type, ev.RoomID, ev.Users)
	}
	return nil
}
