package chathub

import (
	"context"

	"anonpair/backend/internal/models"
)

// Keyboard names the reply controls a transport should attach to a text notice.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	// KeyboardMain offers "find a partner".
	KeyboardMain
	// KeyboardSearching offers "cancel search".
	KeyboardSearching
	// KeyboardChat offers "leave" and "leave and find next".
	KeyboardChat
	// KeyboardRating is the 1..5 plus skip selector for RateTarget.
	KeyboardRating
)

// UIHints travel with a text notice and are rendered by the transport.
type UIHints struct {
	Keyboard   Keyboard
	RateTarget models.UserID
	// HTML asks the transport to render the text with HTML markup.
	HTML bool
}

// MessageRef identifies a message already delivered by the gateway.
type MessageRef struct {
	User      models.UserID
	MessageID int
}

// Gateway is the outbound side of the messaging platform. Every failure is
// expected to be (or to be wrapped into) a *DeliveryError.
type Gateway interface {
	SendText(ctx context.Context, user models.UserID, text string, hints UIHints) (MessageRef, error)
	SendMedia(ctx context.Context, user models.UserID, kind models.MediaKind, fileRef, caption string) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string) error
}

// EventSink receives lifecycle events. Publish must not block.
type EventSink interface {
	Publish(ev models.LifecycleEvent)
}

type nopSink struct{}

func (nopSink) Publish(models.LifecycleEvent) {}
