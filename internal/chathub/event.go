package chathub

import "anonpair/backend/internal/models"

// EventKind is the shape of an inbound event.
type EventKind int

const (
	// EventAction is a control selection (buttons, /start).
	EventAction EventKind = iota
	// EventText is free text.
	EventText
	// EventMedia is a photo, video, document, audio, voice or sticker.
	EventMedia
	// EventRating is a rating keyboard selection.
	EventRating
)

// Action is the control carried by an EventAction.
type Action int

const (
	ActionSearch Action = iota + 1
	ActionCancel
	ActionExit
	// ActionExitNext leaves the current chat and looks for a new partner.
	ActionExitNext
	// ActionRestart is the re-entry command; it is valid in every state.
	ActionRestart
)

func (a Action) String() string {
	switch a {
	case ActionSearch:
		return "search"
	case ActionCancel:
		return "cancel"
	case ActionExit:
		return "exit"
	case ActionExitNext:
		return "exit_next"
	case ActionRestart:
		return "restart"
	default:
		return "none"
	}
}

// Event is one inbound user event, already decoded by a transport.
type Event struct {
	User    models.UserID
	Kind    EventKind
	Action  Action
	Payload models.Payload

	// RateTarget and Score describe a rating selection. Prompt is the
	// message carrying the rating keyboard, edited after the selection.
	RateTarget models.UserID
	Score      int
	Prompt     MessageRef

	// Profile, when set, refreshes the cached display metadata of User.
	Profile *models.UserProfile
}

func ActionEvent(u models.UserID, a Action) Event {
	return Event{User: u, Kind: EventAction, Action: a}
}

func TextEvent(u models.UserID, text string, messageID int) Event {
	return Event{User: u, Kind: EventText, Payload: models.TextPayload(text, messageID)}
}

func MediaEvent(u models.UserID, p models.Payload) Event {
	return Event{User: u, Kind: EventMedia, Payload: p}
}

func RatingEvent(u, target models.UserID, score int, prompt MessageRef) Event {
	return Event{User: u, Kind: EventRating, RateTarget: target, Score: score, Prompt: prompt}
}

// WithProfile attaches display metadata to the event.
func (e Event) WithProfile(handle, displayName string) Event {
	e.Profile = &models.UserProfile{Handle: handle, DisplayName: displayName}
	return e
}

// Notice is one outbound notification issued while handling an event.
type Notice struct {
	To    models.UserID
	Text  string
	Media models.MediaKind
	Hints UIHints
	Err   error
}

// Outcome is the result of handling one event: the requester's transition and
// every notification issued along the way.
type Outcome struct {
	User    models.UserID
	From    models.State
	To      models.State
	Queue   QueueState
	Paired  *Session
	Notices []Notice
	// Err is the informational error reported to the requester, if any.
	Err error
}

// NoticesTo returns the notices addressed to u, in issue order.
func (o Outcome) NoticesTo(u models.UserID) []Notice {
	var out []Notice
	for _, n := range o.Notices {
		if n.To == u {
			out = append(out, n)
		}
	}
	return out
}
