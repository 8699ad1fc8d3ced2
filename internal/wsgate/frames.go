package wsgate

import (
	"errors"
	"fmt"

	"anonpair/backend/internal/chathub"
	"anonpair/backend/internal/models"
)

// Inbound frame types.
const (
	FrameAction = "action"
	FrameText   = "text"
	FrameMedia  = "media"
	FrameRate   = "rate"
)

// Outbound frame types.
const (
	FrameNotice = "notice"
	FrameEdit   = "edit"
)

var actionNames = map[string]chathub.Action{
	"search":    chathub.ActionSearch,
	"cancel":    chathub.ActionCancel,
	"exit":      chathub.ActionExit,
	"exit_next": chathub.ActionExitNext,
	"restart":   chathub.ActionRestart,
}

var errEmptyText = errors.New("empty text")

// InFrame is a client to server frame.
type InFrame struct {
	Type    string `json:"type"`
	Action  string `json:"action,omitempty"`
	Text    string `json:"text,omitempty"`
	Media   string `json:"media,omitempty"`
	FileID  string `json:"file_id,omitempty"`
	Caption string `json:"caption,omitempty"`
	// Target and Score answer a rating prompt; PromptID is the id of the
	// notice that carried it.
	Target   int64 `json:"target,omitempty"`
	Score    int   `json:"score"`
	PromptID int   `json:"prompt_id,omitempty"`
}

// OutFrame is a server to client frame.
type OutFrame struct {
	Type       string `json:"type"`
	ID         int    `json:"id"`
	Text       string `json:"text,omitempty"`
	Keyboard   string `json:"keyboard,omitempty"`
	RateTarget int64  `json:"rate_target,omitempty"`
	HTML       bool   `json:"html,omitempty"`
	Media      string `json:"media,omitempty"`
	FileID     string `json:"file_id,omitempty"`
	Caption    string `json:"caption,omitempty"`
}

// Event converts f, sent by user, into an engine event.
func (f InFrame) Event(user models.UserID) (chathub.Event, error) {
	switch f.Type {
	case FrameAction:
		a, ok := actionNames[f.Action]
		if !ok {
			return chathub.Event{}, fmt.Errorf("unknown action %q", f.Action)
		}
		return chathub.ActionEvent(user, a), nil
	case FrameText:
		if f.Text == "" {
			return chathub.Event{}, errEmptyText
		}
		return chathub.TextEvent(user, f.Text, 0), nil
	case FrameMedia:
		kind := models.MediaKind(f.Media)
		if !kind.Valid() || f.FileID == "" {
			return chathub.Event{}, fmt.Errorf("invalid media frame %q", f.Media)
		}
		return chathub.MediaEvent(user, models.MediaPayload(kind, f.FileID, f.Caption, 0)), nil
	case FrameRate:
		prompt := chathub.MessageRef{User: user, MessageID: f.PromptID}
		return chathub.RatingEvent(user, models.UserID(f.Target), f.Score, prompt), nil
	default:
		return chathub.Event{}, fmt.Errorf("unknown frame type %q", f.Type)
	}
}

func keyboardName(k chathub.Keyboard) string {
	switch k {
	case chathub.KeyboardMain:
		return "main"
	case chathub.KeyboardSearching:
		return "searching"
	case chathub.KeyboardChat:
		return "chat"
	case chathub.KeyboardRating:
		return "rating"
	default:
		return ""
	}
}
