// Package telegram handles the integration with the Telegram Bot API.
// It receives updates, turns them into engine events and delivers the
// engine's notices back to users.
package telegram

import (
	"context"
	"log"
	"strconv"
	"strings"

	"anonpair/backend/internal/chathub"
	"anonpair/backend/internal/localization"
	"anonpair/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotService is responsible for receiving Telegram updates and routing them to the hub.
type BotService struct {
	Bot       TelegramBot
	Hub       *chathub.ManagerService
	Localizer *localization.Localizer

	// buttons maps every translated reply button label to its action.
	buttons map[string]chathub.Action
}

func NewBotService(bot TelegramBot, hub *chathub.ManagerService, loc *localization.Localizer) *BotService {
	s := &BotService{
		Bot:       bot,
		Hub:       hub,
		Localizer: loc,
		buttons:   make(map[string]chathub.Action),
	}
	for _, lang := range loc.Languages() {
		s.buttons[loc.GetString(lang, "button_search")] = chathub.ActionSearch
		s.buttons[loc.GetString(lang, "button_cancel")] = chathub.ActionCancel
		s.buttons[loc.GetString(lang, "button_exit")] = chathub.ActionExit
		s.buttons[loc.GetString(lang, "button_next")] = chathub.ActionExitNext
	}
	return s
}

// Run is the main loop for receiving Telegram updates. It returns when ctx ends.
func (s *BotService) Run(ctx context.Context) {
	log.Printf("[telegram] authorized as @%s", s.Bot.GetSelf().UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.Bot.GetUpdatesChan(u)
	log.Printf("[telegram] polling started")

	for {
		select {
		case <-ctx.Done():
			s.Bot.StopReceivingUpdates()
			log.Printf("[telegram] polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate converts one update and submits it to the hub.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	var (
		ev chathub.Event
		ok bool
	)
	switch {
	case update.CallbackQuery != nil:
		ev, ok = s.handleCallbackQuery(update.CallbackQuery)
	case update.Message != nil:
		ev, ok = s.EventFromMessage(update.Message)
	}
	if !ok {
		return
	}
	if err := s.Hub.Submit(ctx, ev); err != nil {
		log.Printf("[telegram] dropped update %d: %v", update.UpdateID, err)
	}
}

// EventFromMessage maps a message to an engine event. Unsupported content
// (locations, contacts, service messages), commands other than /start and
// anything outside a private chat yield false.
func (s *BotService) EventFromMessage(msg *tgbotapi.Message) (chathub.Event, bool) {
	if msg.Chat == nil {
		return chathub.Event{}, false
	}
	if !msg.Chat.IsPrivate() {
		log.Printf("[telegram] ignoring message from %s chat %d", msg.Chat.Type, msg.Chat.ID)
		return chathub.Event{}, false
	}
	user := models.UserID(msg.Chat.ID)

	var ev chathub.Event
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		ev = chathub.ActionEvent(user, chathub.ActionRestart)
	case msg.IsCommand():
		log.Printf("[telegram] ignoring command /%s from %d", msg.Command(), user)
		return chathub.Event{}, false
	case msg.Text != "":
		if action, ok := s.buttons[msg.Text]; ok {
			ev = chathub.ActionEvent(user, action)
		} else {
			ev = chathub.TextEvent(user, msg.Text, msg.MessageID)
		}
	default:
		kind, fileID := extractMedia(msg)
		if kind == "" {
			log.Printf("[telegram] ignoring unsupported message %d from %d", msg.MessageID, user)
			return chathub.Event{}, false
		}
		ev = chathub.MediaEvent(user, models.MediaPayload(kind, fileID, msg.Caption, msg.MessageID))
	}

	if msg.From != nil {
		ev = ev.WithProfile(msg.From.UserName, displayName(msg.From))
	}
	return ev, true
}

// extractMedia returns the kind and file id of the attachment, if any.
func extractMedia(msg *tgbotapi.Message) (models.MediaKind, string) {
	switch {
	case len(msg.Photo) > 0:
		return models.MediaPhoto, msg.Photo[len(msg.Photo)-1].FileID
	case msg.Video != nil:
		return models.MediaVideo, msg.Video.FileID
	case msg.Document != nil:
		return models.MediaDocument, msg.Document.FileID
	case msg.Audio != nil:
		return models.MediaAudio, msg.Audio.FileID
	case msg.Voice != nil:
		return models.MediaVoice, msg.Voice.FileID
	case msg.Sticker != nil:
		return models.MediaSticker, msg.Sticker.FileID
	default:
		return "", ""
	}
}

func (s *BotService) handleCallbackQuery(cb *tgbotapi.CallbackQuery) (chathub.Event, bool) {
	// Respond to the callback query to remove the "loading" state
	if _, err := s.Bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[telegram] failed to answer callback %s: %v", cb.ID, err)
	}
	if cb.Message == nil || cb.Message.Chat == nil || !cb.Message.Chat.IsPrivate() {
		return chathub.Event{}, false
	}

	target, score, ok := ParseRateData(cb.Data)
	if !ok {
		log.Printf("WARN: unknown callback data %q", cb.Data)
		return chathub.Event{}, false
	}

	user := models.UserID(cb.Message.Chat.ID)
	prompt := chathub.MessageRef{User: user, MessageID: cb.Message.MessageID}
	ev := chathub.RatingEvent(user, target, score, prompt)
	if cb.From != nil {
		ev = ev.WithProfile(cb.From.UserName, displayName(cb.From))
	}
	return ev, true
}

// ParseRateData decodes rate_<target>_<score>. The target may be negative.
func ParseRateData(data string) (models.UserID, int, bool) {
	rest, ok := strings.CutPrefix(data, RatePrefix)
	if !ok {
		return 0, 0, false
	}
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return 0, 0, false
	}
	target, err := strconv.ParseInt(rest[:i], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	score, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return 0, 0, false
	}
	return models.UserID(target), score, true
}

func displayName(u *tgbotapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
