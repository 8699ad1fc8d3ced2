package telegram

import (
	"context"
	"fmt"
	"strconv"

	"anonpair/backend/internal/chathub"
	"anonpair/backend/internal/localization"
	"anonpair/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RatePrefix starts the callback data of rating buttons: rate_<target>_<score>.
const RatePrefix = "rate_"

// Gateway delivers engine notices and relayed payloads through the Bot API.
type Gateway struct {
	Bot       TelegramBot
	Localizer *localization.Localizer
	Language  string
}

func NewGateway(bot TelegramBot, loc *localization.Localizer, lang string) *Gateway {
	return &Gateway{Bot: bot, Localizer: loc, Language: lang}
}

func (g *Gateway) SendText(ctx context.Context, user models.UserID, text string, hints chathub.UIHints) (chathub.MessageRef, error) {
	msg := tgbotapi.NewMessage(int64(user), text)
	if hints.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if markup := g.markup(hints); markup != nil {
		msg.ReplyMarkup = markup
	}

	sent, err := g.send(ctx, msg)
	if err != nil {
		return chathub.MessageRef{}, chathub.AsDeliveryError(user, "text", err)
	}
	return chathub.MessageRef{User: user, MessageID: sent.MessageID}, nil
}

// SendMedia re-sends a file the platform already stores, by its file id.
func (g *Gateway) SendMedia(ctx context.Context, user models.UserID, kind models.MediaKind, fileRef, caption string) (chathub.MessageRef, error) {
	chatID := int64(user)
	file := tgbotapi.FileID(fileRef)

	var tgMsg tgbotapi.Chattable
	switch kind {
	case models.MediaPhoto:
		photoMsg := tgbotapi.NewPhoto(chatID, file)
		photoMsg.Caption = caption
		tgMsg = photoMsg
	case models.MediaVideo:
		videoMsg := tgbotapi.NewVideo(chatID, file)
		videoMsg.Caption = caption
		tgMsg = videoMsg
	case models.MediaDocument:
		docMsg := tgbotapi.NewDocument(chatID, file)
		docMsg.Caption = caption
		tgMsg = docMsg
	case models.MediaAudio:
		audioMsg := tgbotapi.NewAudio(chatID, file)
		audioMsg.Caption = caption
		tgMsg = audioMsg
	case models.MediaVoice:
		tgMsg = tgbotapi.NewVoice(chatID, file)
	case models.MediaSticker:
		tgMsg = tgbotapi.NewSticker(chatID, file)
	default:
		return chathub.MessageRef{}, chathub.AsDeliveryError(user, string(kind), fmt.Errorf("unsupported media kind %q", kind))
	}

	sent, err := g.send(ctx, tgMsg)
	if err != nil {
		return chathub.MessageRef{}, chathub.AsDeliveryError(user, string(kind), err)
	}
	return chathub.MessageRef{User: user, MessageID: sent.MessageID}, nil
}

// EditText replaces the text of a delivered message and drops its inline keyboard.
func (g *Gateway) EditText(ctx context.Context, ref chathub.MessageRef, text string) error {
	edit := tgbotapi.NewEditMessageText(int64(ref.User), ref.MessageID, text)
	if _, err := g.request(ctx, edit); err != nil {
		return chathub.AsDeliveryError(ref.User, "edit", err)
	}
	return nil
}

type sendResult struct {
	msg tgbotapi.Message
	err error
}

// send runs the blocking Bot API call and gives up when ctx ends.
func (g *Gateway) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := ctx.Err(); err != nil {
		return tgbotapi.Message{}, err
	}
	done := make(chan sendResult, 1)
	go func() {
		msg, err := g.Bot.Send(c)
		done <- sendResult{msg: msg, err: err}
	}()
	select {
	case r := <-done:
		return r.msg, r.err
	case <-ctx.Done():
		return tgbotapi.Message{}, ctx.Err()
	}
}

func (g *Gateway) request(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		resp *tgbotapi.APIResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := g.Bot.Request(c)
		done <- result{resp: resp, err: err}
	}()
	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Gateway) markup(h chathub.UIHints) interface{} {
	t := func(key string) string { return g.Localizer.GetString(g.Language, key) }

	switch h.Keyboard {
	case chathub.KeyboardMain:
		return replyKeyboard(t("button_search"))
	case chathub.KeyboardSearching:
		return replyKeyboard(t("button_cancel"))
	case chathub.KeyboardChat:
		return replyKeyboard(t("button_exit"), t("button_next"))
	case chathub.KeyboardRating:
		stars := make([]tgbotapi.InlineKeyboardButton, 0, chathub.MaxScore)
		for score := chathub.MinScore; score <= chathub.MaxScore; score++ {
			stars = append(stars, tgbotapi.NewInlineKeyboardButtonData(
				g.Localizer.Format(g.Language, "button_rate", score),
				RateData(h.RateTarget, score),
			))
		}
		return tgbotapi.NewInlineKeyboardMarkup(
			stars,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(t("button_skip"), RateData(h.RateTarget, chathub.SkipScore)),
			),
		)
	default:
		return nil
	}
}

// replyKeyboard puts every label on its own row.
func replyKeyboard(labels ...string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(l)))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// RateData encodes a rating button.
func RateData(target models.UserID, score int) string {
	return RatePrefix + strconv.FormatInt(int64(target), 10) + "_" + strconv.Itoa(score)
}
