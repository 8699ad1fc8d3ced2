package analysis

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"anonpair/backend/internal/config"
	"anonpair/backend/internal/localization"
	"anonpair/backend/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const typingInterval = 5 * time.Second

// Analyzer produces a raw answer for a query.
type Analyzer interface {
	Analyze(ctx context.Context, query string) (string, error)
	Model() string
}

// Bot answers every text message with a formatted literary analysis.
type Bot struct {
	Bot       telegram.TelegramBot
	Analyzer  Analyzer
	Localizer *localization.Localizer
	Language  string
	Limit     int
	MinQuery  int
	Timeout   time.Duration

	wg sync.WaitGroup
}

func NewBot(bot telegram.TelegramBot, analyzer Analyzer, loc *localization.Localizer, lang string) *Bot {
	if loc == nil {
		loc = localization.Default(lang)
	}
	return &Bot{
		Bot:       bot,
		Analyzer:  analyzer,
		Localizer: loc,
		Language:  lang,
		Limit:     config.AnalystMessageLimit,
		MinQuery:  config.AnalystMinQuery,
		Timeout:   config.AnalystTimeout,
	}
}

// Run polls for updates until ctx ends. Queries are analysed concurrently.
func (b *Bot) Run(ctx context.Context) {
	log.Printf("[analyst] authorized as @%s, model %s", b.Bot.GetSelf().UserName, b.Analyzer.Model())
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.Bot.GetUpdatesChan(u)

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.Bot.StopReceivingUpdates()
			log.Printf("[analyst] polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			msg := update.Message
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleMessage(ctx, msg)
			}()
		}
	}
}

// HandleMessage serves one incoming message synchronously.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.reply(chatID, b.Localizer.GetString(b.Language, "analyst_welcome"))
			return
		case "about":
			b.reply(chatID, b.Localizer.Format(b.Language, "analyst_about", b.Analyzer.Model()))
			return
		}
	}

	query := strings.TrimSpace(msg.Text)
	if query == "" {
		return
	}
	if utf8.RuneCountInString(query) < b.MinQuery {
		b.reply(chatID, b.Localizer.GetString(b.Language, "analyst_short"))
		return
	}
	log.Printf("[analyst] query from %d: %.50s", chatID, query)

	status, err := b.Bot.Send(htmlMessage(chatID, b.Localizer.GetString(b.Language, "analyst_working")))
	if err != nil {
		log.Printf("[analyst] failed to send status to %d: %v", chatID, err)
	}

	answer, err := b.analyze(ctx, chatID, query)
	if status.MessageID != 0 {
		if _, derr := b.Bot.Request(tgbotapi.NewDeleteMessage(chatID, status.MessageID)); derr != nil {
			log.Printf("[analyst] failed to delete status message: %v", derr)
		}
	}
	if err != nil {
		log.Printf("[analyst] analysis for %d: %v", chatID, err)
		b.reply(chatID, b.Localizer.Format(b.Language, "analyst_error", htmlEscaper.Replace(truncate(err.Error(), 200))))
		return
	}

	parts := SplitMessage(FormatResponse(answer), b.Limit)
	for i, part := range parts {
		if i > 0 {
			part = b.Localizer.Format(b.Language, "analyst_part", i+1, part)
		}
		b.reply(chatID, part)
	}
	log.Printf("[analyst] answered %d in %d part(s), %d chars", chatID, len(parts), utf8.RuneCountInString(answer))
}

// analyze keeps the typing indicator alive while the model works.
func (b *Bot) analyze(ctx context.Context, chatID int64, query string) (string, error) {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			if _, err := b.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
				return
			}
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	return b.Analyzer.Analyze(ctx, query)
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.Bot.Send(htmlMessage(chatID, text)); err != nil {
		log.Printf("[analyst] failed to send to %d: %v", chatID, err)
	}
}

func htmlMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}
