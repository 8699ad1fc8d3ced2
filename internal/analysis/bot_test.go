package analysis_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"anonpair/backend/internal/analysis"
	"anonpair/backend/internal/localization"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBot struct {
	mu       sync.Mutex
	updates  chan tgbotapi.Update
	stopped  bool
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	nextID   int
}

func newMockBot() *mockBot {
	return &mockBot{updates: make(chan tgbotapi.Update, 4)}
}

func (m *mockBot) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updates
}

func (m *mockBot) StopReceivingUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.sent = append(m.sent, msg)
	}
	m.nextID++
	return tgbotapi.Message{MessageID: m.nextID}, nil
}

func (m *mockBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockBot) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "analyst_bot"}
}

func (m *mockBot) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		out = append(out, msg.Text)
	}
	return out
}

func (m *mockBot) deleted() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int
	for _, r := range m.requests {
		if del, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			ids = append(ids, del.MessageID)
		}
	}
	return ids
}

type fakeAnalyzer struct {
	answer string
	err    error
	query  string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, query string) (string, error) {
	f.query = query
	return f.answer, f.err
}

func (f *fakeAnalyzer) Model() string { return "fake-model" }

func message(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: 42}, Text: text}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return msg
}

func newAnalystBot(analyzer analysis.Analyzer) (*analysis.Bot, *mockBot, *localization.Localizer) {
	bot := newMockBot()
	loc := localization.Default("en")
	return analysis.NewBot(bot, analyzer, loc, "en"), bot, loc
}

func TestBot_Welcome(t *testing.T) {
	b, bot, loc := newAnalystBot(&fakeAnalyzer{})
	b.HandleMessage(context.Background(), message("/start"))
	b.HandleMessage(context.Background(), message("/help"))

	welcome := loc.GetString("en", "analyst_welcome")
	assert.Equal(t, []string{welcome, welcome}, bot.texts())
	assert.Equal(t, tgbotapi.ModeHTML, bot.sent[0].ParseMode)
}

func TestBot_About(t *testing.T) {
	b, bot, _ := newAnalystBot(&fakeAnalyzer{})
	b.HandleMessage(context.Background(), message("/about"))

	texts := bot.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "fake-model")
}

func TestBot_ShortQuery(t *testing.T) {
	fake := &fakeAnalyzer{}
	b, bot, loc := newAnalystBot(fake)
	b.HandleMessage(context.Background(), message("abc"))

	assert.Equal(t, []string{loc.GetString("en", "analyst_short")}, bot.texts())
	assert.Empty(t, fake.query)
}

func TestBot_AnswersFormatted(t *testing.T) {
	fake := &fakeAnalyzer{answer: "# Итог\n- пункт"}
	b, bot, loc := newAnalystBot(fake)
	b.HandleMessage(context.Background(), message("Идиот, Достоевский"))

	assert.Equal(t, "Идиот, Достоевский", fake.query)
	texts := bot.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, loc.GetString("en", "analyst_working"), texts[0])
	assert.Equal(t, "<b>Итог</b>\n• пункт", texts[1])
	assert.Equal(t, []int{1}, bot.deleted())
}

func TestBot_SplitsLongAnswer(t *testing.T) {
	fake := &fakeAnalyzer{answer: "первый абзац\n\nвторой абзац"}
	b, bot, _ := newAnalystBot(fake)
	b.Limit = 15
	b.HandleMessage(context.Background(), message("Идиот, Достоевский"))

	texts := bot.texts()
	require.Len(t, texts, 3)
	assert.Equal(t, "первый абзац", texts[1])
	assert.Equal(t, "<b>Part 2</b>\n\nвторой абзац", texts[2])
}

func TestBot_ReportsError(t *testing.T) {
	fake := &fakeAnalyzer{err: errors.New("rate <limited>")}
	b, bot, _ := newAnalystBot(fake)
	b.HandleMessage(context.Background(), message("Идиот, Достоевский"))

	texts := bot.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "<code>rate &lt;limited&gt;</code>")
	assert.Equal(t, []int{1}, bot.deleted())
}

func TestBot_RunStopsWithContext(t *testing.T) {
	fake := &fakeAnalyzer{answer: "ответ"}
	b, bot, _ := newAnalystBot(fake)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	bot.updates <- tgbotapi.Update{Message: message("Идиот, Достоевский")}
	assert.Eventually(t, func() bool { return len(bot.texts()) == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	bot.mu.Lock()
	defer bot.mu.Unlock()
	assert.True(t, bot.stopped)
}
