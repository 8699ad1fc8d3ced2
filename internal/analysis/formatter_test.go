package analysis_test

import (
	"strings"
	"testing"

	"anonpair/backend/internal/analysis"

	"github.com/stretchr/testify/assert"
)

func TestFormatResponse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "## Краткое содержание", "<b>Краткое содержание</b>"},
		{"subheading", "Главные герои:", "<b>Главные герои:</b>"},
		{"bullets", "- один\n* два\n• три", "• один\n• два\n• три"},
		{"numbered", "1. первое\n2. второе", "первое\nвторое"},
		{"term", "Пушкин - поэт", "<b>Пушкин</b> - поэт"},
		{"quotes", `роман «Идиот» и "Бесы"`, `роман <i>«Идиот»</i> и <i>"Бесы"</i>`},
		{"year", "написан в 1866 году", "написан в <code>1866</code> году"},
		{"literary terms", "главный конфликт и Ирония", "главный <b>конфликт</b> и <b>Ирония</b>"},
		{"term inside word", "образование", "образование"},
		{"escape", "a < b & c", "a &lt; b &amp; c"},
		{"blank runs", "первый\n\n\n\nвторой", "первый\n\nвторой"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, analysis.FormatResponse(tc.in))
		})
	}
}

func TestSplitMessage_ShortTextIsOnePart(t *testing.T) {
	assert.Equal(t, []string{"привет"}, analysis.SplitMessage("привет", 4000))
}

func TestSplitMessage_ByParagraph(t *testing.T) {
	text := "aaaa\n\nbbbb\n\ncccc"
	assert.Equal(t, []string{"aaaa", "bbbb", "cccc"}, analysis.SplitMessage(text, 10))
	assert.Equal(t, []string{"aaaa\n\nbbbb", "cccc"}, analysis.SplitMessage(text, 12))
}

func TestSplitMessage_TruncatesLongParagraph(t *testing.T) {
	parts := analysis.SplitMessage("привет мир", 3)
	assert.Equal(t, []string{"при"}, parts)
}

func TestSplitMessage_PartsRespectLimit(t *testing.T) {
	text := strings.Repeat(strings.Repeat("я", 30)+"\n\n", 20)
	for _, part := range analysis.SplitMessage(text, 100) {
		assert.LessOrEqual(t, len([]rune(part)), 100)
		assert.NotEmpty(t, part)
	}
}
