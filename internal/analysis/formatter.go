// Package analysis implements the literary analyst bot: a completion client
// for an OpenAI-compatible endpoint, Telegram HTML formatting of the answer
// and message splitting.
package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	blankRuns   = regexp.MustCompile(`\n\s*\n\s*\n`)
	headingLine = regexp.MustCompile(`(?m)^#+\s*(.+?)\s*$`)
	subheading  = regexp.MustCompile(`(?m)^(\d+\.\s+[^:\n]+:|[А-ЯЁA-Z][^:\n]+:)\s*$`)
	bulletLine  = regexp.MustCompile(`^\s*[-•*]\s+(.+)`)
	numberLine  = regexp.MustCompile(`^\s*\d+\.\s+(.+)`)
	termLine    = regexp.MustCompile(`^([^-\n<]+?)\s+-\s+(.+)$`)
	guillemets  = regexp.MustCompile(`«[^»\n]+»`)
	dquotes     = regexp.MustCompile(`"[^"\n]+"`)
	yearRe      = regexp.MustCompile(`\b(\d{4})\b`)
	wordRe      = regexp.MustCompile(`\p{L}+`)
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// LiteraryTerms are bolded wherever they appear as whole words.
var LiteraryTerms = []string{
	"композиция", "сюжет", "фабула", "конфликт", "образ", "персонаж",
	"характер", "пейзаж", "интерьер", "диалог", "монолог", "символ",
	"метафора", "эпитет", "гипербола", "аллегория", "антитеза",
	"гротеск", "ирония", "сатира", "лирика", "эпос", "драма",
}

var termSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(LiteraryTerms))
	for _, t := range LiteraryTerms {
		set[t] = struct{}{}
	}
	return set
}()

// FormatResponse turns a markdown-ish model answer into Telegram HTML.
func FormatResponse(text string) string {
	text = htmlEscaper.Replace(text)
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = headingLine.ReplaceAllString(text, "<b>$1</b>")
	text = subheading.ReplaceAllString(text, "<b>$1</b>")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			lines[i] = "• " + m[1]
			continue
		}
		if m := numberLine.FindStringSubmatch(line); m != nil {
			lines[i] = m[1]
			continue
		}
		if m := termLine.FindStringSubmatch(line); m != nil {
			lines[i] = "<b>" + strings.TrimSpace(m[1]) + "</b> - " + m[2]
			continue
		}
		line = guillemets.ReplaceAllString(line, "<i>$0</i>")
		lines[i] = dquotes.ReplaceAllString(line, "<i>$0</i>")
	}
	text = strings.Join(lines, "\n")

	text = boldTerms(text)
	return yearRe.ReplaceAllString(text, "<code>$1</code>")
}

// boldTerms works on letter runs because RE2 word boundaries are ASCII only.
func boldTerms(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range wordRe.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		if _, ok := termSet[strings.ToLower(word)]; !ok {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString("<b>")
		b.WriteString(word)
		b.WriteString("</b>")
		last = loc[1]
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// SplitMessage cuts text into parts of at most limit characters, breaking
// between paragraphs. A single paragraph longer than limit is truncated.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if part := strings.TrimSpace(current.String()); part != "" {
			parts = append(parts, truncate(part, limit))
		}
		current.Reset()
		size = 0
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		n := utf8.RuneCountInString(paragraph)
		if size > 0 && size+n+2 > limit {
			flush()
		}
		current.WriteString(paragraph)
		current.WriteString("\n\n")
		size += n + 2
	}
	flush()
	return parts
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
