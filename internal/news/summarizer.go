package news

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vampirenirmal/krishicore/internal/chat"
)

// Summarizer condenses articles into flashcards through the chat backend.
// When the backend fails, it degrades to trimmed article descriptions so the
// news screen is never empty because of a summarization outage.
type Summarizer struct {
	chat   chat.Client
	logger *slog.Logger
}

func NewSummarizer(chatClient chat.Client) *Summarizer {
	return &Summarizer{
		chat:   chatClient,
		logger: slog.Default().With("component", "news_summarizer"),
	}
}

const summaryPrompt = `You are a farming news editor. For each numbered article below,
write one summary of at most two sentences, practical for a farmer.
Reply with one summary per line, numbered to match the articles. No other text.`

// Summarize turns articles into flashcards. It never fails: on backend
// failure the article descriptions are used as summaries.
func (s *Summarizer) Summarize(ctx context.Context, articles []Article) []Flashcard {
	if len(articles) == 0 {
		return nil
	}

	summaries := s.requestSummaries(ctx, articles)

	cards := make([]Flashcard, 0, len(articles))
	for i, a := range articles {
		summary := ""
		if i < len(summaries) {
			summary = summaries[i]
		}
		if summary == "" {
			summary = fallbackSummary(a)
		}
		cards = append(cards, Flashcard{
			Title:       a.Title,
			Summary:     summary,
			Source:      a.Source,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}
	return cards
}

func (s *Summarizer) requestSummaries(ctx context.Context, articles []Article) []string {
	var sb strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, a.Title, a.Description)
	}

	response, err := s.chat.Chat(ctx, []chat.Message{
		{Role: chat.RoleSystem, Content: summaryPrompt},
		{Role: chat.RoleUser, Content: sb.String()},
	})
	if err != nil {
		s.logger.Warn("summarization failed, degrading to descriptions",
			"article_count", len(articles),
			"error", err)
		return nil
	}

	return parseNumberedLines(response, len(articles))
}

// parseNumberedLines extracts up to n numbered summaries from the model
// response, tolerating missing numbers by falling back to line order.
func parseNumberedLines(response string, n int) []string {
	summaries := make([]string, n)
	idx := 0
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Strip a leading "3." or "3)" marker when present.
		if dot := strings.IndexAny(line, ".)"); dot > 0 && dot <= 3 {
			if _, ok := isAllDigits(line[:dot]); ok {
				line = strings.TrimSpace(line[dot+1:])
			}
		}
		if idx < n {
			summaries[idx] = line
			idx++
		}
	}
	return summaries
}

func isAllDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		v = v*10 + int(r-'0')
	}
	return v, true
}

func fallbackSummary(a Article) string {
	desc := strings.TrimSpace(a.Description)
	if desc == "" {
		return a.Title
	}
	if runes := []rune(desc); len(runes) > 200 {
		desc = strings.TrimSpace(string(runes[:200])) + "…"
	}
	return desc
}
