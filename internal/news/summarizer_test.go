package news

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vampirenirmal/krishicore/internal/chat"
)

type fakeChat struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeChat) Chat(ctx context.Context, messages []chat.Message) (string, error) {
	for _, m := range messages {
		f.prompts = append(f.prompts, m.Content)
	}
	return f.response, f.err
}

func sampleArticles() []Article {
	return []Article{
		{Title: "Wheat MSP raised", Description: "The government raised the minimum support price for wheat.", Source: "AgriNews", PublishedAt: time.Now()},
		{Title: "Monsoon arrives early", Description: "The monsoon reached Kerala three days early this year.", Source: "WeatherDesk", PublishedAt: time.Now()},
	}
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()

	t.Run("numbered response mapped to flashcards", func(t *testing.T) {
		backend := &fakeChat{response: "1. MSP for wheat is up; sell after verifying mandi rates.\n2. Plan kharif sowing early; monsoon is ahead of schedule."}
		s := NewSummarizer(backend)

		cards := s.Summarize(ctx, sampleArticles())
		if len(cards) != 2 {
			t.Fatalf("got %d cards, want 2", len(cards))
		}
		if cards[0].Summary != "MSP for wheat is up; sell after verifying mandi rates." {
			t.Errorf("card 0 summary = %q", cards[0].Summary)
		}
		if cards[1].Title != "Monsoon arrives early" || cards[1].Source != "WeatherDesk" {
			t.Errorf("card 1 metadata = %+v, want article metadata carried over", cards[1])
		}
	})

	t.Run("backend failure degrades to descriptions", func(t *testing.T) {
		backend := &fakeChat{err: errors.New("model down")}
		s := NewSummarizer(backend)

		cards := s.Summarize(ctx, sampleArticles())
		if len(cards) != 2 {
			t.Fatalf("got %d cards, want 2", len(cards))
		}
		if cards[0].Summary != "The government raised the minimum support price for wheat." {
			t.Errorf("card 0 summary = %q, want the article description", cards[0].Summary)
		}
	})

	t.Run("short response pads remaining cards with descriptions", func(t *testing.T) {
		backend := &fakeChat{response: "1. Only one summary came back."}
		s := NewSummarizer(backend)

		cards := s.Summarize(ctx, sampleArticles())
		if cards[0].Summary != "Only one summary came back." {
			t.Errorf("card 0 summary = %q", cards[0].Summary)
		}
		if !strings.Contains(cards[1].Summary, "monsoon") {
			t.Errorf("card 1 summary = %q, want description fallback", cards[1].Summary)
		}
	})

	t.Run("no articles yields no cards", func(t *testing.T) {
		backend := &fakeChat{}
		s := NewSummarizer(backend)
		if cards := s.Summarize(ctx, nil); cards != nil {
			t.Errorf("Summarize(nil) = %v, want nil", cards)
		}
		if len(backend.prompts) != 0 {
			t.Error("chat backend called for zero articles")
		}
	})

	t.Run("long description fallback truncated on runes", func(t *testing.T) {
		long := strings.Repeat("बहुत लंबा विवरण ", 30)
		backend := &fakeChat{err: errors.New("down")}
		s := NewSummarizer(backend)

		cards := s.Summarize(ctx, []Article{{Title: "t", Description: long}})
		if got := []rune(cards[0].Summary); len(got) > 201 {
			t.Errorf("fallback summary = %d runes, want <= 201", len(got))
		}
		if !strings.HasSuffix(cards[0].Summary, "…") {
			t.Errorf("fallback summary %q missing ellipsis", cards[0].Summary)
		}
	})
}

func TestParseNumberedLines(t *testing.T) {
	tests := []struct {
		name     string
		response string
		n        int
		want     []string
	}{
		{
			name:     "dot numbering",
			response: "1. first\n2. second",
			n:        2,
			want:     []string{"first", "second"},
		},
		{
			name:     "paren numbering",
			response: "1) first\n2) second",
			n:        2,
			want:     []string{"first", "second"},
		},
		{
			name:     "unnumbered lines kept in order",
			response: "first summary\nsecond summary",
			n:        2,
			want:     []string{"first summary", "second summary"},
		},
		{
			name:     "blank lines skipped",
			response: "1. first\n\n\n2. second",
			n:        2,
			want:     []string{"first", "second"},
		},
		{
			name:     "extra lines beyond n dropped",
			response: "1. a\n2. b\n3. c",
			n:        2,
			want:     []string{"a", "b"},
		},
		{
			name:     "sentences starting with a period-free clause untouched",
			response: "Prices rose 4.5 percent this week",
			n:        1,
			want:     []string{"Prices rose 4.5 percent this week"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseNumberedLines(tt.response, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d summaries, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("summary %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
