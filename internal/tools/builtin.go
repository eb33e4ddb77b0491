package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/vampirenirmal/krishicore/internal/chat"
	"github.com/vampirenirmal/krishicore/internal/news"
)

// ChatTool answers through the reasoning backend with a fixed briefing
// prompt. Weather, market, soil, and scheme lookups are all chat-backed in
// the absence of dedicated data feeds.
type ChatTool struct {
	name   string
	kind   string
	prompt string
	client chat.Client
}

func NewChatTool(name, kind, prompt string, client chat.Client) *ChatTool {
	return &ChatTool{name: name, kind: kind, prompt: prompt, client: client}
}

func (t *ChatTool) Name() string { return t.name }
func (t *ChatTool) Kind() string { return t.kind }

func (t *ChatTool) Invoke(ctx context.Context, query string) (Result, error) {
	content, err := t.client.Chat(ctx, []chat.Message{
		{Role: chat.RoleSystem, Content: t.prompt},
		{Role: chat.RoleUser, Content: query},
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Tool: t.name, Kind: t.kind, Content: content}, nil
}

// NewsTool surfaces recent agricultural headlines as tool context.
type NewsTool struct {
	source news.Source
}

func NewNewsTool(source news.Source) *NewsTool {
	return &NewsTool{source: source}
}

func (t *NewsTool) Name() string { return "agri_news" }
func (t *NewsTool) Kind() string { return KindNews }

func (t *NewsTool) Invoke(ctx context.Context, query string) (Result, error) {
	articles, err := t.source.Articles(ctx, query)
	if err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	for i, a := range articles {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&sb, "%s (%s)\n", a.Title, a.Source)
	}
	return Result{Tool: t.Name(), Kind: KindNews, Content: sb.String()}, nil
}

// RegisterDefaults wires the standard tool set expected by the query
// analyzer's pattern table.
func RegisterDefaults(r *Registry, chatClient chat.Client, source news.Source) {
	r.Register(NewChatTool("weather_api", KindWeather,
		"Give a short weather and farming-impact briefing for the asked region and season.", chatClient))
	r.Register(NewChatTool("market_api", KindPrice,
		"Give current indicative mandi prices relevant to the question. Be concise.", chatClient))
	r.Register(NewChatTool("price_trends", KindMarket,
		"Summarize recent price trends relevant to the question. Be concise.", chatClient))
	r.Register(NewChatTool("disease_db", KindKnowledge,
		"Identify the likely crop disease or pest from the symptoms described and suggest treatment.", chatClient))
	r.Register(NewChatTool("soil_db", KindKnowledge,
		"Give soil and fertilizer guidance for the question. Be concise.", chatClient))
	r.Register(NewChatTool("irrigation_guide", KindKnowledge,
		"Give irrigation guidance for the question. Be concise.", chatClient))
	r.Register(NewChatTool("schemes_db", KindKnowledge,
		"List Indian government schemes and subsidies relevant to the question.", chatClient))
	if source != nil {
		r.Register(NewNewsTool(source))
	}
}
