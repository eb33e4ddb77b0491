// Package tools defines the external tool boundary used by the reasoning
// sequence. Each tool is a black-box invocation tagged with a kind so the
// uncertainty policy can reason about where results came from.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Result is one tool invocation outcome.
type Result struct {
	Tool    string
	Kind    string
	Content string
}

// Result kinds. The uncertainty policy keys off price and market sources.
const (
	KindWeather   = "weather"
	KindPrice     = "price"
	KindMarket    = "market"
	KindKnowledge = "knowledge"
	KindNews      = "news"
)

// Tool is one invocable external capability.
type Tool interface {
	Name() string
	Kind() string
	Invoke(ctx context.Context, query string) (Result, error)
}

// Provider resolves tool names to invocations. The sequencer depends only on
// this interface.
type Provider interface {
	Invoke(ctx context.Context, name, query string) (Result, error)
}

// Registry is a Provider backed by registered tools. Unknown tool names
// resolve to a knowledge-base result rather than failing the sequence.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: slog.Default().With("component", "tool_registry"),
	}
}

func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

func (r *Registry) Invoke(ctx context.Context, name, query string) (Result, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("unknown tool, answering from knowledge base", "tool", name)
		return Result{
			Tool:    name,
			Kind:    KindKnowledge,
			Content: "",
		}, nil
	}

	result, err := tool.Invoke(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("tool %s: %w", name, err)
	}
	return result, nil
}

// FormatResults renders tool results as context for answer synthesis.
func FormatResults(results []Result) string {
	var sb strings.Builder
	for _, r := range results {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}
		fmt.Fprintf(&sb, "[%s] %s\n", r.Tool, r.Content)
	}
	return sb.String()
}
