// Package reasoning drives the phased reasoning sequence for one query,
// reporting progress through the step protocol. Phases run forward-only:
// understand, tools (optional), uncertainty (optional), analysis, synthesis
// (optional), response.
package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vampirenirmal/krishicore/internal/analyzer"
	"github.com/vampirenirmal/krishicore/internal/step"
	"github.com/vampirenirmal/krishicore/internal/tools"
)

// Responder produces the final answer during the response phase, typically
// by calling the reasoning backend with the gathered tool context.
type Responder func(ctx context.Context, a analyzer.Analysis, results []tools.Result) (string, error)

type Sequencer struct {
	provider  tools.Provider
	uncertain UncertaintyPolicy
	logger    *slog.Logger
}

type Option func(*Sequencer)

// WithUncertaintyPolicy replaces the default conflicting-data heuristic.
func WithUncertaintyPolicy(policy UncertaintyPolicy) Option {
	return func(s *Sequencer) {
		s.uncertain = policy
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequencer) {
		s.logger = logger
	}
}

func New(provider tools.Provider, opts ...Option) *Sequencer {
	s := &Sequencer{
		provider:  provider,
		uncertain: DefaultUncertaintyPolicy,
		logger:    slog.Default().With("component", "sequencer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the reasoning sequence for one analyzed query, emitting steps
// as it goes. Once ctx is cancelled no new phase starts; the phase in flight
// finishes first. A hard tool failure emits one error step and stops the
// sequence.
func (s *Sequencer) Run(ctx context.Context, query string, a analyzer.Analysis, emit step.Emitter, respond Responder) (string, []tools.Result, error) {
	var results []tools.Result

	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	s.understand(a, emit)

	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	results, err := s.gatherTools(ctx, query, a, emit)
	if err != nil {
		return "", results, err
	}

	if err := ctx.Err(); err != nil {
		return "", results, err
	}
	s.checkUncertainty(results, emit)

	if err := ctx.Err(); err != nil {
		return "", results, err
	}
	emit(step.RawStep{ID: "analysis", Title: "Analyzing", Description: "Weighing the gathered information", Status: string(step.StatusActive)})
	emit(step.RawStep{ID: "analysis", Title: "Analysis complete", Description: analysisSummary(a, results), Status: string(step.StatusCompleted)})

	if a.Complexity != analyzer.Simple {
		if err := ctx.Err(); err != nil {
			return "", results, err
		}
		emit(step.RawStep{ID: "synthesis", Title: "Synthesizing", Description: "Combining findings into one recommendation", Status: string(step.StatusActive)})
		emit(step.RawStep{ID: "synthesis", Title: "Synthesis complete", Description: "Recommendation assembled", Status: string(step.StatusCompleted)})
	}

	if err := ctx.Err(); err != nil {
		return "", results, err
	}
	emit(step.RawStep{ID: "response", Title: "Preparing answer", Description: "Writing the response", Status: string(step.StatusActive)})

	answer, err := respond(ctx, a, results)
	if err != nil {
		s.logger.Error("response generation failed", "error", err)
		emit(step.RawStep{
			ID:          "response",
			Title:       "Answer failed",
			Description: "Could not generate an answer. Please try again.",
			Status:      string(step.StatusError),
		})
		return "", results, fmt.Errorf("generating response: %w", err)
	}

	emit(step.RawStep{ID: "response", Title: "Answer ready", Description: "Response prepared", Status: string(step.StatusCompleted)})
	return answer, results, nil
}

func (s *Sequencer) understand(a analyzer.Analysis, emit step.Emitter) {
	emit(step.RawStep{
		ID:          "understand",
		Title:       "Understanding your question",
		Description: "Reading the question and identifying topics",
		Status:      string(step.StatusActive),
	})

	var topics []string
	for _, p := range a.DetectedPatterns {
		topics = append(topics, string(p.Type))
	}
	description := "General farming question"
	if len(topics) > 0 {
		description = "Detected topics: " + strings.Join(topics, ", ")
	}

	emit(step.RawStep{
		ID:          "understand",
		Title:       "Question understood",
		Description: description,
		Status:      string(step.StatusCompleted),
	})
}

func (s *Sequencer) gatherTools(ctx context.Context, query string, a analyzer.Analysis, emit step.Emitter) ([]tools.Result, error) {
	if len(a.RequiredTools) == 0 {
		emit(step.RawStep{
			ID:          "tools",
			Title:       "Knowledge base",
			Description: "Answering from built-in farming knowledge",
			Status:      string(step.StatusCompleted),
		})
		return nil, nil
	}

	emit(step.RawStep{
		ID:          "tools",
		Title:       "Gathering information",
		Description: fmt.Sprintf("Consulting %d sources", len(a.RequiredTools)),
		Status:      string(step.StatusProcessing),
	})

	var results []tools.Result
	for i, name := range a.RequiredTools {
		stepID := fmt.Sprintf("tool_%d", i)
		emit(step.RawStep{
			ID:          stepID,
			Title:       toolTitle(name),
			Description: "Fetching data",
			Status:      string(step.StatusActive),
		})

		result, err := s.provider.Invoke(ctx, name, query)
		if err != nil {
			s.logger.Error("tool invocation failed", "tool", name, "error", err)
			emit(step.RawStep{
				ID:          stepID,
				Title:       toolTitle(name),
				Description: fmt.Sprintf("Could not reach %s. Please try again later.", toolTitle(name)),
				Status:      string(step.StatusError),
			})
			return results, fmt.Errorf("invoking %s: %w", name, err)
		}

		results = append(results, result)
		emit(step.RawStep{
			ID:          stepID,
			Title:       toolTitle(name),
			Description: "Data received",
			Status:      string(step.StatusCompleted),
		})
	}

	emit(step.RawStep{
		ID:          "tools",
		Title:       "Information gathered",
		Description: fmt.Sprintf("%d sources consulted", len(results)),
		Status:      string(step.StatusCompleted),
	})

	return results, nil
}

func (s *Sequencer) checkUncertainty(results []tools.Result, emit step.Emitter) {
	if !s.uncertain(results) {
		return
	}

	s.logger.Debug("uncertainty policy triggered", "result_count", len(results))
	emit(step.RawStep{
		ID:          "uncertainty",
		Title:       "Cross-checking sources",
		Description: "Some sources disagree; verifying before answering",
		Status:      string(step.StatusUncertain),
	})
	emit(step.RawStep{
		ID:          "uncertainty",
		Title:       "Sources reconciled",
		Description: "Proceeding with the most reliable data",
		Status:      string(step.StatusCompleted),
	})
}

func analysisSummary(a analyzer.Analysis, results []tools.Result) string {
	parts := []string{fmt.Sprintf("%s question", a.Complexity)}
	if len(results) > 0 {
		parts = append(parts, fmt.Sprintf("%d data sources", len(results)))
	}
	if a.Contextual.Urgency {
		parts = append(parts, "urgent")
	}
	if a.Contextual.Seasonality != "" {
		parts = append(parts, a.Contextual.Seasonality+" season")
	}
	return strings.Join(parts, ", ")
}

func toolTitle(name string) string {
	switch name {
	case "weather_api":
		return "Weather service"
	case "market_api":
		return "Market prices"
	case "price_trends":
		return "Price trends"
	case "disease_db":
		return "Disease database"
	case "soil_db":
		return "Soil guide"
	case "irrigation_guide":
		return "Irrigation guide"
	case "schemes_db":
		return "Government schemes"
	case "agri_news":
		return "Agriculture news"
	default:
		return name
	}
}
