// Package orchestrator composes the query pipeline: analysis, phased
// reasoning with live step streaming, answer synthesis, localization, and
// the content-refresh path. It owns the process-wide caches and their
// lifecycle.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vampirenirmal/krishicore/internal/analyzer"
	"github.com/vampirenirmal/krishicore/internal/cache"
	"github.com/vampirenirmal/krishicore/internal/chat"
	"github.com/vampirenirmal/krishicore/internal/config"
	"github.com/vampirenirmal/krishicore/internal/news"
	"github.com/vampirenirmal/krishicore/internal/reasoning"
	"github.com/vampirenirmal/krishicore/internal/step"
	"github.com/vampirenirmal/krishicore/internal/storage"
	"github.com/vampirenirmal/krishicore/internal/tools"
	"github.com/vampirenirmal/krishicore/internal/translate"
)

// Advisor is the facade consumed by the UI layer.
type Advisor struct {
	cfg *config.Config

	kv           storage.KV
	txCache      *cache.TranslationCache
	refreshCache *cache.RefreshCache

	chatClient chat.Client
	translator *translate.Client
	newsSource news.Source
	summarizer *news.Summarizer
	registry   *tools.Registry
	sequencer  *reasoning.Sequencer

	logger *slog.Logger
}

// overrides collects injected collaborators before the Advisor is wired, so
// option order never matters.
type overrides struct {
	kv                 storage.KV
	chatClient         chat.Client
	translationBackend translate.Backend
	newsSource         news.Source
	newsSourceSet      bool
}

type Option func(*overrides)

// WithChatClient injects the reasoning backend, replacing the configured
// OpenAI client. Used by tests and alternative deployments.
func WithChatClient(client chat.Client) Option {
	return func(o *overrides) {
		o.chatClient = client
	}
}

// WithTranslationBackend injects the translation/speech backend.
func WithTranslationBackend(backend translate.Backend) Option {
	return func(o *overrides) {
		o.translationBackend = backend
	}
}

// WithNewsSource injects the article source.
func WithNewsSource(source news.Source) Option {
	return func(o *overrides) {
		o.newsSource = source
		o.newsSourceSet = true
	}
}

// WithKV injects the persistent store backing both cache tiers.
func WithKV(kv storage.KV) Option {
	return func(o *overrides) {
		o.kv = kv
	}
}

// New builds an Advisor from config. Close must be called when done.
func New(cfg *config.Config, opts ...Option) (*Advisor, error) {
	var o overrides
	for _, opt := range opts {
		opt(&o)
	}

	a := &Advisor{
		cfg:    cfg,
		logger: slog.Default().With("component", "advisor"),
	}

	if o.kv != nil {
		a.kv = o.kv
	} else if kv, err := storage.OpenSQLite(cfg.Paths.CacheDB); err == nil {
		a.kv = kv
	} else {
		// Degrade to one-file-per-key storage rather than refusing to start.
		a.logger.Warn("sqlite cache unavailable, falling back to file store",
			"path", cfg.Paths.CacheDB, "error", err)
		a.kv = storage.NewFileKV(filepath.Dir(cfg.Paths.CacheDB))
	}
	a.txCache = cache.NewTranslation(cfg.Limits.TranslationCacheSize, a.kv)
	a.refreshCache = cache.NewRefresh(cfg.Limits.RefreshTTL, a.kv)

	if o.chatClient != nil {
		a.chatClient = o.chatClient
	} else {
		a.chatClient = chat.NewOpenAIClient(cfg.Chat.APIKey,
			chat.WithModel(cfg.Chat.Model),
			chat.WithBaseURL(cfg.Chat.BaseURL),
		)
	}

	backend := o.translationBackend
	if backend == nil {
		backend = translate.NewHTTPBackend(cfg.Translation.APIKey, cfg.Translation.BaseURL,
			translate.WithTimeout(time.Duration(cfg.Translation.Timeout)*time.Second),
			translate.WithRetry(cfg.Limits.MaxRetries),
			translate.WithRateLimit(cfg.Limits.RateLimit.RequestsPerMinute, cfg.Limits.RateLimit.BurstSize),
		)
	}
	a.translator = translate.NewClient(backend, a.txCache,
		translate.WithChunkThreshold(cfg.Limits.ChunkThreshold),
		translate.WithBatchSize(cfg.Limits.SegmentBatchSize),
		translate.WithSpeechLimit(cfg.Limits.SpeechTextLimit),
	)

	switch {
	case o.newsSourceSet:
		a.newsSource = o.newsSource
	case cfg.News.APIKey != "":
		a.newsSource = news.NewHTTPSource(cfg.News.APIKey, cfg.News.BaseURL)
	}

	a.summarizer = news.NewSummarizer(a.chatClient)
	a.registry = tools.NewRegistry()
	tools.RegisterDefaults(a.registry, a.chatClient, a.newsSource)
	a.sequencer = reasoning.New(a.registry)

	return a, nil
}

// Close releases the persistent store.
func (a *Advisor) Close() error {
	if a.kv == nil {
		return nil
	}
	return a.kv.Close()
}

// AskOptions shapes one query invocation.
type AskOptions struct {
	// Language is the language the answer should be delivered in.
	// Empty means the answer is returned untranslated.
	Language string
	Location string
	Crops    []string
	// StepBuffer sizes the step stream channel.
	StepBuffer int
}

// Result is the terminal outcome delivered once per query.
type Result struct {
	Success  bool
	Answer   string
	Language string
	Err      string
}

const answerPrompt = `You are an experienced agricultural advisor for Indian farmers.
Answer practically and concisely. Use the tool data below when it is relevant.`

// Ask runs the end-to-end question pipeline. It returns immediately with a
// live step stream and a result channel that receives exactly one Result.
// Abandoning the stream is safe; cancelling ctx stops the pipeline after the
// phase in flight finishes.
func (a *Advisor) Ask(ctx context.Context, query string, opts AskOptions) (*step.Stream, <-chan Result) {
	stream := step.NewStream(opts.StepBuffer)
	resultCh := make(chan Result, 1)

	requestID := uuid.New().String()
	logger := a.logger.With("request_id", requestID)

	go func() {
		defer close(resultCh)
		start := time.Now()

		analysis := analyzer.Analyze(query, analyzer.Context{
			Location: opts.Location,
			Crops:    opts.Crops,
		})

		logger.Info("query analyzed",
			"complexity", analysis.Complexity,
			"patterns", len(analysis.DetectedPatterns),
			"tools", len(analysis.RequiredTools))

		answer, _, err := a.sequencer.Run(ctx, query, analysis, stream.Emit, a.respond(query))
		if err != nil {
			if ctx.Err() != nil {
				// The consumer walked away; stop quietly.
				logger.Info("query abandoned", "duration_ms", time.Since(start).Milliseconds())
				stream.CloseWithError("Request cancelled")
				resultCh <- Result{Success: false, Err: "cancelled"}
				return
			}
			logger.Error("query failed",
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err)
			stream.CloseWithError("We could not answer this question. Please try again.")
			resultCh <- Result{Success: false, Err: err.Error()}
			return
		}

		// An absent language means the caller wants the answer untouched;
		// it must never be normalized into an auto-detect translation.
		language := ""
		if opts.Language != "" {
			language = translate.NormalizeLang(opts.Language)
		}
		if language != "" && language != "en-IN" && language != translate.Auto {
			stream.Emit(step.RawStep{
				ID:          "translate",
				Title:       "Translating",
				Description: "Localizing the answer",
				Status:      string(step.StatusActive),
			})
			res := a.translator.Translate(ctx, answer, "en-IN", language)
			answer = res.TranslatedText
			stream.Emit(step.RawStep{
				ID:          "translate",
				Title:       "Translation ready",
				Description: "Answer localized",
				Status:      string(step.StatusCompleted),
			})
			if !res.Success {
				// The untranslated answer is still delivered.
				language = res.SourceLanguage
			}
		}

		logger.Info("query answered",
			"duration_ms", time.Since(start).Milliseconds(),
			"answer_length", len(answer))

		stream.Close()
		resultCh <- Result{Success: true, Answer: answer, Language: language}
	}()

	return stream, resultCh
}

// respond synthesizes the final answer from the analysis and tool context.
func (a *Advisor) respond(query string) reasoning.Responder {
	return func(ctx context.Context, an analyzer.Analysis, results []tools.Result) (string, error) {
		user := query
		if toolData := tools.FormatResults(results); toolData != "" {
			user = fmt.Sprintf("%s\n\nTool data:\n%s", query, toolData)
		}
		return a.chatClient.Chat(ctx, []chat.Message{
			{Role: chat.RoleSystem, Content: answerPrompt},
			{Role: chat.RoleUser, Content: user},
		})
	}
}

// NewsResult is the content-refresh outcome for the news screen.
type NewsResult struct {
	FromCache  bool
	Flashcards []news.Flashcard
}

const newsResource = "news_flashcards"

// RefreshNews returns current news flashcards, refreshing at most once per
// TTL window regardless of how many callers arrive. On fetch failure the
// last cached payload is served when available.
func (a *Advisor) RefreshNews(ctx context.Context, force bool) (NewsResult, error) {
	if a.newsSource == nil {
		return NewsResult{}, fmt.Errorf("news source not configured")
	}

	res, err := a.refreshCache.GetOrRefresh(ctx, newsResource, force, func(ctx context.Context) ([]byte, error) {
		articles, err := a.newsSource.Articles(ctx, a.cfg.News.Query)
		if err != nil {
			return nil, err
		}
		cards := a.summarizer.Summarize(ctx, articles)
		return json.Marshal(cards)
	})
	if err != nil {
		if payload, ok := a.refreshCache.Last(ctx, newsResource); ok {
			a.logger.Warn("news refresh failed, serving last cached payload", "error", err)
			var cards []news.Flashcard
			if jsonErr := json.Unmarshal(payload, &cards); jsonErr == nil {
				return NewsResult{FromCache: true, Flashcards: cards}, nil
			}
		}
		return NewsResult{}, err
	}

	var cards []news.Flashcard
	if err := json.Unmarshal(res.Payload, &cards); err != nil {
		return NewsResult{}, fmt.Errorf("decoding cached flashcards: %w", err)
	}

	return NewsResult{FromCache: res.FromCache, Flashcards: cards}, nil
}

// Speak voices text in the target language through the voice pipeline.
func (a *Advisor) Speak(ctx context.Context, text, targetLang string) ([]byte, error) {
	audio, _, err := a.translator.Speak(ctx, text, translate.Auto, targetLang, a.cfg.Translation.Speaker)
	return audio, err
}

// Transcribe converts recorded audio into text.
func (a *Advisor) Transcribe(ctx context.Context, audio []byte, languageHint string) (translate.Transcript, error) {
	return a.translator.Transcribe(ctx, audio, languageHint)
}
