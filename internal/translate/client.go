// Package translate hardens a translation/speech backend: language
// normalization, structure-preserving chunking for length-limited upstreams,
// a tone-mode fallback ladder, and a two-tier cache keyed by content hash.
// A failed translation never removes content from the user - the original
// text is always returned.
package translate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vampirenirmal/krishicore/internal/cache"
	"github.com/vampirenirmal/krishicore/internal/core"
)

// defaultModes is the tone-mode ladder, tried in order. The ladder advances
// only when the upstream rejects the specific mode parameter; any other
// failure stops it.
var defaultModes = []string{"formal", "modern-colloquial", "classic-colloquial"}

// Result is the outcome of a translation. Success=false still carries the
// original text in TranslatedText.
type Result struct {
	Success        bool
	TranslatedText string
	SourceLanguage string
	Mode           string
	Cached         bool
}

// Client is the resilient translation/speech client.
type Client struct {
	backend        Backend
	cache          *cache.TranslationCache
	modes          []string
	chunkThreshold int
	batchSize      int
	speechLimit    int
	logger         *slog.Logger
}

type ClientOption func(*Client)

func WithChunkThreshold(limit int) ClientOption {
	return func(c *Client) {
		if limit > 0 {
			c.chunkThreshold = limit
		}
	}
}

func WithBatchSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

func WithSpeechLimit(limit int) ClientOption {
	return func(c *Client) {
		if limit > 0 {
			c.speechLimit = limit
		}
	}
}

func WithModes(modes []string) ClientOption {
	return func(c *Client) {
		if len(modes) > 0 {
			c.modes = modes
		}
	}
}

func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a translation client. txCache may be nil to disable
// caching.
func NewClient(backend Backend, txCache *cache.TranslationCache, opts ...ClientOption) *Client {
	c := &Client{
		backend:        backend,
		cache:          txCache,
		modes:          defaultModes,
		chunkThreshold: 1000,
		batchSize:      5,
		speechLimit:    500,
		logger:         slog.Default().With("component", "translation_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Translate localizes text from sourceLang (or Auto) to targetLang. It never
// fails outright: on unrecoverable upstream failure the Result carries the
// original text with Success=false.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) Result {
	src := NormalizeLang(sourceLang)
	tgt := NormalizeLang(targetLang)

	if strings.TrimSpace(text) == "" {
		return Result{Success: true, TranslatedText: text, SourceLanguage: src}
	}

	// Identity case: nothing to do, no cache write, no network call.
	if src == tgt && src != Auto {
		return Result{Success: true, TranslatedText: text, SourceLanguage: src}
	}

	if c.cache != nil {
		if entry, ok := c.cache.Get(ctx, text, src, tgt); ok {
			return Result{
				Success:        true,
				TranslatedText: entry.Text,
				SourceLanguage: entry.SourceLang,
				Mode:           entry.Mode,
				Cached:         true,
			}
		}
	}

	start := time.Now()

	var (
		translated string
		detected   string
		mode       string
		err        error
	)
	if len(text) > c.chunkThreshold {
		translated, err = c.translateChunked(ctx, text, src, tgt)
		detected, mode = src, "chunked"
	} else {
		translated, detected, mode, err = c.translateWithModes(ctx, text, src, tgt)
	}

	if err != nil {
		c.logger.Error("translation failed, returning original text",
			"source", src,
			"target", tgt,
			"text_length", len(text),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return Result{Success: false, TranslatedText: text, SourceLanguage: src}
	}

	if c.cache != nil {
		c.cache.Put(ctx, cache.Entry{
			Key:        cache.TranslationKey(text, src, tgt),
			Text:       translated,
			SourceLang: detected,
			TargetLang: tgt,
			Mode:       mode,
		})
	}

	c.logger.Info("translation succeeded",
		"source", src,
		"target", tgt,
		"mode", mode,
		"text_length", len(text),
		"duration_ms", time.Since(start).Milliseconds())

	return Result{
		Success:        true,
		TranslatedText: translated,
		SourceLanguage: detected,
		Mode:           mode,
	}
}

// translateWithModes walks the tone-mode ladder. A mode rejection advances
// to the next mode; after every mode is rejected, one final attempt is made
// with no mode parameter at all, since some backends reject the parameter
// outright for certain target languages. Any other failure stops the ladder.
func (c *Client) translateWithModes(ctx context.Context, text, src, tgt string) (string, string, string, error) {
	var lastErr error

	for _, mode := range c.modes {
		resp, err := c.backend.Translate(ctx, TranslateRequest{
			Text:       text,
			SourceCode: src,
			TargetCode: tgt,
			Mode:       mode,
		})
		if err == nil {
			return resp.TranslatedText, sourceOrDetected(src, resp.SourceCode), mode, nil
		}

		if !core.IsModeRejection(err) {
			return "", "", "", err
		}

		c.logger.Debug("tone mode rejected, advancing ladder",
			"mode", mode,
			"target", tgt)
		lastErr = err
	}

	resp, err := c.backend.Translate(ctx, TranslateRequest{
		Text:       text,
		SourceCode: src,
		TargetCode: tgt,
	})
	if err == nil {
		return resp.TranslatedText, sourceOrDetected(src, resp.SourceCode), "", nil
	}
	if lastErr != nil {
		err = lastErr
	}
	return "", "", "", err
}

// translateChunked splits long input into line-level segments, translates
// each segment independently in bounded batches, and reassembles the result
// with the original structural markers intact.
func (c *Client) translateChunked(ctx context.Context, text, src, tgt string) (string, error) {
	segments := splitSegments(text)
	bodies := make([]string, len(segments))

	var pending []int
	for i, seg := range segments {
		if seg.Kind == segEmpty || strings.TrimSpace(seg.Body) == "" {
			bodies[i] = seg.Body
			continue
		}
		pending = append(pending, i)
	}

	c.logger.Debug("chunked translation",
		"segments", len(segments),
		"translatable", len(pending),
		"batch_size", c.batchSize)

	// Batches bound concurrent upstream load; segments within a batch are
	// translated in parallel.
	for start := 0; start < len(pending); start += c.batchSize {
		end := start + c.batchSize
		if end > len(pending) {
			end = len(pending)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, idx := range pending[start:end] {
			idx := idx
			g.Go(func() error {
				translated, _, _, err := c.translateWithModes(gctx, segments[idx].Body, src, tgt)
				if err != nil {
					return err
				}
				bodies[idx] = translated
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", err
		}
	}

	return reassemble(segments, bodies), nil
}

func sourceOrDetected(requested, detected string) string {
	if requested == Auto && detected != "" {
		return NormalizeLang(detected)
	}
	if requested == Auto {
		return Auto
	}
	return requested
}
