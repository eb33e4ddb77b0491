package translate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vampirenirmal/krishicore/internal/core"
)

// TranslateRequest is one upstream translation call.
type TranslateRequest struct {
	Text       string
	SourceCode string
	TargetCode string
	// Mode is the optional tone mode; empty means "no mode parameter".
	Mode string
}

// TranslateResponse is the upstream translation result.
type TranslateResponse struct {
	TranslatedText string
	SourceCode     string
}

// Transcript is the upstream speech-to-text result.
type Transcript struct {
	Text         string
	LanguageCode string
}

// Backend is the translation/speech upstream boundary. Implementations must
// surface parameter rejections distinctly from hard failures, via the error
// classification in internal/core.
type Backend interface {
	Translate(ctx context.Context, req TranslateRequest) (TranslateResponse, error)
	TextToSpeech(ctx context.Context, text, languageCode, speaker string) ([]byte, error)
	SpeechToText(ctx context.Context, audio []byte, languageHint string) (Transcript, error)
}

// HTTPBackend talks to a Bhashini-style inference endpoint over plain HTTP.
type HTTPBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type BackendOption func(*HTTPBackend)

func WithRetry(maxRetries int) BackendOption {
	return func(b *HTTPBackend) {
		b.maxRetries = maxRetries
	}
}

func WithTimeout(timeout time.Duration) BackendOption {
	return func(b *HTTPBackend) {
		transport := b.httpClient.Transport
		b.httpClient = &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}
	}
}

func WithRateLimit(requestsPerMinute, burst int) BackendOption {
	return func(b *HTTPBackend) {
		b.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
}

func WithBackendLogger(logger *slog.Logger) BackendOption {
	return func(b *HTTPBackend) {
		b.logger = logger
	}
}

func NewHTTPBackend(apiKey, baseURL string, opts ...BackendOption) *HTTPBackend {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	b := &HTTPBackend{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
		maxRetries: 2,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		logger:     slog.Default().With("component", "translation_backend"),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *HTTPBackend) Translate(ctx context.Context, req TranslateRequest) (TranslateResponse, error) {
	body := map[string]any{
		"text":        req.Text,
		"source_code": req.SourceCode,
		"target_code": req.TargetCode,
	}
	if req.Mode != "" {
		body["mode"] = req.Mode
	}

	var parsed struct {
		TranslatedText string `json:"translated_text"`
		SourceCode     string `json:"source_code"`
	}
	if err := b.post(ctx, "translate", "/translate", body, &parsed); err != nil {
		return TranslateResponse{}, err
	}

	return TranslateResponse{
		TranslatedText: parsed.TranslatedText,
		SourceCode:     parsed.SourceCode,
	}, nil
}

func (b *HTTPBackend) TextToSpeech(ctx context.Context, text, languageCode, speaker string) ([]byte, error) {
	body := map[string]any{
		"text":          text,
		"language_code": languageCode,
		"speaker":       speaker,
	}

	var parsed struct {
		AudioContent string `json:"audio_content"`
	}
	if err := b.post(ctx, "text_to_speech", "/tts", body, &parsed); err != nil {
		return nil, err
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decoding audio content: %w", err)
	}
	return audio, nil
}

func (b *HTTPBackend) SpeechToText(ctx context.Context, audio []byte, languageHint string) (Transcript, error) {
	body := map[string]any{
		"audio_content": base64.StdEncoding.EncodeToString(audio),
	}
	if languageHint != "" {
		body["language_code"] = languageHint
	}

	var parsed struct {
		Transcript   string `json:"transcript"`
		LanguageCode string `json:"language_code"`
	}
	if err := b.post(ctx, "speech_to_text", "/stt", body, &parsed); err != nil {
		return Transcript{}, err
	}

	return Transcript{Text: parsed.Transcript, LanguageCode: parsed.LanguageCode}, nil
}

// post sends one JSON request with rate limiting and bounded retries on
// transient failures. Parameter rejections and other terminal errors are
// returned immediately for the caller's fallback ladder to interpret.
func (b *HTTPBackend) post(ctx context.Context, op, path string, body map[string]any, out any) error {
	requestID := fmt.Sprintf("%s_%d", op, time.Now().UnixNano())
	start := time.Now()

	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			b.logger.Debug("retry backoff",
				"request_id", requestID,
				"attempt", attempt,
				"backoff_seconds", backoff.Seconds())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		attemptStart := time.Now()
		err := b.doRequest(ctx, path, payload, out)
		if err == nil {
			b.logger.Info("backend request successful",
				"request_id", requestID,
				"op", op,
				"attempt", attempt,
				"duration_ms", time.Since(attemptStart).Milliseconds(),
				"total_duration_ms", time.Since(start).Milliseconds())
			return nil
		}

		lastErr = err

		if !core.IsRetryable(err) {
			b.logger.Warn("backend request failed with non-retryable error",
				"request_id", requestID,
				"op", op,
				"attempt", attempt,
				"error", err)
			return err
		}

		b.logger.Warn("backend request failed, will retry",
			"request_id", requestID,
			"op", op,
			"attempt", attempt,
			"error", err)
	}

	b.logger.Error("backend request failed after max retries",
		"request_id", requestID,
		"op", op,
		"max_retries", b.maxRetries,
		"last_error", lastErr)

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (b *HTTPBackend) doRequest(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return core.WrapBackendError(path, fmt.Errorf("%w: %v", core.ErrNetworkError, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return core.NewBackendError(path, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	return nil
}
