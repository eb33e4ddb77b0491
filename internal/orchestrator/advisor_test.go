package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vampirenirmal/krishicore/internal/chat"
	"github.com/vampirenirmal/krishicore/internal/config"
	"github.com/vampirenirmal/krishicore/internal/news"
	"github.com/vampirenirmal/krishicore/internal/step"
	"github.com/vampirenirmal/krishicore/internal/storage"
	"github.com/vampirenirmal/krishicore/internal/translate"
)

type fakeChat struct {
	answer string
	err    error
	calls  int
}

func (f *fakeChat) Chat(ctx context.Context, messages []chat.Message) (string, error) {
	f.calls++
	return f.answer, f.err
}

type fakeBackend struct {
	translate func(req translate.TranslateRequest) (translate.TranslateResponse, error)
	calls     atomic.Int32
}

func (f *fakeBackend) Translate(ctx context.Context, req translate.TranslateRequest) (translate.TranslateResponse, error) {
	f.calls.Add(1)
	if f.translate == nil {
		return translate.TranslateResponse{TranslatedText: "[" + req.TargetCode + "] " + req.Text}, nil
	}
	return f.translate(req)
}

func (f *fakeBackend) TextToSpeech(ctx context.Context, text, languageCode, speaker string) ([]byte, error) {
	return []byte("audio:" + text), nil
}

func (f *fakeBackend) SpeechToText(ctx context.Context, audio []byte, languageHint string) (translate.Transcript, error) {
	return translate.Transcript{Text: "transcribed", LanguageCode: "hi-IN"}, nil
}

type fakeNews struct {
	articles []news.Article
	err      error
	fetches  int
}

func (f *fakeNews) Articles(ctx context.Context, query string) ([]news.Article, error) {
	f.fetches++
	return f.articles, f.err
}

func newTestAdvisor(t *testing.T, opts ...Option) *Advisor {
	t.Helper()

	kv, err := storage.OpenSQLiteInMemory()
	if err != nil {
		t.Fatal(err)
	}

	base := []Option{WithKV(kv)}
	advisor, err := New(config.Default(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { advisor.Close() })
	return advisor
}

func drainSteps(t *testing.T, stream *step.Stream) []step.Step {
	t.Helper()
	var steps []step.Step
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s, ok := <-stream.Steps():
			if !ok {
				return steps
			}
			steps = append(steps, s)
		case <-timeout:
			t.Fatal("step stream never terminated")
		}
	}
}

func TestAsk(t *testing.T) {
	t.Run("answers in english with a done-terminated stream", func(t *testing.T) {
		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{answer: "Water the wheat every ten days."}),
			WithTranslationBackend(&fakeBackend{}),
			WithNewsSource(nil),
		)

		stream, resultCh := advisor.Ask(context.Background(), "when to water wheat", AskOptions{Language: "en"})
		steps := drainSteps(t, stream)

		result := <-resultCh
		if !result.Success {
			t.Fatalf("result = %+v, want success", result)
		}
		if result.Answer != "Water the wheat every ten days." {
			t.Errorf("answer = %q", result.Answer)
		}

		if len(steps) == 0 {
			t.Fatal("no steps emitted")
		}
		last := steps[len(steps)-1]
		if last.ID != "done" {
			t.Errorf("terminal step = %q, want done", last.ID)
		}
		for _, s := range steps {
			if s.ID == "translate" {
				t.Error("translate step emitted for an English answer")
			}
		}
	})

	t.Run("empty language delivers the answer untranslated", func(t *testing.T) {
		backend := &fakeBackend{}
		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{answer: "Water the wheat."}),
			WithTranslationBackend(backend),
			WithNewsSource(nil),
		)

		stream, resultCh := advisor.Ask(context.Background(), "when to water wheat", AskOptions{})
		steps := drainSteps(t, stream)

		result := <-resultCh
		if !result.Success {
			t.Fatalf("result = %+v, want success", result)
		}
		if result.Answer != "Water the wheat." {
			t.Errorf("answer = %q, want the untouched answer", result.Answer)
		}
		if result.Language != "" {
			t.Errorf("language = %q, want empty", result.Language)
		}
		if got := backend.calls.Load(); got != 0 {
			t.Errorf("backend translate called %d times, want 0", got)
		}
		for _, s := range steps {
			if s.ID == "translate" {
				t.Error("translate step emitted without a requested language")
			}
		}
	})

	t.Run("explicit auto language skips translation", func(t *testing.T) {
		backend := &fakeBackend{}
		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{answer: "Water the wheat."}),
			WithTranslationBackend(backend),
			WithNewsSource(nil),
		)

		_, resultCh := advisor.Ask(context.Background(), "when to water wheat", AskOptions{Language: "auto"})
		result := <-resultCh

		if !result.Success || result.Answer != "Water the wheat." {
			t.Fatalf("result = %+v, want untouched answer", result)
		}
		if got := backend.calls.Load(); got != 0 {
			t.Errorf("backend translate called %d times, want 0", got)
		}
	})

	t.Run("non-english answer is translated", func(t *testing.T) {
		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{answer: "Water the wheat."}),
			WithTranslationBackend(&fakeBackend{}),
			WithNewsSource(nil),
		)

		stream, resultCh := advisor.Ask(context.Background(), "wheat watering", AskOptions{Language: "hi"})
		steps := drainSteps(t, stream)

		result := <-resultCh
		if !result.Success {
			t.Fatalf("result = %+v, want success", result)
		}
		if result.Answer != "[hi-IN] Water the wheat." {
			t.Errorf("answer = %q, want translated text", result.Answer)
		}
		if result.Language != "hi-IN" {
			t.Errorf("language = %q, want hi-IN", result.Language)
		}

		sawTranslate := false
		for _, s := range steps {
			if s.ID == "translate" {
				sawTranslate = true
			}
		}
		if !sawTranslate {
			t.Error("no translate step emitted")
		}
	})

	t.Run("translation failure still delivers the english answer", func(t *testing.T) {
		backend := &fakeBackend{translate: func(req translate.TranslateRequest) (translate.TranslateResponse, error) {
			return translate.TranslateResponse{}, errors.New("backend down")
		}}
		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{answer: "Apply urea now"}),
			WithTranslationBackend(backend),
			WithNewsSource(nil),
		)

		_, resultCh := advisor.Ask(context.Background(), "fertilizer advice", AskOptions{Language: "hi"})
		result := <-resultCh

		if !result.Success {
			t.Fatalf("result = %+v, want overall success despite translation failure", result)
		}
		if result.Answer != "Apply urea now" {
			t.Errorf("answer = %q, want original english text", result.Answer)
		}
	})

	t.Run("chat failure closes the stream with an error step", func(t *testing.T) {
		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{err: errors.New("model unavailable")}),
			WithTranslationBackend(&fakeBackend{}),
			WithNewsSource(nil),
		)

		stream, resultCh := advisor.Ask(context.Background(), "hello", AskOptions{})
		steps := drainSteps(t, stream)

		result := <-resultCh
		if result.Success {
			t.Fatal("result success = true, want failure")
		}

		last := steps[len(steps)-1]
		if last.ID != "error" || last.Status != step.StatusError {
			t.Errorf("terminal step = %q/%q, want error sentinel", last.ID, last.Status)
		}
	})

	t.Run("cancelled context reports cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{answer: "never"}),
			WithTranslationBackend(&fakeBackend{}),
			WithNewsSource(nil),
		)

		stream, resultCh := advisor.Ask(ctx, "anything", AskOptions{})
		drainSteps(t, stream)

		result := <-resultCh
		if result.Success || result.Err != "cancelled" {
			t.Errorf("result = %+v, want cancelled failure", result)
		}
	})
}

func TestRefreshNews(t *testing.T) {
	articles := []news.Article{
		{Title: "MSP update", Description: "Wheat MSP raised by 150 rupees.", Source: "AgriDesk", PublishedAt: time.Now()},
	}

	t.Run("fetches then serves from cache", func(t *testing.T) {
		source := &fakeNews{articles: articles}
		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{answer: "1. Wheat MSP is up."}),
			WithTranslationBackend(&fakeBackend{}),
			WithNewsSource(source),
		)

		first, err := advisor.RefreshNews(context.Background(), false)
		if err != nil {
			t.Fatalf("RefreshNews() error = %v", err)
		}
		if first.FromCache || len(first.Flashcards) != 1 {
			t.Errorf("first = %+v, want one fresh flashcard", first)
		}
		if first.Flashcards[0].Summary != "Wheat MSP is up." {
			t.Errorf("summary = %q", first.Flashcards[0].Summary)
		}

		second, err := advisor.RefreshNews(context.Background(), false)
		if err != nil {
			t.Fatalf("RefreshNews() error = %v", err)
		}
		if !second.FromCache {
			t.Error("second call FromCache = false, want true")
		}
		if source.fetches != 1 {
			t.Errorf("source fetched %d times, want 1", source.fetches)
		}
	})

	t.Run("force refetches", func(t *testing.T) {
		source := &fakeNews{articles: articles}
		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{answer: "1. s"}),
			WithTranslationBackend(&fakeBackend{}),
			WithNewsSource(source),
		)

		if _, err := advisor.RefreshNews(context.Background(), false); err != nil {
			t.Fatal(err)
		}
		if _, err := advisor.RefreshNews(context.Background(), true); err != nil {
			t.Fatal(err)
		}
		if source.fetches != 2 {
			t.Errorf("source fetched %d times, want 2", source.fetches)
		}
	})

	t.Run("failed refresh serves the last payload", func(t *testing.T) {
		source := &fakeNews{articles: articles}
		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{answer: "1. cached summary"}),
			WithTranslationBackend(&fakeBackend{}),
			WithNewsSource(source),
		)

		if _, err := advisor.RefreshNews(context.Background(), false); err != nil {
			t.Fatal(err)
		}

		source.err = errors.New("news api down")
		res, err := advisor.RefreshNews(context.Background(), true)
		if err != nil {
			t.Fatalf("RefreshNews() error = %v, want stale fallback", err)
		}
		if !res.FromCache || len(res.Flashcards) != 1 {
			t.Errorf("result = %+v, want cached flashcards", res)
		}
	})

	t.Run("no news source configured", func(t *testing.T) {
		advisor := newTestAdvisor(t,
			WithChatClient(&fakeChat{}),
			WithTranslationBackend(&fakeBackend{}),
			WithNewsSource(nil),
		)

		if _, err := advisor.RefreshNews(context.Background(), false); err == nil {
			t.Error("RefreshNews() error = nil without a source, want error")
		}
	})
}

func TestSpeakAndTranscribe(t *testing.T) {
	advisor := newTestAdvisor(t,
		WithChatClient(&fakeChat{}),
		WithTranslationBackend(&fakeBackend{}),
		WithNewsSource(nil),
	)

	audio, err := advisor.Speak(context.Background(), "irrigate today", "hi")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if len(audio) == 0 {
		t.Error("Speak() returned empty audio")
	}

	transcript, err := advisor.Transcribe(context.Background(), []byte{1, 2, 3}, "hi")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if transcript.Text != "transcribed" {
		t.Errorf("transcript = %+v", transcript)
	}
}

func TestNewStorageFallback(t *testing.T) {
	// A regular file where the cache directory should be makes the sqlite
	// open fail; New must degrade to the file-per-key store instead of
	// refusing to start.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Paths.CacheDB = filepath.Join(blocker, "cache", "krishicore.db")

	advisor, err := New(cfg,
		WithChatClient(&fakeChat{answer: "ok"}),
		WithTranslationBackend(&fakeBackend{}),
		WithNewsSource(nil),
	)
	if err != nil {
		t.Fatalf("New() error = %v, want file-store fallback", err)
	}
	t.Cleanup(func() { advisor.Close() })

	if _, ok := advisor.kv.(*storage.FileKV); !ok {
		t.Errorf("kv = %T, want *storage.FileKV", advisor.kv)
	}
}
