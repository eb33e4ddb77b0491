package translate

import (
	"context"
	"fmt"
	"strings"
)

// TruncateForSpeech bounds text for the TTS upstream, preferring to cut at
// the sentence boundary nearest to but not exceeding limit. When no sentence
// boundary fits, the text is hard-truncated with an ellipsis marker.
func TruncateForSpeech(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	for i := len(cut) - 1; i >= 0; i-- {
		switch cut[i] {
		case '.', '!', '?', '।':
			return string(cut[:i+1])
		}
	}

	return strings.TrimSpace(string(cut)) + "…"
}

// Speak translates text into the target language and synthesizes audio from
// it. The spoken text is truncated to the configured ceiling; the returned
// Result describes the translation that was voiced.
func (c *Client) Speak(ctx context.Context, text, sourceLang, targetLang, speaker string) ([]byte, Result, error) {
	res := c.Translate(ctx, text, sourceLang, targetLang)

	spoken := TruncateForSpeech(res.TranslatedText, c.speechLimit)
	tgt := NormalizeLang(targetLang)

	audio, err := c.backend.TextToSpeech(ctx, spoken, tgt, speaker)
	if err != nil {
		return nil, res, fmt.Errorf("text to speech: %w", err)
	}

	return audio, res, nil
}

// Transcribe converts recorded audio into text via the speech backend.
func (c *Client) Transcribe(ctx context.Context, audio []byte, languageHint string) (Transcript, error) {
	if len(audio) == 0 {
		return Transcript{}, fmt.Errorf("transcribe: empty audio")
	}

	hint := ""
	if languageHint != "" {
		hint = NormalizeLang(languageHint)
	}

	transcript, err := c.backend.SpeechToText(ctx, audio, hint)
	if err != nil {
		return Transcript{}, fmt.Errorf("speech to text: %w", err)
	}

	transcript.LanguageCode = NormalizeLang(transcript.LanguageCode)
	return transcript, nil
}
