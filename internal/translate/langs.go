package translate

import "strings"

// Auto is the pseudo source language asking the backend to detect it.
const Auto = "auto"

// langAliases collapses the identifier spellings seen in the wild (full
// names, bare ISO codes, BCP-47 tags) onto the canonical regional tags the
// backend expects.
var langAliases = map[string]string{
	"auto": Auto,

	"english": "en-IN", "en": "en-IN", "en-in": "en-IN", "en-us": "en-IN",
	"hindi": "hi-IN", "hi": "hi-IN", "hi-in": "hi-IN",
	"tamil": "ta-IN", "ta": "ta-IN", "ta-in": "ta-IN",
	"telugu": "te-IN", "te": "te-IN", "te-in": "te-IN",
	"kannada": "kn-IN", "kn": "kn-IN", "kn-in": "kn-IN",
	"malayalam": "ml-IN", "ml": "ml-IN", "ml-in": "ml-IN",
	"marathi": "mr-IN", "mr": "mr-IN", "mr-in": "mr-IN",
	"bengali": "bn-IN", "bangla": "bn-IN", "bn": "bn-IN", "bn-in": "bn-IN",
	"gujarati": "gu-IN", "gu": "gu-IN", "gu-in": "gu-IN",
	"punjabi": "pa-IN", "pa": "pa-IN", "pa-in": "pa-IN",
	"odia": "or-IN", "oriya": "or-IN", "or": "or-IN", "or-in": "or-IN",
	"assamese": "as-IN", "as": "as-IN", "as-in": "as-IN",
	"urdu": "ur-IN", "ur": "ur-IN", "ur-in": "ur-IN",
}

// NormalizeLang maps a language identifier onto its canonical tag. An empty
// identifier means "detect it"; unknown codes pass through unchanged.
func NormalizeLang(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Auto
	}
	if canonical, ok := langAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}
