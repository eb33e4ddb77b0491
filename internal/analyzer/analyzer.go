// Package analyzer classifies a natural-language farming query into topic
// patterns, estimates its complexity, and determines which external tools
// are required. Analysis is a pure function of its inputs: no I/O, no clock.
package analyzer

import "strings"

// Complexity buckets a query by how much reasoning it needs.
type Complexity string

const (
	Simple   Complexity = "simple"
	Moderate Complexity = "moderate"
	Complex  Complexity = "complex"
)

// DetectedPattern is one matched topic with its evidence.
type DetectedPattern struct {
	Type            PatternType
	Confidence      float64
	MatchedKeywords []string
	SuggestedTools  []string
}

// ContextualElements carries the non-topical signals extracted from the
// query and the caller-supplied context.
type ContextualElements struct {
	Location    string
	Crops       []string
	Seasonality string
	Urgency     bool
}

// Analysis is the immutable result of analyzing one query.
type Analysis struct {
	DetectedPatterns []DetectedPattern
	Complexity       Complexity
	RequiredTools    []string
	Contextual       ContextualElements
}

// Context is the caller-supplied situational information.
type Context struct {
	Location string
	Crops    []string
}

// Analyze classifies a query. It always returns a best-effort analysis; an
// empty or unmatched query yields Simple with no required tools.
func Analyze(query string, qctx Context) Analysis {
	lower := strings.ToLower(query)

	patterns := detectPatterns(lower)

	a := Analysis{
		DetectedPatterns: patterns,
		RequiredTools:    requiredTools(patterns),
		Contextual: ContextualElements{
			Location:    qctx.Location,
			Crops:       detectCrops(lower, qctx.Crops),
			Seasonality: detectSeason(lower),
			Urgency:     detectUrgency(lower),
		},
	}
	a.Complexity = scoreComplexity(lower, query, patterns)

	return a
}

func detectPatterns(lower string) []DetectedPattern {
	var detected []DetectedPattern
	for _, p := range topicPatterns {
		var matched []string
		for _, kw := range p.Keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}
		detected = append(detected, DetectedPattern{
			Type:            p.Type,
			Confidence:      float64(len(matched)) / float64(len(p.Keywords)),
			MatchedKeywords: matched,
			SuggestedTools:  p.Tools,
		})
	}
	return detected
}

// requiredTools is the deduplicated union of every matched pattern's tools,
// in detection order.
func requiredTools(patterns []DetectedPattern) []string {
	seen := make(map[string]bool)
	var tools []string
	for _, p := range patterns {
		for _, tool := range p.SuggestedTools {
			if seen[tool] {
				continue
			}
			seen[tool] = true
			tools = append(tools, tool)
		}
	}
	return tools
}

// scoreComplexity sums six boolean indicators. A score of 3 or more is
// complex, 1 or more is moderate, otherwise simple.
func scoreComplexity(lower, original string, patterns []DetectedPattern) Complexity {
	score := 0
	if strings.Contains(lower, "compare") {
		score++
	}
	if strings.Contains(lower, "analyze") || strings.Contains(lower, "analyse") {
		score++
	}
	if strings.Contains(lower, "recommend") || strings.Contains(lower, "optimize") {
		score++
	}
	if len(original) > 100 {
		score++
	}
	if len(patterns) > 0 {
		score++
	}
	if len(patterns) > 2 {
		score++
	}

	switch {
	case score >= 3:
		return Complex
	case score >= 1:
		return Moderate
	default:
		return Simple
	}
}

func detectCrops(lower string, contextCrops []string) []string {
	seen := make(map[string]bool)
	var crops []string
	add := func(crop string) {
		crop = strings.ToLower(strings.TrimSpace(crop))
		if crop == "" || seen[crop] {
			return
		}
		seen[crop] = true
		crops = append(crops, crop)
	}

	for _, crop := range knownCrops {
		if strings.Contains(lower, crop) {
			add(crop)
		}
	}
	for _, crop := range contextCrops {
		add(crop)
	}
	return crops
}

func detectSeason(lower string) string {
	for _, entry := range seasonKeywords {
		if strings.Contains(lower, entry.Keyword) {
			return entry.Season
		}
	}
	return ""
}

func detectUrgency(lower string) bool {
	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
