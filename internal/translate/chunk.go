package translate

import (
	"regexp"
	"strings"
)

// segmentKind classifies one line of input for structure-preserving
// chunking.
type segmentKind int

const (
	segPlain segmentKind = iota
	segNumbered
	segBullet
	segHeader
	segEmpty
)

// segment is one line split into its structural marker and translatable
// body. Reassembly restores Prefix and Suffix around the translated body so
// list numbering, bullet glyphs, and header colons survive translation.
type segment struct {
	Kind   segmentKind
	Prefix string
	Body   string
	Suffix string
}

var (
	numberedRe = regexp.MustCompile(`^(\s*)(\d+[.)])\s+(.*)$`)
	bulletRe   = regexp.MustCompile(`^(\s*)([-*•▪])\s+(.*)$`)
)

func classifyLine(line string) segment {
	if strings.TrimSpace(line) == "" {
		return segment{Kind: segEmpty, Body: line}
	}

	if m := numberedRe.FindStringSubmatch(line); m != nil {
		return segment{Kind: segNumbered, Prefix: m[1] + m[2] + " ", Body: m[3]}
	}

	if m := bulletRe.FindStringSubmatch(line); m != nil {
		return segment{Kind: segBullet, Prefix: m[1] + m[2] + " ", Body: m[3]}
	}

	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, ":") && len(trimmed) <= 80 && strings.Count(trimmed, ".") == 0 {
		return segment{Kind: segHeader, Body: strings.TrimSuffix(trimmed, ":"), Suffix: ":"}
	}

	return segment{Kind: segPlain, Body: line}
}

// splitSegments breaks text into line-level segments. The segment count
// always equals the input line count so reassembly is positional.
func splitSegments(text string) []segment {
	lines := strings.Split(text, "\n")
	segments := make([]segment, len(lines))
	for i, line := range lines {
		segments[i] = classifyLine(line)
	}
	return segments
}

// reassemble rebuilds the document from segments whose bodies have been
// replaced by their translations.
func reassemble(segments []segment, bodies []string) string {
	lines := make([]string, len(segments))
	for i, seg := range segments {
		if seg.Kind == segEmpty {
			lines[i] = seg.Body
			continue
		}
		lines[i] = seg.Prefix + bodies[i] + seg.Suffix
	}
	return strings.Join(lines, "\n")
}
