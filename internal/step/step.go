// Package step defines the normalized progress-report protocol consumed by
// the UI layer. Every producer in the query pipeline reports through this
// package so the consumer never sees malformed progress data.
package step

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state of a reported step.
type Status string

const (
	StatusPending    Status = "pending"
	StatusStarting   Status = "starting"
	StatusActive     Status = "active"
	StatusProcessing Status = "processing"
	StatusFinishing  Status = "finishing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	StatusUncertain  Status = "uncertain"
	StatusSkipped    Status = "skipped"
)

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusStarting:   true,
	StatusActive:     true,
	StatusProcessing: true,
	StatusFinishing:  true,
	StatusCompleted:  true,
	StatusError:      true,
	StatusUncertain:  true,
	StatusSkipped:    true,
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	return validStatuses[s]
}

// started reports whether this status marks the beginning of work on a step,
// which is when the duration clock starts.
func (s Status) started() bool {
	return s == StatusStarting || s == StatusActive || s == StatusProcessing
}

// Step is one validated unit of progress.
type Step struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	Duration    int64  `json:"duration,omitempty"` // milliseconds
	Progress    int    `json:"progress,omitempty"` // 0-100
	Icon        string `json:"icon"`
	Timestamp   int64  `json:"timestamp"` // millisecond epoch
}

// RawStep is a step report as produced by a phase, before validation. Fields
// may be missing or malformed; Validate always repairs them.
type RawStep struct {
	ID          string
	Title       string
	Description string
	Status      string
	Duration    int64
	Progress    int
	Icon        string
	Timestamp   any
}

const (
	defaultTitle       = "Processing"
	defaultDescription = "Working on your request"

	// Timestamps outside this window are treated as producer bugs and
	// replaced with the current time.
	minPlausibleMillis = 1577836800000 // 2020-01-01T00:00:00Z
	timestampSlack     = 24 * time.Hour
)

var icons = map[string]string{
	"understand":  "search",
	"tools":       "wrench",
	"uncertainty": "alert",
	"analysis":    "brain",
	"synthesis":   "layers",
	"response":    "message",
	"translate":   "globe",
	"speech":      "volume",
	"done":        "check",
	"error":       "x-circle",
}

const genericIcon = "sparkles"

func iconFor(id string) string {
	if icon, ok := icons[id]; ok {
		return icon
	}
	// Per-tool steps share one icon regardless of index.
	if strings.HasPrefix(id, "tool_") {
		return "tool"
	}
	return genericIcon
}

// Validate normalizes an arbitrary step report into a well-formed Step. It
// never fails: missing or invalid fields are replaced with defaults.
func Validate(raw RawStep) Step {
	s := Step{
		ID:          raw.ID,
		Title:       strings.TrimSpace(raw.Title),
		Description: strings.TrimSpace(raw.Description),
		Status:      Status(raw.Status),
		Duration:    raw.Duration,
		Progress:    raw.Progress,
		Icon:        raw.Icon,
		Timestamp:   normalizeTimestamp(raw.Timestamp),
	}

	if s.ID == "" {
		s.ID = "step"
	}
	if s.Title == "" {
		s.Title = defaultTitle
	}
	if s.Description == "" {
		s.Description = defaultDescription
	}
	if !s.Status.Valid() {
		s.Status = StatusActive
	}
	if s.Duration < 0 {
		s.Duration = 0
	}
	if s.Progress < 0 {
		s.Progress = 0
	} else if s.Progress > 100 {
		s.Progress = 100
	}
	if s.Icon == "" {
		s.Icon = iconFor(s.ID)
	}

	return s
}

// normalizeTimestamp accepts the loose timestamp shapes producers emit and
// returns a plausible millisecond epoch, substituting now() otherwise.
func normalizeTimestamp(v any) int64 {
	now := time.Now().UnixMilli()

	var millis int64
	switch t := v.(type) {
	case nil:
		return now
	case int64:
		millis = t
	case int:
		millis = int64(t)
	case float64:
		millis = int64(t)
	case time.Time:
		millis = t.UnixMilli()
	case json.Number:
		parsed, err := t.Int64()
		if err != nil {
			return now
		}
		millis = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return now
		}
		millis = parsed
	default:
		return now
	}

	if millis < minPlausibleMillis || millis > now+timestampSlack.Milliseconds() {
		return now
	}
	return millis
}
