package step

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		raw  RawStep
		want Step
	}{
		{
			name: "well-formed step passes through",
			raw: RawStep{
				ID:          "understand",
				Title:       "Understanding query",
				Description: "Reading your question",
				Status:      "active",
				Progress:    40,
			},
			want: Step{
				ID:          "understand",
				Title:       "Understanding query",
				Description: "Reading your question",
				Status:      StatusActive,
				Progress:    40,
				Icon:        "search",
			},
		},
		{
			name: "empty report gets full defaults",
			raw:  RawStep{},
			want: Step{
				ID:          "step",
				Title:       "Processing",
				Description: "Working on your request",
				Status:      StatusActive,
				Icon:        "sparkles",
			},
		},
		{
			name: "unknown status becomes active",
			raw:  RawStep{ID: "analysis", Status: "exploded"},
			want: Step{
				ID:          "analysis",
				Title:       "Processing",
				Description: "Working on your request",
				Status:      StatusActive,
				Icon:        "brain",
			},
		},
		{
			name: "whitespace-only title replaced",
			raw:  RawStep{ID: "tools", Title: "   ", Status: "completed"},
			want: Step{
				ID:          "tools",
				Title:       "Processing",
				Description: "Working on your request",
				Status:      StatusCompleted,
				Icon:        "wrench",
			},
		},
		{
			name: "negative duration clamped to zero",
			raw:  RawStep{ID: "response", Status: "completed", Duration: -50},
			want: Step{
				ID:          "response",
				Title:       "Processing",
				Description: "Working on your request",
				Status:      StatusCompleted,
				Icon:        "message",
			},
		},
		{
			name: "progress clamped to 100",
			raw:  RawStep{ID: "synthesis", Status: "processing", Progress: 250},
			want: Step{
				ID:          "synthesis",
				Title:       "Processing",
				Description: "Working on your request",
				Status:      StatusProcessing,
				Progress:    100,
				Icon:        "layers",
			},
		},
		{
			name: "tool-indexed id gets tool icon",
			raw:  RawStep{ID: "tool_3", Status: "active"},
			want: Step{
				ID:          "tool_3",
				Title:       "Processing",
				Description: "Working on your request",
				Status:      StatusActive,
				Icon:        "tool",
			},
		},
		{
			name: "explicit icon preserved",
			raw:  RawStep{ID: "understand", Status: "active", Icon: "custom"},
			want: Step{
				ID:          "understand",
				Title:       "Processing",
				Description: "Working on your request",
				Status:      StatusActive,
				Icon:        "custom",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.raw)
			got.Timestamp = 0 // timestamps vary; checked separately below
			if got != tt.want {
				t.Errorf("Validate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	now := time.Now().UnixMilli()
	plausible := now - 1000

	tests := []struct {
		name    string
		in      any
		want    int64
		wantNow bool
	}{
		{name: "nil becomes now", in: nil, wantNow: true},
		{name: "plausible int64 kept", in: plausible, want: plausible},
		{name: "plausible int kept", in: int(plausible), want: plausible},
		{name: "plausible float64 kept", in: float64(plausible), want: plausible},
		{name: "numeric string parsed", in: "1700000000000", want: 1700000000000},
		{name: "json.Number parsed", in: json.Number("1700000000000"), want: 1700000000000},
		{name: "garbage string becomes now", in: "yesterday", wantNow: true},
		{name: "pre-2020 epoch rejected", in: int64(1000000000000), wantNow: true},
		{name: "far-future epoch rejected", in: now + 48*time.Hour.Milliseconds(), wantNow: true},
		{name: "zero rejected", in: int64(0), wantNow: true},
		{name: "unexpected type becomes now", in: []string{"x"}, wantNow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeTimestamp(tt.in)
			if tt.wantNow {
				if got < now || got > time.Now().UnixMilli() {
					t.Errorf("normalizeTimestamp(%v) = %d, want a current timestamp", tt.in, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("normalizeTimestamp(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}

	t.Run("time.Time converted to millis", func(t *testing.T) {
		at := time.Now().Add(-time.Minute)
		got := normalizeTimestamp(at)
		if got != at.UnixMilli() {
			t.Errorf("normalizeTimestamp(time.Time) = %d, want %d", got, at.UnixMilli())
		}
	})
}

func TestTrackerDuration(t *testing.T) {
	t.Run("completion after active carries measured duration", func(t *testing.T) {
		var got []Step
		tr := NewTracker(func(s Step) { got = append(got, s) })

		tr.Emit(RawStep{ID: "tools", Status: "active"})
		time.Sleep(20 * time.Millisecond)
		tr.Emit(RawStep{ID: "tools", Status: "completed"})

		if len(got) != 2 {
			t.Fatalf("emitted %d steps, want 2", len(got))
		}
		if got[1].Duration < 10 {
			t.Errorf("completed step duration = %dms, want >= 10ms", got[1].Duration)
		}
	})

	t.Run("explicit duration not overwritten", func(t *testing.T) {
		var got []Step
		tr := NewTracker(func(s Step) { got = append(got, s) })

		tr.Emit(RawStep{ID: "analysis", Status: "active"})
		tr.Emit(RawStep{ID: "analysis", Status: "completed", Duration: 1234})

		if got[1].Duration != 1234 {
			t.Errorf("duration = %d, want explicit 1234", got[1].Duration)
		}
	})

	t.Run("completion without prior active has zero duration", func(t *testing.T) {
		var got []Step
		tr := NewTracker(func(s Step) { got = append(got, s) })

		tr.Emit(RawStep{ID: "orphan", Status: "completed"})

		if got[0].Duration != 0 {
			t.Errorf("duration = %d, want 0", got[0].Duration)
		}
	})

	t.Run("repeated active resets the clock", func(t *testing.T) {
		var got []Step
		tr := NewTracker(func(s Step) { got = append(got, s) })

		tr.Emit(RawStep{ID: "tools", Status: "active"})
		time.Sleep(30 * time.Millisecond)
		tr.Emit(RawStep{ID: "tools", Status: "processing"})
		tr.Emit(RawStep{ID: "tools", Status: "completed"})

		last := got[len(got)-1]
		if last.Duration >= 30 {
			t.Errorf("duration = %dms, want restart from last active report", last.Duration)
		}
	})
}

func TestStream(t *testing.T) {
	t.Run("close delivers done sentinel and closes channel", func(t *testing.T) {
		s := NewStream(8)
		s.Emit(RawStep{ID: "understand", Status: "active"})
		s.Close()

		var steps []Step
		for st := range s.Steps() {
			steps = append(steps, st)
		}

		if len(steps) != 2 {
			t.Fatalf("received %d steps, want 2", len(steps))
		}
		last := steps[len(steps)-1]
		if last.ID != "done" || last.Status != StatusCompleted {
			t.Errorf("terminal step = %q/%q, want done/completed", last.ID, last.Status)
		}
	})

	t.Run("error close carries the message", func(t *testing.T) {
		s := NewStream(8)
		s.CloseWithError("backend unavailable")

		var steps []Step
		for st := range s.Steps() {
			steps = append(steps, st)
		}

		if len(steps) != 1 {
			t.Fatalf("received %d steps, want 1", len(steps))
		}
		if steps[0].ID != "error" || steps[0].Status != StatusError {
			t.Errorf("terminal step = %q/%q, want error/error", steps[0].ID, steps[0].Status)
		}
		if !strings.Contains(steps[0].Description, "backend unavailable") {
			t.Errorf("description = %q, want the error message", steps[0].Description)
		}
	})

	t.Run("emits after close are dropped", func(t *testing.T) {
		s := NewStream(8)
		s.Close()
		s.Emit(RawStep{ID: "late", Status: "active"}) // must not panic
		s.Close()                                     // second close must not panic
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		s := NewStream(1)
		done := make(chan struct{})
		go func() {
			for i := 0; i < 50; i++ {
				s.Emit(RawStep{ID: "tools", Status: "active"})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("producer blocked on a full stream buffer")
		}
	})

	t.Run("sentinel survives a full buffer", func(t *testing.T) {
		s := NewStream(1)
		s.Emit(RawStep{ID: "tools", Status: "active"}) // fills the buffer
		s.Close()

		var steps []Step
		for st := range s.Steps() {
			steps = append(steps, st)
		}

		if len(steps) == 0 {
			t.Fatal("stream closed without delivering any step")
		}
		last := steps[len(steps)-1]
		if last.ID != "done" || last.Status != StatusCompleted {
			t.Errorf("terminal step = %q/%q, want done/completed", last.ID, last.Status)
		}
	})

	t.Run("error sentinel survives a full buffer", func(t *testing.T) {
		s := NewStream(1)
		s.Emit(RawStep{ID: "tools", Status: "active"})
		s.CloseWithError("model timed out")

		var last Step
		for st := range s.Steps() {
			last = st
		}
		if last.ID != "error" || !strings.Contains(last.Description, "model timed out") {
			t.Errorf("terminal step = %+v, want the error sentinel", last)
		}
	})
}
