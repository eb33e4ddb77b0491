package step

import (
	"sync"
	"time"
)

// Emitter accepts a raw step report from any producer in the pipeline.
type Emitter func(RawStep)

// Tracker validates raw step reports, stamps them with the current time, and
// fills in durations by tracking when each step id first went active. One
// Tracker belongs to exactly one in-flight query; it is dropped with the
// query and never shared.
type Tracker struct {
	mu     sync.Mutex
	active map[string]time.Time
	sink   func(Step)
}

// NewTracker returns a Tracker forwarding normalized steps to sink.
func NewTracker(sink func(Step)) *Tracker {
	return &Tracker{
		active: make(map[string]time.Time),
		sink:   sink,
	}
}

// Emit validates, tracks, and forwards one step report.
func (t *Tracker) Emit(raw RawStep) {
	s := Validate(raw)
	s.Timestamp = time.Now().UnixMilli()

	t.mu.Lock()
	switch {
	case s.Status.started():
		// Repeated active reports reset the clock: last active wins.
		t.active[s.ID] = time.Now()
	case s.Status == StatusCompleted && s.Duration == 0:
		if start, ok := t.active[s.ID]; ok {
			s.Duration = time.Since(start).Milliseconds()
			delete(t.active, s.ID)
		}
	case s.Status == StatusCompleted:
		delete(t.active, s.ID)
	}
	t.mu.Unlock()

	t.sink(s)
}
