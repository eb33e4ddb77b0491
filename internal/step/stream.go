package step

import (
	"sync"
	"time"
)

// Stream is a lazy, finite, non-restartable sequence of validated steps
// delivered to one consumer. It is terminated by a sentinel "done" or
// "error" step, after which the channel is closed.
type Stream struct {
	ch      chan Step
	tracker *Tracker

	mu     sync.Mutex
	closed bool
}

// NewStream creates a step stream with the given channel buffer. A generous
// buffer keeps producers from blocking on slow consumers.
func NewStream(buffer int) *Stream {
	if buffer <= 0 {
		buffer = 32
	}
	s := &Stream{ch: make(chan Step, buffer)}
	s.tracker = NewTracker(s.push)
	return s
}

// Steps returns the receive side of the stream.
func (s *Stream) Steps() <-chan Step {
	return s.ch
}

// Emit validates and delivers one raw step report. Reports arriving after
// the stream has closed are dropped.
func (s *Stream) Emit(raw RawStep) {
	s.tracker.Emit(raw)
}

func (s *Stream) push(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- step:
	default:
		// Consumer stopped draining; drop rather than block the pipeline.
	}
}

// Close delivers the terminal "done" sentinel and closes the stream.
func (s *Stream) Close() {
	s.terminate(RawStep{
		ID:          "done",
		Title:       "Done",
		Description: "Response ready",
		Status:      string(StatusCompleted),
	})
}

// CloseWithError delivers a terminal "error" sentinel carrying a
// human-readable message, then closes the stream.
func (s *Stream) CloseWithError(message string) {
	s.terminate(RawStep{
		ID:          "error",
		Title:       "Something went wrong",
		Description: message,
		Status:      string(StatusError),
	})
}

func (s *Stream) terminate(raw RawStep) {
	st := Validate(raw)
	st.Timestamp = time.Now().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for {
		select {
		case s.ch <- st:
			close(s.ch)
			return
		default:
			// The buffer is full of undelivered progress steps. Evict the
			// oldest so the terminal sentinel always reaches the consumer.
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
