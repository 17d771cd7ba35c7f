package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/vk/choreo/internal/logsink"
)

// RecordingSink keeps every recorded event in memory.
type RecordingSink struct {
	mu     sync.Mutex
	events []logsink.Event
}

// Record implements logsink.Sink.
func (s *RecordingSink) Record(_ context.Context, ev logsink.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (s *RecordingSink) Events() []logsink.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]logsink.Event, len(s.events))
	copy(out, s.events)
	return out
}

// FailingSink rejects every event.
type FailingSink struct{}

// Record implements logsink.Sink.
func (FailingSink) Record(context.Context, logsink.Event) error {
	return errors.New("sink unavailable")
}
