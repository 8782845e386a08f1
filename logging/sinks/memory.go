package sinks

import (
	"context"
	"maps"
	"slices"
	"sync"

	"hexfront/server/logging"
)

// MemorySink retains events in arrival order. Tests assert on it and the
// diagnostics endpoint can expose a bounded tail of the match stream.
type MemorySink struct {
	mu     sync.RWMutex
	events []logging.Event
	limit  int
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// NewBoundedMemorySink keeps only the newest limit events.
func NewBoundedMemorySink(limit int) *MemorySink {
	if limit < 0 {
		limit = 0
	}
	return &MemorySink{limit: limit}
}

func (s *MemorySink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, detach(event))
	if s.limit > 0 && len(s.events) > s.limit {
		overflow := len(s.events) - s.limit
		s.events = append(s.events[:0], s.events[overflow:]...)
	}
	return nil
}

func (s *MemorySink) Events() []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = s.events[:0]
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}

// detach breaks aliasing with the caller's maps and slices.
func detach(event logging.Event) logging.Event {
	cloned := event
	if len(event.Targets) > 0 {
		cloned.Targets = slices.Clone(event.Targets)
	}
	if event.Extra != nil {
		cloned.Extra = maps.Clone(event.Extra)
	}
	return cloned
}
