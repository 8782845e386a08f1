// Package telemetry collects named counters for the diagnostics endpoint.
package telemetry

import "sync"

// Counters is a concurrency-safe map of monotonically increasing metrics.
// The zero value is not usable; construct with NewCounters.
type Counters struct {
	mu     sync.Mutex
	values map[string]uint64
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]uint64)}
}

// Add increments the named counter by delta.
func (c *Counters) Add(name string, delta uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.values[name] += delta
	c.mu.Unlock()
}

// Get returns the current value of the named counter.
func (c *Counters) Get(name string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[name]
}

// Snapshot copies all counters for reporting.
func (c *Counters) Snapshot() map[string]uint64 {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make(map[string]uint64, len(c.values))
	for name, value := range c.values {
		snapshot[name] = value
	}
	return snapshot
}

// RecordJournalDrop counts a rejected journal record under its metric name.
func (c *Counters) RecordJournalDrop(metric string) {
	c.Add(metric, 1)
}
