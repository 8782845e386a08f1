// Package journal buffers core events between simulation and broadcast.
// It stages events for the next outgoing batch and keeps a rolling history
// so late joiners and replay tooling can catch up by sequence number.
package journal

import (
	"sync"

	"hexfront/server/internal/event"
)

// Telemetry captures the metrics adapter used by the journal to report
// dropped events.
type Telemetry interface {
	RecordJournalDrop(metric string)
}

const (
	metricNonMonotonicSeq = "journal_non_monotonic_seq"
	metricZeroSeq         = "journal_zero_seq"
)

// Journal accumulates core events emitted during command execution. It is
// safe for a single producer and concurrent readers.
type Journal struct {
	mu         sync.RWMutex
	pending    []event.CoreEvent
	history    []event.CoreEvent
	maxHistory int
	lastSeq    uint64
	telemetry  Telemetry
}

// New constructs a journal retaining up to historyCapacity events for
// catch-up queries. Zero capacity disables history.
func New(historyCapacity int) *Journal {
	if historyCapacity < 0 {
		historyCapacity = 0
	}
	return &Journal{
		pending:    make([]event.CoreEvent, 0),
		history:    make([]event.CoreEvent, 0, historyCapacity),
		maxHistory: historyCapacity,
	}
}

// SetTelemetry installs the drop-metric adapter.
func (j *Journal) SetTelemetry(t Telemetry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.telemetry = t
}

// Record stages a core event for the next drain. Events must arrive in
// strictly increasing sequence order; stragglers are dropped and counted.
// It implements the engine's Recorder interface.
func (j *Journal) Record(core event.CoreEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if core.Seq == 0 {
		j.recordDropLocked(metricZeroSeq)
		return
	}
	if core.Seq <= j.lastSeq {
		j.recordDropLocked(metricNonMonotonicSeq)
		return
	}
	j.lastSeq = core.Seq
	j.pending = append(j.pending, core)
	j.appendHistoryLocked(core)
}

func (j *Journal) recordDropLocked(metric string) {
	if j.telemetry != nil {
		j.telemetry.RecordJournalDrop(metric)
	}
}

func (j *Journal) appendHistoryLocked(core event.CoreEvent) {
	if j.maxHistory == 0 {
		return
	}
	j.history = append(j.history, core)
	if overflow := len(j.history) - j.maxHistory; overflow > 0 {
		j.history = append(j.history[:0], j.history[overflow:]...)
	}
}

// Drain returns all staged events in order and clears the staging buffer.
// History is unaffected.
func (j *Journal) Drain() []event.CoreEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.pending) == 0 {
		return nil
	}
	drained := make([]event.CoreEvent, len(j.pending))
	copy(drained, j.pending)
	j.pending = j.pending[:0]
	return drained
}

// Snapshot returns a copy of the staged events without clearing them.
func (j *Journal) Snapshot() []event.CoreEvent {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.pending) == 0 {
		return nil
	}
	snapshot := make([]event.CoreEvent, len(j.pending))
	copy(snapshot, j.pending)
	return snapshot
}

// Restore prepends drained events back into the staging buffer. It is used
// when a caller drains the journal but cannot deliver the batch (for
// example, if encoding fails) and needs to retry without losing events.
func (j *Journal) Restore(events []event.CoreEvent) {
	if len(events) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	restored := make([]event.CoreEvent, 0, len(events)+len(j.pending))
	restored = append(restored, events...)
	restored = append(restored, j.pending...)
	j.pending = restored
}

// Since returns retained events with sequence numbers greater than seq, in
// order. A caller that fell behind further than the retention window must
// resynchronise from a full snapshot instead.
func (j *Journal) Since(seq uint64) []event.CoreEvent {
	j.mu.RLock()
	defer j.mu.RUnlock()
	idx := len(j.history)
	for i, core := range j.history {
		if core.Seq > seq {
			idx = i
			break
		}
	}
	if idx == len(j.history) {
		return nil
	}
	tail := make([]event.CoreEvent, len(j.history)-idx)
	copy(tail, j.history[idx:])
	return tail
}

// LastSeq reports the highest sequence number recorded so far.
func (j *Journal) LastSeq() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastSeq
}

// Len reports the number of staged events.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.pending)
}
