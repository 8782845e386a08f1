package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Clock stamps events that arrive without a time, so tests can freeze it.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Sink receives routed match events. Write may block; the router keeps a
// per-sink queue so one slow sink cannot stall the others.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Router fans match events out to the configured sinks. Publish never
// blocks the simulation: when the queue is full the event is dropped,
// counted, and occasionally reported with its turn and sequence so the
// gap in the stream can be located later.
type Router struct {
	cfg      Config
	clock    Clock
	queue    chan Event
	feeds    []*sinkFeed
	fields   map[string]any
	fallback *log.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	closed   atomic.Bool
	wg       sync.WaitGroup
	runOnce  sync.Once

	published atomic.Uint64
	dropped   atomic.Uint64
	dropLogAt atomic.Int64
}

type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
	SinkDropped  map[string]uint64
}

func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink) (*Router, error) {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	queueSize := cfg.BufferSize
	if queueSize <= 0 {
		queueSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		cfg:      cfg,
		clock:    clock,
		queue:    make(chan Event, queueSize),
		fields:   cfg.CloneFields(),
		fallback: log.New(os.Stderr, "[logging] ", log.LstdFlags),
		ctx:      ctx,
		cancel:   cancel,
	}

	feedSize := min(max(queueSize, 32), 1024)
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.feeds = append(r.feeds, newSinkFeed(named.Name, named.Sink, feedSize, r.fallback))
	}

	r.start()
	return r, nil
}

func (r *Router) start() {
	r.runOnce.Do(func() {
		r.wg.Add(1)
		go func() {
			defer func() {
				for _, feed := range r.feeds {
					close(feed.in)
				}
				r.wg.Done()
			}()
			for {
				select {
				case <-r.ctx.Done():
					r.flushQueue()
					return
				case event := <-r.queue:
					r.dispatch(event)
				}
			}
		}()

		for _, feed := range r.feeds {
			r.wg.Add(1)
			go func(f *sinkFeed) {
				defer r.wg.Done()
				f.run()
			}(feed)
		}
	})
}

// flushQueue hands already-accepted events to the feeds before shutdown.
func (r *Router) flushQueue() {
	for {
		select {
		case event := <-r.queue:
			r.dispatch(event)
		default:
			return
		}
	}
}

func (r *Router) dispatch(event Event) {
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.fields) > 0 {
		event = stampFields(event, r.fields)
	}
	r.published.Add(1)
	for _, feed := range r.feeds {
		feed.offer(event)
	}
}

func (r *Router) Publish(event Event) {
	if event.Type == "" || event.Severity < r.cfg.MinimumSeverity {
		return
	}
	if r.closed.Load() {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.noteDrop(event)
	}
}

func (r *Router) noteDrop(event Event) {
	r.dropped.Add(1)
	interval := r.cfg.DropWarnInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	now := time.Now().UnixNano()
	last := r.dropLogAt.Load()
	if last == 0 || now >= last {
		if r.dropLogAt.CompareAndSwap(last, now+interval.Nanoseconds()) {
			r.fallback.Printf("event queue full, dropping type=%s turn=%d seq=%d", event.Type, event.Turn, event.Seq)
		}
	}
}

func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		<-ctx.Done()
		return ctx.Err()
	}
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, feed := range r.feeds {
		if err := feed.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal:  r.published.Load(),
		DroppedTotal: r.dropped.Load(),
	}
	if len(r.feeds) > 0 {
		stats.SinkDropped = make(map[string]uint64, len(r.feeds))
		for _, feed := range r.feeds {
			stats.SinkDropped[feed.name] = feed.dropped.Load()
		}
	}
	return stats
}

func (r *Router) Sink(name string) Sink {
	for _, feed := range r.feeds {
		if feed.name == name {
			return feed.sink
		}
	}
	return nil
}

// sinkFeed decouples one sink from the router. A failing sink backs off
// exponentially instead of burning a goroutine in a retry loop.
type sinkFeed struct {
	name     string
	sink     Sink
	in       chan Event
	fallback *log.Logger
	dropped  atomic.Uint64
	strikes  int
	retryAt  time.Time
}

func newSinkFeed(name string, sink Sink, buffer int, fallback *log.Logger) *sinkFeed {
	if buffer <= 0 {
		buffer = 32
	}
	return &sinkFeed{
		name:     name,
		sink:     sink,
		in:       make(chan Event, buffer),
		fallback: fallback,
	}
}

func (f *sinkFeed) offer(event Event) {
	select {
	case f.in <- cloneEvent(event):
	default:
		f.dropped.Add(1)
		f.fallback.Printf("sink %s backlog full, dropping type=%s turn=%d seq=%d", f.name, event.Type, event.Turn, event.Seq)
	}
}

func (f *sinkFeed) run() {
	for event := range f.in {
		f.holdOff()
		if err := f.sink.Write(event); err != nil {
			f.strikes++
			delay := time.Second << min(f.strikes, 5)
			f.retryAt = time.Now().Add(delay)
			f.fallback.Printf("sink %s failed: %v (retry in %s)", f.name, err, delay)
			continue
		}
		f.strikes = 0
		f.retryAt = time.Time{}
	}
}

func (f *sinkFeed) holdOff() {
	if f.strikes == 0 || f.retryAt.IsZero() {
		return
	}
	if wait := time.Until(f.retryAt); wait > 0 {
		time.Sleep(wait)
	}
}
