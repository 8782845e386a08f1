package logging_test

import (
	"context"
	"testing"
	"time"

	"hexfront/server/logging"
	"hexfront/server/logging/sinks"
)

func waitForEvents(t *testing.T, sink *sinks.MemorySink, want int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := sink.Events()
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(sink.Events()))
	return nil
}

func TestRouterDeliversToSinks(t *testing.T) {
	sink := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	defer router.Close(context.Background())

	router.Publish(logging.Event{
		Type:     "game.Move",
		Turn:     3,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	})

	events := waitForEvents(t, sink, 1)
	if events[0].Type != "game.Move" || events[0].Turn != 3 {
		t.Fatalf("delivered event %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatalf("router did not stamp the event time")
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	sink := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	defer router.Close(context.Background())

	router.Publish(logging.Event{Type: "game.Move", Severity: logging.SeverityInfo})
	router.Publish(logging.Event{Type: "network.command_rejected", Severity: logging.SeverityWarn})

	events := waitForEvents(t, sink, 1)
	for _, evt := range events {
		if evt.Severity < logging.SeverityWarn {
			t.Fatalf("info event leaked through: %+v", evt)
		}
	}
}

func TestRouterAttachesConfiguredFields(t *testing.T) {
	sink := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"match": "alpha"}
	clock := logging.ClockFunc(func() time.Time { return time.Unix(100, 0) })
	router, err := logging.NewRouter(clock, cfg, []logging.NamedSink{{Name: "memory", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	defer router.Close(context.Background())

	router.Publish(logging.Event{Type: "game.EndTurn", Severity: logging.SeverityInfo})

	events := waitForEvents(t, sink, 1)
	if events[0].Extra["match"] != "alpha" {
		t.Fatalf("missing configured field, extra %v", events[0].Extra)
	}
	if !events[0].Time.Equal(time.Unix(100, 0)) {
		t.Fatalf("expected clock time, got %v", events[0].Time)
	}
}

type stalledSink struct {
	release chan struct{}
}

func (s *stalledSink) Write(logging.Event) error {
	<-s.release
	return nil
}

func (s *stalledSink) Close(context.Context) error { return nil }

func TestRouterCountsDropsAgainstStalledSink(t *testing.T) {
	sink := &stalledSink{release: make(chan struct{})}
	cfg := logging.DefaultConfig()
	cfg.BufferSize = 8
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "stalled", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	// Far more events than the queue and the sink feed can hold while the
	// sink never completes a write.
	for i := 0; i < 500; i++ {
		router.Publish(logging.Event{Type: "game.Move", Turn: 1, Severity: logging.SeverityInfo})
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		stats := router.Stats()
		if stats.DroppedTotal+stats.SinkDropped["stalled"] > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no drops recorded: %+v", stats)
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(sink.release)
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRouterIgnoresPublishAfterClose(t *testing.T) {
	sink := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{{Name: "memory", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	router.Publish(logging.Event{Type: "game.Move", Severity: logging.SeverityInfo})

	stats := router.Stats()
	if stats.EventsTotal != 0 {
		t.Fatalf("events accepted after close: %d", stats.EventsTotal)
	}
}
