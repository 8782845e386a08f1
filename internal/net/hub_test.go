package net

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
	"hexfront/server/internal/journal"
	"hexfront/server/internal/net/proto"
	"hexfront/server/internal/sim"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	failWith error
	closed   bool
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	buf := append([]byte(nil), data...)
	c.messages = append(c.messages, buf)
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.messages...)
}

func newTestHub(t *testing.T) (*Hub, *sim.Engine) {
	t.Helper()
	grid := hexmap.NewGrid(8, 8)
	state := game.NewState(grid, game.NewTypeTable(), []game.Player{{ID: 0}, {ID: 1}})
	jnl := journal.New(64)
	engine, err := sim.NewEngine(sim.Config{State: state, Recorder: jnl})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	hub, err := NewHub(HubConfig{
		Engine:   engine,
		Commands: sim.NewCommandBuffer(8),
		Journal:  jnl,
		MatchID:  "test-match",
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	return hub, engine
}

func spawnUnit(t *testing.T, engine *sim.Engine, typeID game.UnitTypeID, playerID game.PlayerID, pos hexmap.Pos) *game.Unit {
	t.Helper()
	state := engine.State()
	unit := game.NewUnit(state.AllocateUnitID(), state.Types().MustGet(typeID), playerID, pos)
	if err := state.AddUnit(unit); err != nil {
		t.Fatalf("AddUnit: %v", err)
	}
	return unit
}

func TestSubscribeSendsSnapshot(t *testing.T) {
	hub, engine := newTestHub(t)
	spawnUnit(t, engine, game.TypeRifleSquad, 0, hexmap.Pos{Q: 1, R: 1})

	conn := &fakeConn{}
	if _, err := hub.Subscribe("alice", conn); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	sent := conn.sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}
	var snapshot proto.SnapshotMessage
	if err := json.Unmarshal(sent[0], &snapshot); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snapshot.Type != proto.ServerTypeSnapshot {
		t.Fatalf("expected snapshot type, got %q", snapshot.Type)
	}
	if snapshot.Grid.Width != 8 || snapshot.Grid.Height != 8 {
		t.Fatalf("grid %dx%d", snapshot.Grid.Width, snapshot.Grid.Height)
	}
	if len(snapshot.Units) != 1 {
		t.Fatalf("expected 1 unit in snapshot, got %d", len(snapshot.Units))
	}
	if snapshot.Turn != 1 || snapshot.CurrentPlayer != 0 {
		t.Fatalf("turn=%d current=%d", snapshot.Turn, snapshot.CurrentPlayer)
	}
	if hub.SubscriberCount() != 1 {
		t.Fatalf("subscriber count %d", hub.SubscriberCount())
	}
}

func TestProcessPendingBroadcastsEvents(t *testing.T) {
	hub, engine := newTestHub(t)
	squad := spawnUnit(t, engine, game.TypeRifleSquad, 0, hexmap.Pos{Q: 0, R: 0})

	conn := &fakeConn{}
	if _, err := hub.Subscribe("alice", conn); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	err := hub.StageCommand(event.Command{
		Type:     event.CommandMove,
		PlayerID: 0,
		Move: &event.MoveCommand{
			UnitID: squad.ID,
			Path:   []hexmap.Pos{{Q: 0, R: 0}, {Q: 1, R: 0}},
		},
	})
	if err != nil {
		t.Fatalf("StageCommand: %v", err)
	}

	hub.ProcessPending(context.Background())

	sent := conn.sent()
	if len(sent) != 2 {
		t.Fatalf("expected snapshot + batch, got %d messages", len(sent))
	}
	var batch proto.EventBatchMessage
	if err := json.Unmarshal(sent[1], &batch); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}
	if batch.Type != proto.ServerTypeEvents {
		t.Fatalf("expected events type, got %q", batch.Type)
	}
	if len(batch.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch.Events))
	}
	if batch.Events[0].Event.Type != event.TypeMove {
		t.Fatalf("expected Move event, got %s", batch.Events[0].Event.Type)
	}
}

func TestRejectedCommandProducesNoBroadcast(t *testing.T) {
	hub, engine := newTestHub(t)
	squad := spawnUnit(t, engine, game.TypeRifleSquad, 1, hexmap.Pos{Q: 0, R: 0})

	conn := &fakeConn{}
	if _, err := hub.Subscribe("alice", conn); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Player 1 acts on player 0's turn.
	err := hub.StageCommand(event.Command{
		Type:     event.CommandMove,
		PlayerID: 1,
		Move: &event.MoveCommand{
			UnitID: squad.ID,
			Path:   []hexmap.Pos{{Q: 0, R: 0}, {Q: 1, R: 0}},
		},
	})
	if err != nil {
		t.Fatalf("StageCommand: %v", err)
	}

	hub.ProcessPending(context.Background())

	if got := len(conn.sent()); got != 1 {
		t.Fatalf("expected only the snapshot, got %d messages", got)
	}
	if squad.Pos != (hexmap.Pos{Q: 0, R: 0}) {
		t.Fatalf("unit moved to %v", squad.Pos)
	}
}

func TestStageCommandRejectsWhenFull(t *testing.T) {
	hub, _ := newTestHub(t)

	for i := 0; i < 8; i++ {
		if err := hub.StageCommand(event.Command{Type: event.CommandEndTurn}); err != nil {
			t.Fatalf("stage %d: %v", i, err)
		}
	}
	err := hub.StageCommand(event.Command{Type: event.CommandEndTurn})
	if err == nil {
		t.Fatalf("expected queue full error")
	}
	var rejectErr *sim.RejectError
	if !errors.As(err, &rejectErr) || rejectErr.Reason != sim.RejectQueueFull {
		t.Fatalf("expected %s, got %v", sim.RejectQueueFull, err)
	}
}

func TestBrokenSubscriberIsDropped(t *testing.T) {
	hub, engine := newTestHub(t)
	squad := spawnUnit(t, engine, game.TypeRifleSquad, 0, hexmap.Pos{Q: 0, R: 0})

	good := &fakeConn{}
	if _, err := hub.Subscribe("alice", good); err != nil {
		t.Fatalf("Subscribe alice: %v", err)
	}
	bad := &fakeConn{}
	if _, err := hub.Subscribe("bob", bad); err != nil {
		t.Fatalf("Subscribe bob: %v", err)
	}
	bad.mu.Lock()
	bad.failWith = errors.New("write: broken pipe")
	bad.mu.Unlock()

	if err := hub.StageCommand(event.Command{
		Type:     event.CommandMove,
		PlayerID: 0,
		Move: &event.MoveCommand{
			UnitID: squad.ID,
			Path:   []hexmap.Pos{{Q: 0, R: 0}, {Q: 1, R: 0}},
		},
	}); err != nil {
		t.Fatalf("StageCommand: %v", err)
	}
	hub.ProcessPending(context.Background())

	if hub.SubscriberCount() != 1 {
		t.Fatalf("expected broken subscriber removed, count %d", hub.SubscriberCount())
	}
	bad.mu.Lock()
	closed := bad.closed
	bad.mu.Unlock()
	if !closed {
		t.Fatalf("broken connection not closed")
	}
	if got := len(good.sent()); got != 2 {
		t.Fatalf("good subscriber got %d messages", got)
	}
}

func TestResubscribeReplacesConnection(t *testing.T) {
	hub, _ := newTestHub(t)

	first := &fakeConn{}
	if _, err := hub.Subscribe("alice", first); err != nil {
		t.Fatalf("first Subscribe: %v", err)
	}
	second := &fakeConn{}
	if _, err := hub.Subscribe("alice", second); err != nil {
		t.Fatalf("second Subscribe: %v", err)
	}

	if hub.SubscriberCount() != 1 {
		t.Fatalf("subscriber count %d", hub.SubscriberCount())
	}
	first.mu.Lock()
	closed := first.closed
	first.mu.Unlock()
	if !closed {
		t.Fatalf("stale connection not closed")
	}
}

func TestCatchUpReturnsRetainedEvents(t *testing.T) {
	hub, engine := newTestHub(t)
	squad := spawnUnit(t, engine, game.TypeRifleSquad, 0, hexmap.Pos{Q: 0, R: 0})

	if err := hub.StageCommand(event.Command{
		Type:     event.CommandMove,
		PlayerID: 0,
		Move: &event.MoveCommand{
			UnitID: squad.ID,
			Path:   []hexmap.Pos{{Q: 0, R: 0}, {Q: 1, R: 0}, {Q: 2, R: 0}},
		},
	}); err != nil {
		t.Fatalf("StageCommand: %v", err)
	}
	hub.ProcessPending(context.Background())

	events := hub.CatchUp(1)
	if len(events) != 1 {
		t.Fatalf("expected 1 event after seq 1, got %d", len(events))
	}
	if events[0].Seq != 2 {
		t.Fatalf("expected seq 2, got %d", events[0].Seq)
	}
	if len(hub.CatchUp(2)) != 0 {
		t.Fatalf("expected no events after seq 2")
	}
}

// overlapConn notices two writers inside WriteMessage at the same time.
// It deliberately does no locking of its own.
type overlapConn struct {
	busy     atomic.Bool
	overlaps atomic.Int64
}

func (c *overlapConn) WriteMessage(messageType int, data []byte) error {
	if !c.busy.CompareAndSwap(false, true) {
		c.overlaps.Add(1)
		return nil
	}
	time.Sleep(50 * time.Microsecond)
	c.busy.Store(false)
	return nil
}

func (c *overlapConn) SetWriteDeadline(time.Time) error { return nil }

func (c *overlapConn) Close() error { return nil }

func TestSessionWritesSerializeWithBroadcast(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := &overlapConn{}
	session, err := hub.Subscribe("alice", conn)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// One goroutine plays the read loop answering acks, the other the
	// turn processor broadcasting batches.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if err := session.Write([]byte(`{"type":"commandAck"}`)); err != nil {
				t.Errorf("session write: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.broadcast([]byte(`{"type":"events"}`))
		}
	}()
	wg.Wait()

	if n := conn.overlaps.Load(); n != 0 {
		t.Fatalf("%d overlapping connection writes", n)
	}
}

type flakyStore struct {
	mu      sync.Mutex
	fails   int
	batches [][]event.CoreEvent
}

func (s *flakyStore) Append(ctx context.Context, matchID string, events []event.CoreEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("disk unavailable")
	}
	s.batches = append(s.batches, append([]event.CoreEvent(nil), events...))
	return nil
}

func TestFailedAppendRetainsBatchForRetry(t *testing.T) {
	grid := hexmap.NewGrid(8, 8)
	state := game.NewState(grid, game.NewTypeTable(), []game.Player{{ID: 0}, {ID: 1}})
	jnl := journal.New(64)
	engine, err := sim.NewEngine(sim.Config{State: state, Recorder: jnl})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	store := &flakyStore{fails: 1}
	hub, err := NewHub(HubConfig{
		Engine:   engine,
		Commands: sim.NewCommandBuffer(8),
		Journal:  jnl,
		Store:    store,
		MatchID:  "test-match",
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	squad := spawnUnit(t, engine, game.TypeRifleSquad, 0, hexmap.Pos{Q: 0, R: 0})

	conn := &fakeConn{}
	if _, err := hub.Subscribe("alice", conn); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := hub.StageCommand(event.Command{
		Type:     event.CommandMove,
		PlayerID: 0,
		Move: &event.MoveCommand{
			UnitID: squad.ID,
			Path:   []hexmap.Pos{{Q: 0, R: 0}, {Q: 1, R: 0}},
		},
	}); err != nil {
		t.Fatalf("StageCommand: %v", err)
	}

	hub.ProcessPending(context.Background())
	if got := len(conn.sent()); got != 1 {
		t.Fatalf("batch broadcast despite failed append, %d messages", got)
	}
	if jnl.Len() != 1 {
		t.Fatalf("expected drained events restored, staged %d", jnl.Len())
	}

	// Nothing new staged; the next pass retries the same batch.
	hub.ProcessPending(context.Background())
	sent := conn.sent()
	if len(sent) != 2 {
		t.Fatalf("expected retried batch, %d messages", len(sent))
	}
	var batch proto.EventBatchMessage
	if err := json.Unmarshal(sent[1], &batch); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}
	if len(batch.Events) != 1 || batch.Events[0].Event.Type != event.TypeMove {
		t.Fatalf("unexpected retried batch: %+v", batch.Events)
	}
	store.mu.Lock()
	stored := len(store.batches)
	store.mu.Unlock()
	if stored != 1 {
		t.Fatalf("expected 1 stored batch, got %d", stored)
	}
	if jnl.Len() != 0 {
		t.Fatalf("staging buffer not cleared, %d left", jnl.Len())
	}
}

func TestTurnInfoTracksEndTurn(t *testing.T) {
	hub, _ := newTestHub(t)

	if err := hub.StageCommand(event.Command{Type: event.CommandEndTurn, PlayerID: 0}); err != nil {
		t.Fatalf("StageCommand: %v", err)
	}
	hub.ProcessPending(context.Background())

	turn, current := hub.TurnInfo()
	if turn != 1 || current != 1 {
		t.Fatalf("turn=%d current=%d", turn, current)
	}
}
