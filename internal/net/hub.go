// Package net connects websocket clients to the simulation: it stages
// incoming commands, drives the turn processor, and fans out event batches.
package net

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
	"hexfront/server/internal/journal"
	"hexfront/server/internal/net/proto"
	"hexfront/server/internal/sim"
	"hexfront/server/logging"
	lognetwork "hexfront/server/logging/network"
)

const (
	writeWait = 10 * time.Second

	// defaultProcessInterval bounds how long a staged command waits before
	// the turn processor picks it up.
	defaultProcessInterval = 50 * time.Millisecond
)

// subscriberConn is the slice of *websocket.Conn the hub writes through.
// Tests substitute an in-memory fake.
type subscriberConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is one client's registration with the hub. Everything sent to
// the underlying connection must go through Write: it serializes the read
// loop's replies against the hub's broadcast fanout, which share the one
// websocket writer.
type Session struct {
	conn subscriberConn
	mu   sync.Mutex
}

// Write sends one text message under the session's write lock.
func (s *Session) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// EventStore persists broadcast batches for later replay. *replay.Store
// implements it.
type EventStore interface {
	Append(ctx context.Context, matchID string, events []event.CoreEvent) error
}

// Hub owns the command intake and the broadcast fanout. All simulation
// work happens on the single ProcessPending goroutine; websocket readers
// only stage commands.
type Hub struct {
	// stateMu serializes engine state access between the turn processor
	// and snapshot builds on subscribe.
	stateMu  sync.Mutex
	engine   *sim.Engine
	commands *sim.CommandBuffer
	journal  *journal.Journal
	store    EventStore
	matchID  string

	mu          sync.Mutex
	subscribers map[string]*Session
	turn        int
	current     game.PlayerID

	log       zerolog.Logger
	publisher logging.Publisher
	interval  time.Duration
}

// HubConfig carries the hub's collaborators. Store may be nil when replay
// persistence is disabled.
type HubConfig struct {
	Engine          *sim.Engine
	Commands        *sim.CommandBuffer
	Journal         *journal.Journal
	Store           EventStore
	MatchID         string
	Logger          zerolog.Logger
	Publisher       logging.Publisher
	ProcessInterval time.Duration
}

// NewHub constructs a hub over an engine and its command intake.
func NewHub(cfg HubConfig) (*Hub, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("net: nil engine")
	}
	if cfg.Commands == nil {
		return nil, fmt.Errorf("net: nil command buffer")
	}
	if cfg.Journal == nil {
		return nil, fmt.Errorf("net: nil journal")
	}
	hub := &Hub{
		engine:      cfg.Engine,
		commands:    cfg.Commands,
		journal:     cfg.Journal,
		store:       cfg.Store,
		matchID:     cfg.MatchID,
		subscribers: make(map[string]*Session),
		turn:        cfg.Engine.State().Turn(),
		current:     cfg.Engine.State().CurrentPlayer(),
		log:         cfg.Logger,
		publisher:   cfg.Publisher,
		interval:    cfg.ProcessInterval,
	}
	if hub.publisher == nil {
		hub.publisher = logging.NopPublisher{}
	}
	if hub.interval <= 0 {
		hub.interval = defaultProcessInterval
	}
	return hub, nil
}

// Subscribe registers a client connection and sends it the full snapshot.
// A previous connection under the same id is closed and replaced. The
// returned session is the only valid way to write to the connection.
func (h *Hub) Subscribe(clientID string, conn subscriberConn) (*Session, error) {
	h.stateMu.Lock()
	snapshot := proto.BuildSnapshot(h.engine.State(), h.journal.LastSeq())
	h.stateMu.Unlock()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	sess := &Session{conn: conn}

	h.mu.Lock()
	if prev, ok := h.subscribers[clientID]; ok {
		prev.conn.Close()
	}
	h.subscribers[clientID] = sess
	h.mu.Unlock()

	if err := sess.Write(data); err != nil {
		h.Disconnect(clientID)
		return nil, fmt.Errorf("send snapshot to %s: %w", clientID, err)
	}

	turn, _ := h.TurnInfo()
	h.log.Info().Str("client", clientID).Msg("client subscribed")
	lognetwork.ClientConnected(h.publisher, turn, clientID)
	return sess, nil
}

// Disconnect removes a client connection, closing it if still present.
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	sess, ok := h.subscribers[clientID]
	if ok {
		delete(h.subscribers, clientID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	sess.conn.Close()

	turn, _ := h.TurnInfo()
	h.log.Info().Str("client", clientID).Msg("client disconnected")
	lognetwork.ClientDisconnected(h.publisher, turn, clientID)
}

// TurnInfo reports the turn number and active player as of the last
// processing pass.
func (h *Hub) TurnInfo() (int, game.PlayerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.turn, h.current
}

// SubscriberCount reports the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// StageCommand queues a command for the next processing pass. It returns
// an error with a stable reason when the intake is full.
func (h *Hub) StageCommand(cmd event.Command) error {
	if !h.commands.Push(cmd) {
		return &sim.RejectError{Reason: sim.RejectQueueFull}
	}
	return nil
}

// Run drives the turn processor until the stop channel closes.
func (h *Hub) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.ProcessPending(context.Background())
		}
	}
}

// ProcessPending drains staged commands, executes them in arrival order,
// persists the emitted events, and broadcasts them. Rejected commands are
// logged and skipped; the batch keeps going. When encoding or the replay
// append fails, the drained events go back into the journal so the next
// pass retries instead of losing them.
func (h *Hub) ProcessPending(ctx context.Context) {
	commands := h.commands.Drain()

	h.stateMu.Lock()
	for _, cmd := range commands {
		if _, err := h.engine.Execute(cmd); err != nil {
			reason := sim.RejectReason(err)
			if reason == "" {
				// Not a rejection: an invariant fault. Surface it loudly
				// and stop consuming the batch.
				h.log.Error().Err(err).Str("command", string(cmd.Type)).Msg("command execution fault")
				break
			}
			h.log.Debug().
				Str("command", string(cmd.Type)).
				Int64("player", int64(cmd.PlayerID)).
				Str("reason", reason).
				Msg("command rejected")
			lognetwork.CommandRejected(h.publisher, h.engine.State().Turn(),
				fmt.Sprintf("player-%d", cmd.PlayerID),
				lognetwork.RejectPayload{Command: string(cmd.Type), Reason: reason})
		}
	}
	turn := h.engine.State().Turn()
	current := h.engine.State().CurrentPlayer()
	events := h.journal.Drain()
	h.stateMu.Unlock()

	h.mu.Lock()
	h.turn = turn
	h.current = current
	h.mu.Unlock()

	if len(events) == 0 {
		return
	}

	msg := proto.EventBatchMessage{
		Ver:        proto.ProtocolVersion,
		Type:       proto.ServerTypeEvents,
		Events:     events,
		ServerTime: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Int("events", len(events)).Msg("marshal event batch, retrying next pass")
		h.journal.Restore(events)
		return
	}

	if h.store != nil {
		if err := h.store.Append(ctx, h.matchID, events); err != nil {
			h.log.Error().Err(err).Int("events", len(events)).Msg("replay append failed, retrying next pass")
			h.journal.Restore(events)
			return
		}
	}

	h.broadcast(data)
}

// CatchUp returns the retained events after seq for a reconnecting client.
func (h *Hub) CatchUp(sinceSeq uint64) []event.CoreEvent {
	return h.journal.Since(sinceSeq)
}

// broadcast writes an already-encoded batch to every subscriber, dropping
// connections whose writes fail.
func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	sessions := make(map[string]*Session, len(h.subscribers))
	for id, sess := range h.subscribers {
		sessions[id] = sess
	}
	h.mu.Unlock()

	for id, sess := range sessions {
		if err := sess.Write(data); err != nil {
			h.log.Warn().Err(err).Str("client", id).Msg("broadcast write failed")
			h.Disconnect(id)
		}
	}
}
