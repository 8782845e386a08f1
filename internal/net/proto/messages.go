// Package proto defines the websocket wire messages exchanged between the
// server and game clients.
package proto

import (
	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
)

// ProtocolVersion is bumped on breaking wire changes.
const ProtocolVersion = 1

// Client message types.
const (
	ClientTypeCommand   = "command"
	ClientTypeHeartbeat = "heartbeat"
	ClientTypeCatchUp   = "catchup"
)

// Server message types.
const (
	ServerTypeSnapshot      = "snapshot"
	ServerTypeEvents        = "events"
	ServerTypeCommandAck    = "commandAck"
	ServerTypeCommandReject = "commandReject"
	ServerTypeHeartbeat     = "heartbeat"
)

// ClientMessage is the envelope for everything a client sends.
type ClientMessage struct {
	Ver      int            `json:"ver,omitempty"`
	Type     string         `json:"type"`
	Seq      uint64         `json:"seq,omitempty"`
	SentAt   int64          `json:"sentAt,omitempty"`
	SinceSeq uint64         `json:"sinceSeq,omitempty"`
	Command  *event.Command `json:"command,omitempty"`
}

// ValidCommand reports whether the envelope carries a structurally complete
// command: a known type with its matching payload present. Game-rule
// validation stays in the engine.
func (m ClientMessage) ValidCommand() bool {
	if m.Command == nil {
		return false
	}
	cmd := m.Command
	switch cmd.Type {
	case event.CommandMove:
		return cmd.Move != nil
	case event.CommandEndTurn:
		return true
	case event.CommandCreateUnit:
		return cmd.CreateUnit != nil
	case event.CommandAttackUnit:
		return cmd.AttackUnit != nil
	case event.CommandLoadUnit:
		return cmd.LoadUnit != nil
	case event.CommandUnloadUnit:
		return cmd.UnloadUnit != nil
	case event.CommandAttach:
		return cmd.Attach != nil
	case event.CommandDetach:
		return cmd.Detach != nil
	case event.CommandSetReactionFire:
		return cmd.SetReactionFire != nil
	case event.CommandSmoke:
		return cmd.Smoke != nil
	default:
		return false
	}
}

// GridSnapshot carries the immutable map layout.
type GridSnapshot struct {
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Terrain []Terrain `json:"terrain"`
}

// Terrain mirrors hexmap.Terrain on the wire.
type Terrain uint8

// SectorSnapshot carries one scoring sector.
type SectorSnapshot struct {
	ID      game.SectorID `json:"id"`
	Cells   []hexmap.Pos  `json:"cells"`
	OwnerID game.PlayerID `json:"ownerId"`
}

// PlayerSnapshot carries one side's score.
type PlayerSnapshot struct {
	ID            game.PlayerID `json:"id"`
	VictoryPoints int           `json:"victoryPoints"`
}

// SmokeSnapshot carries one active smoke screen.
type SmokeSnapshot struct {
	ID        game.ObjectID `json:"id"`
	Pos       hexmap.Pos    `json:"pos"`
	TurnsLeft int           `json:"turnsLeft"`
}

// SnapshotMessage is the full state a client needs to start rendering. It
// is sent once on subscribe; afterwards the client applies event batches.
type SnapshotMessage struct {
	Ver           int              `json:"ver"`
	Type          string           `json:"type"`
	Turn          int              `json:"turn"`
	CurrentPlayer game.PlayerID    `json:"currentPlayer"`
	LastSeq       uint64           `json:"lastSeq"`
	Grid          GridSnapshot     `json:"grid"`
	Units         []event.UnitInfo `json:"units"`
	Sectors       []SectorSnapshot `json:"sectors,omitempty"`
	Players       []PlayerSnapshot `json:"players"`
	Smoke         []SmokeSnapshot  `json:"smoke,omitempty"`
}

// EventBatchMessage carries ordered core events to apply on top of the
// snapshot.
type EventBatchMessage struct {
	Ver        int               `json:"ver"`
	Type       string            `json:"type"`
	Events     []event.CoreEvent `json:"events"`
	ServerTime int64             `json:"serverTime"`
}

// CommandAckMessage confirms a staged command by client sequence number.
type CommandAckMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
}

// CommandRejectMessage reports a refused command with a stable reason.
type CommandRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
	Retry  bool   `json:"retry,omitempty"`
}

// HeartbeatMessage echoes a client heartbeat with server time.
type HeartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
}

// BuildSnapshot renders the authoritative state into a snapshot message.
func BuildSnapshot(state *game.State, lastSeq uint64) SnapshotMessage {
	grid := state.Grid()
	terrain := make([]Terrain, 0, grid.Width()*grid.Height())
	for r := 0; r < grid.Height(); r++ {
		for q := 0; q < grid.Width(); q++ {
			terrain = append(terrain, Terrain(grid.TerrainAt(hexmap.Pos{Q: q, R: r})))
		}
	}

	units := make([]event.UnitInfo, 0)
	for _, id := range state.UnitIDs() {
		unit, ok := state.Unit(id)
		if !ok {
			continue
		}
		units = append(units, event.UnitInfo{
			ID:           unit.ID,
			TypeID:       unit.TypeID,
			PlayerID:     unit.PlayerID,
			Pos:          unit.Pos,
			MovePoints:   unit.MovePoints,
			AttackPoints: unit.AttackPoints,
			Count:        unit.Count,
			Morale:       unit.Morale,
			ReactionFire: unit.ReactionFire,
		})
	}

	sectors := make([]SectorSnapshot, 0)
	for _, id := range state.SectorIDs() {
		sector, ok := state.Sector(id)
		if !ok {
			continue
		}
		sectors = append(sectors, SectorSnapshot{
			ID:      sector.ID,
			Cells:   append([]hexmap.Pos(nil), sector.Cells...),
			OwnerID: sector.OwnerID,
		})
	}

	players := make([]PlayerSnapshot, 0)
	for _, p := range state.Players() {
		players = append(players, PlayerSnapshot{ID: p.ID, VictoryPoints: p.VictoryPoints})
	}

	smoke := make([]SmokeSnapshot, 0)
	for _, id := range state.SmokeIDs() {
		s, ok := state.Smoke(id)
		if !ok {
			continue
		}
		smoke = append(smoke, SmokeSnapshot{ID: s.ID, Pos: s.Pos, TurnsLeft: s.TurnsLeft})
	}

	return SnapshotMessage{
		Ver:           ProtocolVersion,
		Type:          ServerTypeSnapshot,
		Turn:          state.Turn(),
		CurrentPlayer: state.CurrentPlayer(),
		LastSeq:       lastSeq,
		Grid:          GridSnapshot{Width: grid.Width(), Height: grid.Height(), Terrain: terrain},
		Units:         units,
		Sectors:       sectors,
		Players:       players,
		Smoke:         smoke,
	}
}
