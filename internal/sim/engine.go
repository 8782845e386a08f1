package sim

import (
	"fmt"

	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
	"hexfront/server/internal/pathfind"
	"hexfront/server/logging"
	"hexfront/server/logging/combat"
)

// Recorder receives every emitted core event, in order. The journal
// implements it; tests substitute a slice collector.
type Recorder interface {
	Record(event.CoreEvent)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(event.CoreEvent)

// Record calls f.
func (f RecorderFunc) Record(core event.CoreEvent) { f(core) }

// Engine validates commands against the authoritative state and converts
// them into core events, applying each one as it is emitted. A single
// engine instance owns its pathfinder scratch space and must only be
// driven from one goroutine.
type Engine struct {
	state      *game.State
	pathfinder *pathfind.Pathfinder
	recorder   Recorder
	publisher  logging.Publisher
	seq        uint64
}

// Config carries the engine's collaborators.
type Config struct {
	State     *game.State
	Recorder  Recorder
	Publisher logging.Publisher
}

// NewEngine constructs an engine over the provided state.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.State == nil {
		return nil, fmt.Errorf("sim: nil state")
	}
	grid := cfg.State.Grid()
	engine := &Engine{
		state:      cfg.State,
		pathfinder: pathfind.New(grid.Width(), grid.Height()),
		recorder:   cfg.Recorder,
		publisher:  cfg.Publisher,
	}
	if engine.recorder == nil {
		engine.recorder = RecorderFunc(func(event.CoreEvent) {})
	}
	if engine.publisher == nil {
		engine.publisher = logging.NopPublisher{}
	}
	return engine, nil
}

// State exposes the authoritative state for read-only callers (snapshots,
// validator-style queries). Mutation stays inside the engine.
func (e *Engine) State() *game.State { return e.state }

// Pathfinder exposes the engine's pathfinder so callers can inspect the
// cost field left by the most recent movement validation.
func (e *Engine) Pathfinder() *pathfind.Pathfinder { return e.pathfinder }

// Execute validates a command and, when legal, applies and returns the
// resulting core events in order. A rejected command returns a
// *RejectError and zero events; an invariant fault returns the underlying
// error and the caller must halt the turn.
func (e *Engine) Execute(cmd event.Command) ([]event.CoreEvent, error) {
	var emitted []event.CoreEvent
	emit := func(evt event.Event, effects event.EffectMap) error {
		core, err := event.New(evt, effects)
		if err != nil {
			return err
		}
		e.seq++
		core.Seq = e.seq
		core.Turn = e.state.Turn()
		if err := applyCoreEvent(e.state, core); err != nil {
			return err
		}
		e.recorder.Record(core)
		e.publisher.Publish(logging.EventFromCore(core.Turn, string(core.Event.Type)))
		e.publishCombatDetail(core)
		emitted = append(emitted, core)
		return nil
	}

	var err error
	switch cmd.Type {
	case event.CommandMove:
		err = e.handleMove(cmd, emit)
	case event.CommandEndTurn:
		err = e.handleEndTurn(cmd, emit)
	case event.CommandCreateUnit:
		err = e.handleCreateUnit(cmd, emit)
	case event.CommandAttackUnit:
		err = e.handleAttackUnit(cmd, emit)
	case event.CommandLoadUnit:
		err = e.handleLoadUnit(cmd, emit)
	case event.CommandUnloadUnit:
		err = e.handleUnloadUnit(cmd, emit)
	case event.CommandAttach:
		err = e.handleAttach(cmd, emit)
	case event.CommandDetach:
		err = e.handleDetach(cmd, emit)
	case event.CommandSetReactionFire:
		err = e.handleSetReactionFire(cmd, emit)
	case event.CommandSmoke:
		err = e.handleSmoke(cmd, emit)
	default:
		err = reject(RejectInvalidPayload, "unknown command type %q", cmd.Type)
	}
	if err != nil {
		// Handlers validate fully before their first emit: a rejected
		// command leaves zero events behind.
		return nil, err
	}
	return emitted, nil
}

// publishCombatDetail emits the richer combat log events the generic
// per-event record does not carry.
func (e *Engine) publishCombatDetail(core event.CoreEvent) {
	if core.Event.Type != event.TypeAttackUnit {
		return
	}
	attack := core.Event.AttackUnit.Attack
	combat.AttackResolved(e.publisher, core.Turn,
		combat.UnitRef(int64(attack.Context.AttackerID)),
		combat.UnitRef(int64(attack.DefenderID)),
		combat.AttackResolvedPayload{
			Mode:        string(attack.Context.Mode),
			Casualties:  attack.Casualties,
			Suppression: attack.Suppression,
			Ambush:      attack.Context.IsAmbush,
		})
	for _, timed := range core.Effects[attack.DefenderID] {
		if timed.Effect.Kind == event.EffectDestroyed {
			combat.UnitDestroyed(e.publisher, core.Turn,
				combat.UnitRef(int64(attack.DefenderID)),
				combat.DestroyedPayload{LeaveWreck: timed.Effect.LeaveWreck})
		}
	}
}

// emitFunc is the sink handlers feed events into.
type emitFunc func(event.Event, event.EffectMap) error

// currentUnit resolves a unit id and checks it belongs to the commanding
// player and that it is that player's turn.
func (e *Engine) currentUnit(playerID game.PlayerID, unitID game.UnitID) (*game.Unit, error) {
	if e.state.CurrentPlayer() != playerID {
		return nil, reject(RejectNotYourTurn, "player %d acted on player %d's turn", playerID, e.state.CurrentPlayer())
	}
	unit, ok := e.state.Unit(unitID)
	if !ok {
		return nil, reject(RejectUnknownUnit, "unit %d", unitID)
	}
	if unit.PlayerID != playerID {
		return nil, reject(RejectNotYourUnit, "unit %d belongs to player %d", unitID, unit.PlayerID)
	}
	return unit, nil
}

func (e *Engine) unitInfo(unit *game.Unit) event.UnitInfo {
	return event.UnitInfo{
		ID:           unit.ID,
		TypeID:       unit.TypeID,
		PlayerID:     unit.PlayerID,
		Pos:          unit.Pos,
		MovePoints:   unit.MovePoints,
		AttackPoints: unit.AttackPoints,
		Count:        unit.Count,
		Morale:       unit.Morale,
		ReactionFire: unit.ReactionFire,
	}
}
