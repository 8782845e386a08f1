package sim

import (
	"fmt"

	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
)

// smokeDuration is how many turn ends a smoke screen survives.
const smokeDuration = 2

// moraleRecovery is regained by a player's units when their turn begins.
const moraleRecovery = 25

// Apply replays a recorded core event onto state. It is the same applier
// the engine runs during live execution, so replaying a stored stream
// against the starting state reproduces the match.
func Apply(state *game.State, core event.CoreEvent) error {
	return applyCoreEvent(state, core)
}

// applyCoreEvent mutates state with the full event and its full effect
// mapping, or not at all: every lookup runs before the first mutation, and
// a malformed event returns an error wrapping event.ErrInvariant.
func applyCoreEvent(state *game.State, core event.CoreEvent) error {
	if err := core.Validate(); err != nil {
		return err
	}
	if err := applyEvent(state, core.Event); err != nil {
		return err
	}
	// Effects apply per unit in the order the event references them, and
	// within a unit strictly in sequence order.
	for _, id := range core.Event.ReferencedUnits() {
		sequence, ok := core.Effects[id]
		if !ok {
			continue
		}
		unit, found := state.Unit(id)
		if !found {
			return fmt.Errorf("%w: effects for unit %d missing from state", event.ErrInvariant, id)
		}
		for _, timed := range sequence {
			applyEffect(state, unit, timed)
			if _, alive := state.Unit(id); !alive {
				break
			}
		}
	}
	return nil
}

func applyEvent(state *game.State, evt event.Event) error {
	switch evt.Type {
	case event.TypeMove:
		return applyMove(state, evt.Move)
	case event.TypeEndTurn:
		return applyEndTurn(state, evt.EndTurn)
	case event.TypeCreateUnit:
		return applyCreateUnit(state, evt.CreateUnit)
	case event.TypeAttackUnit:
		return applyAttackUnit(state, evt.AttackUnit)
	case event.TypeReveal:
		return applyUnhide(state, evt.Reveal.Unit.ID)
	case event.TypeShowUnit:
		return applyUnhide(state, evt.ShowUnit.Unit.ID)
	case event.TypeHideUnit:
		return applyHideUnit(state, evt.HideUnit)
	case event.TypeLoadUnit:
		return applyLoadUnit(state, evt.LoadUnit)
	case event.TypeUnloadUnit:
		return applyUnloadUnit(state, evt.UnloadUnit)
	case event.TypeAttach:
		return applyAttach(state, evt.Attach)
	case event.TypeDetach:
		return applyDetach(state, evt.Detach)
	case event.TypeSetReactionFire:
		return applySetReactionFire(state, evt.SetReactionFire)
	case event.TypeSectorOwnerChanged:
		return applySectorOwnerChanged(state, evt.SectorOwnerChanged)
	case event.TypeVictoryPoint:
		return applyVictoryPoint(state, evt.VictoryPoint)
	case event.TypeSmoke:
		return applySmoke(state, evt.Smoke)
	case event.TypeRemoveSmoke:
		state.RemoveSmoke(evt.RemoveSmoke.ObjectID)
		return nil
	default:
		return fmt.Errorf("%w: unknown event type %q", event.ErrInvariant, evt.Type)
	}
}

func applyMove(state *game.State, payload *event.MoveEvent) error {
	unit, ok := state.Unit(payload.UnitID)
	if !ok {
		return fmt.Errorf("%w: move for unknown unit %d", event.ErrInvariant, payload.UnitID)
	}
	if unit.Pos != payload.From {
		return fmt.Errorf("%w: move from %v but unit %d stands at %v", event.ErrInvariant, payload.From, unit.ID, unit.Pos)
	}
	if err := state.PlaceUnit(unit.ID, payload.To); err != nil {
		return fmt.Errorf("%w: %v", event.ErrInvariant, err)
	}
	if unit.AttachedID != game.NoUnit {
		if _, towed := state.Unit(unit.AttachedID); towed {
			if err := state.PlaceUnit(unit.AttachedID, payload.To); err != nil {
				return fmt.Errorf("%w: towed unit: %v", event.ErrInvariant, err)
			}
		}
	}
	unit.MovePoints -= int(payload.Cost)
	if unit.MovePoints < 0 {
		unit.MovePoints = 0
	}
	return nil
}

func applyEndTurn(state *game.State, payload *event.EndTurnEvent) error {
	if state.CurrentPlayer() != payload.OldPlayerID {
		return fmt.Errorf("%w: end turn for player %d but player %d is current", event.ErrInvariant, payload.OldPlayerID, state.CurrentPlayer())
	}
	for _, id := range state.UnitIDs() {
		unit, ok := state.Unit(id)
		if !ok || unit.PlayerID != payload.OldPlayerID {
			continue
		}
		unit.TickStatuses()
	}
	for _, id := range state.SmokeIDs() {
		if smoke, ok := state.Smoke(id); ok {
			smoke.TurnsLeft--
		}
	}

	next := state.AdvanceTurn()
	if next != payload.NewPlayerID {
		return fmt.Errorf("%w: end turn advanced to player %d, event says %d", event.ErrInvariant, next, payload.NewPlayerID)
	}

	for _, id := range state.UnitIDs() {
		unit, ok := state.Unit(id)
		if !ok || unit.PlayerID != next {
			continue
		}
		unitType := state.Types().MustGet(unit.TypeID)
		unit.MovePoints = unitType.MovePoints
		unit.AttackPoints = unitType.AttackPoints
		if unit.HasStatus(game.StatusImmobilized) {
			unit.MovePoints = 0
		} else if unit.HasStatus(game.StatusReducedMovement) {
			unit.MovePoints /= 2
		}
		if unit.HasStatus(game.StatusWeaponBroken) {
			unit.AttackPoints = 0
		}
		unit.Morale += moraleRecovery
		if unit.Morale > game.FullMorale {
			unit.Morale = game.FullMorale
		}
	}
	return nil
}

func applyCreateUnit(state *game.State, payload *event.CreateUnitEvent) error {
	info := payload.Unit
	unit := &game.Unit{
		ID:           info.ID,
		TypeID:       info.TypeID,
		PlayerID:     info.PlayerID,
		Pos:          info.Pos,
		MovePoints:   info.MovePoints,
		AttackPoints: info.AttackPoints,
		Count:        info.Count,
		Morale:       info.Morale,
		ReactionFire: info.ReactionFire,
		Statuses:     make(map[string]int),
	}
	if err := state.AddUnit(unit); err != nil {
		return fmt.Errorf("%w: %v", event.ErrInvariant, err)
	}
	return nil
}

func applyAttackUnit(state *game.State, payload *event.AttackUnitEvent) error {
	attack := payload.Attack
	if _, ok := state.Unit(attack.DefenderID); !ok {
		return fmt.Errorf("%w: attack on unknown unit %d", event.ErrInvariant, attack.DefenderID)
	}
	if attack.Context.AttackerID != game.NoUnit {
		attacker, ok := state.Unit(attack.Context.AttackerID)
		if !ok {
			return fmt.Errorf("%w: attack by unknown unit %d", event.ErrInvariant, attack.Context.AttackerID)
		}
		if attacker.AttackPoints > 0 {
			attacker.AttackPoints--
		}
	}
	return nil
}

func applyUnhide(state *game.State, id game.UnitID) error {
	unit, ok := state.Unit(id)
	if !ok {
		return fmt.Errorf("%w: reveal of unknown unit %d", event.ErrInvariant, id)
	}
	unit.Hidden = false
	return nil
}

func applyHideUnit(state *game.State, payload *event.HideUnitEvent) error {
	unit, ok := state.Unit(payload.UnitID)
	if !ok {
		return fmt.Errorf("%w: hide of unknown unit %d", event.ErrInvariant, payload.UnitID)
	}
	unit.Hidden = true
	return nil
}

func applyLoadUnit(state *game.State, payload *event.LoadUnitEvent) error {
	transporter, ok := state.Unit(payload.TransporterID)
	if !ok {
		return fmt.Errorf("%w: load into unknown transporter %d", event.ErrInvariant, payload.TransporterID)
	}
	passenger, ok := state.Unit(payload.PassengerID)
	if !ok {
		return fmt.Errorf("%w: load of unknown passenger %d", event.ErrInvariant, payload.PassengerID)
	}
	state.BoardUnit(passenger.ID)
	passenger.Pos = transporter.Pos
	passenger.MovePoints = 0
	transporter.PassengerID = passenger.ID
	return nil
}

func applyUnloadUnit(state *game.State, payload *event.UnloadUnitEvent) error {
	transporter, ok := state.Unit(payload.TransporterID)
	if !ok {
		return fmt.Errorf("%w: unload from unknown transporter %d", event.ErrInvariant, payload.TransporterID)
	}
	passenger, ok := state.Unit(payload.Unit.ID)
	if !ok {
		return fmt.Errorf("%w: unload of unknown passenger %d", event.ErrInvariant, payload.Unit.ID)
	}
	state.DisembarkUnit(passenger.ID, payload.To)
	passenger.MovePoints = payload.Unit.MovePoints
	passenger.Hidden = false
	transporter.PassengerID = game.NoUnit
	return nil
}

func applyAttach(state *game.State, payload *event.AttachEvent) error {
	transporter, ok := state.Unit(payload.TransporterID)
	if !ok {
		return fmt.Errorf("%w: attach by unknown transporter %d", event.ErrInvariant, payload.TransporterID)
	}
	if _, ok := state.Unit(payload.AttachedID); !ok {
		return fmt.Errorf("%w: attach of unknown unit %d", event.ErrInvariant, payload.AttachedID)
	}
	if err := state.PlaceUnit(transporter.ID, payload.To); err != nil {
		return fmt.Errorf("%w: %v", event.ErrInvariant, err)
	}
	transporter.AttachedID = payload.AttachedID
	if transporter.MovePoints > 0 {
		transporter.MovePoints--
	}
	return nil
}

func applyDetach(state *game.State, payload *event.DetachEvent) error {
	transporter, ok := state.Unit(payload.TransporterID)
	if !ok {
		return fmt.Errorf("%w: detach by unknown transporter %d", event.ErrInvariant, payload.TransporterID)
	}
	if err := state.PlaceUnit(transporter.ID, payload.To); err != nil {
		return fmt.Errorf("%w: %v", event.ErrInvariant, err)
	}
	transporter.AttachedID = game.NoUnit
	transporter.MovePoints = 0
	return nil
}

func applySetReactionFire(state *game.State, payload *event.SetReactionFireEvent) error {
	unit, ok := state.Unit(payload.UnitID)
	if !ok {
		return fmt.Errorf("%w: reaction mode for unknown unit %d", event.ErrInvariant, payload.UnitID)
	}
	unit.ReactionFire = payload.Mode
	return nil
}

func applySectorOwnerChanged(state *game.State, payload *event.SectorOwnerChangedEvent) error {
	sector, ok := state.Sector(payload.SectorID)
	if !ok {
		return fmt.Errorf("%w: unknown sector %d", event.ErrInvariant, payload.SectorID)
	}
	sector.OwnerID = payload.OwnerID
	return nil
}

func applyVictoryPoint(state *game.State, payload *event.VictoryPointEvent) error {
	player, ok := state.Player(payload.PlayerID)
	if !ok {
		return fmt.Errorf("%w: victory points for unknown player %d", event.ErrInvariant, payload.PlayerID)
	}
	player.VictoryPoints += payload.Count
	return nil
}

func applySmoke(state *game.State, payload *event.SmokeEvent) error {
	if !state.Grid().Contains(payload.Pos) {
		return fmt.Errorf("%w: smoke at %v out of bounds", event.ErrInvariant, payload.Pos)
	}
	if payload.UnitID != game.NoUnit {
		unit, ok := state.Unit(payload.UnitID)
		if !ok {
			return fmt.Errorf("%w: smoke from unknown unit %d", event.ErrInvariant, payload.UnitID)
		}
		if unit.AttackPoints > 0 {
			unit.AttackPoints--
		}
	}
	state.AddSmoke(&game.Smoke{
		ID:        payload.ObjectID,
		Pos:       payload.Pos,
		UnitID:    payload.UnitID,
		TurnsLeft: smokeDuration,
	})
	return nil
}

// applyEffect executes one timed effect for one unit. Instant effects act
// immediately; scheduled ones persist as unit statuses until they expire.
func applyEffect(state *game.State, unit *game.Unit, timed event.TimedEffect) {
	turns := timed.Time.Turns
	if timed.Time.Forever {
		turns = game.StatusForever
	} else if turns < 1 {
		turns = 1
	}

	switch timed.Effect.Kind {
	case event.EffectAttacked:
		unit.Count -= timed.Effect.Casualties
		if unit.Count < 0 {
			unit.Count = 0
		}
		unit.Morale -= timed.Effect.Suppression
		if unit.Morale < 0 {
			unit.Morale = 0
		}
	case event.EffectPinned:
		unit.SetStatus(game.StatusPinned, turns)
		unit.MovePoints = 0
	case event.EffectImmobilized:
		unit.SetStatus(game.StatusImmobilized, turns)
		unit.MovePoints = 0
	case event.EffectWeaponBroken:
		unit.SetStatus(game.StatusWeaponBroken, turns)
		unit.AttackPoints = 0
	case event.EffectReducedMovement:
		unit.SetStatus(game.StatusReducedMovement, turns)
		unit.MovePoints /= 2
	case event.EffectDestroyed:
		destroyUnit(state, unit)
	}
}

// destroyUnit removes a unit along with any passenger it carried and any
// tow links pointing at it.
func destroyUnit(state *game.State, unit *game.Unit) {
	if unit.PassengerID != game.NoUnit {
		state.RemoveUnit(unit.PassengerID)
	}
	for _, id := range state.UnitIDs() {
		other, ok := state.Unit(id)
		if !ok {
			continue
		}
		if other.AttachedID == unit.ID {
			other.AttachedID = game.NoUnit
		}
		if other.PassengerID == unit.ID {
			other.PassengerID = game.NoUnit
		}
	}
	state.RemoveUnit(unit.ID)
}
