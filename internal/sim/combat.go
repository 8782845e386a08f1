package sim

import (
	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
)

// pinnedMoraleThreshold is the morale floor below which a unit is pinned
// for the rest of its turn.
const pinnedMoraleThreshold = 50

// resolveAttack computes the outcome of one shot. Resolution is a pure
// function of the two units and the terrain, so replaying the same
// command against the same state always yields the same event.
func (e *Engine) resolveAttack(attacker, defender *game.Unit, mode event.FireMode, ambush bool) (event.Event, event.EffectMap) {
	attackerType := e.state.Types().MustGet(attacker.TypeID)
	grid := e.state.Grid()

	strength := attackerType.AttackStrength
	if ambush {
		strength++
	}
	switch grid.TerrainAt(defender.Pos) {
	case hexmap.TerrainTrees, hexmap.TerrainBuilding:
		strength--
	}
	if e.state.SmokeAt(defender.Pos) || e.state.SmokeAt(attacker.Pos) {
		strength--
	}
	if strength < 0 {
		strength = 0
	}

	casualties := strength
	if casualties > defender.Count {
		casualties = defender.Count
	}
	suppression := 15 + 10*casualties
	destroyed := casualties >= defender.Count
	defenderType := e.state.Types().MustGet(defender.TypeID)
	leaveWreck := destroyed && defenderType.Class == game.ClassVehicle

	ctx := event.AttackContext{
		AttackerID: attacker.ID,
		Mode:       mode,
		IsAmbush:   ambush,
		IsIndirect: attackerType.CanFireSmoke,
	}
	info := event.NewAttackInfo(ctx, defender.ID, casualties, suppression, leaveWreck)

	effects := info.DefenderEffects(destroyed)
	if !destroyed && defender.Morale-suppression < pinnedMoraleThreshold {
		effects = append(effects, event.TimedEffect{
			Time:   event.ForTurns(1),
			Effect: event.Effect{Kind: event.EffectPinned},
		})
	}

	evt := event.Event{
		Type:       event.TypeAttackUnit,
		AttackUnit: &event.AttackUnitEvent{Attack: info},
	}
	return evt, event.EffectMap{defender.ID: effects}
}

func (e *Engine) handleAttackUnit(cmd event.Command, emit emitFunc) error {
	payload := cmd.AttackUnit
	if payload == nil {
		return reject(RejectInvalidPayload, "attack command without payload")
	}
	attacker, err := e.currentUnit(cmd.PlayerID, payload.AttackerID)
	if err != nil {
		return err
	}
	if attacker.InTransport {
		return reject(RejectInvalidPayload, "unit %d cannot fire from a transport", attacker.ID)
	}
	if attacker.AttackPoints < 1 {
		return reject(RejectNoAttackPoints, "unit %d", attacker.ID)
	}
	if attacker.HasStatus(game.StatusWeaponBroken) {
		return reject(RejectNoAttackPoints, "unit %d weapon broken", attacker.ID)
	}
	defender, ok := e.state.Unit(payload.DefenderID)
	if !ok {
		return reject(RejectUnknownUnit, "defender %d", payload.DefenderID)
	}
	if defender.PlayerID == attacker.PlayerID {
		return reject(RejectFriendlyTarget, "unit %d and %d share a side", attacker.ID, defender.ID)
	}
	if defender.InTransport || !defender.Alive() {
		return reject(RejectUnknownUnit, "defender %d is not on the map", defender.ID)
	}
	attackerType := e.state.Types().MustGet(attacker.TypeID)
	if attackerType.AttackPoints == 0 {
		return reject(RejectNoAttackPoints, "type %s cannot attack", attackerType.Name)
	}
	if attacker.Pos.Distance(defender.Pos) > attackerType.AttackRange {
		return reject(RejectOutOfRange, "distance %d exceeds range %d", attacker.Pos.Distance(defender.Pos), attackerType.AttackRange)
	}

	ambush := attacker.Hidden
	if ambush {
		showEvt := event.Event{
			Type:     event.TypeShowUnit,
			ShowUnit: &event.ShowUnitEvent{Unit: e.unitInfo(attacker)},
		}
		if err := emit(showEvt, nil); err != nil {
			return err
		}
	}
	attackEvt, effects := e.resolveAttack(attacker, defender, event.FireActive, ambush)
	return emit(attackEvt, effects)
}

func (e *Engine) handleSmoke(cmd event.Command, emit emitFunc) error {
	payload := cmd.Smoke
	if payload == nil {
		return reject(RejectInvalidPayload, "smoke command without payload")
	}
	unit, err := e.currentUnit(cmd.PlayerID, payload.UnitID)
	if err != nil {
		return err
	}
	unitType := e.state.Types().MustGet(unit.TypeID)
	if !unitType.CanFireSmoke {
		return reject(RejectInvalidPayload, "type %s cannot fire smoke", unitType.Name)
	}
	if unit.AttackPoints < 1 {
		return reject(RejectNoAttackPoints, "unit %d", unit.ID)
	}
	if !e.state.Grid().Contains(payload.Pos) {
		return reject(RejectOutOfBounds, "target %v", payload.Pos)
	}
	if unit.Pos.Distance(payload.Pos) > unitType.AttackRange {
		return reject(RejectOutOfRange, "target %v beyond range %d", payload.Pos, unitType.AttackRange)
	}

	smokeEvt := event.Event{
		Type: event.TypeSmoke,
		Smoke: &event.SmokeEvent{
			ObjectID: e.state.AllocateObjectID(),
			Pos:      payload.Pos,
			UnitID:   unit.ID,
		},
	}
	return emit(smokeEvt, nil)
}

func (e *Engine) handleSetReactionFire(cmd event.Command, emit emitFunc) error {
	payload := cmd.SetReactionFire
	if payload == nil {
		return reject(RejectInvalidPayload, "reaction fire command without payload")
	}
	unit, err := e.currentUnit(cmd.PlayerID, payload.UnitID)
	if err != nil {
		return err
	}
	modeEvt := event.Event{
		Type:            event.TypeSetReactionFire,
		SetReactionFire: &event.SetReactionFireEvent{UnitID: unit.ID, Mode: payload.Mode},
	}
	return emit(modeEvt, nil)
}
