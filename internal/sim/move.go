package sim

import (
	"fmt"

	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
	"hexfront/server/internal/pathfind"
)

// effectiveMovePoints applies active statuses to a unit's remaining
// movement budget. Towing halves it.
func (e *Engine) effectiveMovePoints(unit *game.Unit) pathfind.MoveCost {
	if unit.HasStatus(game.StatusImmobilized) || unit.HasStatus(game.StatusPinned) {
		return 0
	}
	points := unit.MovePoints
	if unit.HasStatus(game.StatusReducedMovement) {
		points /= 2
	}
	if unit.AttachedID != game.NoUnit {
		points /= 2
	}
	return pathfind.MoveCost(points)
}

func (e *Engine) handleMove(cmd event.Command, emit emitFunc) error {
	payload := cmd.Move
	if payload == nil {
		return reject(RejectInvalidPayload, "move command without payload")
	}
	unit, err := e.currentUnit(cmd.PlayerID, payload.UnitID)
	if err != nil {
		return err
	}
	if unit.InTransport {
		return reject(RejectInvalidPayload, "unit %d is loaded in a transport", unit.ID)
	}
	if len(payload.Path) < 2 {
		return reject(RejectInvalidPayload, "path needs at least origin and one step")
	}
	if payload.Path[0] != unit.Pos {
		return reject(RejectInvalidPayload, "path starts at %v, unit stands at %v", payload.Path[0], unit.Pos)
	}
	mode := payload.Mode
	if mode != game.MoveModeFast && mode != game.MoveModeHunt {
		return reject(RejectInvalidPayload, "unknown move mode %d", mode)
	}

	budget := e.effectiveMovePoints(unit)
	if budget <= 0 {
		if unit.HasStatus(game.StatusPinned) {
			return reject(RejectPinned, "unit %d is pinned", unit.ID)
		}
		return reject(RejectNoMovePoints, "unit %d has no movement left", unit.ID)
	}

	grid := e.state.Grid()
	unitType := e.state.Types().MustGet(unit.TypeID)
	mover := pathfind.Mover{Pos: unit.Pos, Class: unitType.Class, MovePoints: budget}
	if err := e.pathfinder.Fill(grid, mover); err != nil {
		return reject(RejectOutOfBounds, "fill: %v", err)
	}

	// Validate the whole submitted path before emitting anything.
	steps := make([]pathfind.MoveCost, 0, len(payload.Path)-1)
	var total pathfind.MoveCost
	for i := 1; i < len(payload.Path); i++ {
		from, to := payload.Path[i-1], payload.Path[i]
		if !grid.Contains(to) {
			return reject(RejectOutOfBounds, "step %d leaves the grid at %v", i, to)
		}
		if from.Distance(to) != 1 {
			return reject(RejectInvalidPayload, "steps %v and %v are not adjacent", from, to)
		}
		if grid.OccupantsAt(to) > 0 {
			return reject(RejectOccupied, "cell %v is occupied", to)
		}
		stepCost := pathfind.TileCost(unitType.Class, grid.TerrainAt(to))
		if mode == game.MoveModeHunt {
			stepCost *= 2
		}
		total += stepCost
		if total > budget {
			return reject(RejectNoMovePoints, "path costs %d, unit has %d", total, budget)
		}
		steps = append(steps, stepCost)
	}
	if !e.pathfinder.Reachable(payload.Path[len(payload.Path)-1]) {
		return reject(RejectUnreachable, "destination %v is unreachable", payload.Path[len(payload.Path)-1])
	}

	for i, stepCost := range steps {
		from, to := payload.Path[i], payload.Path[i+1]
		moveEvt := event.Event{
			Type: event.TypeMove,
			Move: &event.MoveEvent{UnitID: unit.ID, From: from, To: to, Mode: mode, Cost: stepCost},
		}
		if err := emit(moveEvt, nil); err != nil {
			return fmt.Errorf("move step %d: %w", i+1, err)
		}
		revealed, err := e.emitReveals(unit, emit)
		if err != nil {
			return err
		}
		if err := e.emitSectorChanges(from, to, emit); err != nil {
			return err
		}
		if err := e.emitReactionFire(unit, emit); err != nil {
			return err
		}
		if !unit.Alive() || unit.HasStatus(game.StatusPinned) {
			break
		}
		if mode == game.MoveModeHunt && revealed {
			break
		}
	}
	return nil
}

// emitReveals exposes hidden enemy units that entered the moving unit's
// sight radius. It reports whether anything was revealed so hunting
// movement can halt.
func (e *Engine) emitReveals(mover *game.Unit, emit emitFunc) (bool, error) {
	sight := e.state.Types().MustGet(mover.TypeID).SightRange
	revealed := false
	for _, id := range e.state.UnitIDs() {
		other, ok := e.state.Unit(id)
		if !ok || other.PlayerID == mover.PlayerID || !other.Hidden || other.InTransport {
			continue
		}
		if mover.Pos.Distance(other.Pos) > sight {
			continue
		}
		revealEvt := event.Event{
			Type:   event.TypeReveal,
			Reveal: &event.RevealEvent{Unit: e.unitInfo(other)},
		}
		if err := emit(revealEvt, nil); err != nil {
			return revealed, err
		}
		revealed = true
	}
	return revealed, nil
}

// emitSectorChanges re-evaluates ownership for every sector touching the
// cells a move left or entered.
func (e *Engine) emitSectorChanges(from, to hexmap.Pos, emit emitFunc) error {
	for _, id := range e.state.SectorIDs() {
		sector, ok := e.state.Sector(id)
		if !ok || (!sector.Contains(from) && !sector.Contains(to)) {
			continue
		}
		owner := e.sectorHolder(sector)
		if owner == sector.OwnerID {
			continue
		}
		changeEvt := event.Event{
			Type:               event.TypeSectorOwnerChanged,
			SectorOwnerChanged: &event.SectorOwnerChangedEvent{SectorID: sector.ID, OwnerID: owner},
		}
		if err := emit(changeEvt, nil); err != nil {
			return err
		}
	}
	return nil
}

// sectorHolder returns the sole player with living units inside the
// sector, or NoPlayer when it is empty or contested.
func (e *Engine) sectorHolder(sector *game.Sector) game.PlayerID {
	holder := game.NoPlayer
	for _, cell := range sector.Cells {
		for _, unit := range e.state.UnitsAt(cell) {
			if !unit.Alive() {
				continue
			}
			if holder == game.NoPlayer {
				holder = unit.PlayerID
			} else if holder != unit.PlayerID {
				return game.NoPlayer
			}
		}
	}
	return holder
}

// emitReactionFire lets enemy units in normal reaction mode fire at the
// moving unit. Hidden shooters break cover first and fire as an ambush.
func (e *Engine) emitReactionFire(mover *game.Unit, emit emitFunc) error {
	for _, id := range e.state.UnitIDs() {
		shooter, ok := e.state.Unit(id)
		if !ok || shooter.PlayerID == mover.PlayerID || shooter.InTransport || !shooter.Alive() {
			continue
		}
		if shooter.ReactionFire != game.ReactionFireNormal {
			continue
		}
		if shooter.AttackPoints < 1 || shooter.HasStatus(game.StatusWeaponBroken) {
			continue
		}
		shooterType := e.state.Types().MustGet(shooter.TypeID)
		if shooterType.AttackPoints == 0 {
			continue
		}
		if shooter.Pos.Distance(mover.Pos) > shooterType.AttackRange {
			continue
		}

		ambush := shooter.Hidden
		if ambush {
			showEvt := event.Event{
				Type:     event.TypeShowUnit,
				ShowUnit: &event.ShowUnitEvent{Unit: e.unitInfo(shooter)},
			}
			if err := emit(showEvt, nil); err != nil {
				return err
			}
		}

		attackEvt, effects := e.resolveAttack(shooter, mover, event.FireReactive, ambush)
		if err := emit(attackEvt, effects); err != nil {
			return err
		}
		if !mover.Alive() {
			return nil
		}
	}
	return nil
}
