package sim

import (
	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
)

// sectorVictoryPoints is awarded per held sector at each turn end.
const sectorVictoryPoints = 1

func (e *Engine) handleCreateUnit(cmd event.Command, emit emitFunc) error {
	payload := cmd.CreateUnit
	if payload == nil {
		return reject(RejectInvalidPayload, "create command without payload")
	}
	if e.state.CurrentPlayer() != cmd.PlayerID {
		return reject(RejectNotYourTurn, "player %d acted on player %d's turn", cmd.PlayerID, e.state.CurrentPlayer())
	}
	unitType, err := e.state.Types().Get(payload.TypeID)
	if err != nil {
		return reject(RejectInvalidPayload, "%v", err)
	}
	grid := e.state.Grid()
	if !grid.Contains(payload.Pos) {
		return reject(RejectOutOfBounds, "spawn at %v", payload.Pos)
	}
	if grid.OccupantsAt(payload.Pos) > 0 {
		return reject(RejectOccupied, "spawn at %v", payload.Pos)
	}

	unit := game.NewUnit(e.state.AllocateUnitID(), unitType, cmd.PlayerID, payload.Pos)
	createEvt := event.Event{
		Type:       event.TypeCreateUnit,
		CreateUnit: &event.CreateUnitEvent{Unit: e.unitInfo(unit)},
	}
	return emit(createEvt, nil)
}

// handleEndTurn scores held sectors, expires smoke, and hands the turn
// over. Victory points and smoke removal are emitted before the EndTurn
// event so observers see the old turn close completely.
func (e *Engine) handleEndTurn(cmd event.Command, emit emitFunc) error {
	if cmd.PlayerID != e.state.CurrentPlayer() {
		return reject(RejectNotYourTurn, "player %d acted on player %d's turn", cmd.PlayerID, e.state.CurrentPlayer())
	}
	current := e.state.CurrentPlayer()

	for _, id := range e.state.SectorIDs() {
		sector, ok := e.state.Sector(id)
		if !ok || sector.OwnerID != current || len(sector.Cells) == 0 {
			continue
		}
		pointEvt := event.Event{
			Type: event.TypeVictoryPoint,
			VictoryPoint: &event.VictoryPointEvent{
				PlayerID: current,
				Pos:      sector.Cells[0],
				Count:    sectorVictoryPoints,
			},
		}
		if err := emit(pointEvt, nil); err != nil {
			return err
		}
	}

	for _, id := range e.state.SmokeIDs() {
		smoke, ok := e.state.Smoke(id)
		if !ok || smoke.TurnsLeft > 1 {
			continue
		}
		removeEvt := event.Event{
			Type:        event.TypeRemoveSmoke,
			RemoveSmoke: &event.RemoveSmokeEvent{ObjectID: smoke.ID},
		}
		if err := emit(removeEvt, nil); err != nil {
			return err
		}
	}

	next := e.nextPlayer(current)
	endEvt := event.Event{
		Type:    event.TypeEndTurn,
		EndTurn: &event.EndTurnEvent{OldPlayerID: current, NewPlayerID: next},
	}
	return emit(endEvt, nil)
}

func (e *Engine) nextPlayer(current game.PlayerID) game.PlayerID {
	players := e.state.Players()
	for i, p := range players {
		if p.ID == current {
			return players[(i+1)%len(players)].ID
		}
	}
	if len(players) > 0 {
		return players[0].ID
	}
	return current
}
