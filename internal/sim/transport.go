package sim

import (
	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
)

func (e *Engine) handleLoadUnit(cmd event.Command, emit emitFunc) error {
	payload := cmd.LoadUnit
	if payload == nil {
		return reject(RejectInvalidPayload, "load command without payload")
	}
	transporter, err := e.currentUnit(cmd.PlayerID, payload.TransporterID)
	if err != nil {
		return err
	}
	transporterType := e.state.Types().MustGet(transporter.TypeID)
	if !transporterType.IsTransporter {
		return reject(RejectNotTransporter, "type %s", transporterType.Name)
	}
	if transporter.PassengerID != game.NoUnit {
		return reject(RejectTransporterBusy, "transporter %d already carries unit %d", transporter.ID, transporter.PassengerID)
	}
	passenger, ok := e.state.Unit(payload.PassengerID)
	if !ok {
		return reject(RejectUnknownUnit, "passenger %d", payload.PassengerID)
	}
	if passenger.PlayerID != cmd.PlayerID {
		return reject(RejectNotYourUnit, "passenger %d", passenger.ID)
	}
	if passenger.InTransport {
		return reject(RejectInvalidPayload, "passenger %d is already loaded", passenger.ID)
	}
	passengerType := e.state.Types().MustGet(passenger.TypeID)
	if passengerType.Class != game.ClassInfantry {
		return reject(RejectInvalidPayload, "only infantry can be loaded, %s is %s", passengerType.Name, passengerType.Class)
	}
	if transporter.Pos.Distance(passenger.Pos) != 1 {
		return reject(RejectNotAdjacent, "transporter at %v, passenger at %v", transporter.Pos, passenger.Pos)
	}

	loadEvt := event.Event{
		Type: event.TypeLoadUnit,
		LoadUnit: &event.LoadUnitEvent{
			TransporterID: transporter.ID,
			PassengerID:   passenger.ID,
			From:          passenger.Pos,
			To:            transporter.Pos,
		},
	}
	if err := emit(loadEvt, nil); err != nil {
		return err
	}
	hideEvt := event.Event{
		Type:     event.TypeHideUnit,
		HideUnit: &event.HideUnitEvent{UnitID: passenger.ID},
	}
	return emit(hideEvt, nil)
}

func (e *Engine) handleUnloadUnit(cmd event.Command, emit emitFunc) error {
	payload := cmd.UnloadUnit
	if payload == nil {
		return reject(RejectInvalidPayload, "unload command without payload")
	}
	transporter, err := e.currentUnit(cmd.PlayerID, payload.TransporterID)
	if err != nil {
		return err
	}
	if transporter.PassengerID == game.NoUnit || transporter.PassengerID != payload.PassengerID {
		return reject(RejectNothingLoaded, "transporter %d does not carry unit %d", transporter.ID, payload.PassengerID)
	}
	passenger, ok := e.state.Unit(payload.PassengerID)
	if !ok {
		return reject(RejectUnknownUnit, "passenger %d", payload.PassengerID)
	}
	grid := e.state.Grid()
	if !grid.Contains(payload.Pos) {
		return reject(RejectOutOfBounds, "unload target %v", payload.Pos)
	}
	if transporter.Pos.Distance(payload.Pos) != 1 {
		return reject(RejectNotAdjacent, "unload target %v is not next to %v", payload.Pos, transporter.Pos)
	}
	if grid.OccupantsAt(payload.Pos) > 0 {
		return reject(RejectOccupied, "unload target %v", payload.Pos)
	}

	info := e.unitInfo(passenger)
	info.Pos = payload.Pos
	info.MovePoints = 0
	unloadEvt := event.Event{
		Type: event.TypeUnloadUnit,
		UnloadUnit: &event.UnloadUnitEvent{
			Unit:          info,
			TransporterID: transporter.ID,
			From:          transporter.Pos,
			To:            payload.Pos,
		},
	}
	return emit(unloadEvt, nil)
}

func (e *Engine) handleAttach(cmd event.Command, emit emitFunc) error {
	payload := cmd.Attach
	if payload == nil {
		return reject(RejectInvalidPayload, "attach command without payload")
	}
	transporter, err := e.currentUnit(cmd.PlayerID, payload.TransporterID)
	if err != nil {
		return err
	}
	transporterType := e.state.Types().MustGet(transporter.TypeID)
	if !transporterType.IsTransporter {
		return reject(RejectNotTransporter, "type %s", transporterType.Name)
	}
	if transporter.AttachedID != game.NoUnit || transporter.PassengerID != game.NoUnit {
		return reject(RejectTransporterBusy, "transporter %d", transporter.ID)
	}
	target, ok := e.state.Unit(payload.AttachedID)
	if !ok {
		return reject(RejectUnknownUnit, "unit %d", payload.AttachedID)
	}
	if target.PlayerID != cmd.PlayerID {
		return reject(RejectNotYourUnit, "unit %d", target.ID)
	}
	targetType := e.state.Types().MustGet(target.TypeID)
	if targetType.IsTransporter {
		return reject(RejectInvalidPayload, "cannot tow another transporter")
	}
	if transporter.Pos.Distance(target.Pos) != 1 {
		return reject(RejectNotAdjacent, "transporter at %v, unit at %v", transporter.Pos, target.Pos)
	}
	if transporter.MovePoints < 1 {
		return reject(RejectNoMovePoints, "transporter %d", transporter.ID)
	}

	attachEvt := event.Event{
		Type: event.TypeAttach,
		Attach: &event.AttachEvent{
			TransporterID: transporter.ID,
			AttachedID:    target.ID,
			From:          transporter.Pos,
			To:            target.Pos,
		},
	}
	return emit(attachEvt, nil)
}

func (e *Engine) handleDetach(cmd event.Command, emit emitFunc) error {
	payload := cmd.Detach
	if payload == nil {
		return reject(RejectInvalidPayload, "detach command without payload")
	}
	transporter, err := e.currentUnit(cmd.PlayerID, payload.TransporterID)
	if err != nil {
		return err
	}
	if transporter.AttachedID == game.NoUnit {
		return reject(RejectNothingLoaded, "transporter %d tows nothing", transporter.ID)
	}
	grid := e.state.Grid()
	if !grid.Contains(payload.Pos) {
		return reject(RejectOutOfBounds, "detach target %v", payload.Pos)
	}
	if transporter.Pos.Distance(payload.Pos) != 1 {
		return reject(RejectNotAdjacent, "detach target %v is not next to %v", payload.Pos, transporter.Pos)
	}
	if grid.OccupantsAt(payload.Pos) > 0 {
		return reject(RejectOccupied, "detach target %v", payload.Pos)
	}
	if transporter.MovePoints < 1 {
		return reject(RejectNoMovePoints, "transporter %d", transporter.ID)
	}

	detachEvt := event.Event{
		Type: event.TypeDetach,
		Detach: &event.DetachEvent{
			TransporterID: transporter.ID,
			From:          transporter.Pos,
			To:            payload.Pos,
		},
	}
	return emit(detachEvt, nil)
}
