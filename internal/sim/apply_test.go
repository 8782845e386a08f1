package sim

import (
	"errors"
	"testing"

	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
)

func TestApplyRejectsOrphanEffects(t *testing.T) {
	engine := newTestEngine(t, 4, 4)
	squad := spawn(t, engine, game.TypeRifleSquad, 0, hexmap.Pos{Q: 0, R: 0})
	bystander := spawn(t, engine, game.TypeRifleSquad, 1, hexmap.Pos{Q: 2, R: 2})

	core := event.CoreEvent{
		Event: event.Event{
			Type: event.TypeMove,
			Move: &event.MoveEvent{UnitID: squad.ID, From: hexmap.Pos{Q: 0, R: 0}, To: hexmap.Pos{Q: 1, R: 0}, Cost: 1},
		},
		Effects: event.EffectMap{
			bystander.ID: {{Time: event.Instant(), Effect: event.Effect{Kind: event.EffectAttacked, Casualties: 1}}},
		},
	}
	err := applyCoreEvent(engine.State(), core)
	if !errors.Is(err, event.ErrInvariant) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	if squad.Pos != (hexmap.Pos{Q: 0, R: 0}) {
		t.Fatalf("invalid event moved the unit to %v", squad.Pos)
	}
	if bystander.Count != 8 {
		t.Fatalf("orphan effect was applied: count %d", bystander.Count)
	}
}

func TestApplyMoveFromWrongCellFails(t *testing.T) {
	engine := newTestEngine(t, 4, 4)
	squad := spawn(t, engine, game.TypeRifleSquad, 0, hexmap.Pos{Q: 0, R: 0})

	core := event.CoreEvent{
		Event: event.Event{
			Type: event.TypeMove,
			Move: &event.MoveEvent{UnitID: squad.ID, From: hexmap.Pos{Q: 2, R: 2}, To: hexmap.Pos{Q: 3, R: 2}, Cost: 1},
		},
	}
	if err := applyCoreEvent(engine.State(), core); !errors.Is(err, event.ErrInvariant) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	if squad.Pos != (hexmap.Pos{Q: 0, R: 0}) {
		t.Fatalf("unit moved to %v", squad.Pos)
	}
}

func TestApplyEffectsInSequenceOrder(t *testing.T) {
	engine := newTestEngine(t, 4, 4)
	tank := spawn(t, engine, game.TypeMediumTank, 0, hexmap.Pos{Q: 0, R: 0})
	squad := spawn(t, engine, game.TypeRifleSquad, 1, hexmap.Pos{Q: 1, R: 0})

	info := event.NewAttackInfo(event.AttackContext{AttackerID: tank.ID, Mode: event.FireActive}, squad.ID, 8, 95, false)
	core := event.CoreEvent{
		Event: event.Event{
			Type:       event.TypeAttackUnit,
			AttackUnit: &event.AttackUnitEvent{Attack: info},
		},
		Effects: event.EffectMap{squad.ID: info.DefenderEffects(true)},
	}
	if err := applyCoreEvent(engine.State(), core); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, alive := engine.State().Unit(squad.ID); alive {
		t.Fatalf("destroyed effect did not remove the unit")
	}
	if tank.AttackPoints != 1 {
		t.Fatalf("attack should spend an attack point, got %d", tank.AttackPoints)
	}
}

func TestDestroyedTransporterTakesPassengerAlong(t *testing.T) {
	engine := newTestEngine(t, 4, 4)
	truck := spawn(t, engine, game.TypeTransportTruck, 0, hexmap.Pos{Q: 1, R: 1})
	squad := spawn(t, engine, game.TypeRifleSquad, 0, hexmap.Pos{Q: 2, R: 1})

	if _, err := engine.Execute(event.Command{
		Type:     event.CommandLoadUnit,
		PlayerID: 0,
		LoadUnit: &event.LoadUnitCommand{TransporterID: truck.ID, PassengerID: squad.ID},
	}); err != nil {
		t.Fatalf("load: %v", err)
	}

	destroyUnit(engine.State(), truck)
	if _, alive := engine.State().Unit(truck.ID); alive {
		t.Fatalf("transporter still in state")
	}
	if _, alive := engine.State().Unit(squad.ID); alive {
		t.Fatalf("passenger should die with its transport")
	}
}

func TestTickStatusesExpiresPinAtOwnTurnEnd(t *testing.T) {
	engine := newTestEngine(t, 4, 4)
	squad := spawn(t, engine, game.TypeRifleSquad, 0, hexmap.Pos{Q: 0, R: 0})
	squad.SetStatus(game.StatusPinned, 1)

	if _, err := engine.Execute(event.Command{Type: event.CommandEndTurn, PlayerID: 0}); err != nil {
		t.Fatalf("end turn: %v", err)
	}
	if squad.HasStatus(game.StatusPinned) {
		t.Fatalf("pin should expire when the owner's turn ends")
	}
}

func TestSmokeCountdownAndRemoval(t *testing.T) {
	engine := newTestEngine(t, 4, 4)
	state := engine.State()
	state.AddSmoke(&game.Smoke{ID: state.AllocateObjectID(), Pos: hexmap.Pos{Q: 1, R: 1}, TurnsLeft: 2})

	if _, err := engine.Execute(event.Command{Type: event.CommandEndTurn, PlayerID: 0}); err != nil {
		t.Fatalf("first end turn: %v", err)
	}
	smoke, ok := state.Smoke(1)
	if !ok || smoke.TurnsLeft != 1 {
		t.Fatalf("smoke should tick down to 1, got %+v ok=%v", smoke, ok)
	}

	if _, err := engine.Execute(event.Command{Type: event.CommandEndTurn, PlayerID: 1}); err != nil {
		t.Fatalf("second end turn: %v", err)
	}
	if _, ok := state.Smoke(1); ok {
		t.Fatalf("smoke should be removed on its last turn end")
	}
}
