package proto

import (
	"testing"

	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
)

func TestBuildSnapshotCapturesStateShape(t *testing.T) {
	grid := hexmap.NewGrid(4, 3)
	grid.SetTerrain(hexmap.Pos{Q: 1, R: 1}, hexmap.TerrainTrees)
	state := game.NewState(grid, game.NewTypeTable(), []game.Player{{ID: 0}, {ID: 1, VictoryPoints: 2}})

	unit := game.NewUnit(state.AllocateUnitID(), state.Types().MustGet(game.TypeMediumTank), 1, hexmap.Pos{Q: 2, R: 0})
	if err := state.AddUnit(unit); err != nil {
		t.Fatalf("AddUnit: %v", err)
	}
	state.AddSector(&game.Sector{ID: 1, Cells: []hexmap.Pos{{Q: 0, R: 0}, {Q: 1, R: 0}}, OwnerID: game.NoPlayer})
	state.AddSmoke(&game.Smoke{ID: state.AllocateObjectID(), Pos: hexmap.Pos{Q: 3, R: 2}, TurnsLeft: 2})

	snapshot := BuildSnapshot(state, 42)

	if snapshot.Type != ServerTypeSnapshot || snapshot.Ver != ProtocolVersion {
		t.Fatalf("envelope %q ver %d", snapshot.Type, snapshot.Ver)
	}
	if snapshot.LastSeq != 42 {
		t.Fatalf("last seq %d", snapshot.LastSeq)
	}
	if len(snapshot.Grid.Terrain) != 12 {
		t.Fatalf("expected 12 terrain cells, got %d", len(snapshot.Grid.Terrain))
	}
	// Row-major: (1,1) sits at index 1 + 1*4.
	if snapshot.Grid.Terrain[5] != Terrain(hexmap.TerrainTrees) {
		t.Fatalf("terrain at index 5 = %d", snapshot.Grid.Terrain[5])
	}
	if len(snapshot.Units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(snapshot.Units))
	}
	got := snapshot.Units[0]
	if got.ID != unit.ID || got.TypeID != game.TypeMediumTank || got.Pos != (hexmap.Pos{Q: 2, R: 0}) {
		t.Fatalf("unit snapshot %+v", got)
	}
	if len(snapshot.Sectors) != 1 || len(snapshot.Sectors[0].Cells) != 2 {
		t.Fatalf("sectors %+v", snapshot.Sectors)
	}
	if len(snapshot.Players) != 2 || snapshot.Players[1].VictoryPoints != 2 {
		t.Fatalf("players %+v", snapshot.Players)
	}
	if len(snapshot.Smoke) != 1 || snapshot.Smoke[0].TurnsLeft != 2 {
		t.Fatalf("smoke %+v", snapshot.Smoke)
	}
}

func TestValidCommandRequiresMatchingPayload(t *testing.T) {
	cases := []struct {
		name string
		msg  ClientMessage
		want bool
	}{
		{"nil command", ClientMessage{Type: ClientTypeCommand}, false},
		{"end turn needs no payload", ClientMessage{Command: &event.Command{Type: event.CommandEndTurn}}, true},
		{"move with payload", ClientMessage{Command: &event.Command{
			Type: event.CommandMove,
			Move: &event.MoveCommand{UnitID: 1, Path: []hexmap.Pos{{Q: 0, R: 0}}},
		}}, true},
		{"move without payload", ClientMessage{Command: &event.Command{Type: event.CommandMove}}, false},
		{"attack without payload", ClientMessage{Command: &event.Command{Type: event.CommandAttackUnit}}, false},
		{"unknown type", ClientMessage{Command: &event.Command{Type: "Teleport"}}, false},
		{"smoke with payload", ClientMessage{Command: &event.Command{
			Type:  event.CommandSmoke,
			Smoke: &event.SmokeCommand{UnitID: 1, Pos: hexmap.Pos{Q: 1, R: 1}},
		}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.msg.ValidCommand(); got != tc.want {
				t.Fatalf("ValidCommand = %v, want %v", got, tc.want)
			}
		})
	}
}
