package game

import (
	"testing"

	"hexfront/server/internal/hexmap"
)

func newStateWithUnit(t *testing.T) (*State, *Unit) {
	t.Helper()
	grid := hexmap.NewGrid(6, 6)
	state := NewState(grid, NewTypeTable(), []Player{{ID: 0}, {ID: 1}})
	unit := NewUnit(state.AllocateUnitID(), state.Types().MustGet(TypeRifleSquad), 0, hexmap.Pos{Q: 1, R: 1})
	if err := state.AddUnit(unit); err != nil {
		t.Fatalf("AddUnit: %v", err)
	}
	return state, unit
}

func TestPlaceUnitMovesOccupancy(t *testing.T) {
	state, unit := newStateWithUnit(t)
	grid := state.Grid()

	if err := state.PlaceUnit(unit.ID, hexmap.Pos{Q: 2, R: 1}); err != nil {
		t.Fatalf("PlaceUnit: %v", err)
	}
	if grid.OccupantsAt(hexmap.Pos{Q: 1, R: 1}) != 0 {
		t.Fatalf("origin still occupied")
	}
	if grid.OccupantsAt(hexmap.Pos{Q: 2, R: 1}) != 1 {
		t.Fatalf("destination not occupied")
	}
	if unit.Pos != (hexmap.Pos{Q: 2, R: 1}) {
		t.Fatalf("unit position %v", unit.Pos)
	}
}

func TestBoardAndDisembarkToggleOccupancy(t *testing.T) {
	state, unit := newStateWithUnit(t)
	grid := state.Grid()

	state.BoardUnit(unit.ID)
	if !unit.InTransport {
		t.Fatalf("unit not marked loaded")
	}
	if grid.OccupantsAt(hexmap.Pos{Q: 1, R: 1}) != 0 {
		t.Fatalf("loaded unit still counted as occupant")
	}

	// Loaded units follow the transporter without touching the index.
	if err := state.PlaceUnit(unit.ID, hexmap.Pos{Q: 3, R: 3}); err != nil {
		t.Fatalf("PlaceUnit while loaded: %v", err)
	}
	if grid.OccupantsAt(hexmap.Pos{Q: 3, R: 3}) != 0 {
		t.Fatalf("loaded unit added occupancy")
	}

	state.DisembarkUnit(unit.ID, hexmap.Pos{Q: 4, R: 3})
	if unit.InTransport {
		t.Fatalf("unit still marked loaded")
	}
	if grid.OccupantsAt(hexmap.Pos{Q: 4, R: 3}) != 1 {
		t.Fatalf("disembarked unit missing from index")
	}
}

func TestRemoveUnitReleasesOccupancy(t *testing.T) {
	state, unit := newStateWithUnit(t)

	state.RemoveUnit(unit.ID)
	if _, ok := state.Unit(unit.ID); ok {
		t.Fatalf("unit still present")
	}
	if state.Grid().OccupantsAt(hexmap.Pos{Q: 1, R: 1}) != 0 {
		t.Fatalf("removed unit still counted")
	}
}

func TestAdvanceTurnWrapsAndIncrementsCounter(t *testing.T) {
	grid := hexmap.NewGrid(4, 4)
	state := NewState(grid, NewTypeTable(), []Player{{ID: 0}, {ID: 1}})

	if state.Turn() != 1 || state.CurrentPlayer() != 0 {
		t.Fatalf("initial turn=%d current=%d", state.Turn(), state.CurrentPlayer())
	}
	if next := state.AdvanceTurn(); next != 1 {
		t.Fatalf("expected player 1, got %d", next)
	}
	if state.Turn() != 1 {
		t.Fatalf("turn advanced early: %d", state.Turn())
	}
	if next := state.AdvanceTurn(); next != 0 {
		t.Fatalf("expected wrap to player 0, got %d", next)
	}
	if state.Turn() != 2 {
		t.Fatalf("turn counter %d after wrap", state.Turn())
	}
}
