package app

import (
	"testing"

	"hexfront/server/internal/config"
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
)

func TestBuildStateIsDeterministic(t *testing.T) {
	cfg := config.GameConfig{GridWidth: 10, GridHeight: 12, Players: 2, CommandCapacity: 16}

	first := buildState(cfg)
	second := buildState(cfg)

	grid := first.Grid()
	for r := 0; r < cfg.GridHeight; r++ {
		for q := 0; q < cfg.GridWidth; q++ {
			pos := hexmap.Pos{Q: q, R: r}
			if grid.TerrainAt(pos) != second.Grid().TerrainAt(pos) {
				t.Fatalf("terrain differs at %v", pos)
			}
		}
	}
}

func TestBuildStateSeedsPlayersAndSector(t *testing.T) {
	cfg := config.GameConfig{GridWidth: 10, GridHeight: 12, Players: 2, CommandCapacity: 16}
	state := buildState(cfg)

	if len(state.Players()) != 2 {
		t.Fatalf("expected 2 players, got %d", len(state.Players()))
	}
	if state.CurrentPlayer() != 0 {
		t.Fatalf("expected player 0 to start, got %d", state.CurrentPlayer())
	}

	ids := state.SectorIDs()
	if len(ids) != 1 {
		t.Fatalf("expected 1 sector, got %d", len(ids))
	}
	sector, ok := state.Sector(ids[0])
	if !ok {
		t.Fatalf("sector lookup failed")
	}
	if sector.OwnerID != game.NoPlayer {
		t.Fatalf("sector should start neutral, owner %d", sector.OwnerID)
	}
	if len(sector.Cells) < 1 {
		t.Fatalf("sector has no cells")
	}
	for _, cell := range sector.Cells {
		if !state.Grid().Contains(cell) {
			t.Fatalf("sector cell %v out of bounds", cell)
		}
	}
}
