// Package pathfind computes reachable cells and shortest paths for a unit
// on the hex grid, under per-class terrain costs, occupancy blocking, and
// the unit's remaining movement budget.
package pathfind

import (
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
)

// MoveCost is a non-negative movement cost, additive along a path.
type MoveCost int

// CostUnreachable is the sentinel recorded for cells the fill never
// reached. Any real path through a bounded tactical map costs far less.
const CostUnreachable MoveCost = 30000

// TileCost returns the cost of entering a cell of the given terrain for a
// unit class. Cost is a property of the tile entered, not of the edge, so
// traversal costs are asymmetric between neighboring cells.
func TileCost(class game.Class, terrain hexmap.Terrain) MoveCost {
	switch class {
	case game.ClassInfantry:
		switch terrain {
		case hexmap.TerrainPlain:
			return 1
		case hexmap.TerrainTrees:
			return 2
		case hexmap.TerrainBuilding:
			return 2
		}
	case game.ClassVehicle:
		switch terrain {
		case hexmap.TerrainPlain:
			return 1
		case hexmap.TerrainTrees:
			return 5
		case hexmap.TerrainBuilding:
			return 10
		}
	}
	return 1
}
