package hexmap

// Terrain classifies a grid cell for movement cost purposes.
type Terrain uint8

const (
	TerrainPlain Terrain = iota
	TerrainTrees
	TerrainBuilding
)

func (t Terrain) String() string {
	switch t {
	case TerrainPlain:
		return "plain"
	case TerrainTrees:
		return "trees"
	case TerrainBuilding:
		return "building"
	default:
		return "unknown"
	}
}

// Index is the read-only view the pathfinder and validator need: terrain
// kind and occupant count per cell, both O(1). Implementations must reflect
// the state at the moment of the query; the pathfinder takes no snapshot.
type Index interface {
	Contains(pos Pos) bool
	TerrainAt(pos Pos) Terrain
	OccupantsAt(pos Pos) int
}

// Grid is the concrete map: a width x height rhombus of axial cells backed
// by flat slices indexed q + r*width. It implements Index.
type Grid struct {
	width     int
	height    int
	terrain   []Terrain
	occupants []int
}

// NewGrid allocates an all-plain grid of the given dimensions.
func NewGrid(width, height int) *Grid {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Grid{
		width:     width,
		height:    height,
		terrain:   make([]Terrain, width*height),
		occupants: make([]int, width*height),
	}
}

// Width reports the grid width in cells.
func (g *Grid) Width() int { return g.width }

// Height reports the grid height in cells.
func (g *Grid) Height() int { return g.height }

// Contains reports whether pos lies inside the grid bounds.
func (g *Grid) Contains(pos Pos) bool {
	return pos.Q >= 0 && pos.R >= 0 && pos.Q < g.width && pos.R < g.height
}

func (g *Grid) index(pos Pos) int {
	return pos.Q + pos.R*g.width
}

// TerrainAt returns the terrain kind at pos. Out-of-bounds positions read
// as plain; callers are expected to guard with Contains.
func (g *Grid) TerrainAt(pos Pos) Terrain {
	if !g.Contains(pos) {
		return TerrainPlain
	}
	return g.terrain[g.index(pos)]
}

// SetTerrain assigns the terrain kind at pos. Out-of-bounds writes are
// ignored.
func (g *Grid) SetTerrain(pos Pos, t Terrain) {
	if !g.Contains(pos) {
		return
	}
	g.terrain[g.index(pos)] = t
}

// OccupantsAt returns the number of units currently standing on pos.
func (g *Grid) OccupantsAt(pos Pos) int {
	if !g.Contains(pos) {
		return 0
	}
	return g.occupants[g.index(pos)]
}

// AddOccupant increments the occupant count at pos.
func (g *Grid) AddOccupant(pos Pos) {
	if !g.Contains(pos) {
		return
	}
	g.occupants[g.index(pos)]++
}

// RemoveOccupant decrements the occupant count at pos, never below zero.
func (g *Grid) RemoveOccupant(pos Pos) {
	if !g.Contains(pos) {
		return
	}
	idx := g.index(pos)
	if g.occupants[idx] > 0 {
		g.occupants[idx]--
	}
}
