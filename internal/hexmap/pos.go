// Package hexmap provides the hex grid, terrain, and occupancy index the
// simulation runs on. Positions use axial coordinates (q, r); the third
// cube coordinate s is derived as -q-r.
package hexmap

import "fmt"

// Pos is a position on the hex grid in axial coordinates. It is an
// immutable value type; equality is plain struct equality.
type Pos struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (p Pos) S() int {
	return -p.Q - p.R
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Q, p.R)
}

// Distance returns the hex distance between two positions.
func (p Pos) Distance(other Pos) int {
	dq := absInt(p.Q - other.Q)
	dr := absInt(p.R - other.R)
	ds := absInt(p.S() - other.S())
	return (dq + dr + ds) / 2
}

// Dir identifies one of the six hex neighbor directions.
type Dir uint8

const (
	DirEast Dir = iota
	DirNorthEast
	DirNorthWest
	DirWest
	DirSouthWest
	DirSouthEast

	// DirCount is the number of hex directions.
	DirCount = 6
)

// dirOffsets lists the axial offset for each direction, indexed by Dir.
var dirOffsets = [DirCount]Pos{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Opposite returns the direction pointing the other way.
func (d Dir) Opposite() Dir {
	return (d + 3) % DirCount
}

// Neighbor returns the position adjacent to p in direction d.
func (p Pos) Neighbor(d Dir) Pos {
	offset := dirOffsets[d%DirCount]
	return Pos{Q: p.Q + offset.Q, R: p.R + offset.R}
}

// DirTo returns the direction from p to an adjacent position. The second
// return value is false when the positions are not hex-adjacent.
func (p Pos) DirTo(adjacent Pos) (Dir, bool) {
	for d := Dir(0); d < DirCount; d++ {
		if p.Neighbor(d) == adjacent {
			return d, true
		}
	}
	return 0, false
}

// Neighbors returns the six adjacent positions in direction order.
func (p Pos) Neighbors() [DirCount]Pos {
	var out [DirCount]Pos
	for d := Dir(0); d < DirCount; d++ {
		out[d] = p.Neighbor(d)
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
