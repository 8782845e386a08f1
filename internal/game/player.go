package game

import "hexfront/server/internal/hexmap"

// PlayerID identifies a side in the match.
type PlayerID int

// NoPlayer marks a sector without an owner.
const NoPlayer PlayerID = -1

// Player tracks per-side match progress.
type Player struct {
	ID            PlayerID
	VictoryPoints int
}

// SectorID identifies a scoring sector on the map.
type SectorID int

// Sector is a set of cells that awards victory points to its holder at the
// end of every turn. Ownership flips when exactly one side has units inside.
type Sector struct {
	ID      SectorID
	Cells   []hexmap.Pos
	OwnerID PlayerID
}

// Contains reports whether pos belongs to the sector.
func (s *Sector) Contains(pos hexmap.Pos) bool {
	for _, cell := range s.Cells {
		if cell == pos {
			return true
		}
	}
	return false
}
