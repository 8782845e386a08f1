package game

import (
	"fmt"
	"sort"

	"hexfront/server/internal/hexmap"
)

// ObjectID identifies a non-unit map object such as a smoke screen.
type ObjectID int64

// Smoke is a temporary screen on a cell. It expires after a fixed number
// of turn ends.
type Smoke struct {
	ID        ObjectID
	Pos       hexmap.Pos
	UnitID    UnitID
	TurnsLeft int
}

// State is the authoritative game state. It owns the grid occupancy index
// and keeps it consistent with unit positions; all mutation goes through
// the event applier, never directly from command handlers.
type State struct {
	grid    *hexmap.Grid
	types   *TypeTable
	units   map[UnitID]*Unit
	players []Player
	sectors map[SectorID]*Sector
	smoke   map[ObjectID]*Smoke

	current    PlayerID
	turn       int
	nextUnit   UnitID
	nextObject ObjectID
}

// NewState builds an empty state over the provided grid for the given
// players. The first player in the slice moves first.
func NewState(grid *hexmap.Grid, types *TypeTable, players []Player) *State {
	state := &State{
		grid:    grid,
		types:   types,
		units:   make(map[UnitID]*Unit),
		players: append([]Player(nil), players...),
		sectors: make(map[SectorID]*Sector),
		smoke:   make(map[ObjectID]*Smoke),
		turn:    1,
	}
	if len(state.players) > 0 {
		state.current = state.players[0].ID
	}
	return state
}

// Grid exposes the terrain and occupancy index.
func (s *State) Grid() *hexmap.Grid { return s.grid }

// Types exposes the read-only unit-type table.
func (s *State) Types() *TypeTable { return s.types }

// CurrentPlayer reports whose turn it is.
func (s *State) CurrentPlayer() PlayerID { return s.current }

// Turn reports the current turn number, starting at 1.
func (s *State) Turn() int { return s.turn }

// AdvanceTurn hands the turn to the next player in order and returns their
// id. The turn counter increments when play wraps back to the first player.
func (s *State) AdvanceTurn() PlayerID {
	if len(s.players) == 0 {
		return s.current
	}
	idx := 0
	for i, p := range s.players {
		if p.ID == s.current {
			idx = i
			break
		}
	}
	next := (idx + 1) % len(s.players)
	if next == 0 {
		s.turn++
	}
	s.current = s.players[next].ID
	return s.current
}

// Player returns a pointer to the player record for id.
func (s *State) Player(id PlayerID) (*Player, bool) {
	for i := range s.players {
		if s.players[i].ID == id {
			return &s.players[i], true
		}
	}
	return nil, false
}

// Players returns the players in turn order.
func (s *State) Players() []Player {
	return append([]Player(nil), s.players...)
}

// AllocateUnitID reserves the next unit id.
func (s *State) AllocateUnitID() UnitID {
	s.nextUnit++
	return s.nextUnit
}

// AllocateObjectID reserves the next object id.
func (s *State) AllocateObjectID() ObjectID {
	s.nextObject++
	return s.nextObject
}

// Unit returns the unit with the given id.
func (s *State) Unit(id UnitID) (*Unit, bool) {
	unit, ok := s.units[id]
	return unit, ok
}

// UnitIDs returns all unit ids in ascending order. Deterministic iteration
// order keeps command translation reproducible.
func (s *State) UnitIDs() []UnitID {
	ids := make([]UnitID, 0, len(s.units))
	for id := range s.units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UnitsAt returns the units standing on pos, in ascending id order.
func (s *State) UnitsAt(pos hexmap.Pos) []*Unit {
	var found []*Unit
	for _, id := range s.UnitIDs() {
		unit := s.units[id]
		if unit.Pos == pos && !unit.InTransport {
			found = append(found, unit)
		}
	}
	return found
}

// AddUnit inserts a unit and registers its grid occupancy.
func (s *State) AddUnit(unit *Unit) error {
	if unit == nil {
		return fmt.Errorf("nil unit")
	}
	if _, exists := s.units[unit.ID]; exists {
		return fmt.Errorf("unit %d already exists", unit.ID)
	}
	if !s.grid.Contains(unit.Pos) {
		return fmt.Errorf("unit %d position %v out of bounds", unit.ID, unit.Pos)
	}
	s.units[unit.ID] = unit
	if !unit.InTransport {
		s.grid.AddOccupant(unit.Pos)
	}
	if unit.ID > s.nextUnit {
		s.nextUnit = unit.ID
	}
	return nil
}

// RemoveUnit deletes a unit and releases its grid occupancy.
func (s *State) RemoveUnit(id UnitID) {
	unit, ok := s.units[id]
	if !ok {
		return
	}
	if !unit.InTransport {
		s.grid.RemoveOccupant(unit.Pos)
	}
	delete(s.units, id)
}

// PlaceUnit moves a unit to pos, updating the occupancy index.
func (s *State) PlaceUnit(id UnitID, pos hexmap.Pos) error {
	unit, ok := s.units[id]
	if !ok {
		return fmt.Errorf("unknown unit %d", id)
	}
	if !s.grid.Contains(pos) {
		return fmt.Errorf("position %v out of bounds", pos)
	}
	if !unit.InTransport {
		s.grid.RemoveOccupant(unit.Pos)
		s.grid.AddOccupant(pos)
	}
	unit.Pos = pos
	return nil
}

// BoardUnit marks a unit as loaded into a transport: it leaves the
// occupancy index until unloaded.
func (s *State) BoardUnit(id UnitID) {
	unit, ok := s.units[id]
	if !ok || unit.InTransport {
		return
	}
	s.grid.RemoveOccupant(unit.Pos)
	unit.InTransport = true
}

// DisembarkUnit places a loaded unit back on the map at pos.
func (s *State) DisembarkUnit(id UnitID, pos hexmap.Pos) {
	unit, ok := s.units[id]
	if !ok || !unit.InTransport {
		return
	}
	unit.InTransport = false
	unit.Pos = pos
	s.grid.AddOccupant(pos)
}

// AddSector registers a scoring sector.
func (s *State) AddSector(sector *Sector) {
	if sector == nil {
		return
	}
	s.sectors[sector.ID] = sector
}

// Sector returns the sector with the given id.
func (s *State) Sector(id SectorID) (*Sector, bool) {
	sector, ok := s.sectors[id]
	return sector, ok
}

// SectorIDs returns all sector ids in ascending order.
func (s *State) SectorIDs() []SectorID {
	ids := make([]SectorID, 0, len(s.sectors))
	for id := range s.sectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AddSmoke registers a smoke screen.
func (s *State) AddSmoke(smoke *Smoke) {
	if smoke == nil {
		return
	}
	s.smoke[smoke.ID] = smoke
	if smoke.ID > s.nextObject {
		s.nextObject = smoke.ID
	}
}

// RemoveSmoke deletes a smoke screen.
func (s *State) RemoveSmoke(id ObjectID) {
	delete(s.smoke, id)
}

// Smoke returns the smoke screen with the given id.
func (s *State) Smoke(id ObjectID) (*Smoke, bool) {
	smoke, ok := s.smoke[id]
	return smoke, ok
}

// SmokeIDs returns all smoke object ids in ascending order.
func (s *State) SmokeIDs() []ObjectID {
	ids := make([]ObjectID, 0, len(s.smoke))
	for id := range s.smoke {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SmokeAt reports whether any smoke screen covers pos.
func (s *State) SmokeAt(pos hexmap.Pos) bool {
	for _, smoke := range s.smoke {
		if smoke.Pos == pos {
			return true
		}
	}
	return false
}
