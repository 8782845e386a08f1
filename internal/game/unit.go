// Package game holds the authoritative wargame state: units, players,
// sectors, and smoke screens, plus the read-only unit-type table consumed
// by movement and combat resolution.
package game

import "hexfront/server/internal/hexmap"

// UnitID identifies a unit for the lifetime of a match.
type UnitID int64

// UnitTypeID indexes the unit-type table.
type UnitTypeID int

// Class selects which terrain cost table applies to a unit.
type Class uint8

const (
	ClassInfantry Class = iota
	ClassVehicle
)

func (c Class) String() string {
	switch c {
	case ClassInfantry:
		return "infantry"
	case ClassVehicle:
		return "vehicle"
	default:
		return "unknown"
	}
}

// ReactionFireMode gates combat triggered outside a unit's own turn.
type ReactionFireMode uint8

const (
	ReactionFireNormal ReactionFireMode = iota
	ReactionFireHold
)

func (m ReactionFireMode) String() string {
	switch m {
	case ReactionFireNormal:
		return "normal"
	case ReactionFireHold:
		return "hold_fire"
	default:
		return "unknown"
	}
}

// MoveMode selects how cautiously a unit travels. Fast movement spends
// the listed tile costs; hunting doubles them and halts the unit as soon
// as a step exposes a hidden enemy.
type MoveMode uint8

const (
	MoveModeFast MoveMode = iota
	MoveModeHunt
)

func (m MoveMode) String() string {
	switch m {
	case MoveModeFast:
		return "fast"
	case MoveModeHunt:
		return "hunt"
	default:
		return "unknown"
	}
}

// UnitType is a read-only stat block shared by all units of a type.
type UnitType struct {
	ID             UnitTypeID
	Name           string
	Class          Class
	MovePoints     int
	AttackPoints   int
	AttackRange    int
	AttackStrength int
	Count          int
	SightRange     int
	IsTransporter  bool
	CanFireSmoke   bool
}

// Unit is a mutable simulation entity. Position, remaining move and attack
// points, morale, and passenger links all change as events apply.
type Unit struct {
	ID           UnitID
	TypeID       UnitTypeID
	PlayerID     PlayerID
	Pos          hexmap.Pos
	MovePoints   int
	AttackPoints int
	Count        int
	Morale       int
	ReactionFire ReactionFireMode
	PassengerID  UnitID
	AttachedID   UnitID
	InTransport  bool
	Hidden       bool

	// Statuses maps an active status key to its remaining turn ends;
	// StatusForever marks permanent statuses. Decremented by end-of-turn
	// processing.
	Statuses map[string]int
}

// Persistent status keys. The event applier translates timed effects into
// these; movement and combat validation read them.
const (
	StatusPinned          = "pinned"
	StatusImmobilized     = "immobilized"
	StatusWeaponBroken    = "weapon_broken"
	StatusReducedMovement = "reduced_movement"
)

// StatusForever marks a status with no expiry.
const StatusForever = -1

// NoUnit is the zero UnitID; passenger and attachment links use it to mean
// "none".
const NoUnit UnitID = 0

// FullMorale is the morale value units start and recover toward.
const FullMorale = 100

// NewUnit builds a fresh unit of the given type at full strength.
func NewUnit(id UnitID, unitType UnitType, playerID PlayerID, pos hexmap.Pos) *Unit {
	return &Unit{
		ID:           id,
		TypeID:       unitType.ID,
		PlayerID:     playerID,
		Pos:          pos,
		MovePoints:   unitType.MovePoints,
		AttackPoints: unitType.AttackPoints,
		Count:        unitType.Count,
		Morale:       FullMorale,
		ReactionFire: ReactionFireNormal,
		Statuses:     make(map[string]int),
	}
}

// Alive reports whether the unit still has soldiers or crew.
func (u *Unit) Alive() bool {
	return u != nil && u.Count > 0
}

// HasStatus reports whether the status key is active.
func (u *Unit) HasStatus(key string) bool {
	if u == nil || u.Statuses == nil {
		return false
	}
	_, ok := u.Statuses[key]
	return ok
}

// SetStatus activates a status for the given number of turn ends, or
// permanently for StatusForever.
func (u *Unit) SetStatus(key string, turns int) {
	if u.Statuses == nil {
		u.Statuses = make(map[string]int)
	}
	u.Statuses[key] = turns
}

// TickStatuses decrements every finite status and drops the expired ones.
func (u *Unit) TickStatuses() {
	for key, turns := range u.Statuses {
		if turns == StatusForever {
			continue
		}
		turns--
		if turns <= 0 {
			delete(u.Statuses, key)
			continue
		}
		u.Statuses[key] = turns
	}
}
