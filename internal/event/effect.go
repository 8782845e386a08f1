// Package event defines the command, event, and effect vocabulary: the
// authoritative language for every gameplay mutation. Commands are player
// intents and carry no guarantee of legality; events are validated facts;
// effects are timed, per-unit state deltas attached to an event.
package event

import "hexfront/server/internal/game"

// EffectTime schedules when an effect applies and expires.
type EffectTime struct {
	// Forever keeps the effect active for the rest of the match.
	Forever bool `json:"forever,omitempty"`
	// Turns counts remaining turn ends; 0 with Forever unset means the
	// effect applies instantly and is done.
	Turns int `json:"turns,omitempty"`
}

// Instant is the schedule for effects that apply once, immediately.
func Instant() EffectTime {
	return EffectTime{}
}

// Forever is the schedule for permanent effects.
func Forever() EffectTime {
	return EffectTime{Forever: true}
}

// ForTurns schedules an effect to persist for n turn ends.
func ForTurns(n int) EffectTime {
	return EffectTime{Turns: n}
}

// EffectKind enumerates the state deltas an effect can carry.
type EffectKind string

const (
	// EffectAttacked carries casualties and suppression from one attack.
	EffectAttacked EffectKind = "attacked"
	// EffectImmobilized zeroes a vehicle's movement.
	EffectImmobilized EffectKind = "immobilized"
	// EffectWeaponBroken disables a unit's attacks.
	EffectWeaponBroken EffectKind = "weapon_broken"
	// EffectReducedMovement halves a unit's move points while active.
	EffectReducedMovement EffectKind = "reduced_movement"
	// EffectPinned strips the unit's remaining move points this turn.
	EffectPinned EffectKind = "pinned"
	// EffectDestroyed removes the unit, optionally leaving a wreck.
	EffectDestroyed EffectKind = "destroyed"
)

// Effect is one state delta for one unit. Only the fields relevant to the
// kind are populated.
type Effect struct {
	Kind        EffectKind `json:"kind"`
	Casualties  int        `json:"casualties,omitempty"`
	Suppression int        `json:"suppression,omitempty"`
	LeaveWreck  bool       `json:"leaveWreck,omitempty"`
}

// TimedEffect pairs an effect with its schedule. Effects for one unit
// apply strictly in sequence order.
type TimedEffect struct {
	Time   EffectTime `json:"time"`
	Effect Effect     `json:"effect"`
}

// EffectMap attributes ordered effect sequences to affected units.
type EffectMap map[game.UnitID][]TimedEffect
