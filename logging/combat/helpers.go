package combat

import (
	"strconv"

	"hexfront/server/logging"
)

const (
	// EventAttackResolved is emitted when an attack's casualties and
	// suppression have been computed.
	EventAttackResolved logging.EventType = "combat.attack_resolved"
	// EventUnitDestroyed is emitted when a unit is removed from play.
	EventUnitDestroyed logging.EventType = "combat.unit_destroyed"
)

// AttackResolvedPayload captures the outcome of one attack.
type AttackResolvedPayload struct {
	Mode        string `json:"mode"`
	Casualties  int    `json:"casualties"`
	Suppression int    `json:"suppression"`
	Ambush      bool   `json:"ambush,omitempty"`
}

// DestroyedPayload describes the removal context.
type DestroyedPayload struct {
	LeaveWreck bool `json:"leaveWreck,omitempty"`
}

// UnitRef builds the entity reference for a unit id.
func UnitRef(id int64) logging.EntityRef {
	return logging.EntityRef{ID: strconv.FormatInt(id, 10), Kind: logging.EntityKindUnit}
}

// AttackResolved publishes the outcome of one attack.
func AttackResolved(pub logging.Publisher, turn int, attacker, defender logging.EntityRef, payload AttackResolvedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(logging.Event{
		Type:     EventAttackResolved,
		Turn:     turn,
		Actor:    attacker,
		Targets:  []logging.EntityRef{defender},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// UnitDestroyed publishes a unit leaving play.
func UnitDestroyed(pub logging.Publisher, turn int, target logging.EntityRef, payload DestroyedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(logging.Event{
		Type:     EventUnitDestroyed,
		Turn:     turn,
		Actor:    target,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}
