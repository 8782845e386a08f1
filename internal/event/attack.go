package event

import "hexfront/server/internal/game"

// FireMode distinguishes attacks made on the attacker's own turn from
// reaction fire triggered by enemy movement.
type FireMode string

const (
	FireActive   FireMode = "active"
	FireReactive FireMode = "reactive"
)

// AttackContext is the attacker-facing half of an attack: who fired and
// under what circumstances. These fields are stable; the defender-facing
// consequences travel as timed effects on the CoreEvent instead.
type AttackContext struct {
	// AttackerID is NoUnit for anonymous fire (for example off-map
	// artillery).
	AttackerID game.UnitID `json:"attackerId,omitempty"`
	Mode       FireMode    `json:"mode"`
	IsAmbush   bool        `json:"isAmbush,omitempty"`
	IsIndirect bool        `json:"isIndirect,omitempty"`
}

// AttackInfo is the full attack payload: context plus the defender id and
// the resolved consequences. Casualties, suppression, and wreck handling
// are mirrored into the CoreEvent's effect mapping; they stay here as well
// because renderers and AI consume this shape directly.
type AttackInfo struct {
	Context    AttackContext `json:"context"`
	DefenderID game.UnitID   `json:"defenderId"`

	Casualties  int  `json:"casualties"`
	Suppression int  `json:"suppression"`
	LeaveWreck  bool `json:"leaveWreck"`
}

// NewAttackInfo builds an attack payload. Active fire always carries a
// known attacker; reactive and indirect fire may be anonymous.
func NewAttackInfo(ctx AttackContext, defenderID game.UnitID, casualties, suppression int, leaveWreck bool) AttackInfo {
	if casualties < 0 {
		casualties = 0
	}
	if suppression < 0 {
		suppression = 0
	}
	return AttackInfo{
		Context:     ctx,
		DefenderID:  defenderID,
		Casualties:  casualties,
		Suppression: suppression,
		LeaveWreck:  leaveWreck,
	}
}

// DefenderEffects renders the defender-facing consequences as the ordered
// timed-effect sequence the CoreEvent carries: suppression and casualties
// first, then the destruction check.
func (a AttackInfo) DefenderEffects(destroyed bool) []TimedEffect {
	effects := []TimedEffect{
		{
			Time: Instant(),
			Effect: Effect{
				Kind:        EffectAttacked,
				Casualties:  a.Casualties,
				Suppression: a.Suppression,
				LeaveWreck:  a.LeaveWreck,
			},
		},
	}
	if destroyed {
		effects = append(effects, TimedEffect{
			Time:   Forever(),
			Effect: Effect{Kind: EffectDestroyed, LeaveWreck: a.LeaveWreck},
		})
	}
	return effects
}
