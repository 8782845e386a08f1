package event

import (
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
	"hexfront/server/internal/pathfind"
)

// Type enumerates authoritative event kinds: every command intent plus
// engine-derived facts no player issues directly.
type Type string

const (
	TypeMove               Type = "Move"
	TypeEndTurn            Type = "EndTurn"
	TypeCreateUnit         Type = "CreateUnit"
	TypeAttackUnit         Type = "AttackUnit"
	TypeReveal             Type = "Reveal"
	TypeShowUnit           Type = "ShowUnit"
	TypeHideUnit           Type = "HideUnit"
	TypeLoadUnit           Type = "LoadUnit"
	TypeUnloadUnit         Type = "UnloadUnit"
	TypeAttach             Type = "Attach"
	TypeDetach             Type = "Detach"
	TypeSetReactionFire    Type = "SetReactionFireMode"
	TypeSectorOwnerChanged Type = "SectorOwnerChanged"
	TypeVictoryPoint       Type = "VictoryPoint"
	TypeSmoke              Type = "Smoke"
	TypeRemoveSmoke        Type = "RemoveSmoke"
)

// UnitInfo is the snapshot of a unit carried by creation and reveal
// events. It is enough for an observer to materialize the unit without
// consulting authoritative state.
type UnitInfo struct {
	ID           game.UnitID           `json:"id"`
	TypeID       game.UnitTypeID       `json:"typeId"`
	PlayerID     game.PlayerID         `json:"playerId"`
	Pos          hexmap.Pos            `json:"pos"`
	MovePoints   int                   `json:"movePoints"`
	AttackPoints int                   `json:"attackPoints"`
	Count        int                   `json:"count"`
	Morale       int                   `json:"morale"`
	ReactionFire game.ReactionFireMode `json:"reactionFire"`
}

// MoveEvent records one completed step of unit movement.
type MoveEvent struct {
	UnitID game.UnitID       `json:"unitId"`
	From   hexmap.Pos        `json:"from"`
	To     hexmap.Pos        `json:"to"`
	Mode   game.MoveMode     `json:"mode"`
	Cost   pathfind.MoveCost `json:"cost"`
}

// EndTurnEvent records the turn passing between players.
type EndTurnEvent struct {
	OldPlayerID game.PlayerID `json:"oldPlayerId"`
	NewPlayerID game.PlayerID `json:"newPlayerId"`
}

// CreateUnitEvent records a new unit entering play.
type CreateUnitEvent struct {
	Unit UnitInfo `json:"unit"`
}

// AttackUnitEvent records a resolved attack.
type AttackUnitEvent struct {
	Attack AttackInfo `json:"attack"`
}

// RevealEvent records the engine exposing a hidden unit to the moving
// side. Reveal is like ShowUnit but generated directly by the engine.
type RevealEvent struct {
	Unit UnitInfo `json:"unit"`
}

// ShowUnitEvent records a unit becoming visible to an observer.
type ShowUnitEvent struct {
	Unit UnitInfo `json:"unit"`
}

// HideUnitEvent records a unit leaving an observer's sight.
type HideUnitEvent struct {
	UnitID game.UnitID `json:"unitId"`
}

// LoadUnitEvent records a passenger boarding a transporter.
type LoadUnitEvent struct {
	TransporterID game.UnitID `json:"transporterId"`
	PassengerID   game.UnitID `json:"passengerId"`
	From          hexmap.Pos  `json:"from"`
	To            hexmap.Pos  `json:"to"`
}

// UnloadUnitEvent records a passenger leaving a transporter.
type UnloadUnitEvent struct {
	Unit          UnitInfo    `json:"unit"`
	TransporterID game.UnitID `json:"transporterId"`
	From          hexmap.Pos  `json:"from"`
	To            hexmap.Pos  `json:"to"`
}

// AttachEvent records a transporter hooking a towable unit.
type AttachEvent struct {
	TransporterID game.UnitID `json:"transporterId"`
	AttachedID    game.UnitID `json:"attachedId"`
	From          hexmap.Pos  `json:"from"`
	To            hexmap.Pos  `json:"to"`
}

// DetachEvent records a transporter dropping its attached unit.
type DetachEvent struct {
	TransporterID game.UnitID `json:"transporterId"`
	From          hexmap.Pos  `json:"from"`
	To            hexmap.Pos  `json:"to"`
}

// SetReactionFireEvent records a reaction fire mode switch.
type SetReactionFireEvent struct {
	UnitID game.UnitID           `json:"unitId"`
	Mode   game.ReactionFireMode `json:"mode"`
}

// SectorOwnerChangedEvent records a scoring sector changing hands.
type SectorOwnerChangedEvent struct {
	SectorID game.SectorID `json:"sectorId"`
	OwnerID  game.PlayerID `json:"ownerId"`
}

// VictoryPointEvent records points awarded to a player at a position.
type VictoryPointEvent struct {
	PlayerID game.PlayerID `json:"playerId"`
	Pos      hexmap.Pos    `json:"pos"`
	Count    int           `json:"count"`
}

// SmokeEvent records a smoke screen appearing.
type SmokeEvent struct {
	ObjectID game.ObjectID `json:"objectId"`
	Pos      hexmap.Pos    `json:"pos"`
	UnitID   game.UnitID   `json:"unitId,omitempty"`
}

// RemoveSmokeEvent records a smoke screen expiring.
type RemoveSmokeEvent struct {
	ObjectID game.ObjectID `json:"objectId"`
}

// Event is a tagged union over authoritative facts. Exactly one payload
// pointer matching Type is set. Events are self-describing: an applier
// never re-derives legality.
type Event struct {
	Type Type `json:"type"`

	Move               *MoveEvent               `json:"move,omitempty"`
	EndTurn            *EndTurnEvent            `json:"endTurn,omitempty"`
	CreateUnit         *CreateUnitEvent         `json:"createUnit,omitempty"`
	AttackUnit         *AttackUnitEvent         `json:"attackUnit,omitempty"`
	Reveal             *RevealEvent             `json:"reveal,omitempty"`
	ShowUnit           *ShowUnitEvent           `json:"showUnit,omitempty"`
	HideUnit           *HideUnitEvent           `json:"hideUnit,omitempty"`
	LoadUnit           *LoadUnitEvent           `json:"loadUnit,omitempty"`
	UnloadUnit         *UnloadUnitEvent         `json:"unloadUnit,omitempty"`
	Attach             *AttachEvent             `json:"attach,omitempty"`
	Detach             *DetachEvent             `json:"detach,omitempty"`
	SetReactionFire    *SetReactionFireEvent    `json:"setReactionFire,omitempty"`
	SectorOwnerChanged *SectorOwnerChangedEvent `json:"sectorOwnerChanged,omitempty"`
	VictoryPoint       *VictoryPointEvent       `json:"victoryPoint,omitempty"`
	Smoke              *SmokeEvent              `json:"smoke,omitempty"`
	RemoveSmoke        *RemoveSmokeEvent        `json:"removeSmoke,omitempty"`
}

// ReferencedUnits lists every unit id the event's semantics touch, in the
// order the payload names them. The effect-mapping invariant is defined
// against this set.
func (e Event) ReferencedUnits() []game.UnitID {
	switch e.Type {
	case TypeMove:
		if e.Move != nil {
			return []game.UnitID{e.Move.UnitID}
		}
	case TypeEndTurn:
	case TypeCreateUnit:
		if e.CreateUnit != nil {
			return []game.UnitID{e.CreateUnit.Unit.ID}
		}
	case TypeAttackUnit:
		if e.AttackUnit != nil {
			ids := make([]game.UnitID, 0, 2)
			if e.AttackUnit.Attack.Context.AttackerID != game.NoUnit {
				ids = append(ids, e.AttackUnit.Attack.Context.AttackerID)
			}
			ids = append(ids, e.AttackUnit.Attack.DefenderID)
			return ids
		}
	case TypeReveal:
		if e.Reveal != nil {
			return []game.UnitID{e.Reveal.Unit.ID}
		}
	case TypeShowUnit:
		if e.ShowUnit != nil {
			return []game.UnitID{e.ShowUnit.Unit.ID}
		}
	case TypeHideUnit:
		if e.HideUnit != nil {
			return []game.UnitID{e.HideUnit.UnitID}
		}
	case TypeLoadUnit:
		if e.LoadUnit != nil {
			return []game.UnitID{e.LoadUnit.TransporterID, e.LoadUnit.PassengerID}
		}
	case TypeUnloadUnit:
		if e.UnloadUnit != nil {
			return []game.UnitID{e.UnloadUnit.TransporterID, e.UnloadUnit.Unit.ID}
		}
	case TypeAttach:
		if e.Attach != nil {
			return []game.UnitID{e.Attach.TransporterID, e.Attach.AttachedID}
		}
	case TypeDetach:
		if e.Detach != nil {
			return []game.UnitID{e.Detach.TransporterID}
		}
	case TypeSetReactionFire:
		if e.SetReactionFire != nil {
			return []game.UnitID{e.SetReactionFire.UnitID}
		}
	case TypeSectorOwnerChanged, TypeVictoryPoint, TypeRemoveSmoke:
	case TypeSmoke:
		if e.Smoke != nil && e.Smoke.UnitID != game.NoUnit {
			return []game.UnitID{e.Smoke.UnitID}
		}
	}
	return nil
}
