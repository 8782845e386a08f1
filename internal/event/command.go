package event

import (
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
)

// CommandType enumerates the supported player intents.
type CommandType string

const (
	CommandMove            CommandType = "Move"
	CommandEndTurn         CommandType = "EndTurn"
	CommandCreateUnit      CommandType = "CreateUnit"
	CommandAttackUnit      CommandType = "AttackUnit"
	CommandLoadUnit        CommandType = "LoadUnit"
	CommandUnloadUnit      CommandType = "UnloadUnit"
	CommandAttach          CommandType = "Attach"
	CommandDetach          CommandType = "Detach"
	CommandSetReactionFire CommandType = "SetReactionFireMode"
	CommandSmoke           CommandType = "Smoke"
)

// MoveCommand asks to move a unit along an explicit path of adjacent cells,
// origin included. The zero Mode is fast movement.
type MoveCommand struct {
	UnitID game.UnitID   `json:"unitId"`
	Path   []hexmap.Pos  `json:"path"`
	Mode   game.MoveMode `json:"mode"`
}

// CreateUnitCommand asks to place a new unit of a type at a position.
type CreateUnitCommand struct {
	Pos    hexmap.Pos      `json:"pos"`
	TypeID game.UnitTypeID `json:"typeId"`
}

// AttackUnitCommand asks one unit to fire at another.
type AttackUnitCommand struct {
	AttackerID game.UnitID `json:"attackerId"`
	DefenderID game.UnitID `json:"defenderId"`
}

// LoadUnitCommand asks a transporter to load an adjacent passenger.
type LoadUnitCommand struct {
	TransporterID game.UnitID `json:"transporterId"`
	PassengerID   game.UnitID `json:"passengerId"`
}

// UnloadUnitCommand asks a transporter to unload its passenger at a cell.
type UnloadUnitCommand struct {
	TransporterID game.UnitID `json:"transporterId"`
	PassengerID   game.UnitID `json:"passengerId"`
	Pos           hexmap.Pos  `json:"pos"`
}

// AttachCommand asks a transporter to hook an adjacent towable unit.
type AttachCommand struct {
	TransporterID game.UnitID `json:"transporterId"`
	AttachedID    game.UnitID `json:"attachedId"`
}

// DetachCommand asks a transporter to drop its attached unit at a cell.
type DetachCommand struct {
	TransporterID game.UnitID `json:"transporterId"`
	Pos           hexmap.Pos  `json:"pos"`
}

// SetReactionFireCommand switches a unit's reaction fire mode.
type SetReactionFireCommand struct {
	UnitID game.UnitID           `json:"unitId"`
	Mode   game.ReactionFireMode `json:"mode"`
}

// SmokeCommand asks a unit to fire a smoke screen onto a cell.
type SmokeCommand struct {
	UnitID game.UnitID `json:"unitId"`
	Pos    hexmap.Pos  `json:"pos"`
}

// Command is a tagged union over player intents. Exactly one payload
// pointer matching Type is set; EndTurn carries none. Commands are
// proposals: they never mutate state and are not assumed valid.
type Command struct {
	Type     CommandType   `json:"type"`
	PlayerID game.PlayerID `json:"playerId"`

	Move            *MoveCommand            `json:"move,omitempty"`
	CreateUnit      *CreateUnitCommand      `json:"createUnit,omitempty"`
	AttackUnit      *AttackUnitCommand      `json:"attackUnit,omitempty"`
	LoadUnit        *LoadUnitCommand        `json:"loadUnit,omitempty"`
	UnloadUnit      *UnloadUnitCommand      `json:"unloadUnit,omitempty"`
	Attach          *AttachCommand          `json:"attach,omitempty"`
	Detach          *DetachCommand          `json:"detach,omitempty"`
	SetReactionFire *SetReactionFireCommand `json:"setReactionFire,omitempty"`
	Smoke           *SmokeCommand           `json:"smoke,omitempty"`
}
