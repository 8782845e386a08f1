package game

import "fmt"

// TypeTable is the read-only unit-type lookup. The simulation consults it
// for the cost-model class, movement budgets, and combat stats; it never
// mutates entries after construction.
type TypeTable struct {
	types map[UnitTypeID]UnitType
}

// Built-in unit types. IDs are stable so commands and replay logs can
// reference them across runs.
const (
	TypeRifleSquad UnitTypeID = iota + 1
	TypeScoutCar
	TypeMediumTank
	TypeTransportTruck
	TypeMortarTeam
)

// NewTypeTable returns the default unit-type table.
func NewTypeTable() *TypeTable {
	table := &TypeTable{types: make(map[UnitTypeID]UnitType)}
	for _, unitType := range []UnitType{
		{
			ID:             TypeRifleSquad,
			Name:           "rifle_squad",
			Class:          ClassInfantry,
			MovePoints:     3,
			AttackPoints:   2,
			AttackRange:    3,
			AttackStrength: 2,
			Count:          8,
			SightRange:     4,
		},
		{
			ID:             TypeScoutCar,
			Name:           "scout_car",
			Class:          ClassVehicle,
			MovePoints:     9,
			AttackPoints:   1,
			AttackRange:    4,
			AttackStrength: 2,
			Count:          2,
			SightRange:     6,
		},
		{
			ID:             TypeMediumTank,
			Name:           "medium_tank",
			Class:          ClassVehicle,
			MovePoints:     6,
			AttackPoints:   2,
			AttackRange:    5,
			AttackStrength: 4,
			Count:          3,
			SightRange:     5,
		},
		{
			ID:            TypeTransportTruck,
			Name:          "transport_truck",
			Class:         ClassVehicle,
			MovePoints:    8,
			Count:         2,
			SightRange:    4,
			IsTransporter: true,
		},
		{
			ID:             TypeMortarTeam,
			Name:           "mortar_team",
			Class:          ClassInfantry,
			MovePoints:     2,
			AttackPoints:   1,
			AttackRange:    6,
			AttackStrength: 3,
			Count:          4,
			SightRange:     3,
			CanFireSmoke:   true,
		},
	} {
		table.types[unitType.ID] = unitType
	}
	return table
}

// Get returns the unit type for id.
func (t *TypeTable) Get(id UnitTypeID) (UnitType, error) {
	unitType, ok := t.types[id]
	if !ok {
		return UnitType{}, fmt.Errorf("unknown unit type %d", id)
	}
	return unitType, nil
}

// MustGet returns the unit type for id and panics on a bad id. Intended
// for lookups on units already present in the state, where a missing type
// is a programming fault.
func (t *TypeTable) MustGet(id UnitTypeID) UnitType {
	unitType, err := t.Get(id)
	if err != nil {
		panic(err)
	}
	return unitType
}
