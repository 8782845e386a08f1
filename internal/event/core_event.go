package event

import (
	"errors"
	"fmt"

	"hexfront/server/internal/game"
)

// ErrInvariant reports a malformed CoreEvent. It marks a programming
// fault: the engine halts the current turn rather than emit the event.
var ErrInvariant = errors.New("event: invariant violation")

// CoreEvent pairs an authoritative event with the ordered timed effects it
// applies per affected unit. Application is atomic: a consumer applies the
// full event and the full mapping, or neither. CoreEvents are immutable
// once constructed.
type CoreEvent struct {
	Seq     uint64    `json:"seq"`
	Turn    int       `json:"turn"`
	Event   Event     `json:"event"`
	Effects EffectMap `json:"effects,omitempty"`
}

// New builds a CoreEvent and validates the effect-mapping invariant.
func New(evt Event, effects EffectMap) (CoreEvent, error) {
	core := CoreEvent{Event: evt, Effects: effects}
	if err := core.Validate(); err != nil {
		return CoreEvent{}, err
	}
	return core, nil
}

// Validate checks that every effect key is a unit the wrapped event
// actually references, and that no unit carries an empty sequence.
func (c CoreEvent) Validate() error {
	if len(c.Effects) == 0 {
		return nil
	}
	referenced := make(map[game.UnitID]bool)
	for _, id := range c.Event.ReferencedUnits() {
		referenced[id] = true
	}
	for id, sequence := range c.Effects {
		if !referenced[id] {
			return fmt.Errorf("%w: effects reference unit %d which %s event does not", ErrInvariant, id, c.Event.Type)
		}
		if len(sequence) == 0 {
			return fmt.Errorf("%w: empty effect sequence for unit %d", ErrInvariant, id)
		}
	}
	return nil
}
