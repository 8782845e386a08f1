// Package sim turns validated commands into core events and applies them
// to the authoritative game state. It is the single mutator: all state
// changes flow through the event applier, and the whole package is
// synchronous and single-threaded per match.
package sim

import (
	"errors"
	"fmt"
)

// Reject reasons reported to command issuers. An invalid command emits
// zero events; it is never coerced into a partial one.
const (
	RejectNotYourTurn     = "not_your_turn"
	RejectUnknownUnit     = "unknown_unit"
	RejectNotYourUnit     = "not_your_unit"
	RejectInvalidPayload  = "invalid_payload"
	RejectOutOfBounds     = "out_of_bounds"
	RejectUnreachable     = "unreachable"
	RejectOccupied        = "occupied"
	RejectNoMovePoints    = "no_move_points"
	RejectNoAttackPoints  = "no_attack_points"
	RejectOutOfRange      = "out_of_range"
	RejectNotAdjacent     = "not_adjacent"
	RejectNotTransporter  = "not_transporter"
	RejectTransporterBusy = "transporter_busy"
	RejectNothingLoaded   = "nothing_loaded"
	RejectFriendlyTarget  = "friendly_target"
	RejectPinned          = "pinned"
	RejectQueueFull       = "queue_full"
)

// RejectError reports why a command was refused. It is a recoverable
// condition returned to the issuer, distinct from invariant faults.
type RejectError struct {
	Reason string
	Detail string
}

func (e *RejectError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("command rejected: %s", e.Reason)
	}
	return fmt.Sprintf("command rejected: %s (%s)", e.Reason, e.Detail)
}

func reject(reason, format string, args ...any) error {
	return &RejectError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// RejectReason extracts the reject reason from an error, or "" when the
// error is not a rejection.
func RejectReason(err error) string {
	var rejectErr *RejectError
	if errors.As(err, &rejectErr) {
		return rejectErr.Reason
	}
	return ""
}
