package network

import "hexfront/server/logging"

const (
	// EventClientConnected is emitted when a websocket client joins.
	EventClientConnected logging.EventType = "network.client_connected"
	// EventClientDisconnected is emitted when a websocket client leaves.
	EventClientDisconnected logging.EventType = "network.client_disconnected"
	// EventCommandRejected is emitted when a client command fails validation.
	EventCommandRejected logging.EventType = "network.command_rejected"
)

// RejectPayload carries the rejection reason back into the log stream.
type RejectPayload struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

// ClientConnected publishes a client join.
func ClientConnected(pub logging.Publisher, turn int, clientID string) {
	if pub == nil {
		return
	}
	pub.Publish(logging.Event{
		Type:     EventClientConnected,
		Turn:     turn,
		Actor:    logging.EntityRef{ID: clientID, Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
	})
}

// ClientDisconnected publishes a client leave.
func ClientDisconnected(pub logging.Publisher, turn int, clientID string) {
	if pub == nil {
		return
	}
	pub.Publish(logging.Event{
		Type:     EventClientDisconnected,
		Turn:     turn,
		Actor:    logging.EntityRef{ID: clientID, Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
	})
}

// CommandRejected publishes a failed command validation.
func CommandRejected(pub logging.Publisher, turn int, clientID string, payload RejectPayload) {
	if pub == nil {
		return
	}
	pub.Publish(logging.Event{
		Type:     EventCommandRejected,
		Turn:     turn,
		Actor:    logging.EntityRef{ID: clientID, Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}
