// Package ws exposes the websocket endpoint for game clients.
package ws

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	hubnet "hexfront/server/internal/net"
	"hexfront/server/internal/net/proto"
	"hexfront/server/internal/sim"
)

// HandlerConfig carries the handler's collaborators.
type HandlerConfig struct {
	Logger zerolog.Logger
}

// Handler upgrades HTTP requests into game sessions. Each connection gets
// its own read loop; writes go through the hub's subscriber lock.
type Handler struct {
	hub      *hubnet.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewHandler constructs a websocket handler bound to a hub.
func NewHandler(hub *hubnet.Hub, cfg HandlerConfig) *Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}
	return &Handler{hub: hub, log: cfg.Logger, upgrader: upgrader}
}

// Handle runs one client session: snapshot on subscribe, then a read loop
// staging commands until the connection drops.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	clientID := r.URL.Query().Get("player")
	if clientID == "" {
		nethttp.Error(w, "missing player", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("client", clientID).Msg("websocket upgrade failed")
		return
	}

	session, err := h.hub.Subscribe(clientID, conn)
	if err != nil {
		h.log.Warn().Err(err).Str("client", clientID).Msg("subscribe failed")
		conn.Close()
		return
	}

	// Replies share the connection with the hub's broadcast goroutine, so
	// they must go through the session's write lock.
	writeJSON := func(payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			h.log.Error().Err(err).Str("client", clientID).Msg("marshal response")
			return true
		}
		if err := session.Write(data); err != nil {
			h.hub.Disconnect(clientID)
			return false
		}
		return true
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(clientID)
			return
		}

		var msg proto.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.log.Debug().Err(err).Str("client", clientID).Msg("discarding malformed message")
			continue
		}

		switch msg.Type {
		case proto.ClientTypeCommand:
			if !msg.ValidCommand() {
				if !writeJSON(proto.CommandRejectMessage{
					Ver:    proto.ProtocolVersion,
					Type:   proto.ServerTypeCommandReject,
					Seq:    msg.Seq,
					Reason: sim.RejectInvalidPayload,
				}) {
					return
				}
				continue
			}
			if err := h.hub.StageCommand(*msg.Command); err != nil {
				reason := sim.RejectReason(err)
				if !writeJSON(proto.CommandRejectMessage{
					Ver:    proto.ProtocolVersion,
					Type:   proto.ServerTypeCommandReject,
					Seq:    msg.Seq,
					Reason: reason,
					Retry:  reason == sim.RejectQueueFull,
				}) {
					return
				}
				continue
			}
			if !writeJSON(proto.CommandAckMessage{
				Ver:  proto.ProtocolVersion,
				Type: proto.ServerTypeCommandAck,
				Seq:  msg.Seq,
			}) {
				return
			}
		case proto.ClientTypeHeartbeat:
			if !writeJSON(proto.HeartbeatMessage{
				Ver:        proto.ProtocolVersion,
				Type:       proto.ServerTypeHeartbeat,
				ServerTime: time.Now().UnixMilli(),
				ClientTime: msg.SentAt,
			}) {
				return
			}
		case proto.ClientTypeCatchUp:
			events := h.hub.CatchUp(msg.SinceSeq)
			if !writeJSON(proto.EventBatchMessage{
				Ver:        proto.ProtocolVersion,
				Type:       proto.ServerTypeEvents,
				Events:     events,
				ServerTime: time.Now().UnixMilli(),
			}) {
				return
			}
		default:
			h.log.Debug().Str("client", clientID).Str("type", msg.Type).Msg("unknown message type")
		}
	}
}
