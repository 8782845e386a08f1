package net

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPHandlerConfig carries the mux collaborators. LogStats, when set, is
// folded into the diagnostics payload.
type HTTPHandlerConfig struct {
	Logger   zerolog.Logger
	LogStats func() any
}

// NewHTTPHandler builds the server mux: the websocket endpoint, a health
// probe, and a diagnostics snapshot.
func NewHTTPHandler(hub *Hub, wsHandler nethttp.Handler, cfg HTTPHandlerConfig) nethttp.Handler {
	mux := nethttp.NewServeMux()

	mux.Handle("/ws", wsHandler)

	mux.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		turn, current := hub.TurnInfo()
		payload := struct {
			Status        string `json:"status"`
			ServerTime    int64  `json:"serverTime"`
			Turn          int    `json:"turn"`
			CurrentPlayer int64  `json:"currentPlayer"`
			LastSeq       uint64 `json:"lastSeq"`
			Subscribers   int    `json:"subscribers"`
			StagedCmds    int    `json:"stagedCommands"`
			Logging       any    `json:"logging,omitempty"`
		}{
			Status:        "ok",
			ServerTime:    time.Now().UnixMilli(),
			Turn:          turn,
			CurrentPlayer: int64(current),
			LastSeq:       hub.journal.LastSeq(),
			Subscribers:   hub.SubscriberCount(),
			StagedCmds:    hub.commands.Len(),
		}
		if cfg.LogStats != nil {
			payload.Logging = cfg.LogStats()
		}

		data, err := json.Marshal(payload)
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("encode diagnostics")
			nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	return mux
}
