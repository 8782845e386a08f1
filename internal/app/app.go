// Package app wires the server together: configuration, logging, the
// simulation engine, persistence, and the HTTP surface.
package app

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hexfront/server/internal/config"
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
	"hexfront/server/internal/journal"
	servernet "hexfront/server/internal/net"
	"hexfront/server/internal/net/ws"
	"hexfront/server/internal/replay"
	"hexfront/server/internal/sim"
	"hexfront/server/internal/telemetry"
	"hexfront/server/logging"
	loggingSinks "hexfront/server/logging/sinks"
)

// Run boots the server and blocks until the context is cancelled or the
// listener fails.
func Run(ctx context.Context, cfg config.Config) error {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", cfg.Logging.Level, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	router, cleanup, err := buildRouter(cfg.Logging)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Warn().Err(cerr).Msg("logging router close")
		}
		cleanup()
	}()

	state := buildState(cfg.Game)
	counters := telemetry.NewCounters()
	jnl := journal.New(cfg.Journal.HistoryCapacity)
	jnl.SetTelemetry(counters)
	engine, err := sim.NewEngine(sim.Config{
		State:     state,
		Recorder:  jnl,
		Publisher: router,
	})
	if err != nil {
		return fmt.Errorf("construct engine: %w", err)
	}

	var store *replay.Store
	if cfg.Replay.Enabled {
		store, err = replay.Open(cfg.Replay.Path)
		if err != nil {
			return fmt.Errorf("open replay store: %w", err)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("replay store close")
			}
		}()
	}

	hubCfg := servernet.HubConfig{
		Engine:    engine,
		Commands:  sim.NewCommandBuffer(cfg.Game.CommandCapacity),
		Journal:   jnl,
		MatchID:   newMatchID(),
		Logger:    logger.With().Str("component", "hub").Logger(),
		Publisher: router,
	}
	if store != nil {
		hubCfg.Store = store
	}
	hub, err := servernet.NewHub(hubCfg)
	if err != nil {
		return fmt.Errorf("construct hub: %w", err)
	}

	stop := make(chan struct{})
	go hub.Run(stop)
	defer close(stop)

	wsHandler := ws.NewHandler(hub, ws.HandlerConfig{
		Logger: logger.With().Str("component", "ws").Logger(),
	})
	handler := servernet.NewHTTPHandler(hub, nethttp.HandlerFunc(wsHandler.Handle), servernet.HTTPHandlerConfig{
		Logger: logger.With().Str("component", "http").Logger(),
		LogStats: func() any {
			return map[string]any{
				"router":   router.Stats(),
				"counters": counters.Snapshot(),
			}
		},
	})

	srv := &nethttp.Server{Addr: cfg.Server.ListenAddr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != nethttp.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

// newMatchID labels the replay rows for this process lifetime.
func newMatchID() string {
	return "match-" + uuid.NewString()
}

// buildRouter assembles the gameplay event router from the configured
// sinks. The returned cleanup closes file handles after the router shuts
// down.
func buildRouter(cfg config.LoggingConfig) (*logging.Router, func(), error) {
	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = append([]string(nil), cfg.Sinks...)
	if err := logCfg.Validate(); err != nil {
		return nil, nil, err
	}

	var named []logging.NamedSink
	cleanup := func() {}
	for _, name := range cfg.Sinks {
		switch name {
		case logging.SinkConsole:
			named = append(named, logging.NamedSink{
				Name: logging.SinkConsole,
				Sink: loggingSinks.NewConsoleSink(os.Stdout, logCfg.Console),
			})
		case logging.SinkJSON:
			file, err := os.OpenFile(cfg.JSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, nil, fmt.Errorf("open json sink %s: %w", cfg.JSONPath, err)
			}
			cleanup = func() { file.Close() }
			named = append(named, logging.NamedSink{
				Name: logging.SinkJSON,
				Sink: loggingSinks.NewJSON(file, logCfg.JSON.FlushInterval),
			})
		case logging.SinkMemory:
			named = append(named, logging.NamedSink{
				Name: logging.SinkMemory,
				Sink: loggingSinks.NewBoundedMemorySink(256),
			})
		}
	}

	router, err := logging.NewRouter(nil, logCfg, named)
	if err != nil {
		return nil, nil, err
	}
	return router, cleanup, nil
}

// buildState lays out the default battlefield: a plain map with tree and
// building clusters and a contested sector on the center line.
func buildState(cfg config.GameConfig) *game.State {
	grid := hexmap.NewGrid(cfg.GridWidth, cfg.GridHeight)

	// Deterministic terrain so every run of the same config starts from
	// the same map.
	for r := 0; r < cfg.GridHeight; r++ {
		for q := 0; q < cfg.GridWidth; q++ {
			switch (q*7 + r*5) % 11 {
			case 2, 8:
				grid.SetTerrain(hexmap.Pos{Q: q, R: r}, hexmap.TerrainTrees)
			case 5:
				grid.SetTerrain(hexmap.Pos{Q: q, R: r}, hexmap.TerrainBuilding)
			}
		}
	}

	players := make([]game.Player, cfg.Players)
	for i := range players {
		players[i] = game.Player{ID: game.PlayerID(i)}
	}
	state := game.NewState(grid, game.NewTypeTable(), players)

	midQ := cfg.GridWidth / 2
	midR := cfg.GridHeight / 2
	cells := []hexmap.Pos{{Q: midQ, R: midR}}
	for _, n := range (hexmap.Pos{Q: midQ, R: midR}).Neighbors() {
		if grid.Contains(n) {
			cells = append(cells, n)
		}
	}
	state.AddSector(&game.Sector{ID: 1, Cells: cells, OwnerID: game.NoPlayer})
	return state
}
