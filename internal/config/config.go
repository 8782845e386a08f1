// Package config loads server configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Game    GameConfig    `json:"game" mapstructure:"game"`
	Journal JournalConfig `json:"journal" mapstructure:"journal"`
	Replay  ReplayConfig  `json:"replay" mapstructure:"replay"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr      string        `json:"listenAddr" mapstructure:"listenAddr"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" mapstructure:"shutdownTimeout"`
}

// GameConfig holds map and match settings.
type GameConfig struct {
	GridWidth       int `json:"gridWidth" mapstructure:"gridWidth"`
	GridHeight      int `json:"gridHeight" mapstructure:"gridHeight"`
	Players         int `json:"players" mapstructure:"players"`
	CommandCapacity int `json:"commandCapacity" mapstructure:"commandCapacity"`
}

// JournalConfig holds event retention settings.
type JournalConfig struct {
	HistoryCapacity int `json:"historyCapacity" mapstructure:"historyCapacity"`
}

// ReplayConfig holds the persistent event store settings.
type ReplayConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// LoggingConfig holds the observability stream settings.
type LoggingConfig struct {
	Level    string   `json:"level" mapstructure:"level"`
	Sinks    []string `json:"sinks" mapstructure:"sinks"`
	JSONPath string   `json:"jsonPath" mapstructure:"jsonPath"`
}

const configName = "hexfront"

// Load reads configuration from configDir/hexfront.json, layered over
// defaults and HEXFRONT_* environment variables. A missing file is not an
// error; defaults apply.
func Load(configDir string) (Config, error) {
	v := viper.New()

	v.SetDefault("server.listenAddr", ":8080")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)

	v.SetDefault("game.gridWidth", 10)
	v.SetDefault("game.gridHeight", 12)
	v.SetDefault("game.players", 2)
	v.SetDefault("game.commandCapacity", 256)

	v.SetDefault("journal.historyCapacity", 4096)

	v.SetDefault("replay.enabled", true)
	v.SetDefault("replay.path", "./hexfront_replay.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.sinks", []string{"console"})
	v.SetDefault("logging.jsonPath", "./hexfront_events.ndjson")

	v.SetConfigName(configName)
	v.SetConfigType("json")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("HEXFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Game.GridWidth < 1 || c.Game.GridHeight < 1 {
		return fmt.Errorf("config: grid dimensions must be positive, got %dx%d", c.Game.GridWidth, c.Game.GridHeight)
	}
	if c.Game.Players < 2 {
		return fmt.Errorf("config: at least two players required, got %d", c.Game.Players)
	}
	if c.Game.CommandCapacity < 1 {
		return fmt.Errorf("config: command capacity must be positive, got %d", c.Game.CommandCapacity)
	}
	if c.Replay.Enabled && strings.TrimSpace(c.Replay.Path) == "" {
		return fmt.Errorf("config: replay enabled without a path")
	}
	return nil
}
