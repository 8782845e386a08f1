package logging

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Sink names accepted in EnabledSinks.
const (
	SinkConsole = "console"
	SinkJSON    = "json"
	SinkMemory  = "memory"
)

// Config shapes the match event stream: which sinks receive events, how
// much backlog the router tolerates before dropping, and the severity
// floor below which events never leave the simulation.
type Config struct {
	EnabledSinks     []string
	BufferSize       int
	MinimumSeverity  Severity
	Fields           map[string]any
	JSON             JSONConfig
	Console          ConsoleConfig
	DropWarnInterval time.Duration
}

// JSONConfig tunes the newline-delimited file sink.
type JSONConfig struct {
	FilePath      string
	MaxBatch      int
	FlushInterval time.Duration
}

// ConsoleConfig tunes the human-readable sink.
type ConsoleConfig struct {
	UseColor bool
}

// DefaultConfig suits a turn-based match: events arrive in bursts when a
// command batch resolves, not continuously, so a modest buffer is enough.
func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{SinkConsole},
		BufferSize:       256,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 10 * time.Second,
		JSON: JSONConfig{
			MaxBatch:      16,
			FlushInterval: time.Second,
		},
	}
}

// Validate rejects sink names the server cannot build.
func (c Config) Validate() error {
	for _, name := range c.EnabledSinks {
		switch name {
		case SinkConsole, SinkJSON, SinkMemory:
		default:
			return fmt.Errorf("logging: unknown sink %q", name)
		}
	}
	if c.MinimumSeverity < SeverityDebug || c.MinimumSeverity > SeverityError {
		return fmt.Errorf("logging: severity %d out of range", c.MinimumSeverity)
	}
	return nil
}

func (c Config) HasSink(name string) bool {
	return slices.Contains(c.EnabledSinks, name)
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	return maps.Clone(c.Fields)
}
