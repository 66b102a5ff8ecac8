package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// MachineConfig is one entry of the plant roster.
type MachineConfig struct {
	ID        string        `mapstructure:"id"`
	Kind      string        `mapstructure:"kind"`
	CycleTime time.Duration `mapstructure:"cycle_time"`
}

// EdgeConfig declares a production dependency between two machines.
// Quantity 0 means completion of the upstream stage is enough.
type EdgeConfig struct {
	Upstream   string  `mapstructure:"upstream"`
	Downstream string  `mapstructure:"downstream"`
	Quantity   float64 `mapstructure:"quantity"`
}

// BatchConfig defines a batch and the ordered machine stages it traverses.
type BatchConfig struct {
	ID       string   `mapstructure:"id"`
	Quantity float64  `mapstructure:"quantity"`
	Stages   []string `mapstructure:"stages"`
}

// SimConfig tunes the orchestration engine.
type SimConfig struct {
	Tick      time.Duration `mapstructure:"tick"`
	Mode      string        `mapstructure:"mode"`       // independent | dependency
	StopMode  string        `mapstructure:"stop_mode"`  // graceful | hard
	AutoStart bool          `mapstructure:"auto_start"` // dependency mode only
}

// DBConfig locates the collaborator snapshot/event store.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// Config is the full application configuration.
type Config struct {
	Port         string          `mapstructure:"port"`
	LogLevel     string          `mapstructure:"log_level"`
	DB           DBConfig        `mapstructure:"db"`
	Sim          SimConfig       `mapstructure:"sim"`
	Machines     []MachineConfig `mapstructure:"machines"`
	Dependencies []EdgeConfig    `mapstructure:"dependencies"`
	Batches      []BatchConfig   `mapstructure:"batches"`
}

const defaultTick = 500 * time.Millisecond

// Load reads configs/config.yml and validates it. Malformed configuration
// refuses startup before any tick is processed.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("sim.tick", defaultTick)
	v.SetDefault("sim.mode", "independent")
	v.SetDefault("sim.stop_mode", "graceful")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks everything that can be checked without building the
// engine. Structural soundness of the dependency graph (cycle detection)
// is re-verified by the sim factory, which owns the authoritative check.
func (c *Config) Validate() error {
	if c.Sim.Tick <= 0 {
		return fmt.Errorf("sim.tick must be > 0, got %s", c.Sim.Tick)
	}
	switch c.Sim.Mode {
	case "independent", "dependency":
	default:
		return fmt.Errorf("sim.mode must be independent or dependency, got %q", c.Sim.Mode)
	}
	switch c.Sim.StopMode {
	case "graceful", "hard":
	default:
		return fmt.Errorf("sim.stop_mode must be graceful or hard, got %q", c.Sim.StopMode)
	}
	if len(c.Machines) == 0 {
		return fmt.Errorf("machine roster is empty")
	}
	seen := make(map[string]struct{}, len(c.Machines))
	for _, m := range c.Machines {
		if m.ID == "" {
			return fmt.Errorf("machine with empty id")
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate machine id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
		if m.CycleTime <= 0 {
			return fmt.Errorf("machine %s: cycle_time must be > 0, got %s", m.ID, m.CycleTime)
		}
	}
	for _, e := range c.Dependencies {
		if _, ok := seen[e.Upstream]; !ok {
			return fmt.Errorf("dependency edge references unknown machine %q", e.Upstream)
		}
		if _, ok := seen[e.Downstream]; !ok {
			return fmt.Errorf("dependency edge references unknown machine %q", e.Downstream)
		}
	}
	for _, b := range c.Batches {
		for _, stage := range b.Stages {
			if _, ok := seen[stage]; !ok {
				return fmt.Errorf("batch %s references unknown machine %q", b.ID, stage)
			}
		}
	}
	return nil
}
