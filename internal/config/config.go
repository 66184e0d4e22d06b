package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Registry RegistryConfig `toml:"registry"`
	Replay   ReplayConfig   `toml:"replay"`
	Logging  LoggingConfig  `toml:"logging"`
}

type RegistryConfig struct {
	HasOwnerView bool   `toml:"has_owner_view"` // fixed for the lifetime of a Collection
	GameDoID     uint32 `toml:"game_do_id"`     // top-level object; children of it never warn about a missing parent
	// NotifyZoneMoves also fires the arrival hook when an object changes zone
	// without changing parent. Off by default: only the departure fires then.
	NotifyZoneMoves bool `toml:"notify_zone_moves"`
}

type ReplayConfig struct {
	Scenario     string        `toml:"scenario"`
	ScriptsDir   string        `toml:"scripts_dir"`
	TickRate     time.Duration `toml:"tick_rate"` // 0 = run ticks back to back
	PrintObjects bool          `toml:"print_objects"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse overlays TOML data onto the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Registry: RegistryConfig{
			HasOwnerView: false,
			GameDoID:     4618,
		},
		Replay: ReplayConfig{
			Scenario:     "data/yaml/scenario.yaml",
			ScriptsDir:   "scripts",
			PrintObjects: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
