package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the process-wide configuration, loaded once at startup from a
// TOML file and overridden only by the IRONROSE_CONFIG environment
// variable pointing at an alternate path.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Scripting ScriptingConfig `toml:"scripting"`
	Network   NetworkConfig   `toml:"network"`
	Login     TierConfig      `toml:"login"`
	World     TierConfig      `toml:"world"`
	Game      TierConfig      `toml:"game"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	ID        int    `toml:"id"`
	StartTime int64  // set at boot, not from config
}

// StorageConfig points at the account/character blob store: one
// directory per realm, one file per account or character.
type StorageConfig struct {
	RealmDir string `toml:"realm_dir"`
	DataDir  string `toml:"data_dir"` // static yaml tables: zones with their NPC spawn lists
}

type ScriptingConfig struct {
	ScriptsDir string `toml:"scripts_dir"`
}

type NetworkConfig struct {
	TickRate     time.Duration `toml:"tick_rate"`
	InQueueSize  int           `toml:"in_queue_size"`
	OutQueueSize int           `toml:"out_queue_size"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
}

// TierConfig is the per-tier bind address; a tier not selected on the CLI
// is never listened on even if present here.
type TierConfig struct {
	BindAddress string `toml:"bind_address"`
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
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Path resolves the config file path: IRONROSE_CONFIG if set, else path.
func Path(flagValue string) string {
	if v := os.Getenv("IRONROSE_CONFIG"); v != "" {
		return v
	}
	return flagValue
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "ironrose",
			ID:   1,
		},
		Storage: StorageConfig{
			RealmDir: "./data/realm",
			DataDir:  "./data/yaml",
		},
		Scripting: ScriptingConfig{
			ScriptsDir: "./data/scripts",
		},
		Network: NetworkConfig{
			TickRate:     33333333 * time.Nanosecond, // 30 Hz
			InQueueSize:  64,
			OutQueueSize: 256,
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  60 * time.Second,
		},
		Login: TierConfig{BindAddress: "0.0.0.0:7000"},
		World: TierConfig{BindAddress: "0.0.0.0:7001"},
		Game:  TierConfig{BindAddress: "0.0.0.0:7002"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
