// Package config loads simulation settings from defaults, an optional YAML
// file, and PETER_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/talgya/peter-principle/internal/engine"
)

// EnvPrefix is the prefix for environment overrides (PETER_SIM_SEED -> sim.seed).
const EnvPrefix = "PETER_"

type Config struct {
	Log    LogConfig    `koanf:"log"`
	Sim    SimConfig    `koanf:"sim"`
	Run    RunConfig    `koanf:"run"`
	Record RecordConfig `koanf:"record"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type SimConfig struct {
	Seed         int64  `koanf:"seed"` // 0 = draw one from crypto/rand at start-up
	Strategy     string `koanf:"strategy"`
	Transmission string `koanf:"transmission"`
}

type RunConfig struct {
	Steps         uint64        `koanf:"steps"` // 0 = until signalled
	Speed         float64       `koanf:"speed"`
	FrameInterval time.Duration `koanf:"frame_interval"`
	ReportEvery   uint64        `koanf:"report_every"`
	Sweep         bool          `koanf:"sweep"`
}

type RecordConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

func defaults(k *koanf.Koanf) {
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("sim.seed", 0)
	k.Set("sim.strategy", "best")
	k.Set("sim.transmission", "common-sense")

	k.Set("run.steps", 200)
	k.Set("run.speed", 1.0)
	k.Set("run.frame_interval", "0s")
	k.Set("run.report_every", 10)
	k.Set("run.sweep", false)

	k.Set("record.enabled", false)
	k.Set("record.path", "data/peter.db")
}

// Load reads configuration. path may be empty to skip the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	defaults(k)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	// PETER_RUN_REPORT_EVERY -> run.report_every: only the first underscore
	// after the section name separates keys.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that names and ranges are usable.
func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", c.Log.Format)
	}
	// 0 pauses; any other speed must lie in the engine's range.
	if c.Run.Speed != 0 && (c.Run.Speed < engine.MinSpeed || c.Run.Speed > engine.MaxSpeed) {
		return fmt.Errorf("run.speed %.2f: want 0 or [%.1f, %.0f]", c.Run.Speed, engine.MinSpeed, engine.MaxSpeed)
	}
	if c.Run.FrameInterval < 0 {
		return fmt.Errorf("run.frame_interval %s is negative", c.Run.FrameInterval)
	}
	if c.Record.Enabled && c.Record.Path == "" {
		return fmt.Errorf("record.path is required when recording is enabled")
	}
	return nil
}

// Policy returns the configured promotion strategy and transmission model.
func (c *Config) Policy() (engine.Policy, error) {
	strategy, err := engine.ParseStrategy(c.Sim.Strategy)
	if err != nil {
		return engine.Policy{}, fmt.Errorf("sim.strategy: %w", err)
	}
	transmission, err := engine.ParseTransmission(c.Sim.Transmission)
	if err != nil {
		return engine.Policy{}, fmt.Errorf("sim.transmission: %w", err)
	}
	return engine.Policy{Strategy: strategy, Transmission: transmission}, nil
}

// SlogLevel maps log.level to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
