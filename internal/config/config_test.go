package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/peter-principle/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "peter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, int64(0), cfg.Sim.Seed)
	assert.Equal(t, uint64(200), cfg.Run.Steps)
	assert.Equal(t, 1.0, cfg.Run.Speed)
	assert.Equal(t, time.Duration(0), cfg.Run.FrameInterval)
	assert.False(t, cfg.Record.Enabled)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, engine.Policy{Strategy: engine.StrategyBest, Transmission: engine.TransmissionCommonSense}, policy)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
sim:
  seed: 99
  strategy: worst
  transmission: peter-hypothesis
run:
  steps: 50
  speed: 2.5
  frame_interval: 16ms
  sweep: true
record:
  enabled: true
  path: /tmp/x.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(99), cfg.Sim.Seed)
	assert.Equal(t, uint64(50), cfg.Run.Steps)
	assert.Equal(t, 2.5, cfg.Run.Speed)
	assert.Equal(t, 16*time.Millisecond, cfg.Run.FrameInterval)
	assert.True(t, cfg.Run.Sweep)
	assert.True(t, cfg.Record.Enabled)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, engine.StrategyWorst, policy.Strategy)
	assert.Equal(t, engine.TransmissionFixedDistribution, policy.Transmission)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "sim:\n  strategy: worst\n")
	t.Setenv("PETER_SIM_STRATEGY", "random")
	t.Setenv("PETER_RUN_REPORT_EVERY", "25")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "random", cfg.Sim.Strategy)
	assert.Equal(t, uint64(25), cfg.Run.ReportEvery)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"strategy":     "sim:\n  strategy: median\n",
		"transmission": "sim:\n  transmission: osmosis\n",
		"speed":        "run:\n  speed: 11\n",
		"slow speed":   "run:\n  speed: 0.05\n",
		"negative":     "run:\n  speed: -1\n",
		"log level":    "log:\n  level: loud\n",
		"log format":   "log:\n  format: xml\n",
		"record path":  "record:\n  enabled: true\n  path: \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadAcceptsSpeedBounds(t *testing.T) {
	for _, speed := range []string{"0", "0.1", "10"} {
		cfg, err := Load(writeConfig(t, "run:\n  speed: "+speed+"\n"))
		require.NoError(t, err, speed)
		assert.GreaterOrEqual(t, cfg.Run.Speed, 0.0)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
