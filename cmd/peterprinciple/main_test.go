package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/peter-principle/internal/config"
	"github.com/talgya/peter-principle/internal/engine"
	"github.com/talgya/peter-principle/internal/persistence"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Sim.Seed = 5
	cfg.Run.Steps = 20
	cfg.Run.Speed = 4
	cfg.Run.ReportEvery = 0
	return cfg
}

func TestRunSingle(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testConfig(t), &out))
	assert.Contains(t, out.String(), "best/common-sense")
	assert.Contains(t, out.String(), "alive/cap")
}

func TestRunSweepRecords(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run.Sweep = true
	cfg.Record.Enabled = true
	cfg.Record.Path = filepath.Join(t.TempDir(), "sweep.db")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))
	for _, name := range []string{"best/common-sense", "worst/fixed-distribution", "random/common-sense"} {
		assert.Contains(t, out.String(), name)
	}

	db, err := persistence.Open(cfg.Record.Path)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 6)
	for _, r := range runs {
		steps, err := db.Steps(r.ID)
		require.NoError(t, err)
		assert.Len(t, steps, 20)
	}
}

func TestNewLoggerFormats(t *testing.T) {
	cfg := testConfig(t)
	var buf bytes.Buffer

	cfg.Log.Format = "json"
	logger, err := newLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Info("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	cfg.Log.Format = "text"
	logger, err = newLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestRecordedEventsMatchStepTotals(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run.Steps = 200
	cfg.Record.Enabled = true
	cfg.Record.Path = filepath.Join(t.TempDir(), "events.db")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))

	db, err := persistence.Open(cfg.Record.Path)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	steps, err := db.Steps(runs[0].ID)
	require.NoError(t, err)
	require.Len(t, steps, 200)

	want := make(map[engine.EventKind]int)
	for _, s := range steps {
		want[engine.EventHired] += s.Hired
		want[engine.EventDismissed] += s.Dismissed
		want[engine.EventRetired] += s.Retired
		want[engine.EventPromoted] += s.Promoted
	}

	got, err := db.EventCounts(runs[0].ID)
	require.NoError(t, err)

	total := 0
	for kind, n := range want {
		assert.Equal(t, n, got[kind], string(kind))
		total += got[kind]
	}
	assert.Greater(t, total, 1000, "run must outgrow the in-memory event log")
}

func TestRunDrawsSeedWhenUnset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sim.Seed = 0
	cfg.Run.Sweep = true
	cfg.Record.Enabled = true
	cfg.Record.Path = filepath.Join(t.TempDir(), "seed.db")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))
	assert.NotZero(t, cfg.Sim.Seed)

	db, err := persistence.Open(cfg.Record.Path)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 6)
	for _, r := range runs {
		assert.Equal(t, cfg.Sim.Seed, r.Seed)
	}
}
