// Command peterprinciple runs the organizational hierarchy simulation:
// agents age, are dismissed or retire, and are promoted under a selectable
// strategy and competence transmission model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/peter-principle/internal/config"
	"github.com/talgya/peter-principle/internal/engine"
	"github.com/talgya/peter-principle/internal/entropy"
	"github.com/talgya/peter-principle/internal/hierarchy"
	"github.com/talgya/peter-principle/internal/persistence"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg, os.Stdout)
	if err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil && ctx.Err() == nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	structure := hierarchy.Default()

	// An unconfigured seed is drawn once so every run in a sweep shares it
	// and the log names it for replay.
	if cfg.Sim.Seed == 0 {
		cfg.Sim.Seed = entropy.CryptoSeed()
		slog.Info("drew random seed", "seed", cfg.Sim.Seed)
	}

	slog.Info("Peter Principle organizational hierarchy simulation",
		"levels", structure.Levels(),
		"slots", structure.TotalCapacity(),
		"seed", cfg.Sim.Seed,
	)

	// ── Recorder ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Record.Enabled {
		if dir := filepath.Dir(cfg.Record.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create record dir: %w", err)
			}
		}
		db, err = persistence.Open(cfg.Record.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("recording runs", "path", cfg.Record.Path)
	}

	// ── Simulation ────────────────────────────────────────────────────
	policies := []engine.Policy{policy}
	if cfg.Run.Sweep {
		policies = engine.Policies()
	}

	results := make([]sweepResult, 0, len(policies))
	for _, p := range policies {
		res, err := runOne(ctx, cfg, structure, p, db)
		if errors.Is(err, context.Canceled) {
			results = append(results, res)
			break
		}
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	printResults(out, results)
	return nil
}

type sweepResult struct {
	Policy     engine.Policy
	Steps      uint64
	Efficiency float64
	Levels     []engine.LevelSummary
	RunID      string
}

func runOne(ctx context.Context, cfg *config.Config, structure hierarchy.Structure, policy engine.Policy, db *persistence.DB) (sweepResult, error) {
	sim := engine.NewSimulation(structure, entropy.NewSeeded(cfg.Sim.Seed))
	slog.Info("organization ready",
		"policy", policy.String(),
		"alive", sim.AliveCount(),
		"efficiency", fmt.Sprintf("%.2f", sim.Efficiency()),
	)

	var runID string
	if db != nil {
		r, err := db.BeginRun(policy, cfg.Sim.Seed)
		if err != nil {
			return sweepResult{}, err
		}
		runID = r.ID
	}

	eng := engine.NewEngine(sim, policy)
	eng.Speed = cfg.Run.Speed
	eng.Interval = cfg.Run.FrameInterval
	eng.MaxSteps = cfg.Run.Steps

	var recordErr error
	eng.OnStep = func(r engine.StepReport) {
		if cfg.Run.ReportEvery > 0 && r.Step%cfg.Run.ReportEvery == 0 {
			slog.Info("step report",
				"policy", policy.String(),
				"step", r.Step,
				"efficiency", fmt.Sprintf("%.2f", r.Efficiency),
				"alive", r.Alive,
				"dismissed", r.Dismissed,
				"retired", r.Retired,
				"promoted", r.Promoted(),
				"hired", r.Hired,
			)
		}
		if db == nil || recordErr != nil {
			return
		}
		if err := db.RecordStep(runID, r, sim.Levels()); err != nil {
			recordErr = err
			slog.Error("record step failed", "step", r.Step, "error", err)
			return
		}
		if err := db.SaveEvents(runID, r.Events); err != nil {
			recordErr = fmt.Errorf("save events for step %d: %w", r.Step, err)
			slog.Error("record events failed", "step", r.Step, "error", err)
		}
	}

	runErr := eng.Run(ctx)

	res := sweepResult{
		Policy:     policy,
		Steps:      sim.TimeStep(),
		Efficiency: sim.Efficiency(),
		Levels:     sim.Levels(),
		RunID:      runID,
	}
	if runErr != nil {
		return res, runErr
	}
	return res, recordErr
}

func printResults(w io.Writer, results []sweepResult) {
	fmt.Fprintf(w, "\n%-28s %8s %11s\n", "policy", "steps", "efficiency")
	for _, r := range results {
		fmt.Fprintf(w, "%-28s %8d %10.2f%%\n", r.Policy.String(), r.Steps, r.Efficiency)
	}
	if len(results) != 1 {
		return
	}
	fmt.Fprintln(w, "\nlevel  alive/cap  mean  min  max")
	levels := results[0].Levels
	for i := len(levels) - 1; i >= 0; i-- {
		l := levels[i]
		fmt.Fprintf(w, "%5d  %4d/%-4d  %4.2f  %4.2f  %4.2f\n",
			l.Level, l.Alive, l.Capacity, l.MeanCompetence, l.MinCompetence, l.MaxCompetence)
	}
}
