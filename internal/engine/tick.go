// Package engine provides the organization simulation and the frame-driven
// loop that advances it.
package engine

import (
	"context"
	"log/slog"
	"time"
)

// Speed limits, in steps per frame.
const (
	MinSpeed = 0.1
	MaxSpeed = 10.0
)

// accumulatorEpsilon absorbs float error when fractional speeds add up to a
// whole step (ten frames at 0.1 must yield one step).
const accumulatorEpsilon = 1e-9

// Stepper is what the Engine drives.
type Stepper interface {
	AdvanceStep(Policy) StepReport
	TimeStep() uint64
}

// Engine drives a Stepper forward frame by frame.
type Engine struct {
	Sim      Stepper
	Policy   Policy        // Read at every step; may change between frames
	Speed    float64       // Steps per frame: 0 = paused, otherwise clamped to [MinSpeed, MaxSpeed]
	Interval time.Duration // Delay between frames (0 = no delay)
	MaxSteps uint64        // Run returns once the sim reaches this step (0 = unbounded)

	OnStep func(StepReport) // Called after every step

	accumulator float64
}

// NewEngine creates an engine at speed 1 with no frame delay.
func NewEngine(sim Stepper, policy Policy) *Engine {
	return &Engine{
		Sim:    sim,
		Policy: policy,
		Speed:  1.0,
	}
}

// Frame accumulates the current speed and runs one step for every whole unit
// collected. Fractional remainders carry into later frames. It returns the
// number of steps taken.
func (e *Engine) Frame() int {
	speed := e.clampedSpeed()
	if speed == 0 {
		return 0
	}
	e.accumulator += speed

	steps := 0
	for e.accumulator >= 1-accumulatorEpsilon {
		if e.done() {
			break
		}
		e.Step()
		e.accumulator--
		steps++
	}
	if e.accumulator < 0 {
		e.accumulator = 0
	}
	return steps
}

// Step advances the simulation once regardless of speed.
func (e *Engine) Step() StepReport {
	report := e.Sim.AdvanceStep(e.Policy)
	if e.OnStep != nil {
		e.OnStep(report)
	}
	return report
}

// Reset discards any accumulated fractional step.
func (e *Engine) Reset() {
	e.accumulator = 0
}

// Run executes frames until ctx is cancelled or MaxSteps is reached.
// It returns ctx.Err() when cancelled and nil otherwise.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started",
		"step", e.Sim.TimeStep(),
		"speed", e.Speed,
		"policy", e.Policy.String(),
	)

	var ticker *time.Ticker
	if e.Interval > 0 {
		ticker = time.NewTicker(e.Interval)
		defer ticker.Stop()
	}

	for !e.done() {
		if e.clampedSpeed() == 0 && ticker == nil {
			// Paused with no frame clock would spin forever.
			slog.Warn("engine paused without a frame interval, stopping")
			break
		}

		e.Frame()

		if err := ctx.Err(); err != nil {
			return e.stopped(err)
		}
		if ticker == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return e.stopped(ctx.Err())
		case <-ticker.C:
		}
	}

	slog.Info("simulation engine stopped", "step", e.Sim.TimeStep())
	return nil
}

func (e *Engine) stopped(err error) error {
	slog.Info("simulation engine stopped", "step", e.Sim.TimeStep(), "reason", err)
	return err
}

func (e *Engine) done() bool {
	return e.MaxSteps > 0 && e.Sim.TimeStep() >= e.MaxSteps
}

func (e *Engine) clampedSpeed() float64 {
	switch {
	case e.Speed <= 0:
		return 0
	case e.Speed < MinSpeed:
		return MinSpeed
	case e.Speed > MaxSpeed:
		return MaxSpeed
	default:
		return e.Speed
	}
}
