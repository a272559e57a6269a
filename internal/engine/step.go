// Step transition — attrition, cascading promotion, and bottom-level hiring.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/peter-principle/internal/agents"
	"github.com/talgya/peter-principle/internal/entropy"
)

// StepReport summarizes one call to AdvanceStep.
type StepReport struct {
	Step       uint64      `json:"step"`
	Dismissed  int         `json:"dismissed"`
	Retired    int         `json:"retired"`
	Hired      int         `json:"hired"`
	Promotions []Promotion `json:"promotions"`
	Events     []Event     `json:"events"` // every event of this step, unaffected by log trimming
	Efficiency float64     `json:"efficiency"` // after the step
	Alive      int         `json:"alive"`      // after the step
}

// Promoted returns the number of promotions in the step.
func (r StepReport) Promoted() int {
	return len(r.Promotions)
}

// Promotion records one agent moving up a level.
type Promotion struct {
	AgentID agents.AgentID `json:"agent_id"`
	From    int            `json:"from"`
	To      int            `json:"to"`
	Slot    int            `json:"slot"`
	Before  float64        `json:"before"` // competence before transmission
	After   float64        `json:"after"`
}

// AdvanceStep applies one full transition under policy: aging and attrition,
// promotion into every level above the bottom, then hiring into the bottom.
func (s *Simulation) AdvanceStep(policy Policy) StepReport {
	s.timeStep++
	report := StepReport{Step: s.timeStep}

	s.attrition(&report)
	s.promote(policy, &report)
	s.hire(&report)
	s.trimEvents()

	report.Efficiency = s.Efficiency()
	report.Alive = s.AliveCount()

	slog.Debug("step",
		"step", report.Step,
		"policy", policy.String(),
		"dismissed", report.Dismissed,
		"retired", report.Retired,
		"promoted", report.Promoted(),
		"hired", report.Hired,
		"efficiency", fmt.Sprintf("%.2f", report.Efficiency),
	)
	return report
}

// attrition ages every alive agent by one year, then removes those below the
// dismissal threshold or past retirement age. An agent meeting both
// conditions is counted as dismissed.
func (s *Simulation) attrition(report *StepReport) {
	kept := s.roster[:0]
	for _, a := range s.roster {
		if !a.Alive {
			continue
		}
		a.Age++
		switch {
		case a.ShouldDismiss():
			a.Alive = false
			report.Dismissed++
			s.record(report, EventDismissed, a)
		case a.ShouldRetire():
			a.Alive = false
			report.Retired++
			s.record(report, EventRetired, a)
		default:
			kept = append(kept, a)
		}
	}
	// Clear the tail so dropped agents are only referenced from history.
	for i := len(kept); i < len(s.roster); i++ {
		s.roster[i] = nil
	}
	s.roster = kept
}

// promote refills levels from the top down. Each level above the bottom is
// filled only from agents currently at the level directly below, so an agent
// rises at most one level per step and vacancies cascade downward.
func (s *Simulation) promote(policy Policy, report *StepReport) {
	for lvl := s.Structure.Top() - 1; lvl >= 0; lvl-- {
		upper := lvl + 1
		need := s.Structure.Capacity[upper]
		count := s.CountAt(upper)

		for count < need {
			chosen := s.selectCandidate(lvl, policy.Strategy)
			if chosen == nil {
				// Level stays short until a later step produces candidates.
				break
			}

			before := chosen.Competence
			s.transmit(chosen, policy.Transmission)

			slot, ok := s.Structure.FindVacantSlot(upper, s)
			if !ok {
				panic(fmt.Sprintf("engine: no vacant slot at level %d with %d of %d filled", upper, count, need))
			}
			chosen.Level = upper
			chosen.Slot = slot
			chosen.Promotions++
			count++

			report.Promotions = append(report.Promotions, Promotion{
				AgentID: chosen.ID,
				From:    lvl,
				To:      upper,
				Slot:    slot,
				Before:  before,
				After:   chosen.Competence,
			})
			s.record(report, EventPromoted, chosen)
		}
	}
}

// selectCandidate picks one alive agent at level according to strategy, or
// nil when the level is empty.
func (s *Simulation) selectCandidate(level int, strategy Strategy) *agents.Agent {
	var candidates []*agents.Agent
	for _, a := range s.roster {
		if a.Alive && a.Level == level {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// roster is in id order, so strict comparisons keep the lowest id on ties.
	chosen := candidates[0]
	switch strategy {
	case StrategyBest:
		for _, a := range candidates[1:] {
			if a.Competence > chosen.Competence {
				chosen = a
			}
		}
	case StrategyWorst:
		for _, a := range candidates[1:] {
			if a.Competence < chosen.Competence {
				chosen = a
			}
		}
	case StrategyRandom:
		chosen = candidates[s.rng.Intn(len(candidates))]
	default:
		panic(fmt.Sprintf("engine: %v", strategy))
	}
	return chosen
}

// transmit mutates the promoted agent's competence in place.
func (s *Simulation) transmit(a *agents.Agent, model Transmission) {
	switch model {
	case TransmissionCommonSense:
		a.Competence = entropy.Clamp(a.Competence+entropy.Uniform(s.rng, -1, 1),
			agents.MinCompetence, agents.MaxCompetence)
	case TransmissionFixedDistribution:
		a.Competence = agents.DrawCompetence(s.rng)
	default:
		panic(fmt.Sprintf("engine: %v", model))
	}
}

// hire fills every vacant bottom-level slot, lowest index first.
func (s *Simulation) hire(report *StepReport) {
	for {
		slot, ok := s.Structure.FindVacantSlot(0, s)
		if !ok {
			return
		}
		a := s.spawner.Spawn(0, slot, s.timeStep)
		s.add(a)
		report.Hired++
		s.record(report, EventHired, a)
	}
}
