// Simulation owns the organization's population and applies the per-step
// attrition, promotion, and hiring rules.
package engine

import (
	"fmt"
	"sort"

	"github.com/talgya/peter-principle/internal/agents"
	"github.com/talgya/peter-principle/internal/entropy"
	"github.com/talgya/peter-principle/internal/hierarchy"
)

// maxEvents bounds the event log; older events are dropped.
const maxEvents = 1000

// Simulation holds the complete organization state.
type Simulation struct {
	Structure hierarchy.Structure

	// history holds every agent ever created, indexed by id.
	history []*agents.Agent
	// roster is the alive subset of history in id order. It is rebuilt from
	// history after each attrition pass and never holds dead agents then.
	roster []*agents.Agent

	spawner  *agents.Spawner
	rng      entropy.Source
	timeStep uint64

	Events []Event // Recent events, oldest first
}

// Event is a notable change to one agent.
type Event struct {
	Step    uint64         `json:"step" db:"step"`
	Kind    EventKind      `json:"kind" db:"kind"`
	AgentID agents.AgentID `json:"agent_id" db:"agent_id"`
	Level   int            `json:"level" db:"level"` // level after the event
}

// EventKind classifies events.
type EventKind string

const (
	EventHired     EventKind = "hired"
	EventDismissed EventKind = "dismissed"
	EventRetired   EventKind = "retired"
	EventPromoted  EventKind = "promoted"
)

// LevelSummary describes the alive agents at one level.
type LevelSummary struct {
	Level          int     `json:"level"`
	Capacity       int     `json:"capacity"`
	Alive          int     `json:"alive"`
	MeanCompetence float64 `json:"mean_competence"`
	MinCompetence  float64 `json:"min_competence"`
	MaxCompetence  float64 `json:"max_competence"`
}

// NewSimulation creates an initialized simulation over structure. It panics
// if structure is invalid.
func NewSimulation(structure hierarchy.Structure, rng entropy.Source) *Simulation {
	if err := structure.Validate(); err != nil {
		panic(fmt.Sprintf("engine: %v", err))
	}
	s := &Simulation{
		Structure: structure,
		rng:       rng,
	}
	s.Initialize()
	return s
}

// Initialize discards the population and fills every slot of every level with
// a freshly spawned agent. Ids restart at 0 and the time step at 0.
func (s *Simulation) Initialize() {
	s.spawner = agents.NewSpawner(s.rng)
	s.history = make([]*agents.Agent, 0, s.Structure.TotalCapacity())
	s.roster = make([]*agents.Agent, 0, s.Structure.TotalCapacity())
	s.Events = nil
	s.timeStep = 0

	for lvl, capacity := range s.Structure.Capacity {
		for slot := 0; slot < capacity; slot++ {
			s.add(s.spawner.Spawn(lvl, slot, 0))
		}
	}
}

// TimeStep returns the number of steps applied since Initialize.
func (s *Simulation) TimeStep() uint64 {
	return s.timeStep
}

// Occupied reports whether an alive agent holds (level, slot).
func (s *Simulation) Occupied(level, slot int) bool {
	for _, a := range s.roster {
		if a.Alive && a.Level == level && a.Slot == slot {
			return true
		}
	}
	return false
}

// CountAt returns the number of alive agents at level.
func (s *Simulation) CountAt(level int) int {
	n := 0
	for _, a := range s.roster {
		if a.Alive && a.Level == level {
			n++
		}
	}
	return n
}

// AliveCount returns the number of alive agents.
func (s *Simulation) AliveCount() int {
	n := 0
	for _, a := range s.roster {
		if a.Alive {
			n++
		}
	}
	return n
}

// Created returns how many agents have been created since Initialize.
func (s *Simulation) Created() int {
	return len(s.history)
}

// Agent returns a copy of the agent with the given id, alive or not.
func (s *Simulation) Agent(id agents.AgentID) (agents.Agent, bool) {
	if uint64(id) >= uint64(len(s.history)) {
		return agents.Agent{}, false
	}
	return *s.history[id], true
}

// Snapshot returns copies of the alive agents ordered by level, then slot.
// Callers may keep or modify the result freely.
func (s *Simulation) Snapshot() []agents.Agent {
	out := make([]agents.Agent, 0, len(s.roster))
	for _, a := range s.roster {
		if a.Alive {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Slot < out[j].Slot
	})
	return out
}

// Efficiency returns the responsibility-weighted competence of the alive
// population as a percentage of a fully staffed, maximally competent one.
func (s *Simulation) Efficiency() float64 {
	total := 0.0
	for _, a := range s.roster {
		if a.Alive {
			total += a.Competence * s.Structure.Responsibility[a.Level]
		}
	}
	return total / s.Structure.MaxScore() * 100
}

// Levels summarizes each level from bottom to top.
func (s *Simulation) Levels() []LevelSummary {
	out := make([]LevelSummary, s.Structure.Levels())
	sums := make([]float64, len(out))
	for lvl := range out {
		out[lvl] = LevelSummary{Level: lvl, Capacity: s.Structure.Capacity[lvl]}
	}
	for _, a := range s.roster {
		if !a.Alive {
			continue
		}
		ls := &out[a.Level]
		if ls.Alive == 0 || a.Competence < ls.MinCompetence {
			ls.MinCompetence = a.Competence
		}
		if a.Competence > ls.MaxCompetence {
			ls.MaxCompetence = a.Competence
		}
		ls.Alive++
		sums[a.Level] += a.Competence
	}
	for lvl := range out {
		if out[lvl].Alive > 0 {
			out[lvl].MeanCompetence = sums[lvl] / float64(out[lvl].Alive)
		}
	}
	return out
}

func (s *Simulation) add(a *agents.Agent) {
	s.history = append(s.history, a)
	s.roster = append(s.roster, a)
}

// record appends an event to both the step report and the bounded log.
func (s *Simulation) record(report *StepReport, kind EventKind, a *agents.Agent) {
	e := Event{
		Step:    s.timeStep,
		Kind:    kind,
		AgentID: a.ID,
		Level:   a.Level,
	}
	report.Events = append(report.Events, e)
	s.Events = append(s.Events, e)
}

// trimEvents keeps the most recent maxEvents events.
func (s *Simulation) trimEvents() {
	if len(s.Events) > maxEvents {
		s.Events = append([]Event(nil), s.Events[len(s.Events)-maxEvents:]...)
	}
}
