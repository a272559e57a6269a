// Agent spawning — fills the organization at start-up and hires replacements
// into the bottom level.
package agents

import (
	"github.com/talgya/peter-principle/internal/entropy"
)

// Spawner creates agents with fresh ids, ages, and competences.
type Spawner struct {
	rng    entropy.Source
	nextID AgentID
}

// NewSpawner creates a spawner drawing from rng. The first id issued is 0.
func NewSpawner(rng entropy.Source) *Spawner {
	return &Spawner{rng: rng}
}

// NextID returns the id the next spawned agent will receive.
func (s *Spawner) NextID() AgentID {
	return s.nextID
}

// Spawn creates an alive agent at (level, slot).
func (s *Spawner) Spawn(level, slot int, step uint64) *Agent {
	id := s.nextID
	s.nextID++

	return &Agent{
		ID:         id,
		Level:      level,
		Slot:       slot,
		Age:        s.hireAge(),
		Competence: DrawCompetence(s.rng),
		Alive:      true,
		HiredStep:  step,
	}
}

// hireAge is uniform over [MinHireAge, MaxHireAge).
func (s *Spawner) hireAge() int {
	return MinHireAge + s.rng.Intn(MaxHireAge-MinHireAge)
}

// DrawCompetence samples N(7, 2) clamped to [1, 10].
func DrawCompetence(rng entropy.Source) float64 {
	return entropy.CappedGaussian(rng, CompetenceMean, CompetenceStdDev, MinCompetence, MaxCompetence)
}
