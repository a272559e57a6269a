// Package agents provides the agent record and the spawner that hires new
// agents into the organization.
package agents

import "fmt"

// AgentID is a unique identifier for an agent. IDs are never reused.
type AgentID uint64

// Competence bounds and attrition thresholds.
const (
	MinCompetence = 1.0
	MaxCompetence = 10.0

	CompetenceMean   = 7.0
	CompetenceStdDev = 2.0

	DismissThreshold = 4.0 // competence below this → dismissal
	RetireAge        = 60  // age above this → retirement

	MinHireAge = 18
	MaxHireAge = 60 // exclusive
)

// Agent is one member of the organization.
type Agent struct {
	ID AgentID `json:"id"`

	// Position
	Level int `json:"level"` // 0 = bottom
	Slot  int `json:"slot"`  // fixed horizontal position within the level

	Age        int     `json:"age"`        // years
	Competence float64 `json:"competence"` // 1.0–10.0
	Alive      bool    `json:"alive"`

	HiredStep  uint64 `json:"hired_step"` // time step the agent joined
	Promotions int    `json:"promotions"`
}

// ShouldDismiss reports whether the agent's competence is below the
// dismissal threshold.
func (a *Agent) ShouldDismiss() bool {
	return a.Competence < DismissThreshold
}

// ShouldRetire reports whether the agent is past retirement age.
func (a *Agent) ShouldRetire() bool {
	return a.Age > RetireAge
}

// String returns a short description of the agent.
func (a *Agent) String() string {
	return fmt.Sprintf("agent#%d(L%d/S%d age=%d comp=%.2f)", a.ID, a.Level, a.Slot, a.Age, a.Competence)
}
