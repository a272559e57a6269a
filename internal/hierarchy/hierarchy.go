// Package hierarchy defines the fixed level structure of the organization:
// how many levels exist, how many slots each level holds, and how much each
// level's competence counts toward overall efficiency.
package hierarchy

import (
	"errors"
	"fmt"
)

// ErrInvalidStructure is returned by Validate for malformed level tables.
var ErrInvalidStructure = errors.New("invalid hierarchy structure")

// MaxCompetence is the competence ceiling used for the theoretical maximum score.
const MaxCompetence = 10.0

// Structure holds the per-level capacity and responsibility weight tables.
// Index 0 is the bottom level, the last index is the top.
type Structure struct {
	Capacity       []int     `json:"capacity"`
	Responsibility []float64 `json:"responsibility"`
}

// Occupancy answers whether a slot is held by an alive agent.
type Occupancy interface {
	Occupied(level, slot int) bool
}

// Default returns the six-level pyramid: 81, 41, 21, 11, 5, 1.
func Default() Structure {
	return Structure{
		Capacity:       []int{81, 41, 21, 11, 5, 1},
		Responsibility: []float64{0.3, 0.5, 0.6, 0.7, 0.85, 1.0},
	}
}

// Levels returns the number of levels.
func (s Structure) Levels() int {
	return len(s.Capacity)
}

// Top returns the index of the top level.
func (s Structure) Top() int {
	return len(s.Capacity) - 1
}

// TotalCapacity returns the number of slots across all levels.
func (s Structure) TotalCapacity() int {
	total := 0
	for _, c := range s.Capacity {
		total += c
	}
	return total
}

// MaxScore is the weighted score of a fully staffed organization in which
// every agent has maximum competence.
func (s Structure) MaxScore() float64 {
	max := 0.0
	for lvl, c := range s.Capacity {
		max += float64(c) * MaxCompetence * s.Responsibility[lvl]
	}
	return max
}

// Validate checks table lengths, positive capacities and weights in (0,1]
// that never decrease going up.
func (s Structure) Validate() error {
	if len(s.Capacity) == 0 {
		return fmt.Errorf("%w: no levels", ErrInvalidStructure)
	}
	if len(s.Capacity) != len(s.Responsibility) {
		return fmt.Errorf("%w: %d capacities but %d weights",
			ErrInvalidStructure, len(s.Capacity), len(s.Responsibility))
	}
	prev := 0.0
	for lvl := range s.Capacity {
		if s.Capacity[lvl] <= 0 {
			return fmt.Errorf("%w: level %d capacity %d", ErrInvalidStructure, lvl, s.Capacity[lvl])
		}
		w := s.Responsibility[lvl]
		if w <= 0 || w > 1 {
			return fmt.Errorf("%w: level %d weight %.3f outside (0,1]", ErrInvalidStructure, lvl, w)
		}
		if w < prev {
			return fmt.Errorf("%w: level %d weight %.3f below level %d", ErrInvalidStructure, lvl, w, lvl-1)
		}
		prev = w
	}
	return nil
}

// FindVacantSlot returns the lowest slot index at level that no alive agent
// holds. ok is false when the level is full.
func (s Structure) FindVacantSlot(level int, occ Occupancy) (slot int, ok bool) {
	for i := 0; i < s.Capacity[level]; i++ {
		if !occ.Occupied(level, i) {
			return i, true
		}
	}
	return 0, false
}

// String returns a summary of the structure.
func (s Structure) String() string {
	return fmt.Sprintf("Structure(levels=%d, slots=%d)", s.Levels(), s.TotalCapacity())
}
