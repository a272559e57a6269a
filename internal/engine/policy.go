package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownStrategy     = errors.New("unknown promotion strategy")
	ErrUnknownTransmission = errors.New("unknown transmission model")
)

// Strategy selects which candidate at a level is promoted into a vacancy above.
type Strategy uint8

const (
	StrategyBest   Strategy = iota // highest competence, lowest id on ties
	StrategyWorst                  // lowest competence, lowest id on ties
	StrategyRandom                 // uniform over candidates
)

// Strategies lists every promotion strategy.
var Strategies = []Strategy{StrategyBest, StrategyWorst, StrategyRandom}

func (s Strategy) String() string {
	switch s {
	case StrategyBest:
		return "best"
	case StrategyWorst:
		return "worst"
	case StrategyRandom:
		return "random"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// ParseStrategy accepts "best", "worst" or "random" in any case.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Transmission decides what happens to competence on promotion.
type Transmission uint8

const (
	// TransmissionCommonSense keeps competence, perturbed by U(-1, 1).
	TransmissionCommonSense Transmission = iota
	// TransmissionFixedDistribution resamples competence from the hiring
	// distribution, independent of performance at the old level.
	TransmissionFixedDistribution
)

// Transmissions lists every transmission model.
var Transmissions = []Transmission{TransmissionCommonSense, TransmissionFixedDistribution}

func (t Transmission) String() string {
	switch t {
	case TransmissionCommonSense:
		return "common-sense"
	case TransmissionFixedDistribution:
		return "fixed-distribution"
	default:
		return fmt.Sprintf("transmission(%d)", uint8(t))
	}
}

// ParseTransmission accepts "common-sense" or "fixed-distribution".
// "peter" and "peter-hypothesis" are aliases for the latter.
func ParseTransmission(name string) (Transmission, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	n = strings.ReplaceAll(n, " ", "-")
	switch n {
	case "common-sense", "commonsense":
		return TransmissionCommonSense, nil
	case "fixed-distribution", "fixed", "peter", "peter-hypothesis":
		return TransmissionFixedDistribution, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTransmission, name)
}

// Policy is the per-step configuration read by AdvanceStep.
type Policy struct {
	Strategy     Strategy
	Transmission Transmission
}

func (p Policy) String() string {
	return p.Strategy.String() + "/" + p.Transmission.String()
}

// Policies returns every strategy × transmission combination.
func Policies() []Policy {
	out := make([]Policy, 0, len(Strategies)*len(Transmissions))
	for _, s := range Strategies {
		for _, t := range Transmissions {
			out = append(out, Policy{Strategy: s, Transmission: t})
		}
	}
	return out
}
