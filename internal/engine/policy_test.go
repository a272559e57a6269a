package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseStrategy("Best")
	require.NoError(t, err)
	assert.Equal(t, StrategyBest, got)

	_, err = ParseStrategy("median")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestParseTransmission(t *testing.T) {
	cases := map[string]Transmission{
		"common-sense":       TransmissionCommonSense,
		"Common Sense":       TransmissionCommonSense,
		"fixed-distribution": TransmissionFixedDistribution,
		"Peter Hypothesis":   TransmissionFixedDistribution,
		"peter_hypothesis":   TransmissionFixedDistribution,
	}
	for name, want := range cases {
		got, err := ParseTransmission(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseTransmission("telepathy")
	assert.ErrorIs(t, err, ErrUnknownTransmission)
}

func TestPoliciesCoverEveryCombination(t *testing.T) {
	ps := Policies()
	assert.Len(t, ps, 6)
	seen := make(map[string]bool)
	for _, p := range ps {
		seen[p.String()] = true
	}
	assert.Len(t, seen, 6)
	assert.True(t, seen["worst/fixed-distribution"])
}
