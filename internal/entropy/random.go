// Package entropy provides the random sources that drive hiring, promotion
// selection, and competence transmission. Runs are always seeded; crypto/rand
// supplies the seed when none is configured.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand"
)

// Source is the subset of *math/rand.Rand the simulation draws from.
type Source interface {
	Float64() float64
	NormFloat64() float64
	Intn(n int) int
}

// NewSeeded returns a deterministic source for the given seed.
func NewSeeded(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed))
}

// Uniform returns a value in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// CappedGaussian draws from N(mean, sd) and clamps the result to [lo, hi].
func CappedGaussian(src Source, mean, sd, lo, hi float64) float64 {
	return Clamp(mean+src.NormFloat64()*sd, lo, hi)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// CryptoSeed returns a positive seed drawn from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand.Read does not fail on supported platforms.
			panic("entropy: crypto/rand unavailable: " + err.Error())
		}
		if seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1); seed != 0 {
			return seed
		}
	}
}
