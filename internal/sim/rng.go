package sim

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// RNG is the single seeded random stream of a run. Every probabilistic draw
// goes through it so that a seed reproduces a trajectory exactly.
type RNG struct {
	pcg *rand.PCG
	r   *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed uint64) *RNG {
	pcg := rand.NewPCG(seed, 0)
	return &RNG{pcg: pcg, r: rand.New(pcg)}
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// IntN returns a value in [0, n).
func (r *RNG) IntN(n int) int { return r.r.IntN(n) }

// Chance reports whether a uniform draw lands below p.
func (r *RNG) Chance(p float64) bool { return r.r.Float64() < p }

// Shuffle permutes n elements through swap.
func (r *RNG) Shuffle(n int, swap func(i, j int)) { r.r.Shuffle(n, swap) }

// ClippedNormal draws from N(mean, sigma) and clamps the result to [0, 1].
func (r *RNG) ClippedNormal(mean, sigma float64) float64 {
	n := distuv.Normal{Mu: mean, Sigma: sigma, Src: r.pcg}
	return clamp01(n.Rand())
}

// Pick returns an index drawn from the categorical distribution given by
// weights.
func (r *RNG) Pick(weights []float64) int {
	return int(distuv.NewCategorical(weights, r.pcg).Rand())
}

// MarshalBinary captures the stream position.
func (r *RNG) MarshalBinary() ([]byte, error) { return r.pcg.MarshalBinary() }

// UnmarshalBinary rewinds the stream to a captured position.
func (r *RNG) UnmarshalBinary(data []byte) error { return r.pcg.UnmarshalBinary(data) }

// clamp01 maps v into [0,1]. NaN maps to 0.
func clamp01(v float64) float64 {
	if !(v >= 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
