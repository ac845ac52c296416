package sim

import (
	"math"
	"testing"
)

func TestRNGResumesFromCapturedPosition(t *testing.T) {
	r := NewRNG(42)
	for range 10 {
		r.Float64()
	}
	state, err := r.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	want := []float64{r.Float64(), r.ClippedNormal(0.5, 0.2), float64(r.Pick(ageWeights)), float64(r.IntN(100))}

	resumed := NewRNG(0)
	if err := resumed.UnmarshalBinary(state); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	got := []float64{resumed.Float64(), resumed.ClippedNormal(0.5, 0.2), float64(resumed.Pick(ageWeights)), float64(resumed.IntN(100))}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("draw %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestClippedNormalStaysInUnitInterval(t *testing.T) {
	r := NewRNG(3)
	for range 1000 {
		if v := r.ClippedNormal(0.9, 0.5); v < 0 || v > 1 {
			t.Fatalf("draw %v outside [0,1]", v)
		}
	}
}

func TestPickFollowsWeights(t *testing.T) {
	r := NewRNG(5)
	counts := make([]int, len(ageWeights))
	const n = 20000
	for range n {
		counts[r.Pick(ageWeights)]++
	}
	// Largest cohort (25) should clearly outnumber the smallest (85).
	if counts[2] < 3*counts[8] {
		t.Fatalf("unexpected cohort counts %v", counts)
	}
	if r.Pick([]float64{0, 1, 0}) != 1 {
		t.Fatal("expected the only weighted index")
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-0.5, 0},
		{0.25, 0.25},
		{3, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
	}
	for _, c := range cases {
		if got := clamp01(c.in); got != c.want {
			t.Fatalf("clamp01(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
