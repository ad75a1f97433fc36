package world

import (
	"math"
)

// Deterministic seeded 2D value noise. Lattice values come from an integer hash of the lattice
// point and the seed, so the same (x, y, seed) always samples the same value on any machine.

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func hash2(x, y int64, seed int64) uint64 {
	// SplitMix64 finalizer over a per-axis weighted sum
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(seed)*0x6C62272E07BB0142
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	v = v ^ (v >> 31)
	return v
}

func latticeValue(x, y int64, seed int64) float64 {
	// [0,1]
	h := hash2(x, y, seed)
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

// valueNoise2D returns smooth noise in [0,1].
func valueNoise2D(x, y float64, seed int64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	x1 := x0 + 1
	y1 := y0 + 1

	fx := fade(x - x0)
	fy := fade(y - y0)

	v00 := latticeValue(int64(x0), int64(y0), seed)
	v10 := latticeValue(int64(x1), int64(y0), seed)
	v01 := latticeValue(int64(x0), int64(y1), seed)
	v11 := latticeValue(int64(x1), int64(y1), seed)

	i0 := lerp(v00, v10, fx)
	i1 := lerp(v01, v11, fx)
	return lerp(i0, i1, fy)
}

// Noise2D is the signed sampler the terrain generator uses, in [-1,1].
func Noise2D(x, y float64, seed int64) float64 {
	return valueNoise2D(x, y, seed)*2 - 1
}
