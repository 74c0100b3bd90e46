package core

import "math"

const defaultEpsilon = 1e-12

const (
	// MinusInfinityDB is the level at and below which a gain is treated as silence.
	MinusInfinityDB = -100.0
	// MinusInfinityGain is the linear gain corresponding to MinusInfinityDB.
	MinusInfinityGain = 1e-5
)

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// DBToGain converts dB to linear amplitude (20*log10 convention).
// Levels at or below MinusInfinityDB map to 0.
func DBToGain(db float64) float64 {
	if db <= MinusInfinityDB {
		return 0
	}

	return math.Pow(10, db/20)
}

// GainToDB converts linear amplitude to dB (20*log10 convention).
// Gains below MinusInfinityGain, including zero and negative values,
// report MinusInfinityDB.
func GainToDB(gain float64) float64 {
	if !(gain > MinusInfinityGain) {
		return MinusInfinityDB
	}

	return 20 * math.Log10(gain)
}
