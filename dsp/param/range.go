package param

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-clip/dsp/core"
)

// Range maps a plain value domain [Min, Max] onto normalized positions
// [0, 1]. Factor 1 is a linear mapping; factors below 1 give more
// resolution near Min, factors above 1 more resolution near Max.
type Range struct {
	Min    float64
	Max    float64
	Factor float64
}

// Linear returns a linear range.
func Linear(min, max float64) Range {
	return Range{Min: min, Max: max, Factor: 1}
}

// Skewed returns a range whose normalized position is
// ((v-min)/(max-min))^factor.
func Skewed(min, max, factor float64) Range {
	return Range{Min: min, Max: max, Factor: factor}
}

// GainRange returns a skewed range over linear gain between minDB and maxDB
// that puts the middle decibel value at normalized 0.5.
func GainRange(minDB, maxDB float64) Range {
	return Skewed(core.DBToGain(minDB), core.DBToGain(maxDB), GainSkewFactor(minDB, maxDB))
}

// GainSkewFactor returns the skew factor for a gain range between minDB and
// maxDB such that the center position maps to the middle decibel value.
func GainSkewFactor(minDB, maxDB float64) float64 {
	minGain := core.DBToGain(minDB)
	maxGain := core.DBToGain(maxDB)
	middleGain := core.DBToGain((minDB + maxDB) / 2)

	return math.Log(0.5) / math.Log((middleGain-minGain)/(maxGain-minGain))
}

// Validate reports whether the range is usable.
func (r Range) Validate() error {
	if !isFinite(r.Min) || !isFinite(r.Max) || r.Min >= r.Max {
		return fmt.Errorf("range bounds must be finite with min < max: [%g, %g]", r.Min, r.Max)
	}

	if !isFinite(r.Factor) || r.Factor <= 0 {
		return fmt.Errorf("range skew factor must be > 0 and finite: %g", r.Factor)
	}

	return nil
}

// IsLinear reports whether the mapping is linear.
func (r Range) IsLinear() bool { return r.Factor == 1 }

// Clamp limits v to [Min, Max].
func (r Range) Clamp(v float64) float64 {
	return core.Clamp(v, r.Min, r.Max)
}

// Normalize maps a plain value to [0, 1], clamping out-of-range input.
func (r Range) Normalize(v float64) float64 {
	n := (r.Clamp(v) - r.Min) / (r.Max - r.Min)
	if r.IsLinear() {
		return n
	}

	return math.Pow(n, r.Factor)
}

// Unnormalize maps a normalized position to a plain value, clamping the
// position to [0, 1].
func (r Range) Unnormalize(n float64) float64 {
	n = core.Clamp(n, 0, 1)
	if !r.IsLinear() {
		n = math.Pow(n, 1/r.Factor)
	}

	return r.Clamp(n*(r.Max-r.Min) + r.Min)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
