//go:build fastmath

package smooth

import "github.com/meko-christian/algo-approx"

// mathLog computes ln(x) using fast approximation.
// Only called when a transition starts, never per sample.
func mathLog(x float64) float64 {
	return approx.FastLog(x)
}

// mathExp computes e^x using fast approximation.
func mathExp(x float64) float64 {
	return approx.FastExp(x)
}
