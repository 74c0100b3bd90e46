// Package window generates the cosine-sum analysis windows used for
// spectral measurement.
package window

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function. The zero value is Hann.
type Type int

const (
	TypeHann Type = iota
	TypeHamming
	TypeBlackman
	TypeBlackmanHarris4Term
	TypeFlatTop
	TypeRectangular
)

// Cosine-sum coefficients: w(x) = sum c[k]*cos(2*pi*k*x), x in [0, 1].
var (
	hannCoeffs            = []float64{0.5, -0.5}
	hammingCoeffs         = []float64{0.54, -0.46}
	blackmanCoeffs        = []float64{0.42, -0.5, 0.08}
	blackmanHarris4Coeffs = []float64{0.35875, -0.48829, 0.14128, -0.01168}
	flatTopCoeffs         = []float64{0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368}
	rectangularCoeffs     = []float64{1}
)

// Metadata holds static spectral properties of a window type.
type Metadata struct {
	Name string
	// MainLobeBins is the distance from the peak to the first null in bins
	// when the window spans the whole transform.
	MainLobeBins int
	// ENBW is the equivalent noise bandwidth in bins.
	ENBW float64
}

var metadataByType = map[Type]Metadata{
	TypeHann:                {Name: "Hann", MainLobeBins: 2, ENBW: 1.5},
	TypeHamming:             {Name: "Hamming", MainLobeBins: 2, ENBW: 1.3628},
	TypeBlackman:            {Name: "Blackman", MainLobeBins: 3, ENBW: 1.7268},
	TypeBlackmanHarris4Term: {Name: "Blackman-Harris", MainLobeBins: 4, ENBW: 2.0044},
	TypeFlatTop:             {Name: "Flat top", MainLobeBins: 5, ENBW: 3.7702},
	TypeRectangular:         {Name: "Rectangular", MainLobeBins: 1, ENBW: 1},
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic selects the periodic (FFT framing) form instead of the
// symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Valid reports whether t is a known window type.
func (t Type) Valid() bool {
	_, ok := metadataByType[t]
	return ok
}

// String returns the window name.
func (t Type) String() string {
	if m, ok := metadataByType[t]; ok {
		return m.Name
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// Info returns static metadata for a window type.
func Info(t Type) Metadata {
	return metadataByType[t]
}

// Generate returns window coefficients of the given length. Unknown types
// yield a rectangular window.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	Fill(t, out, cfg.periodic)

	return out
}

// Fill writes window coefficients into dst without allocating.
func Fill(t Type, dst []float64, periodic bool) {
	coeffs := coefficients(t)

	for i := range dst {
		dst[i] = cosineSum(position(i, len(dst), periodic), coeffs)
	}
}

// Apply multiplies buf in place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	vecmath.MulBlockInPlace(buf, Generate(t, len(buf), opts...))
}

// EquivalentNoiseBandwidth returns the ENBW of coeffs in bins.
func EquivalentNoiseBandwidth(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, fmt.Errorf("window coefficients must not be empty")
	}

	sum, sumSq := 0.0, 0.0
	for _, c := range coeffs {
		sum += c
		sumSq += c * c
	}

	if sum == 0 {
		return 0, fmt.Errorf("window coherent gain is zero")
	}

	return float64(len(coeffs)) * sumSq / (sum * sum), nil
}

func coefficients(t Type) []float64 {
	switch t {
	case TypeHann:
		return hannCoeffs
	case TypeHamming:
		return hammingCoeffs
	case TypeBlackman:
		return blackmanCoeffs
	case TypeBlackmanHarris4Term:
		return blackmanHarris4Coeffs
	case TypeFlatTop:
		return flatTopCoeffs
	default:
		return rectangularCoeffs
	}
}

func cosineSum(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func position(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
