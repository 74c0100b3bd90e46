// Package level computes sample-level statistics used to judge clipping:
// peak, RMS, crest factor and the number of samples at or over a threshold.
package level

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-clip/dsp/core"
)

// Stats summarizes a signal.
type Stats struct {
	Length  int
	DC      float64
	RMS     float64
	RMSdB   float64
	Peak    float64
	PeakPos int
	PeakdB  float64
	// CrestFactor is Peak/RMS, zero for silence.
	CrestFactor   float64
	CrestFactordB float64
	// ZeroCrossings counts sign changes. Exact zeros are skipped, so a run
	// through zero such as 1, 0, -1 counts once.
	ZeroCrossings int
	// Overs counts samples whose magnitude reaches the meter threshold.
	Overs int
	// Kurtosis is the excess kurtosis. A sine has -1.5; hard clipping pushes
	// it further towards the -2 of a square wave.
	Kurtosis float64
}

// Option configures a Meter.
type Option func(*Meter) error

// WithThreshold sets the linear magnitude counted as an over.
func WithThreshold(threshold float64) Option {
	return func(m *Meter) error {
		if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
			return fmt.Errorf("level threshold must be > 0 and finite: %f", threshold)
		}

		m.threshold = threshold

		return nil
	}
}

// Meter accumulates Stats across blocks. Feeding a signal in any split
// yields the same result as Calculate on the whole signal.
type Meter struct {
	threshold float64

	n       int
	mean    float64
	m2      float64
	m4      float64
	m3      float64
	sumSq   float64
	peak    float64
	peakPos int
	zc      int
	overs   int
	sign    float64 // sign of the last non-zero sample, 0 before any
}

// NewMeter creates a meter. The default threshold is full scale (1.0).
func NewMeter(opts ...Option) (*Meter, error) {
	m := &Meter{threshold: 1}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(m)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Calculate measures a whole signal against a full-scale threshold.
func Calculate(signal []float64) Stats {
	m := &Meter{threshold: 1}
	m.Update(signal)

	return m.Result()
}

// Threshold returns the over threshold.
func (m *Meter) Threshold() float64 { return m.threshold }

// Update adds a block of samples.
func (m *Meter) Update(samples []float64) {
	for _, x := range samples {
		m.add(x)
	}
}

// Update32 adds a block of host samples.
func (m *Meter) Update32(samples []float32) {
	for _, x := range samples {
		m.add(float64(x))
	}
}

func (m *Meter) add(x float64) {
	m.n++
	n := float64(m.n)

	// Welford update; m4 depends on the previous m3 and m2.
	delta := x - m.mean
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term := delta * deltaN * (n - 1)

	m.m4 += term*deltaN2*(n*n-3*n+3) + 6*deltaN2*m.m2 - 4*deltaN*m.m3
	m.m3 += term*deltaN*(n-2) - 3*deltaN*m.m2
	m.m2 += term
	m.mean += deltaN

	m.sumSq += x * x

	a := math.Abs(x)
	if a > m.peak || m.n == 1 {
		m.peak = a
		m.peakPos = m.n - 1
	}

	if a >= m.threshold {
		m.overs++
	}

	if x != 0 {
		sign := math.Copysign(1, x)
		if m.sign != 0 && sign != m.sign {
			m.zc++
		}

		m.sign = sign
	}
}

// Result returns the statistics of everything added since the last Reset.
func (m *Meter) Result() Stats {
	if m.n == 0 {
		return Stats{
			RMSdB:  core.MinusInfinityDB,
			PeakdB: core.MinusInfinityDB,
		}
	}

	n := float64(m.n)
	rms := math.Sqrt(m.sumSq / n)

	s := Stats{
		Length:        m.n,
		DC:            m.mean,
		RMS:           rms,
		RMSdB:         core.GainToDB(rms),
		Peak:          m.peak,
		PeakPos:       m.peakPos,
		PeakdB:        core.GainToDB(m.peak),
		ZeroCrossings: m.zc,
		Overs:         m.overs,
	}

	if rms > 0 {
		s.CrestFactor = m.peak / rms
		s.CrestFactordB = 20 * math.Log10(s.CrestFactor)
	}

	if variance := m.m2 / n; variance > 0 {
		s.Kurtosis = (m.m4/n)/(variance*variance) - 3
	}

	return s
}

// Reset clears the accumulated data and keeps the threshold.
func (m *Meter) Reset() {
	*m = Meter{threshold: m.threshold}
}
