package smooth

import (
	"fmt"
	"math"
)

const (
	defaultSampleRate = 48000.0

	// exponentialResidual is the remaining fraction of a transition after
	// the smoothing time has elapsed in StyleExponential.
	exponentialResidual = 1e-4
)

// Style selects the interpolation curve of a Smoother.
type Style int

const (
	StyleNone Style = iota
	StyleLinear
	StyleLogarithmic
	StyleExponential
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StyleNone:
		return "none"
	case StyleLinear:
		return "linear"
	case StyleLogarithmic:
		return "logarithmic"
	case StyleExponential:
		return "exponential"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// stepMode is the per-transition update rule chosen by SetTarget.
type stepMode int

const (
	stepAdd stepMode = iota
	stepMul
	stepApproach
)

// Smoother chases a target value one sample at a time.
type Smoother struct {
	style      Style
	timeMs     float64
	sampleRate float64
	steps      int

	current   float64
	target    float64
	stepsLeft int
	step      float64
	mode      stepMode
	rising    bool
}

// New creates a smoother with the given style and smoothing time in
// milliseconds. The sample rate defaults to 48 kHz until SetSampleRate is
// called.
func New(style Style, timeMs float64) (*Smoother, error) {
	if !validStyle(style) {
		return nil, fmt.Errorf("smoothing style is invalid: %d", style)
	}

	if timeMs < 0 || math.IsNaN(timeMs) || math.IsInf(timeMs, 0) {
		return nil, fmt.Errorf("smoothing time must be >= 0 and finite: %f", timeMs)
	}

	s := &Smoother{
		style:      style,
		timeMs:     timeMs,
		sampleRate: defaultSampleRate,
	}
	s.steps = s.stepCount()

	return s, nil
}

// SetSampleRate updates the sample rate. A transition in progress restarts
// from the current value with the new step count.
func (s *Smoother) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("smoother sample rate must be > 0 and finite: %f", sampleRate)
	}

	s.sampleRate = sampleRate
	s.steps = s.stepCount()

	if s.stepsLeft > 0 {
		s.SetTarget(s.target)
	}

	return nil
}

// SetTarget starts a transition from the current value towards target.
func (s *Smoother) SetTarget(target float64) {
	s.target = target

	if s.steps == 0 || target == s.current {
		s.current = target
		s.stepsLeft = 0

		return
	}

	s.stepsLeft = s.steps
	s.rising = target > s.current

	switch s.style {
	case StyleLogarithmic:
		if s.current > 0 && target > 0 {
			s.mode = stepMul
			s.step = mathExp((mathLog(target) - mathLog(s.current)) / float64(s.steps))

			return
		}
		// The log domain is undefined at or below zero.
		s.mode = stepAdd
		s.step = (target - s.current) / float64(s.steps)
	case StyleExponential:
		s.mode = stepApproach
		s.step = mathExp(math.Log(exponentialResidual) / float64(s.steps))
	default:
		s.mode = stepAdd
		s.step = (target - s.current) / float64(s.steps)
	}
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float64 {
	if s.stepsLeft == 0 {
		return s.target
	}

	s.stepsLeft--
	if s.stepsLeft == 0 {
		s.current = s.target

		return s.current
	}

	switch s.mode {
	case stepMul:
		s.current *= s.step
	case stepApproach:
		s.current = s.target + (s.current-s.target)*s.step
	default:
		s.current += s.step
	}

	// Rounding in the step coefficient must never carry the value past the target.
	if (s.rising && s.current > s.target) || (!s.rising && s.current < s.target) {
		s.current = s.target
		s.stepsLeft = 0
	}

	return s.current
}

// NextBlock fills dst with consecutive smoothed values, advancing len(dst) steps.
func (s *Smoother) NextBlock(dst []float64) {
	if s.stepsLeft == 0 {
		for i := range dst {
			dst[i] = s.target
		}

		return
	}

	for i := range dst {
		dst[i] = s.Next()
	}
}

// Reset jumps to value without a transition.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.stepsLeft = 0
}

// Current returns the most recent smoothed value without advancing.
func (s *Smoother) Current() float64 { return s.current }

// Target returns the value being approached.
func (s *Smoother) Target() float64 { return s.target }

// IsSmoothing reports whether a transition is in progress.
func (s *Smoother) IsSmoothing() bool { return s.stepsLeft > 0 }

// StepsLeft returns the number of samples until the target is reached.
func (s *Smoother) StepsLeft() int { return s.stepsLeft }

// Steps returns the transition length in samples at the current sample rate.
func (s *Smoother) Steps() int { return s.steps }

// Style returns the smoothing style.
func (s *Smoother) Style() Style { return s.style }

// TimeMs returns the smoothing time in milliseconds.
func (s *Smoother) TimeMs() float64 { return s.timeMs }

func (s *Smoother) stepCount() int {
	if s.style == StyleNone {
		return 0
	}

	return int(math.Round(s.timeMs * s.sampleRate / 1000))
}

func validStyle(style Style) bool {
	return style >= StyleNone && style <= StyleExponential
}
