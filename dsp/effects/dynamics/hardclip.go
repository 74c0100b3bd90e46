package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultHardClipInputGain  = 1.0
	defaultHardClipCeiling    = 1.0
	defaultHardClipReduce     = 1.0
	defaultHardClipOutputGain = 1.0
)

// DeltaReference selects the signal that delta monitoring subtracts the
// clipped signal from.
type DeltaReference int

const (
	// DeltaPostGain outputs (input*inputGain - clipped): exactly what the
	// clipper removed from the signal it processed.
	DeltaPostGain DeltaReference = iota
	// DeltaPreGain outputs (input - clipped), comparing against the
	// original sample before input gain.
	DeltaPreGain
)

// String returns the reference name.
func (r DeltaReference) String() string {
	switch r {
	case DeltaPostGain:
		return "post-gain"
	case DeltaPreGain:
		return "pre-gain"
	default:
		return fmt.Sprintf("DeltaReference(%d)", int(r))
	}
}

// ClipSample applies a symmetric hard clip: samples whose magnitude exceeds
// ceiling snap to ±ceiling*reduce, all others pass unchanged.
func ClipSample(x, ceiling, reduce float64) float64 {
	switch {
	case x > ceiling:
		return ceiling * reduce
	case x < -ceiling:
		return -ceiling * reduce
	default:
		return x
	}
}

// ClipStage runs the full gain-staged transfer for one sample: input gain,
// hard clip, optional delta, output gain.
func ClipStage(x, inputGain, ceiling, reduce, outputGain float64, delta bool, ref DeltaReference) float64 {
	boosted := x * inputGain
	clipped := ClipSample(boosted, ceiling, reduce)

	if !delta {
		return outputGain * clipped
	}

	if ref == DeltaPreGain {
		return outputGain * (x - clipped)
	}

	return outputGain * (boosted - clipped)
}

// HardClipperOption mutates construction-time parameters.
type HardClipperOption func(*hardClipperConfig) error

type hardClipperConfig struct {
	inputGain  float64
	ceiling    float64
	reduce     float64
	outputGain float64
	delta      bool
	deltaRef   DeltaReference
}

func defaultHardClipperConfig() hardClipperConfig {
	return hardClipperConfig{
		inputGain:  defaultHardClipInputGain,
		ceiling:    defaultHardClipCeiling,
		reduce:     defaultHardClipReduce,
		outputGain: defaultHardClipOutputGain,
		deltaRef:   DeltaPostGain,
	}
}

// WithInputGain sets the linear pre-clip gain (>= 0).
func WithInputGain(gain float64) HardClipperOption {
	return func(cfg *hardClipperConfig) error {
		err := validateGain("input gain", gain)
		if err != nil {
			return err
		}

		cfg.inputGain = gain

		return nil
	}
}

// WithCeiling sets the linear clip threshold (>= 0).
func WithCeiling(ceiling float64) HardClipperOption {
	return func(cfg *hardClipperConfig) error {
		err := validateGain("ceiling", ceiling)
		if err != nil {
			return err
		}

		cfg.ceiling = ceiling

		return nil
	}
}

// WithReduce sets the fraction of the ceiling that clipped peaks snap to, in [0, 1].
func WithReduce(reduce float64) HardClipperOption {
	return func(cfg *hardClipperConfig) error {
		err := validateReduce(reduce)
		if err != nil {
			return err
		}

		cfg.reduce = reduce

		return nil
	}
}

// WithOutputGain sets the linear post-clip gain (>= 0).
func WithOutputGain(gain float64) HardClipperOption {
	return func(cfg *hardClipperConfig) error {
		err := validateGain("output gain", gain)
		if err != nil {
			return err
		}

		cfg.outputGain = gain

		return nil
	}
}

// WithDelta enables delta monitoring.
func WithDelta(enabled bool) HardClipperOption {
	return func(cfg *hardClipperConfig) error {
		cfg.delta = enabled
		return nil
	}
}

// WithDeltaReference selects what delta monitoring compares against.
func WithDeltaReference(ref DeltaReference) HardClipperOption {
	return func(cfg *hardClipperConfig) error {
		if !validDeltaReference(ref) {
			return fmt.Errorf("hard clipper delta reference is invalid: %d", ref)
		}

		cfg.deltaRef = ref

		return nil
	}
}

// HardClipper is a stateless gain-staged symmetric hard clipper.
//
// Each sample is multiplied by the input gain, hard clipped at the ceiling
// and multiplied by the output gain. Peaks above the ceiling snap to
// reduce*ceiling, so a reduce below 1 lowers the clipped plateau without
// touching samples under the ceiling. With delta enabled the output is what
// clipping removed instead of the clipped signal.
//
// Parameters (all gains linear):
//   - InputGain: pre-clip gain, >= 0
//   - Ceiling: clip threshold, >= 0
//   - Reduce: fraction of the ceiling that clipped peaks snap to, [0, 1]
//   - OutputGain: post-clip gain, >= 0, also applied to the delta signal
//   - Delta: output the removed part instead of the clipped signal
//   - DeltaReference: compare against the signal after ([DeltaPostGain]) or
//     before ([DeltaPreGain]) the input gain
//
// ProcessSample and ProcessInPlace use the fixed settings held by the
// clipper. ProcessRamps takes per-sample control values instead, for hosts
// that smooth parameters; only the delta reference is taken from the clipper
// in that case.
//
// The clipper keeps no signal state, so one instance can serve any number of
// channels in turn. It is not thread-safe: setters must not run concurrently
// with processing.
type HardClipper struct {
	inputGain  float64
	ceiling    float64
	reduce     float64
	outputGain float64
	delta      bool
	deltaRef   DeltaReference
}

// NewHardClipper creates a hard clipper. Options are applied in order and
// the first invalid one aborts construction.
//
// Default parameters:
//   - InputGain: 1 (0 dB)
//   - Ceiling: 1 (0 dBFS)
//   - Reduce: 1
//   - OutputGain: 1 (0 dB)
//   - Delta: off
//   - DeltaReference: DeltaPostGain
func NewHardClipper(opts ...HardClipperOption) (*HardClipper, error) {
	cfg := defaultHardClipperConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	return &HardClipper{
		inputGain:  cfg.inputGain,
		ceiling:    cfg.ceiling,
		reduce:     cfg.reduce,
		outputGain: cfg.outputGain,
		delta:      cfg.delta,
		deltaRef:   cfg.deltaRef,
	}, nil
}

// SetInputGain sets the linear pre-clip gain.
func (h *HardClipper) SetInputGain(gain float64) error {
	err := validateGain("input gain", gain)
	if err != nil {
		return err
	}

	h.inputGain = gain

	return nil
}

// SetCeiling sets the linear clip threshold.
func (h *HardClipper) SetCeiling(ceiling float64) error {
	err := validateGain("ceiling", ceiling)
	if err != nil {
		return err
	}

	h.ceiling = ceiling

	return nil
}

// SetReduce sets the clip-point fraction in [0, 1].
func (h *HardClipper) SetReduce(reduce float64) error {
	err := validateReduce(reduce)
	if err != nil {
		return err
	}

	h.reduce = reduce

	return nil
}

// SetOutputGain sets the linear post-clip gain.
func (h *HardClipper) SetOutputGain(gain float64) error {
	err := validateGain("output gain", gain)
	if err != nil {
		return err
	}

	h.outputGain = gain

	return nil
}

// SetDelta toggles delta monitoring.
func (h *HardClipper) SetDelta(enabled bool) { h.delta = enabled }

// SetDeltaReference selects what delta monitoring compares against.
func (h *HardClipper) SetDeltaReference(ref DeltaReference) error {
	if !validDeltaReference(ref) {
		return fmt.Errorf("hard clipper delta reference is invalid: %d", ref)
	}

	h.deltaRef = ref

	return nil
}

// InputGain returns the linear pre-clip gain.
func (h *HardClipper) InputGain() float64 { return h.inputGain }

// Ceiling returns the linear clip threshold.
func (h *HardClipper) Ceiling() float64 { return h.ceiling }

// Reduce returns the clip-point fraction.
func (h *HardClipper) Reduce() float64 { return h.reduce }

// OutputGain returns the linear post-clip gain.
func (h *HardClipper) OutputGain() float64 { return h.outputGain }

// Delta reports whether delta monitoring is on.
func (h *HardClipper) Delta() bool { return h.delta }

// DeltaReference returns the delta comparison signal.
func (h *HardClipper) DeltaReference() DeltaReference { return h.deltaRef }

// ProcessSample clips one sample with the fixed settings.
func (h *HardClipper) ProcessSample(input float64) float64 {
	return ClipStage(input, h.inputGain, h.ceiling, h.reduce, h.outputGain, h.delta, h.deltaRef)
}

// ProcessInPlace clips buf in place with the fixed settings.
func (h *HardClipper) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = h.ProcessSample(buf[i])
	}
}

// ProcessRamps clips buf in place using one control value per sample from
// each ramp and returns the number of samples that hit the ceiling. Ramps
// shorter than buf limit the processed length.
func (h *HardClipper) ProcessRamps(buf, inputGain, ceiling, reduce, outputGain []float64, delta bool) int {
	n := min(len(buf), len(inputGain), len(ceiling), len(reduce), len(outputGain))
	buf = buf[:n]
	inputGain = inputGain[:n]
	ceiling = ceiling[:n]
	reduce = reduce[:n]
	outputGain = outputGain[:n]

	clippedCount := 0

	if h.deltaRef == DeltaPreGain {
		for i, x := range buf {
			boosted := x * inputGain[i]
			clipped := ClipSample(boosted, ceiling[i], reduce[i])

			if clipped != boosted {
				clippedCount++
			}

			if delta {
				buf[i] = x - clipped
			} else {
				buf[i] = clipped
			}
		}
	} else {
		vecmath.MulBlockInPlace(buf, inputGain)

		for i, boosted := range buf {
			clipped := ClipSample(boosted, ceiling[i], reduce[i])

			if clipped != boosted {
				clippedCount++
			}

			if delta {
				buf[i] = boosted - clipped
			} else {
				buf[i] = clipped
			}
		}
	}

	vecmath.MulBlockInPlace(buf, outputGain)

	return clippedCount
}

func validateGain(name string, gain float64) error {
	if gain < 0 || !isFinite(gain) {
		return fmt.Errorf("hard clipper %s must be >= 0 and finite: %f", name, gain)
	}

	return nil
}

func validateReduce(reduce float64) error {
	if reduce < 0 || reduce > 1 || !isFinite(reduce) {
		return fmt.Errorf("hard clipper reduce must be in [0, 1]: %f", reduce)
	}

	return nil
}

func validDeltaReference(ref DeltaReference) bool {
	return ref == DeltaPostGain || ref == DeltaPreGain
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
