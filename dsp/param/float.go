package param

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/cwbudde/algo-clip/dsp/smooth"
)

// FloatOption configures a FloatParam at construction.
type FloatOption func(*floatConfig) error

type floatConfig struct {
	unit        string
	style       smooth.Style
	smoothingMs float64
	format      Formatter
	parse       Parser
}

// WithUnit sets the display unit appended after the formatted value, e.g. " dB".
func WithUnit(unit string) FloatOption {
	return func(cfg *floatConfig) error {
		cfg.unit = unit
		return nil
	}
}

// WithSmoothing selects how the real-time value chases a new target.
func WithSmoothing(style smooth.Style, timeMs float64) FloatOption {
	return func(cfg *floatConfig) error {
		if timeMs < 0 || !isFinite(timeMs) {
			return fmt.Errorf("smoothing time must be >= 0 and finite: %f", timeMs)
		}

		cfg.style = style
		cfg.smoothingMs = timeMs

		return nil
	}
}

// WithFormatter sets the value-to-string and string-to-value conversions.
func WithFormatter(format Formatter, parse Parser) FloatOption {
	return func(cfg *floatConfig) error {
		if format == nil || parse == nil {
			return errors.New("formatter and parser must both be set")
		}

		cfg.format = format
		cfg.parse = parse

		return nil
	}
}

// FloatParam is a continuously variable control with an atomically shared
// plain value and a real-time smoother.
type FloatParam struct {
	id   string
	name string
	unit string
	rng  Range
	def  float64

	bits atomic.Uint64

	smoother *smooth.Smoother
	format   Formatter
	parse    Parser
}

// NewFloat creates a float parameter. The default must lie inside rng.
func NewFloat(id, name string, def float64, rng Range, opts ...FloatOption) (*FloatParam, error) {
	if id == "" {
		return nil, errors.New("parameter id is empty")
	}

	err := rng.Validate()
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", id, err)
	}

	if def < rng.Min || def > rng.Max || math.IsNaN(def) {
		return nil, fmt.Errorf("parameter %s: default must be in [%g, %g]: %g", id, rng.Min, rng.Max, def)
	}

	cfg := floatConfig{
		style:  smooth.StyleNone,
		format: DecimalString(2),
		parse:  DecimalStringToValue(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err = opt(&cfg)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", id, err)
		}
	}

	sm, err := smooth.New(cfg.style, cfg.smoothingMs)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", id, err)
	}

	p := &FloatParam{
		id:       id,
		name:     name,
		unit:     cfg.unit,
		rng:      rng,
		def:      def,
		smoother: sm,
		format:   cfg.format,
		parse:    cfg.parse,
	}
	p.bits.Store(math.Float64bits(def))
	sm.Reset(def)

	return p, nil
}

// MustFloat is like NewFloat but panics on error.
func MustFloat(id, name string, def float64, rng Range, opts ...FloatOption) *FloatParam {
	p, err := NewFloat(id, name, def, rng, opts...)
	if err != nil {
		panic("param: " + err.Error())
	}

	return p
}

// ID returns the stable parameter id.
func (p *FloatParam) ID() string { return p.id }

// Name returns the display name.
func (p *FloatParam) Name() string { return p.name }

// Unit returns the display unit.
func (p *FloatParam) Unit() string { return p.unit }

// Range returns the value range.
func (p *FloatParam) Range() Range { return p.rng }

// Default returns the default plain value.
func (p *FloatParam) Default() float64 { return p.def }

// Value returns the latest plain value. Safe from any goroutine.
func (p *FloatParam) Value() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Set stores a plain value, clamped to the range. NaN is ignored.
// Safe from any goroutine.
func (p *FloatParam) Set(value float64) {
	if math.IsNaN(value) {
		return
	}

	p.bits.Store(math.Float64bits(p.rng.Clamp(value)))
}

// Normalized returns the value's position in [0, 1].
func (p *FloatParam) Normalized() float64 {
	return p.rng.Normalize(p.Value())
}

// SetNormalized stores the value at normalized position n.
func (p *FloatParam) SetNormalized(n float64) {
	if math.IsNaN(n) {
		return
	}

	p.Set(p.rng.Unnormalize(n))
}

// DefaultNormalized returns the default's normalized position.
func (p *FloatParam) DefaultNormalized() float64 {
	return p.rng.Normalize(p.def)
}

// Smoother exposes the real-time smoother for inspection.
func (p *FloatParam) Smoother() *smooth.Smoother { return p.smoother }

// Next advances the smoother one sample towards the latest stored value.
// Real-time thread only.
func (p *FloatParam) Next() float64 {
	p.syncTarget()
	return p.smoother.Next()
}

// NextBlock fills dst with the next len(dst) smoothed values. The stored
// value is sampled once at the start of the block. Real-time thread only.
func (p *FloatParam) NextBlock(dst []float64) {
	p.syncTarget()
	p.smoother.NextBlock(dst)
}

// Prepare updates the smoother for a new sample rate.
func (p *FloatParam) Prepare(sampleRate float64) error {
	err := p.smoother.SetSampleRate(sampleRate)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", p.id, err)
	}

	return nil
}

// Reset snaps the smoother to the stored value.
func (p *FloatParam) Reset() {
	p.smoother.Reset(p.Value())
}

// Format renders value with unit.
func (p *FloatParam) Format(value float64) string {
	return p.format(value) + p.unit
}

// Display renders the current value with unit.
func (p *FloatParam) Display() string {
	return p.Format(p.Value())
}

// Parse converts display text, with or without unit, into a plain value.
// The result is not clamped.
func (p *FloatParam) Parse(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if unit := strings.TrimSpace(p.unit); unit != "" {
		s = strings.TrimSpace(strings.TrimSuffix(s, unit))
	}

	v, err := p.parse(s)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", p.id, err)
	}

	return v, nil
}

// SetFromString parses text and stores the clamped result.
func (p *FloatParam) SetFromString(text string) error {
	v, err := p.Parse(text)
	if err != nil {
		return err
	}

	p.Set(v)

	return nil
}

func (p *FloatParam) String() string {
	return p.name + ": " + p.Display()
}

func (p *FloatParam) syncTarget() {
	if v := p.Value(); v != p.smoother.Target() {
		p.smoother.SetTarget(v)
	}
}
