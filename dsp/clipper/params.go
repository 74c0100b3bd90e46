package clipper

import (
	"github.com/cwbudde/algo-clip/dsp/core"
	"github.com/cwbudde/algo-clip/dsp/param"
	"github.com/cwbudde/algo-clip/dsp/smooth"
)

// Stable parameter ids.
const (
	IDInputGain  = "input_gain"
	IDCeiling    = "ceiling"
	IDReduce     = "reduce"
	IDOutputGain = "output_gain"
	IDDelta      = "delta"
)

const (
	gainMinDB     = -30.0
	gainMaxDB     = 30.0
	ceilingMinDB  = -60.0
	ceilingMaxDB  = 0.0
	gainSmoothMs  = 50.0
	gainDBDigits  = 2
	percentDigits = 0
)

// Params is the processor's control surface. Fields are safe to Set from any
// goroutine.
type Params struct {
	InputGain  *param.FloatParam
	Ceiling    *param.FloatParam
	Reduce     *param.FloatParam
	OutputGain *param.FloatParam
	Delta      *param.BoolParam

	registry *param.Registry
}

// NewParams builds the parameter set with its defaults: Input 0 dB,
// Ceiling 0 dB, Reduce 100 %, Output 0 dB, Delta off.
func NewParams() *Params {
	p := &Params{
		InputGain:  newGainParam(IDInputGain, "Input", param.GainRange(gainMinDB, gainMaxDB)),
		Ceiling:    newGainParam(IDCeiling, "Ceiling", param.GainRange(ceilingMinDB, ceilingMaxDB)),
		Reduce: param.MustFloat(IDReduce, "Reduce", 1, param.Linear(0, 1),
			param.WithUnit(" %"),
			param.WithFormatter(param.PercentString(percentDigits), param.PercentStringToValue()),
		),
		OutputGain: newGainParam(IDOutputGain, "Output", param.GainRange(gainMinDB, gainMaxDB)),
		Delta:      param.MustBool(IDDelta, "Delta", false),
		registry:   param.NewRegistry(),
	}

	p.registry.MustRegister(p.InputGain)
	p.registry.MustRegister(p.Ceiling)
	p.registry.MustRegister(p.Reduce)
	p.registry.MustRegister(p.OutputGain)
	p.registry.MustRegister(p.Delta)

	return p
}

// Registry returns the id-addressable view of the parameters.
func (p *Params) Registry() *param.Registry { return p.registry }

// SetDecibels sets a gain parameter from a decibel value.
func SetDecibels(fp *param.FloatParam, db float64) {
	fp.Set(core.DBToGain(db))
}

func newGainParam(id, name string, rng param.Range) *param.FloatParam {
	return param.MustFloat(id, name, core.DBToGain(0), rng,
		param.WithUnit(" dB"),
		param.WithSmoothing(smooth.StyleLogarithmic, gainSmoothMs),
		param.WithFormatter(param.GainToDBString(gainDBDigits), param.DBStringToGain()),
	)
}
