package clipper

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-clip/dsp/buffer"
	"github.com/cwbudde/algo-clip/dsp/core"
	"github.com/cwbudde/algo-clip/dsp/effects/dynamics"
)

const (
	rampInputGain = iota
	rampCeiling
	rampReduce
	rampOutputGain
	rampCount
)

// Option configures a Processor at construction.
type Option func(*config) error

type config struct {
	proc     core.ProcessorConfig
	deltaRef dynamics.DeltaReference
}

// WithProcessorOptions sets the initial processing context.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(cfg *config) error {
		cfg.proc = core.ApplyProcessorOptions(opts...)
		return nil
	}
}

// WithDeltaReference selects what delta monitoring compares against.
func WithDeltaReference(ref dynamics.DeltaReference) Option {
	return func(cfg *config) error {
		if ref != dynamics.DeltaPostGain && ref != dynamics.DeltaPreGain {
			return fmt.Errorf("clipper delta reference is invalid: %d", ref)
		}

		cfg.deltaRef = ref

		return nil
	}
}

// Stats counts processed and clipped channel samples since the last
// ResetStats. Safe to read from any goroutine.
type Stats struct {
	ProcessedSamples uint64
	ClippedSamples   uint64
}

// ClipRatio returns the fraction of processed samples that were clipped.
func (s Stats) ClipRatio() float64 {
	if s.ProcessedSamples == 0 {
		return 0
	}

	return float64(s.ClippedSamples) / float64(s.ProcessedSamples)
}

// Processor is the real-time clipping engine.
type Processor struct {
	params *Params
	clip   *dynamics.HardClipper
	cfg    core.ProcessorConfig

	ramps *buffer.Bank
	work  *buffer.Buffer

	processed atomic.Uint64
	clipped   atomic.Uint64
}

// New creates a processor driven by params, prepared for the default
// context (48 kHz, 1024-sample blocks, stereo) unless overridden.
func New(params *Params, opts ...Option) (*Processor, error) {
	if params == nil {
		return nil, errors.New("clipper: params are nil")
	}

	cfg := config{
		proc:     core.DefaultProcessorConfig(),
		deltaRef: dynamics.DeltaPostGain,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	clip, err := dynamics.NewHardClipper(dynamics.WithDeltaReference(cfg.deltaRef))
	if err != nil {
		return nil, fmt.Errorf("clipper: %w", err)
	}

	p := &Processor{
		params: params,
		clip:   clip,
		cfg:    cfg.proc,
		ramps:  buffer.NewBank(rampCount, 0),
		work:   buffer.New(0),
	}

	err = p.Prepare(cfg.proc.SampleRate, cfg.proc.BlockSize)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Prepare sizes scratch storage for blocks of up to maxBlockSize samples at
// sampleRate and resets smoothing. It allocates and must not be called from
// the real-time thread.
func (p *Processor) Prepare(sampleRate float64, maxBlockSize int) error {
	cfg := p.cfg
	cfg.SampleRate = sampleRate
	cfg.BlockSize = maxBlockSize

	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("clipper: %w", err)
	}

	err = p.params.registry.Prepare(sampleRate)
	if err != nil {
		return fmt.Errorf("clipper: %w", err)
	}

	p.ramps.Resize(maxBlockSize)
	p.work.Resize(maxBlockSize)
	p.cfg = cfg
	p.Reset()

	return nil
}

// Reset drops any smoothing transition in progress so every parameter
// starts from its stored value.
func (p *Processor) Reset() {
	p.params.registry.Reset()
}

// Config returns the prepared processing context.
func (p *Processor) Config() core.ProcessorConfig { return p.cfg }

// Params returns the processor's parameters.
func (p *Processor) Params() *Params { return p.params }

// DeltaReference returns the delta comparison signal.
func (p *Processor) DeltaReference() dynamics.DeltaReference { return p.clip.DeltaReference() }

// Stats returns the clip counters.
func (p *Processor) Stats() Stats {
	return Stats{
		ProcessedSamples: p.processed.Load(),
		ClippedSamples:   p.clipped.Load(),
	}
}

// ResetStats zeroes the clip counters.
func (p *Processor) ResetStats() {
	p.processed.Store(0)
	p.clipped.Store(0)
}

// Process clips host float32 channels in place. At most Config().Channels
// channels are processed, over the length of the shortest one.
//
// Blocks longer than Config().BlockSize are processed in chunks of at most
// BlockSize frames. The delta switch and the smoother targets are read once
// at the start of each chunk, so a change made from another goroutine while
// Process runs takes effect at the next chunk boundary. Use ProcessAutomated
// for changes that must land on an exact sample.
func (p *Processor) Process(channels [][]float32) {
	processChannels(p, channels, 0, p.frameCount32(channels))
}

// ProcessFloat64 is Process for float64 channels, with the same per-chunk
// sampling of the delta switch and smoother targets.
func (p *Processor) ProcessFloat64(channels [][]float64) {
	processChannels(p, channels, 0, p.frameCount64(channels))
}

func (p *Processor) frameCount32(channels [][]float32) int {
	return frameCount(channels, p.cfg.Channels)
}

func (p *Processor) frameCount64(channels [][]float64) int {
	return frameCount(channels, p.cfg.Channels)
}

// renderControls advances every smoothed parameter n samples and returns the
// ramps together with the delta state for this chunk.
func (p *Processor) renderControls(n int) (in, ceiling, reduce, out []float64, delta bool) {
	in = p.ramps.At(rampInputGain).Head(n)
	ceiling = p.ramps.At(rampCeiling).Head(n)
	reduce = p.ramps.At(rampReduce).Head(n)
	out = p.ramps.At(rampOutputGain).Head(n)

	p.params.InputGain.NextBlock(in)
	p.params.Ceiling.NextBlock(ceiling)
	p.params.Reduce.NextBlock(reduce)
	p.params.OutputGain.NextBlock(out)

	return in, ceiling, reduce, out, p.params.Delta.Value()
}

type sample interface {
	~float32 | ~float64
}

func frameCount[T sample](channels [][]T, maxChannels int) int {
	count := min(len(channels), maxChannels)
	if count == 0 {
		return 0
	}

	n := len(channels[0])
	for _, ch := range channels[1:count] {
		n = min(n, len(ch))
	}

	return n
}

// processChannels clips frames [start, end) of every prepared channel in
// chunks of at most the prepared block size.
func processChannels[T sample](p *Processor, channels [][]T, start, end int) {
	count := min(len(channels), p.cfg.Channels)

	for start < end {
		n := min(end-start, p.cfg.BlockSize)
		in, ceiling, reduce, out, delta := p.renderControls(n)
		work := p.work.Head(n)

		clipped := 0

		for _, ch := range channels[:count] {
			frames := ch[start : start+n]
			for i, x := range frames {
				work[i] = float64(x)
			}

			clipped += p.clip.ProcessRamps(work, in, ceiling, reduce, out, delta)

			for i, y := range work {
				frames[i] = T(y)
			}
		}

		p.processed.Add(uint64(n * count))
		p.clipped.Add(uint64(clipped))

		start += n
	}
}
