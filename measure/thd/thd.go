// Package thd measures total harmonic distortion of a periodic test signal.
package thd

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-clip/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultLowerHz = 20.0
	defaultUpperHz = 20000.0
)

// ErrEmptySignal is returned when there is nothing to analyze.
var ErrEmptySignal = errors.New("thd: empty signal")

// Config holds the analysis parameters.
type Config struct {
	SampleRate float64
	// FFTSize is the transform length. Zero picks the next power of two
	// that holds the whole signal.
	FFTSize int
	// FundamentalFreq pins the fundamental. Zero selects the strongest bin
	// inside [LowerFreq, UpperFreq].
	FundamentalFreq float64
	LowerFreq       float64
	UpperFreq       float64
	// WindowType selects the analysis window. The zero value is Hann.
	WindowType window.Type
	// CaptureBins is the number of bins on each side of a peak whose energy
	// counts towards it. Zero derives it from the window's main lobe.
	CaptureBins int
	// MaxHarmonics limits the harmonics considered. Zero means all that fit
	// below UpperFreq.
	MaxHarmonics int
}

// Result holds the measured distortion figures. Ratios are amplitude ratios
// relative to the fundamental.
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64
	THD              float64
	THDdB            float64
	THDN             float64
	THDNdB           float64
	SINAD            float64
	OddHD            float64
	EvenHD           float64
	// Harmonics[i] is the level of harmonic i+2 relative to the fundamental.
	Harmonics []float64
}

// Analyzer measures THD with a reusable transform plan and scratch space.
// It is not safe for concurrent use.
type Analyzer struct {
	cfg  Config
	plan *algofft.Plan[complex128]

	window    []float64
	windowLen int
	windowed  []float64
	spectrum  []complex128
	timeData  []complex128
	re, im    []float64
	power     []float64
}

// NewAnalyzer validates cfg and prepares an analyzer for cfg.FFTSize-point
// transforms.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.FFTSize < 2 {
		return nil, fmt.Errorf("thd: fft size must be >= 2: %d", cfg.FFTSize)
	}

	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("thd: %w", err)
	}

	n := cfg.FFTSize
	bins := n/2 + 1

	return &Analyzer{
		cfg:      cfg,
		plan:     plan,
		window:   make([]float64, n),
		windowed: make([]float64, n),
		spectrum: make([]complex128, n),
		timeData: make([]complex128, n),
		re:       make([]float64, bins),
		im:       make([]float64, bins),
		power:    make([]float64, bins),
	}, nil
}

// AnalyzeSignal is a one-shot analysis of a time-domain signal.
func AnalyzeSignal(signal []float64, cfg Config) (Result, error) {
	if len(signal) == 0 {
		return Result{}, ErrEmptySignal
	}

	if cfg.FFTSize <= 0 {
		cfg.FFTSize = nextPowerOf2(max(len(signal), 2))
	}

	a, err := NewAnalyzer(cfg)
	if err != nil {
		return Result{}, err
	}

	return a.Analyze(signal)
}

// Config returns the normalized configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze applies the configured window to the first FFTSize samples of signal,
// zero-padding shorter input, and measures the harmonic content.
func (a *Analyzer) Analyze(signal []float64) (Result, error) {
	if len(signal) == 0 {
		return Result{}, ErrEmptySignal
	}

	n := a.cfg.FFTSize
	m := min(len(signal), n)

	if a.windowLen != m {
		window.Fill(a.cfg.WindowType, a.window[:m], true)
		a.windowLen = m
	}

	w := a.window[:m]
	vecmath.MulBlock(a.windowed[:m], signal[:m], w)

	for i := range a.timeData {
		if i < m {
			a.timeData[i] = complex(a.windowed[i], 0)
		} else {
			a.timeData[i] = 0
		}
	}

	err := a.plan.Forward(a.spectrum, a.timeData)
	if err != nil {
		return Result{}, fmt.Errorf("thd: %w", err)
	}

	for i := range a.power {
		a.re[i] = real(a.spectrum[i])
		a.im[i] = imag(a.spectrum[i])
	}

	vecmath.Power(a.power, a.re, a.im)

	// Scale so a bin's energy summed over the main lobe equals the squared
	// amplitude of the sinusoid it came from.
	energy := 0.0
	for _, v := range w {
		energy += v * v
	}

	if energy == 0 {
		return Result{}, ErrEmptySignal
	}

	scale := 4 / (float64(n) * energy)
	for i := range a.power {
		a.power[i] *= scale
	}

	cfg := a.cfg
	if cfg.CaptureBins == 0 {
		lobe := window.Info(cfg.WindowType).MainLobeBins
		cfg.CaptureBins = int(math.Ceil(float64(lobe*n) / float64(m)))
	}

	return analyzePower(a.power, cfg), nil
}

// AnalyzePower measures THD from a one-sided power spectrum covering bins
// 0 through Nyquist, where each entry is the squared amplitude contributed by
// that bin. cfg.FFTSize defaults to 2*(len(power)-1).
func AnalyzePower(power []float64, cfg Config) (Result, error) {
	if len(power) < 2 {
		return Result{}, ErrEmptySignal
	}

	if cfg.FFTSize <= 0 {
		cfg.FFTSize = 2 * (len(power) - 1)
	}

	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return Result{}, err
	}

	if cfg.CaptureBins == 0 {
		cfg.CaptureBins = window.Info(cfg.WindowType).MainLobeBins
	}

	return analyzePower(power, cfg), nil
}

func analyzePower(power []float64, cfg Config) Result {
	maxBin := len(power) - 1
	binHz := cfg.SampleRate / float64(cfg.FFTSize)

	lower := clampInt(int(math.Round(cfg.LowerFreq/binHz)), 1, maxBin)
	upper := clampInt(int(math.Round(cfg.UpperFreq/binHz)), lower, maxBin)

	fund := fundamentalBin(power, cfg.FundamentalFreq, binHz, lower, upper)

	capture := min(cfg.CaptureBins, fund/2)

	fundEnergy := captureEnergy(power, fund, capture)

	res := Result{FundamentalFreq: float64(fund) * binHz}
	if fundEnergy <= 0 {
		return res
	}

	var harmEnergy, oddEnergy, evenEnergy float64

	for k := 2; ; k++ {
		if cfg.MaxHarmonics > 0 && k-1 > cfg.MaxHarmonics {
			break
		}

		bin := k * fund
		if bin > upper {
			break
		}

		e := captureEnergy(power, bin, capture)
		harmEnergy += e

		if k%2 == 0 {
			evenEnergy += e
		} else {
			oddEnergy += e
		}

		res.Harmonics = append(res.Harmonics, math.Sqrt(e/fundEnergy))
	}

	total := 0.0
	for _, v := range power[lower : upper+1] {
		total += v
	}

	residual := max(total-captureEnergy(power, fund, capture), 0)

	res.FundamentalLevel = math.Sqrt(fundEnergy)
	res.THD = math.Sqrt(harmEnergy / fundEnergy)
	res.THDN = math.Sqrt(residual / fundEnergy)
	res.OddHD = math.Sqrt(oddEnergy / fundEnergy)
	res.EvenHD = math.Sqrt(evenEnergy / fundEnergy)
	res.THDdB = ratioToDB(res.THD)
	res.THDNdB = ratioToDB(res.THDN)
	res.SINAD = -res.THDNdB

	return res
}

func fundamentalBin(power []float64, freq, binHz float64, lower, upper int) int {
	if freq > 0 {
		return clampInt(int(math.Round(freq/binHz)), lower, upper)
	}

	best := lower
	for i := lower + 1; i <= upper; i++ {
		if power[i] > power[best] {
			best = i
		}
	}

	return best
}

func captureEnergy(power []float64, bin, capture int) float64 {
	lo := max(bin-capture, 0)
	hi := min(bin+capture, len(power)-1)

	sum := 0.0
	for _, v := range power[lo : hi+1] {
		sum += v
	}

	return sum
}

func normalizeConfig(cfg Config) (Config, error) {
	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) || math.IsInf(cfg.SampleRate, 0) {
		return cfg, fmt.Errorf("thd: sample rate must be > 0 and finite: %f", cfg.SampleRate)
	}

	if !cfg.WindowType.Valid() {
		return cfg, fmt.Errorf("thd: unknown window type: %d", int(cfg.WindowType))
	}

	if cfg.CaptureBins < 0 {
		return cfg, fmt.Errorf("thd: capture bins must be >= 0: %d", cfg.CaptureBins)
	}

	if cfg.MaxHarmonics < 0 {
		return cfg, fmt.Errorf("thd: max harmonics must be >= 0: %d", cfg.MaxHarmonics)
	}

	if cfg.LowerFreq <= 0 {
		cfg.LowerFreq = defaultLowerHz
	}

	if cfg.UpperFreq <= 0 {
		cfg.UpperFreq = defaultUpperHz
	}

	cfg.UpperFreq = max(cfg.UpperFreq, cfg.LowerFreq)

	return cfg, nil
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
