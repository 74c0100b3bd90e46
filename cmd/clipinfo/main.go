// Command clipinfo renders a test tone through the hard clipper and reports
// the resulting levels and harmonic distortion.
//
// Usage:
//
//	clipinfo [flags]
//	clipinfo curve [flags]
//	clipinfo params [flags]
//
// Examples:
//
//	clipinfo -i 12 -c -6
//	clipinfo -c -3 -r 50 -f 1000 -w blackman-harris
//	clipinfo -s ceiling=-9dB -s delta=on
//	clipinfo curve -c -6 --step 2
package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/integrii/flaggy"
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-clip/dsp/clipper"
	"github.com/cwbudde/algo-clip/dsp/core"
	"github.com/cwbudde/algo-clip/dsp/effects/dynamics"
	"github.com/cwbudde/algo-clip/dsp/window"
	"github.com/cwbudde/algo-clip/measure/level"
	"github.com/cwbudde/algo-clip/measure/thd"
)

const (
	appName = "clipinfo"
	appDesc = "render a test tone through a hard clipper and measure it"

	reportHarmonics = 6
)

type config struct {
	inputDB    float64
	ceilingDB  float64
	outputDB   float64
	reducePct  float64
	delta      bool
	preGain    bool
	sets       []string
	freq       float64
	amplitude  float64
	sampleRate float64
	blockSize  int
	samples    int
	windowName string
	curveStep  float64
	verbose    bool
}

func defaultConfig() config {
	return config{
		reducePct:  100,
		freq:       997,
		amplitude:  1,
		sampleRate: 48000,
		blockSize:  512,
		samples:    16384,
		windowName: "hann",
		curveStep:  3,
	}
}

func main() {
	cfg := defaultConfig()

	parser := flaggy.NewParser(appName)
	parser.Description = appDesc

	curveCmd := flaggy.NewSubcommand("curve")
	curveCmd.Description = "print the static transfer curve"
	curveCmd.Float64(&cfg.curveStep, "st", "step", "input level step in dB")

	paramsCmd := flaggy.NewSubcommand("params")
	paramsCmd.Description = "list parameters with their current values"

	parser.AttachSubcommand(curveCmd, 1)
	parser.AttachSubcommand(paramsCmd, 1)

	parser.Float64(&cfg.inputDB, "i", "input", "input gain in dB [-30, 30]")
	parser.Float64(&cfg.ceilingDB, "c", "ceiling", "ceiling in dB [-60, 0]")
	parser.Float64(&cfg.outputDB, "o", "output", "output gain in dB [-30, 30]")
	parser.Float64(&cfg.reducePct, "r", "reduce", "clip point as percent of the ceiling [0, 100]")
	parser.Bool(&cfg.delta, "d", "delta", "output what the clipper removes")
	parser.Bool(&cfg.preGain, "pg", "pre-gain-delta", "compare delta against the signal before input gain")
	parser.StringSlice(&cfg.sets, "s", "set", "set a parameter by id, e.g. ceiling=-6dB (repeatable)")
	parser.Float64(&cfg.freq, "f", "freq", "test tone frequency in Hz")
	parser.Float64(&cfg.amplitude, "a", "amplitude", "test tone peak amplitude")
	parser.Float64(&cfg.sampleRate, "sr", "rate", "sample rate in Hz")
	parser.Int(&cfg.blockSize, "b", "block", "processing block size")
	parser.Int(&cfg.samples, "n", "samples", "analyzed samples per channel")
	parser.String(&cfg.windowName, "w", "window", "analysis window: hann, hamming, blackman, blackman-harris, flattop, rectangular")
	parser.Bool(&cfg.verbose, "v", "verbose", "log processing details")

	err := parser.Parse()
	if err != nil {
		fatal(errors.Wrap(err, "failed to parse arguments"))
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	switch {
	case curveCmd.Used:
		err = runCurve(os.Stdout, cfg)
	case paramsCmd.Used:
		err = runParams(os.Stdout, cfg)
	default:
		err = runMeasure(os.Stdout, cfg)
	}

	if err != nil {
		fatal(err)
	}
}

var windowNames = map[string]window.Type{
	"hann":            window.TypeHann,
	"hamming":         window.TypeHamming,
	"blackman":        window.TypeBlackman,
	"blackman-harris": window.TypeBlackmanHarris4Term,
	"flattop":         window.TypeFlatTop,
	"rectangular":     window.TypeRectangular,
}

func parseWindow(name string) (window.Type, error) {
	if name == "" {
		return window.TypeHann, nil
	}

	t, ok := windowNames[strings.ToLower(name)]
	if !ok {
		return 0, errors.Errorf("unknown analysis window %q", name)
	}

	return t, nil
}

func fatal(err error) {
	slog.Error(appName+" failed", "err", err)
	os.Exit(1)
}

// buildParams turns the flag values into a parameter set.
func buildParams(cfg config) (*clipper.Params, error) {
	params := clipper.NewParams()

	clipper.SetDecibels(params.InputGain, cfg.inputDB)
	clipper.SetDecibels(params.Ceiling, cfg.ceilingDB)
	clipper.SetDecibels(params.OutputGain, cfg.outputDB)
	params.Reduce.Set(cfg.reducePct / 100)
	params.Delta.Set(cfg.delta)

	for _, set := range cfg.sets {
		id, text, ok := strings.Cut(set, "=")
		if !ok {
			return nil, errors.Errorf("malformed --set %q, want id=value", set)
		}

		err := params.Registry().SetFromString(strings.TrimSpace(id), text)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to apply --set %q", set)
		}
	}

	return params, nil
}

func deltaReference(cfg config) dynamics.DeltaReference {
	if cfg.preGain {
		return dynamics.DeltaPreGain
	}

	return dynamics.DeltaPostGain
}

func runParams(w io.Writer, cfg config) error {
	params, err := buildParams(cfg)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tName\tValue\tNormalized\n")
	fmt.Fprintf(tw, "--\t----\t-----\t----------\n")

	for _, p := range params.Registry().All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\n", p.ID(), p.Name(), p.Display(), p.Normalized())
	}

	return errors.Wrap(tw.Flush(), "failed to write parameters")
}

func runCurve(w io.Writer, cfg config) error {
	if cfg.curveStep <= 0 {
		return errors.Errorf("curve step must be > 0: %g", cfg.curveStep)
	}

	params, err := buildParams(cfg)
	if err != nil {
		return err
	}

	clip, err := dynamics.NewHardClipper(
		dynamics.WithInputGain(params.InputGain.Value()),
		dynamics.WithCeiling(params.Ceiling.Value()),
		dynamics.WithReduce(params.Reduce.Value()),
		dynamics.WithOutputGain(params.OutputGain.Value()),
		dynamics.WithDelta(params.Delta.Value()),
		dynamics.WithDeltaReference(deltaReference(cfg)),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create clipper")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "In [dB]\tIn\tOut\tOut [dB]\t\n")

	for db := -48.0; db <= 12+1e-9; db += cfg.curveStep {
		x := core.DBToGain(db)
		y := clip.ProcessSample(x)

		fmt.Fprintf(tw, "%.1f\t%.5f\t%.5f\t%s\t\n", db, x, y, formatDB(core.GainToDB(math.Abs(y))))
	}

	return errors.Wrap(tw.Flush(), "failed to write curve")
}

func runMeasure(w io.Writer, cfg config) error {
	if cfg.samples < 2 {
		return errors.Errorf("samples must be >= 2: %d", cfg.samples)
	}

	if cfg.freq <= 0 || cfg.freq >= cfg.sampleRate/2 {
		return errors.Errorf("frequency must be in (0, %g): %g", cfg.sampleRate/2, cfg.freq)
	}

	winType, err := parseWindow(cfg.windowName)
	if err != nil {
		return err
	}

	params, err := buildParams(cfg)
	if err != nil {
		return err
	}

	proc, err := clipper.New(params,
		clipper.WithProcessorOptions(
			core.WithSampleRate(cfg.sampleRate),
			core.WithBlockSize(cfg.blockSize),
			core.WithChannels(2),
		),
		clipper.WithDeltaReference(deltaReference(cfg)),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create processor")
	}

	slog.Debug("processor ready",
		"rate", proc.Config().SampleRate,
		"block", proc.Config().BlockSize,
		"delta", proc.DeltaReference())

	tone := sine(cfg.freq, cfg.sampleRate, cfg.amplitude, cfg.samples)

	channels := [][]float32{make([]float32, len(tone)), make([]float32, len(tone))}
	for _, ch := range channels {
		core.Narrow(ch, tone)
	}

	// Clipped samples land on ceiling*reduce*output; allow for float32 rounding.
	clipLevel := params.Ceiling.Value() * params.Reduce.Value() * params.OutputGain.Value()

	meter, err := level.NewMeter(level.WithThreshold(max(clipLevel*(1-1e-6), core.MinusInfinityGain)))
	if err != nil {
		return errors.Wrap(err, "failed to create level meter")
	}

	block := proc.Config().BlockSize
	for start := 0; start < len(tone); start += block {
		end := min(start+block, len(tone))
		proc.Process([][]float32{channels[0][start:end], channels[1][start:end]})
		meter.Update32(channels[0][start:end])
	}

	before := level.Calculate(tone)
	after := meter.Result()

	rendered := make([]float64, len(tone))
	core.Widen(rendered, channels[0])

	stats := proc.Stats()
	slog.Debug("rendered", "samples", stats.ProcessedSamples, "clipped", stats.ClippedSamples)

	res, err := thd.AnalyzeSignal(rendered, thd.Config{
		SampleRate:      cfg.sampleRate,
		FundamentalFreq: cfg.freq,
		WindowType:      winType,
	})
	if err != nil {
		return errors.Wrap(err, "failed to analyze output")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for _, p := range params.Registry().All() {
		fmt.Fprintf(tw, "%s\t%s\n", p.Name(), p.Display())
	}

	fmt.Fprintf(tw, "\t\n")
	fmt.Fprintf(tw, "Peak in\t%s\n", formatDB(before.PeakdB))
	fmt.Fprintf(tw, "Peak out\t%s\n", formatDB(after.PeakdB))
	fmt.Fprintf(tw, "RMS in/out\t%s / %s\n", formatDB(before.RMSdB), formatDB(after.RMSdB))
	fmt.Fprintf(tw, "Crest in/out\t%.2f dB / %.2f dB\n", before.CrestFactordB, after.CrestFactordB)
	fmt.Fprintf(tw, "Clipped\t%.2f %%\n", 100*stats.ClipRatio())
	fmt.Fprintf(tw, "At clip level\t%d of %d\n", after.Overs, after.Length)
	fmt.Fprintf(tw, "Fundamental\t%.1f Hz, %s\n", res.FundamentalFreq, formatDB(core.GainToDB(res.FundamentalLevel)))
	fmt.Fprintf(tw, "THD\t%.4f %% (%s)\n", 100*res.THD, formatDB(res.THDdB))
	fmt.Fprintf(tw, "THD+N\t%.4f %% (%s)\n", 100*res.THDN, formatDB(res.THDNdB))
	fmt.Fprintf(tw, "Odd/Even\t%.4f %% / %.4f %%\n", 100*res.OddHD, 100*res.EvenHD)

	for i, h := range res.Harmonics[:min(len(res.Harmonics), reportHarmonics)] {
		fmt.Fprintf(tw, "H%d\t%s\n", i+2, formatDB(core.GainToDB(h)))
	}

	return errors.Wrap(tw.Flush(), "failed to write report")
}

func sine(freq, sampleRate, amplitude float64, n int) []float64 {
	out := make([]float64, n)
	step := 2 * math.Pi * freq / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

func formatDB(db float64) string {
	if db <= core.MinusInfinityDB || math.IsInf(db, -1) {
		return "-inf dB"
	}

	return fmt.Sprintf("%.2f dB", db)
}
