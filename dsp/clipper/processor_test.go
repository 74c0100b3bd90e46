package clipper

import (
	"math"
	"sync"
	"testing"

	"github.com/cwbudde/algo-clip/dsp/core"
	"github.com/cwbudde/algo-clip/dsp/effects/dynamics"
	"github.com/cwbudde/algo-clip/internal/testutil"
)

func newTestProcessor(t *testing.T, opts ...Option) (*Processor, *Params) {
	t.Helper()

	params := NewParams()

	p, err := New(params, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return p, params
}

func stereo(left []float32) [][]float32 {
	return testutil.Channels32(testutil.Float64(left), 2)
}

func constant32(value float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = value
	}

	return out
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil params")
	}
	if _, err := New(NewParams(), WithDeltaReference(dynamics.DeltaReference(9))); err == nil {
		t.Fatal("expected error for invalid delta reference")
	}

	p, _ := newTestProcessor(t)
	if err := p.Prepare(0, 64); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if err := p.Prepare(48000, 0); err == nil {
		t.Fatal("expected error for zero block size")
	}
	if got := p.Config(); got != core.DefaultProcessorConfig() {
		t.Fatalf("failed Prepare() changed config: %#v", got)
	}
}

func TestDefaultParams(t *testing.T) {
	params := NewParams()

	want := map[string]string{
		IDInputGain:  "0.00 dB",
		IDCeiling:    "0.00 dB",
		IDReduce:     "100 %",
		IDOutputGain: "0.00 dB",
		IDDelta:      "Off",
	}

	ids := params.Registry().IDs()
	if len(ids) != len(want) {
		t.Fatalf("IDs() = %v", ids)
	}

	for id, w := range want {
		got, err := params.Registry().Display(id)
		if err != nil {
			t.Fatalf("Display(%s) error = %v", id, err)
		}
		if got != w {
			t.Fatalf("Display(%s) = %q, want %q", id, got, w)
		}
	}

	SetDecibels(params.Ceiling, -60)
	if got := params.Ceiling.Display(); got != "-60.00 dB" {
		t.Fatalf("ceiling at minimum displays %q", got)
	}

	SetDecibels(params.InputGain, 45)
	if got := params.InputGain.Display(); got != "30.00 dB" {
		t.Fatalf("input gain above range displays %q", got)
	}
}

func TestUnityPassThrough(t *testing.T) {
	p, _ := newTestProcessor(t)

	in := []float32{0.2, -0.3, 0.05}
	ch := stereo(in)
	p.Process(ch)

	for c := range ch {
		for i := range in {
			if ch[c][i] != in[i] {
				t.Fatalf("channel %d sample %d = %v, want %v", c, i, ch[c][i], in[i])
			}
		}
	}
}

func TestReduceZeroSilencesPeaks(t *testing.T) {
	p, params := newTestProcessor(t)
	params.Ceiling.Set(0.5)
	params.Reduce.Set(0)

	const n = 4096

	ch := stereo(constant32(1, n))
	p.Process(ch)

	settle := params.Ceiling.Smoother().Steps()
	for c := range ch {
		for i := settle; i < n; i++ {
			if ch[c][i] != 0 {
				t.Fatalf("channel %d sample %d = %v, want 0", c, i, ch[c][i])
			}
		}
	}

	params.Delta.Set(true)

	ch = stereo(constant32(1, 64))
	p.Process(ch)

	for i, v := range ch[0] {
		if v != 1 {
			t.Fatalf("delta sample %d = %v, want the full peak 1", i, v)
		}
	}
}

func TestDeltaOffAndOn(t *testing.T) {
	p, params := newTestProcessor(t)

	ch := stereo([]float32{2})
	p.Process(ch)

	if ch[0][0] != 1 || ch[1][0] != 1 {
		t.Fatalf("delta off: got %v, want clipped 1", ch)
	}

	params.Delta.Set(true)

	ch = stereo([]float32{2, 0.5})
	p.Process(ch)

	if ch[0][0] != 1 {
		t.Fatalf("delta on: got %v, want difference 1", ch[0][0])
	}
	if ch[0][1] != 0 {
		t.Fatalf("delta on below ceiling: got %v, want 0", ch[0][1])
	}
}

func TestDeltaHoldsAcrossChunks(t *testing.T) {
	p, params := newTestProcessor(t, WithProcessorOptions(core.WithBlockSize(64)))

	for _, on := range []bool{true, false, true} {
		params.Delta.Set(on)

		// Three full chunks and a short tail.
		ch := stereo(constant32(1.5, 200))
		p.Process(ch)

		want := float32(1)
		if on {
			want = 0.5
		}

		for c := range ch {
			for i, v := range ch[c] {
				if v != want {
					t.Fatalf("delta=%v channel %d sample %d = %v, want %v", on, c, i, v, want)
				}
			}
		}
	}
}

func TestDeltaComplementThroughProcessor(t *testing.T) {
	for _, ref := range []dynamics.DeltaReference{dynamics.DeltaPostGain, dynamics.DeltaPreGain} {
		t.Run(ref.String(), func(t *testing.T) {
			wetProc, wetParams := newTestProcessor(t, WithDeltaReference(ref))
			deltaProc, deltaParams := newTestProcessor(t, WithDeltaReference(ref))

			for _, params := range []*Params{wetParams, deltaParams} {
				SetDecibels(params.InputGain, 6)
				SetDecibels(params.Ceiling, -3)
				params.Reduce.Set(0.8)
				SetDecibels(params.OutputGain, -2)
			}
			deltaParams.Delta.Set(true)

			signal := testutil.DeterministicSine(440, 48000, 1, 3000)

			wet := [][]float64{append([]float64(nil), signal...)}
			delta := [][]float64{append([]float64(nil), signal...)}
			wetProc.ProcessFloat64(wet)
			deltaProc.ProcessFloat64(delta)

			inGain := core.DBToGain(6)
			outGain := core.DBToGain(-2)

			for i := 2400; i < len(signal); i++ {
				ref64 := signal[i]
				if ref == dynamics.DeltaPostGain {
					ref64 *= inGain
				}

				if got, want := wet[0][i]+delta[0][i], outGain*ref64; math.Abs(got-want) > 1e-9 {
					t.Fatalf("sample %d: delta+clipped = %g, want %g", i, got, want)
				}
			}
		})
	}
}

func TestStereoSharesControlValues(t *testing.T) {
	p, params := newTestProcessor(t)
	SetDecibels(params.InputGain, 12)
	SetDecibels(params.Ceiling, -20)

	in := testutil.DeterministicSine(220, 48000, 0.8, 3000)
	ch := [][]float64{append([]float64(nil), in...), append([]float64(nil), in...)}
	p.ProcessFloat64(ch)

	testutil.RequireSliceNearlyEqual(t, ch[1], ch[0], 0)
}

func TestChunkingMatchesSingleBlock(t *testing.T) {
	small, smallParams := newTestProcessor(t, WithProcessorOptions(core.WithBlockSize(64)))
	large, largeParams := newTestProcessor(t, WithProcessorOptions(core.WithBlockSize(4096)))

	for _, params := range []*Params{smallParams, largeParams} {
		SetDecibels(params.InputGain, 9)
		SetDecibels(params.Ceiling, -12)
		params.Reduce.Set(0.7)
		SetDecibels(params.OutputGain, 3)
	}

	in := testutil.DeterministicNoise(7, 1, 3000)
	a := [][]float64{append([]float64(nil), in...)}
	b := [][]float64{append([]float64(nil), in...)}

	small.ProcessFloat64(a)
	large.ProcessFloat64(b)

	testutil.RequireSliceNearlyEqual(t, a[0], b[0], 0)
}

func TestInputGainTransitionIsSmooth(t *testing.T) {
	p, params := newTestProcessor(t, WithProcessorOptions(core.WithChannels(1)))
	SetDecibels(params.InputGain, 12)

	const n = 3000

	ch := [][]float64{testutil.DC(0.1, n)}
	p.ProcessFloat64(ch)

	testutil.RequireMonotone(t, append([]float64{0.1}, ch[0]...), true)

	if want := 0.1 * core.DBToGain(12); math.Abs(ch[0][n-1]-want) > 1e-12 {
		t.Fatalf("settled at %g, want %g", ch[0][n-1], want)
	}
	if ch[0][0] >= 0.1*core.DBToGain(1) {
		t.Fatalf("first sample jumped to %g", ch[0][0])
	}
}

func TestResetSkipsTransition(t *testing.T) {
	p, params := newTestProcessor(t)
	SetDecibels(params.OutputGain, -6)
	p.Reset()

	ch := [][]float64{{1, 1}, {0.5, 0.5}}
	p.ProcessFloat64(ch)

	want := core.DBToGain(-6)
	if math.Abs(ch[0][0]-want) > 1e-12 || math.Abs(ch[1][0]-want*0.5) > 1e-12 {
		t.Fatalf("Reset() did not snap output gain: %v", ch)
	}
}

func TestPrepareChangesSmoothingLength(t *testing.T) {
	p, params := newTestProcessor(t)

	if err := p.Prepare(96000, 256); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if got := params.InputGain.Smoother().Steps(); got != 4800 {
		t.Fatalf("steps at 96 kHz = %d, want 4800", got)
	}
	if got := p.Config().BlockSize; got != 256 {
		t.Fatalf("block size = %d, want 256", got)
	}
}

func TestChannelLimitAndShortestLength(t *testing.T) {
	p, _ := newTestProcessor(t, WithProcessorOptions(core.WithChannels(1)))

	ch := [][]float32{{2, 2, 2}, {2, 2}}
	p.Process(ch)

	if ch[0][0] != 1 || ch[0][2] != 1 {
		t.Fatalf("first channel not clipped: %v", ch[0])
	}
	if ch[1][0] != 2 {
		t.Fatalf("channel beyond prepared count was modified: %v", ch[1])
	}

	p2, _ := newTestProcessor(t)
	ch = [][]float32{{2, 2, 2}, {2, 2}}
	p2.Process(ch)

	if ch[0][2] != 2 {
		t.Fatalf("frames beyond the shortest channel were modified: %v", ch[0])
	}

	p2.Process(nil)
	p2.Process([][]float32{{}, {}})
}

func TestStats(t *testing.T) {
	p, _ := newTestProcessor(t)

	p.Process(stereo([]float32{0.5, 2, -3, 0.1}))

	s := p.Stats()
	if s.ProcessedSamples != 8 || s.ClippedSamples != 4 {
		t.Fatalf("Stats() = %+v, want 8 processed, 4 clipped", s)
	}
	if s.ClipRatio() != 0.5 {
		t.Fatalf("ClipRatio() = %v, want 0.5", s.ClipRatio())
	}

	p.ResetStats()
	if s := p.Stats(); s.ProcessedSamples != 0 || s.ClipRatio() != 0 {
		t.Fatalf("ResetStats() left %+v", s)
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	p, params := newTestProcessor(t, WithProcessorOptions(core.WithBlockSize(128)))
	ch := stereo(constant32(0.9, 512))
	toggle := false

	allocs := testing.AllocsPerRun(50, func() {
		toggle = !toggle
		if toggle {
			SetDecibels(params.Ceiling, -6)
		} else {
			SetDecibels(params.Ceiling, 0)
		}

		p.Process(ch)
	})
	if allocs != 0 {
		t.Fatalf("Process allocated %v times per run", allocs)
	}
}

func TestConcurrentParameterWrites(t *testing.T) {
	p, params := newTestProcessor(t)

	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}

			params.InputGain.SetNormalized(float64(i%50) / 49)
			params.Ceiling.SetNormalized(float64(i%30) / 29)
			params.Delta.Set(i%7 == 0)
		}
	}()

	ch := stereo(constant32(0.7, 256))
	for range 200 {
		p.Process(ch)

		for c := range ch {
			testutil.RequireFinite(t, testutil.Float64(ch[c]))
		}
	}

	close(done)
	wg.Wait()
}

func TestOutputNeverExceedsCeiling(t *testing.T) {
	p, params := newTestProcessor(t)
	SetDecibels(params.InputGain, 24)
	SetDecibels(params.Ceiling, -6)
	params.Reduce.Set(0.9)
	p.Reset()

	ch := testutil.Channels32(testutil.DeterministicNoise(11, 2, 4096), 2)
	p.Process(ch)

	limit := core.DBToGain(-6)*0.9 + 1e-6
	for c := range ch {
		testutil.RequirePeakAtMost(t, testutil.Float64(ch[c]), limit)
	}
}
