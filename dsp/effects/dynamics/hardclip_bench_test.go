package dynamics

import "testing"

func BenchmarkHardClipperProcessRamps(b *testing.B) {
	const n = 512

	h, err := NewHardClipper()
	if err != nil {
		b.Fatalf("NewHardClipper() error = %v", err)
	}

	buf := make([]float64, n)
	ramp := make([]float64, n)
	ceiling := make([]float64, n)

	for i := range n {
		ramp[i] = 1
		ceiling[i] = 0.5
	}

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		for i := range buf {
			buf[i] = float64(i%64)/32 - 1
		}

		h.ProcessRamps(buf, ramp, ceiling, ramp, ramp, false)
	}
}
