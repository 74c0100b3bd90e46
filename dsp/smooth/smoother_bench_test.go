package smooth

import "testing"

func BenchmarkSmootherNextBlock(b *testing.B) {
	for _, style := range []Style{StyleLinear, StyleLogarithmic, StyleExponential} {
		b.Run(style.String(), func(b *testing.B) {
			s, err := New(style, 50)
			if err != nil {
				b.Fatalf("New() error = %v", err)
			}

			block := make([]float64, 512)
			targets := [2]float64{0.01, 10}

			b.ReportAllocs()
			b.ResetTimer()

			for i := range b.N {
				s.SetTarget(targets[i&1])
				s.NextBlock(block)
			}
		})
	}
}
