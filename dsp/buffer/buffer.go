package buffer

// Buffer wraps a float64 slice with reuse-friendly semantics.
// DSP functions accept raw []float64; use Samples() or Head() to bridge.
type Buffer struct {
	samples []float64
}

// New returns a zero-filled Buffer of the given length.
func New(length int) *Buffer {
	if length < 0 {
		length = 0
	}
	return &Buffer{samples: make([]float64, length)}
}

// Samples returns the underlying slice.
func (b *Buffer) Samples() []float64 {
	return b.samples
}

// Head returns the first n samples, clamped to the buffer length.
func (b *Buffer) Head(n int) []float64 {
	if n < 0 {
		n = 0
	}
	if n > len(b.samples) {
		n = len(b.samples)
	}
	return b.samples[:n]
}

// Len returns the current number of samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Cap returns the current capacity of the backing slice.
func (b *Buffer) Cap() int {
	return cap(b.samples)
}

// Resize sets the length to n, reusing existing capacity when possible.
// New elements beyond the previous length are zeroed.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}
	oldLen := len(b.samples)
	if n <= cap(b.samples) {
		b.samples = b.samples[:n]
	} else {
		s := make([]float64, n)
		copy(s, b.samples)
		b.samples = s
	}
	// The backing array may hold stale data from an earlier, longer use.
	if n > oldLen {
		for i := oldLen; i < n; i++ {
			b.samples[i] = 0
		}
	}
}

// Zero sets all samples to 0.
func (b *Buffer) Zero() {
	for i := range b.samples {
		b.samples[i] = 0
	}
}

// Bank is a fixed set of equally sized buffers, e.g. one control ramp per
// smoothed parameter.
type Bank struct {
	buffers []Buffer
}

// NewBank returns count zeroed buffers of the given length.
func NewBank(count, length int) *Bank {
	if count < 0 {
		count = 0
	}
	bank := &Bank{buffers: make([]Buffer, count)}
	bank.Resize(length)
	return bank
}

// Resize resizes every buffer in the bank to n samples.
func (k *Bank) Resize(n int) {
	for i := range k.buffers {
		k.buffers[i].Resize(n)
	}
}

// Count returns the number of buffers.
func (k *Bank) Count() int {
	return len(k.buffers)
}

// At returns buffer i.
func (k *Bank) At(i int) *Buffer {
	return &k.buffers[i]
}
