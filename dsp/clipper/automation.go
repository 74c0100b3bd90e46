package clipper

// AutomationEvent changes one parameter at a sample offset within a block.
type AutomationEvent struct {
	Offset     int
	ID         string
	Normalized float64
}

// ProcessAutomated is Process with sample-accurate automation. Events must be
// ordered by offset; each is applied before the sample at its offset. Offsets
// behind the current position apply immediately, offsets past the block
// apply after it. Unknown ids are ignored.
func (p *Processor) ProcessAutomated(channels [][]float32, events []AutomationEvent) {
	processAutomated(p, channels, p.frameCount32(channels), events)
}

// ProcessAutomatedFloat64 is ProcessAutomated for float64 channels.
func (p *Processor) ProcessAutomatedFloat64(channels [][]float64, events []AutomationEvent) {
	processAutomated(p, channels, p.frameCount64(channels), events)
}

func processAutomated[T sample](p *Processor, channels [][]T, frames int, events []AutomationEvent) {
	pos := 0

	for _, ev := range events {
		offset := min(max(ev.Offset, pos), frames)
		if offset > pos {
			processChannels(p, channels, pos, offset)
			pos = offset
		}

		p.applyAutomation(ev)
	}

	processChannels(p, channels, pos, frames)
}

func (p *Processor) applyAutomation(ev AutomationEvent) {
	if prm, ok := p.params.registry.Lookup(ev.ID); ok {
		prm.SetNormalized(ev.Normalized)
	}
}
