package param

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

// BoolParam is an immediate on/off switch. It has no smoother.
type BoolParam struct {
	id    string
	name  string
	def   bool
	value atomic.Bool
}

// NewBool creates a boolean parameter.
func NewBool(id, name string, def bool) (*BoolParam, error) {
	if id == "" {
		return nil, errors.New("parameter id is empty")
	}

	p := &BoolParam{id: id, name: name, def: def}
	p.value.Store(def)

	return p, nil
}

// MustBool is like NewBool but panics on error.
func MustBool(id, name string, def bool) *BoolParam {
	p, err := NewBool(id, name, def)
	if err != nil {
		panic("param: " + err.Error())
	}

	return p
}

func (p *BoolParam) ID() string   { return p.id }
func (p *BoolParam) Name() string { return p.name }
func (p *BoolParam) Unit() string { return "" }

// Default returns the default state.
func (p *BoolParam) Default() bool { return p.def }

// Value returns the current state. Safe from any goroutine.
func (p *BoolParam) Value() bool { return p.value.Load() }

// Set stores the state. Safe from any goroutine.
func (p *BoolParam) Set(on bool) { p.value.Store(on) }

// Normalized returns 1 when on, 0 when off.
func (p *BoolParam) Normalized() float64 {
	return boolToNormalized(p.Value())
}

// SetNormalized switches on for n >= 0.5. NaN leaves the state unchanged.
func (p *BoolParam) SetNormalized(n float64) {
	if math.IsNaN(n) {
		return
	}

	p.Set(n >= 0.5)
}

// DefaultNormalized returns the default as 0 or 1.
func (p *BoolParam) DefaultNormalized() float64 {
	return boolToNormalized(p.def)
}

// Prepare is a no-op; boolean parameters are never smoothed.
func (p *BoolParam) Prepare(float64) error { return nil }

// Reset is a no-op; boolean parameters are never smoothed.
func (p *BoolParam) Reset() {}

// Display returns "On" or "Off".
func (p *BoolParam) Display() string {
	if p.Value() {
		return "On"
	}

	return "Off"
}

// SetFromString accepts on/off, true/false, yes/no and 1/0.
func (p *BoolParam) SetFromString(text string) error {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "on", "true", "yes", "1":
		p.Set(true)
	case "off", "false", "no", "0":
		p.Set(false)
	default:
		return fmt.Errorf("parameter %s: invalid boolean %q", p.id, text)
	}

	return nil
}

func (p *BoolParam) String() string {
	return p.name + ": " + p.Display()
}

func boolToNormalized(on bool) float64 {
	if on {
		return 1
	}

	return 0
}
