package param

import (
	"errors"
	"fmt"
)

// Param is the host/UI-facing surface shared by every parameter kind.
type Param interface {
	ID() string
	Name() string
	Unit() string
	Normalized() float64
	SetNormalized(n float64)
	DefaultNormalized() float64
	Display() string
	SetFromString(text string) error
	Prepare(sampleRate float64) error
	Reset()
}

// ErrUnknownParam is returned for ids that are not registered.
var ErrUnknownParam = errors.New("unknown parameter")

var errDuplicateParam = errors.New("duplicate parameter id")

// Registry maps stable ids to parameters, preserving registration order.
// It is built once at construction; lookups are safe for concurrent use
// after that.
type Registry struct {
	order []Param
	byID  map[string]Param
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Param)}
}

// Register adds p under its id.
func (r *Registry) Register(p Param) error {
	if p == nil {
		return errors.New("nil parameter")
	}

	id := p.ID()
	if id == "" {
		return errors.New("empty parameter id")
	}

	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("%w: %s", errDuplicateParam, id)
	}

	r.byID[id] = p
	r.order = append(r.order, p)

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(p Param) {
	err := r.Register(p)
	if err != nil {
		panic("param registry: " + err.Error())
	}
}

// Lookup returns the parameter registered under id.
func (r *Registry) Lookup(id string) (Param, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Len returns the number of registered parameters.
func (r *Registry) Len() int { return len(r.order) }

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	for i, p := range r.order {
		ids[i] = p.ID()
	}

	return ids
}

// All returns the registered parameters in registration order.
func (r *Registry) All() []Param {
	return append([]Param(nil), r.order...)
}

// SetNormalized sets the parameter at id from a normalized position.
func (r *Registry) SetNormalized(id string, n float64) error {
	p, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParam, id)
	}

	p.SetNormalized(n)

	return nil
}

// SetFromString parses display text into the parameter at id.
func (r *Registry) SetFromString(id, text string) error {
	p, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParam, id)
	}

	return p.SetFromString(text)
}

// Display returns the display text of the parameter at id.
func (r *Registry) Display(id string) (string, error) {
	p, ok := r.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownParam, id)
	}

	return p.Display(), nil
}

// Prepare forwards a new sample rate to every parameter.
func (r *Registry) Prepare(sampleRate float64) error {
	for _, p := range r.order {
		err := p.Prepare(sampleRate)
		if err != nil {
			return err
		}
	}

	return nil
}

// Reset snaps every smoother to its stored value.
func (r *Registry) Reset() {
	for _, p := range r.order {
		p.Reset()
	}
}
