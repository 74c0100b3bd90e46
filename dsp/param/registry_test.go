package param

import (
	"errors"
	"testing"
)

func newTestRegistry(t *testing.T) (*Registry, *FloatParam, *BoolParam) {
	t.Helper()

	gain := MustFloat("gain", "Gain", 1, GainRange(-30, 30),
		WithUnit(" dB"),
		WithFormatter(GainToDBString(2), DBStringToGain()),
	)
	flag := MustBool("flag", "Flag", false)

	r := NewRegistry()
	r.MustRegister(gain)
	r.MustRegister(flag)

	return r, gain, flag
}

func TestRegistryRegister(t *testing.T) {
	r, gain, _ := newTestRegistry(t)

	if err := r.Register(gain); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if err := r.Register(nil); err == nil {
		t.Fatal("expected nil parameter error")
	}

	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "gain" || ids[1] != "flag" {
		t.Fatalf("IDs() = %v", ids)
	}
	if r.Len() != 2 || len(r.All()) != 2 {
		t.Fatalf("Len() = %d", r.Len())
	}
}

func TestRegistryMustRegisterPanics(t *testing.T) {
	r, gain, _ := newTestRegistry(t)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for duplicate id")
		}
	}()

	r.MustRegister(gain)
}

func TestRegistryLookupAndSet(t *testing.T) {
	r, gain, flag := newTestRegistry(t)

	if _, ok := r.Lookup("missing"); ok {
		t.Fatal("Lookup(missing) should fail")
	}

	if err := r.SetFromString("gain", "-12 dB"); err != nil {
		t.Fatalf("SetFromString() error = %v", err)
	}
	if got, _ := r.Display("gain"); got != "-12.00 dB" {
		t.Fatalf("Display(gain) = %q", got)
	}
	if gain.Display() != "-12.00 dB" {
		t.Fatalf("registry and parameter disagree: %q", gain.Display())
	}

	if err := r.SetNormalized("flag", 1); err != nil {
		t.Fatalf("SetNormalized() error = %v", err)
	}
	if !flag.Value() {
		t.Fatal("flag should be on")
	}
}

func TestRegistryUnknownID(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	if err := r.SetNormalized("nope", 0.5); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("SetNormalized() error = %v, want ErrUnknownParam", err)
	}
	if err := r.SetFromString("nope", "1"); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("SetFromString() error = %v, want ErrUnknownParam", err)
	}
	if _, err := r.Display("nope"); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("Display() error = %v, want ErrUnknownParam", err)
	}
}

func TestRegistryPrepare(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	if err := r.Prepare(96000); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if err := r.Prepare(-1); err == nil {
		t.Fatal("expected error for negative sample rate")
	}

	r.Reset()
}
