package param

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-clip/dsp/core"
)

func TestGainToDBString(t *testing.T) {
	format := GainToDBString(2)

	cases := []struct {
		gain float64
		want string
	}{
		{1, "0.00"},
		{0.5, "-6.02"},
		{core.DBToGain(12), "12.00"},
		{core.DBToGain(-1e-4), "0.00"},
		{0, "-inf"},
	}

	for _, c := range cases {
		if got := format(c.gain); got != c.want {
			t.Fatalf("format(%v) = %q, want %q", c.gain, got, c.want)
		}
	}
}

func TestDBStringToGain(t *testing.T) {
	parse := DBStringToGain()

	cases := []struct {
		text string
		want float64
	}{
		{"0", 1},
		{"-6.02 dB", core.DBToGain(-6.02)},
		{" 12db ", core.DBToGain(12)},
		{"-inf", 0},
		{"-INF dB", 0},
	}

	for _, c := range cases {
		got, err := parse(c.text)
		if err != nil {
			t.Fatalf("parse(%q) error = %v", c.text, err)
		}
		if !core.NearlyEqual(got, c.want, 1e-12) {
			t.Fatalf("parse(%q) = %v, want %v", c.text, got, c.want)
		}
	}

	if _, err := parse("loud"); err == nil {
		t.Fatal("expected error for non-numeric input")
	}
}

func TestPercentFormatting(t *testing.T) {
	format := PercentString(0)
	parse := PercentStringToValue()

	if got := format(1); got != "100" {
		t.Fatalf("format(1) = %q, want 100", got)
	}
	if got := format(0.254); got != "25" {
		t.Fatalf("format(0.254) = %q, want 25", got)
	}
	if got := format(-0.001); got != "0" {
		t.Fatalf("format(-0.001) = %q, want 0", got)
	}

	v, err := parse("40 %")
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if !core.NearlyEqual(v, 0.4, 1e-12) {
		t.Fatalf("parse(40 %%) = %v, want 0.4", v)
	}
}

func TestDecibelRoundTripWithinRounding(t *testing.T) {
	format := GainToDBString(2)
	parse := DBStringToGain()

	for db := -60.0; db <= 30; db += 0.37 {
		gain := core.DBToGain(db)

		back, err := parse(format(gain))
		if err != nil {
			t.Fatalf("parse(format(%v)) error = %v", gain, err)
		}

		if math.Abs(core.GainToDB(back)-db) > 0.005+1e-9 {
			t.Fatalf("%v dB round-tripped to %v dB", db, core.GainToDB(back))
		}
	}
}
