package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildParamsAppliesSets(t *testing.T) {
	cfg := defaultConfig()
	cfg.ceilingDB = -3
	cfg.sets = []string{"ceiling = -9 dB", "delta=on"}

	params, err := buildParams(cfg)
	if err != nil {
		t.Fatalf("buildParams() error = %v", err)
	}

	if got := params.Ceiling.Display(); got != "-9.00 dB" {
		t.Fatalf("ceiling = %q, want -9.00 dB", got)
	}
	if !params.Delta.Value() {
		t.Fatal("delta not applied")
	}

	for _, bad := range []string{"ceiling", "nope=1", "reduce=abc"} {
		cfg.sets = []string{bad}
		if _, err := buildParams(cfg); err == nil {
			t.Fatalf("expected error for --set %q", bad)
		}
	}
}

func TestRunCurve(t *testing.T) {
	cfg := defaultConfig()
	cfg.ceilingDB = -6
	cfg.curveStep = 6

	var buf bytes.Buffer
	if err := runCurve(&buf, cfg); err != nil {
		t.Fatalf("runCurve() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1+11 {
		t.Fatalf("got %d lines, want header plus 11 rows:\n%s", len(lines), buf.String())
	}

	last := lines[len(lines)-1]
	if !strings.Contains(last, "12.0") || !strings.Contains(last, "-6.00 dB") {
		t.Fatalf("last row %q should show +12 dB in clipped to the ceiling", last)
	}
}

func TestRunMeasure(t *testing.T) {
	cfg := defaultConfig()
	cfg.inputDB = 12
	cfg.ceilingDB = -6
	cfg.samples = 4096

	var buf bytes.Buffer
	if err := runMeasure(&buf, cfg); err != nil {
		t.Fatalf("runMeasure() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Ceiling", "Peak out", "-6.00 dB", "THD", "H3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}

	cfg.freq = 30000
	if err := runMeasure(&buf, cfg); err == nil {
		t.Fatal("expected error for frequency above Nyquist")
	}
}

func TestRunMeasureWindowSelection(t *testing.T) {
	cfg := defaultConfig()
	cfg.ceilingDB = -6
	cfg.samples = 4096
	cfg.windowName = "Blackman-Harris"

	var buf bytes.Buffer
	if err := runMeasure(&buf, cfg); err != nil {
		t.Fatalf("runMeasure() error = %v", err)
	}
	if !strings.Contains(buf.String(), "THD") {
		t.Fatalf("report missing THD:\n%s", buf.String())
	}

	cfg.windowName = "kaiser"
	if err := runMeasure(&buf, cfg); err == nil {
		t.Fatal("expected error for unknown window")
	}
}
