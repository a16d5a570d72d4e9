package emitter

import (
	"math"
	"testing"
)

func TestFormatCoord(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{math.Copysign(0, -1), "0.0"},
		{40, "40.0"},
		{0.5, "0.5"},
		{-12, "-12.0"},
		{117.5, "117.5"},
		{1e21, "1000000000000000000000.0"},
	}
	for _, tt := range tests {
		if got := formatCoord(tt.in); got != tt.want {
			t.Errorf("formatCoord(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatWhole(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{5000, "5000"},
		{2000, "2000"},
		{1500, "1500"},
		{1.5, "1.5"},
		{0, "0"},
		{-30, "-30"},
	}
	for _, tt := range tests {
		if got := formatWhole(tt.in); got != tt.want {
			t.Errorf("formatWhole(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommandBuilder(t *testing.T) {
	got := newCommand("G1").coord('X', 1).coord('E', 0.25).whole('F', 5000).String()
	if got != "G1 X1.0 E0.25 F5000" {
		t.Errorf("got %q", got)
	}
}

func TestCommandCode(t *testing.T) {
	tests := map[string]string{
		"G1 X1.0":         "G1",
		"m104 S200":       "M104",
		"; FLAVOR:Marlin": "",
		"":                "",
		"T0":              "T0",
	}
	for line, want := range tests {
		if got := commandCode(line); got != want {
			t.Errorf("commandCode(%q) = %q, want %q", line, got, want)
		}
	}
}
