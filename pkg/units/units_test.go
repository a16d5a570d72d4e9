package units

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLengthConversions(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64) float64
		in   float64
		want float64
	}{
		{"1in to mm", InToMM, 1, 25.4},
		{"2in to mm", InToMM, 2, 50.8},
		{"1in to cm", InToCM, 1, 2.54},
		{"25.4mm to in", MMToIn, 25.4, 1},
		{"1mm to in", MMToIn, 1, 0.03937007874015748},
		{"2.54cm to in", CMToIn, 2.54, 1},
		{"0 stays 0", MMToIn, 0, 0},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); !near(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRoundTrips(t *testing.T) {
	for _, v := range []float64{0, 1, 12.5, 235, -3} {
		if got := InToMM(MMToIn(v)); !near(got, v) {
			t.Errorf("mm round trip of %v = %v", v, got)
		}
		if got := InToCM(CMToIn(v)); !near(got, v) {
			t.Errorf("cm round trip of %v = %v", v, got)
		}
		if got := FahrenheitToCelsius(CelsiusToFahrenheit(v)); !near(got, v) {
			t.Errorf("temperature round trip of %v = %v", v, got)
		}
	}
}

func TestTemperatures(t *testing.T) {
	if got := FahrenheitToCelsius(212); !near(got, 100) {
		t.Errorf("212F = %vC, want 100", got)
	}
	if got := CelsiusToFahrenheit(-40); !near(got, -40) {
		t.Errorf("-40C = %vF, want -40", got)
	}
	if got := FahrenheitToCelsius(72); !near(got, 22.22222222222222) {
		t.Errorf("72F = %vC", got)
	}
}

func TestToMachine(t *testing.T) {
	if ToMachine(50.8, true) != 50.8 {
		t.Error("metric machines take millimetres")
	}
	if got := ToMachine(50.8, false); !near(got, 2) {
		t.Errorf("imperial machines take inches, got %v", got)
	}
}
