// Package units converts between metric and imperial lengths and between
// temperature scales.
package units

// MMPerInch is the exact length of an inch in millimetres.
const MMPerInch = 25.4

// MMToIn converts millimetres to inches.
func MMToIn(mm float64) float64 { return mm / MMPerInch }

// CMToIn converts centimetres to inches.
func CMToIn(cm float64) float64 { return cm * 10 / MMPerInch }

// InToMM converts inches to millimetres.
func InToMM(in float64) float64 { return in * MMPerInch }

// InToCM converts inches to centimetres.
func InToCM(in float64) float64 { return in * MMPerInch / 10 }

// FahrenheitToCelsius converts a temperature in °F to °C.
func FahrenheitToCelsius(f float64) float64 { return (f - 32) * 5 / 9 }

// CelsiusToFahrenheit converts a temperature in °C to °F.
func CelsiusToFahrenheit(c float64) float64 { return c*9/5 + 32 }

// ToMachine converts a length in millimetres to the unit selected by the
// G20/G21 preamble line.
func ToMachine(mm float64, metric bool) float64 {
	if metric {
		return mm
	}
	return MMToIn(mm)
}
