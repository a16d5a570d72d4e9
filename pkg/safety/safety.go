// Package safety provides the bounds and thermal checks consulted by the
// emitter before it mutates position or heater state. Every check is a pure
// function of its arguments; the emitter skips them all when safety mode is off.
package safety

import (
	"fmt"
	"math"

	"cncgo/pkg/errors"
)

// ThermalFloor is the lowest heating target the device accepts, in degrees.
const ThermalFloor = 30.0

// Axis names a checked coordinate.
type Axis string

const (
	AxisX Axis = "X"
	AxisY Axis = "Y"
	AxisZ Axis = "Z"
	AxisE Axis = "E"
)

// Zone names a heated part of the printer.
type Zone string

const (
	ZoneExtruder Zone = "extruder"
	ZoneBed      Zone = "bed"
)

// Bounds is the rectangular work area [0, XMax] x [0, YMax].
type Bounds struct {
	XMax float64
	YMax float64
}

// DefaultBounds returns the 235x235 bed of the reference printer.
func DefaultBounds() Bounds {
	return Bounds{XMax: 235, YMax: 235}
}

// Contains reports whether (x, y) lies inside the work area, edges included.
// NaN is never inside.
func (b Bounds) Contains(x, y float64) bool {
	return x >= 0 && x <= b.XMax && y >= 0 && y <= b.YMax
}

// Center returns the middle of the work area.
func (b Bounds) Center() (x, y float64) {
	return b.XMax / 2, b.YMax / 2
}

func (b Bounds) String() string {
	return fmt.Sprintf("%gx%g", b.XMax, b.YMax)
}

// CheckAxis verifies min <= value <= max, reporting which side was crossed.
// NaN fails the lower bound.
func CheckAxis(value, min, max float64, axis Axis) error {
	if !(value >= min) {
		return errors.OutOfBoundsError(string(axis), errors.DirectionSubceed, value, min, max)
	}
	if !(value <= max) {
		return errors.OutOfBoundsError(string(axis), errors.DirectionSuperceed, value, min, max)
	}
	return nil
}

// CheckFinite rejects NaN and infinite values on an axis with no range.
func CheckFinite(value float64, axis Axis) error {
	return CheckAxis(value, -math.MaxFloat64, math.MaxFloat64, axis)
}

// CheckThermal verifies a heating target is finite and at or above floor.
func CheckThermal(temp, floor float64, zone Zone) error {
	if !(temp >= floor) || math.IsInf(temp, 1) {
		return errors.ThermalRangeError(string(zone), temp, floor)
	}
	return nil
}

// CheckPointInBounds verifies an arc center lies on the bed.
func CheckPointInBounds(x, y float64, b Bounds) error {
	if !b.Contains(x, y) {
		return errors.ArcCenterError(x, y)
	}
	return nil
}

// CheckExtrusion rejects a negative, NaN or infinite extrusion increment.
// Any of them would leave the cumulative total decreasing or undefined.
func CheckExtrusion(increment float64) error {
	if !(increment >= 0) {
		e := errors.New(errors.ErrOutOfBounds, "E cannot decrease.")
		e.Axis = string(AxisE)
		e.Direction = errors.DirectionSubceed
		return e
	}
	if math.IsInf(increment, 1) {
		e := errors.New(errors.ErrOutOfBounds, "E must be finite.")
		e.Axis = string(AxisE)
		e.Direction = errors.DirectionSuperceed
		return e
	}
	return nil
}

// Validator bundles the checks for one work area.
type Validator struct {
	bounds Bounds
	floor  float64
}

// NewValidator creates a Validator for the given work area.
func NewValidator(b Bounds) Validator {
	return Validator{bounds: b, floor: ThermalFloor}
}

// Bounds returns the work area being enforced.
func (v Validator) Bounds() Bounds {
	return v.bounds
}

// CheckPosition checks X then Y of a target position.
func (v Validator) CheckPosition(x, y float64) error {
	if err := CheckAxis(x, 0, v.bounds.XMax, AxisX); err != nil {
		return err
	}
	return CheckAxis(y, 0, v.bounds.YMax, AxisY)
}

// CheckArcCenter checks an arc center offset.
func (v Validator) CheckArcCenter(x, y float64) error {
	return CheckPointInBounds(x, y, v.bounds)
}

// CheckHeat checks a heating target for zone.
func (v Validator) CheckHeat(zone Zone, temp float64) error {
	return CheckThermal(temp, v.floor, zone)
}
