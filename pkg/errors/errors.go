// Unified error handling for the cncgo G-code emitter
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Sink errors
	ErrIO     ErrorCode = "IO"
	ErrClosed ErrorCode = "CLOSED"

	// Validation errors
	ErrOutOfBounds  ErrorCode = "OUT_OF_BOUNDS"
	ErrThermalRange ErrorCode = "THERMAL_RANGE"

	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrConfigType       ErrorCode = "CONFIG_TYPE"

	// Transport errors
	ErrStream ErrorCode = "STREAM"
	ErrRemote ErrorCode = "REMOTE"
)

// Direction tells which side of a range a value fell off.
type Direction string

const (
	DirectionNone      Direction = ""
	DirectionSubceed   Direction = "subceed"
	DirectionSuperceed Direction = "superceed"
)

// Device-facing messages.
const (
	msgExtruderHeating = "Extruder cannot be heated below %g degrees."
	msgBedHeating      = "Bed cannot be heated below %g degrees."
	msgSubceed         = "%s has subceeded bed size."
	msgSuperceed       = "%s has superceeded bed size."
	msgArcCenter       = "Arc center found off bed."
)

// EmitterError is the unified error type for the emitter and its transports
type EmitterError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Op is the operation that failed (e.g. "move", "write", "open")
	Op string

	// Path is the destination involved, if any
	Path string

	// Axis and Direction describe a bounds violation
	Axis      string
	Direction Direction

	// Zone is the thermal zone of a heating violation
	Zone string

	// Section and Option locate configuration errors
	Section string
	Option  string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *EmitterError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("[%s:%s] %s", e.Code, e.Op, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *EmitterError) Unwrap() error {
	return e.Err
}

// SetOp sets the failing operation
func (e *EmitterError) SetOp(op string) *EmitterError {
	e.Op = op
	return e
}

// SetPath sets the destination path
func (e *EmitterError) SetPath(path string) *EmitterError {
	e.Path = path
	return e
}

// SetSection sets the config section
func (e *EmitterError) SetSection(section string) *EmitterError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *EmitterError) SetOption(option string) *EmitterError {
	e.Option = option
	return e
}

// New creates a new EmitterError
func New(code ErrorCode, message string) *EmitterError {
	return &EmitterError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *EmitterError {
	return &EmitterError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Sink errors

// IOError creates an error for a failed create/write/flush/close on a destination
func IOError(op, path string, err error) *EmitterError {
	return Wrap(err, ErrIO, fmt.Sprintf("%s %s failed", op, path)).
		SetOp(op).
		SetPath(path)
}

// ClosedError creates an error for a write attempted after Close
func ClosedError(op string) *EmitterError {
	return New(ErrClosed, "emitter is closed").SetOp(op)
}

// Validation errors

// OutOfBoundsError creates an error for an axis leaving the work area
func OutOfBoundsError(axis string, dir Direction, value, min, max float64) *EmitterError {
	format := msgSuperceed
	if dir == DirectionSubceed {
		format = msgSubceed
	}
	e := New(ErrOutOfBounds, fmt.Sprintf(format, axis))
	e.Axis = axis
	e.Direction = dir
	e.Err = fmt.Errorf("%s=%g outside [%g, %g]", axis, value, min, max)
	return e
}

// ArcCenterError creates an error for an arc center placed off the bed
func ArcCenterError(x, y float64) *EmitterError {
	e := New(ErrOutOfBounds, msgArcCenter)
	e.Axis = "IJ"
	e.Err = fmt.Errorf("center (%g, %g)", x, y)
	return e
}

// ThermalRangeError creates an error for a heating target under the device floor
func ThermalRangeError(zone string, temp, floor float64) *EmitterError {
	format := msgExtruderHeating
	if zone == "bed" {
		format = msgBedHeating
	}
	e := New(ErrThermalRange, fmt.Sprintf(format, floor))
	e.Zone = zone
	e.Err = fmt.Errorf("requested %g", temp)
	return e
}

// Config errors

// ConfigSectionError creates an error for a missing config section
func ConfigSectionError(section string) *EmitterError {
	return New(ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).
		SetSection(section)
}

// ConfigOptionError creates an error for a missing config option
func ConfigOptionError(section, option string) *EmitterError {
	return New(ErrConfigOption, fmt.Sprintf("option '%s' in section '%s' must be specified", option, section)).
		SetSection(section).
		SetOption(option)
}

// ConfigValidationError creates an error for a config value outside its allowed range
func ConfigValidationError(section, option string, reason string) *EmitterError {
	return New(ErrConfigValidation, fmt.Sprintf("option '%s' in section '%s': %s", option, section, reason)).
		SetSection(section).
		SetOption(option)
}

// ConfigTypeError creates an error for config type conversion failure
func ConfigTypeError(section, option, value string, targetType string) *EmitterError {
	return New(ErrConfigType, fmt.Sprintf("option '%s' in section '%s': failed to parse '%s' as %s", option, section, value, targetType)).
		SetSection(section).
		SetOption(option)
}

// Transport errors

// StreamError creates an error for a failed printer stream
func StreamError(op string, message string, err error) *EmitterError {
	return Wrap(err, ErrStream, message).SetOp(op)
}

// RemoteError creates an error for a failed remote (Moonraker) call
func RemoteError(op string, message string, err error) *EmitterError {
	return Wrap(err, ErrRemote, message).SetOp(op)
}

// Is checks if error, or any error it wraps, matches the given error code
func Is(err error, code ErrorCode) bool {
	var e *EmitterError
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// As extracts the EmitterError from an error chain
func As(err error) (*EmitterError, bool) {
	var e *EmitterError
	ok := stderrors.As(err, &e)
	return e, ok
}

// IsRecoverable reports whether the caller may retry with corrected arguments.
// Emitter state is unchanged after these errors.
func IsRecoverable(err error) bool {
	return Is(err, ErrOutOfBounds) || Is(err, ErrThermalRange)
}

// IsConfig checks if error is a config error
func IsConfig(err error) bool {
	return Is(err, ErrConfigSection) ||
		Is(err, ErrConfigOption) ||
		Is(err, ErrConfigValidation) ||
		Is(err, ErrConfigType)
}
