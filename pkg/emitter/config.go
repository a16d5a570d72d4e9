// Emitter configuration
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package emitter

import (
	"cncgo/pkg/errors"
	"cncgo/pkg/log"
	"cncgo/pkg/metrics"
	"cncgo/pkg/safety"
)

// Suffix is appended to destination names that lack it.
const Suffix = ".gcode"

// DefaultComment is the user comment written in the preamble.
const DefaultComment = "Made with CNCPy"

// Config holds the construction-time settings of an Emitter.
type Config struct {
	// BedX and BedY are the work area size in machine units.
	BedX float64
	BedY float64

	// Comment is written as the third preamble line.
	Comment string

	// Metric selects G21 (millimetres) over G20 (inches).
	Metric bool

	// ExtrusionRatio scales every extrusion increment.
	ExtrusionRatio float64

	// SafetyMode enables bounds and thermal checks.
	SafetyMode bool

	// Logger receives command traces; defaults to the "emitter" component logger.
	Logger *log.Logger

	// Metrics is optional.
	Metrics *metrics.EmitterMetrics
}

// DefaultConfig returns the reference printer settings.
func DefaultConfig() Config {
	b := safety.DefaultBounds()
	return Config{
		BedX:           b.XMax,
		BedY:           b.YMax,
		Comment:        DefaultComment,
		Metric:         true,
		ExtrusionRatio: 1,
		SafetyMode:     false,
	}
}

// Bounds returns the work area described by the config.
func (c Config) Bounds() safety.Bounds {
	return safety.Bounds{XMax: c.BedX, YMax: c.BedY}
}

// Validate rejects configurations no emitter can be built from.
func (c Config) Validate() error {
	if c.BedX <= 0 {
		return errors.ConfigValidationError("printer", "bed_x", "must be positive")
	}
	if c.BedY <= 0 {
		return errors.ConfigValidationError("printer", "bed_y", "must be positive")
	}
	if c.ExtrusionRatio < 0 {
		return errors.ConfigValidationError("emitter", "extrusion_ratio", "must not be negative")
	}
	return nil
}
