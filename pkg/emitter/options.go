// Move options
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package emitter

// DefaultSpeed is the speed of moves that do not set one. Feed rates are
// written as speed*1000.
const DefaultSpeed = 5.0

// CenterSpeed is the speed used by Center.
const CenterSpeed = 15.0

type moveOptions struct {
	extrusion float64
	speed     float64
}

// MoveOption configures a single Move, MoveTo or Arc call.
type MoveOption func(*moveOptions)

// WithExtrusion sets the extrusion increment of a move before the ratio is applied.
func WithExtrusion(e float64) MoveOption {
	return func(o *moveOptions) {
		o.extrusion = e
	}
}

// WithSpeed sets the speed of a move.
func WithSpeed(s float64) MoveOption {
	return func(o *moveOptions) {
		o.speed = s
	}
}

func applyOptions(opts []MoveOption) moveOptions {
	o := moveOptions{speed: DefaultSpeed}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
