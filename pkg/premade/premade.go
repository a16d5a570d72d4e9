// Premade toolpaths
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package premade sequences emitter calls into common toolpaths. Every
// routine stops at the first error the cursor returns.
package premade

import (
	"fmt"
	"math"

	"cncgo/pkg/emitter"
	"cncgo/pkg/log"
	"cncgo/pkg/safety"
)

// Cursor is the subset of *emitter.Emitter the routines drive.
type Cursor interface {
	Position() (x, y, z float64)
	Bounds() safety.Bounds
	NewLine() error
	Comment(text string) error
	Home() error
	HeatExtruder(temp float64, blocking bool) error
	HeatBed(temp float64, blocking bool) error
	Move(dx, dy, dz float64, opts ...emitter.MoveOption) error
	MoveTo(x, y, z float64, opts ...emitter.MoveOption) error
	Arc(dir emitter.ArcDirection, dx, dy, centerX, centerY float64, opts ...emitter.MoveOption) error
}

var logger = log.GetLogger("premade")

// LatticeStep is the Y advance of each lattice pass.
const LatticeStep = 3.0

// Lattice fills [x1, x2] x [y1, y2] with back-and-forth extruded passes at
// the current height, then homes.
func Lattice(c Cursor, x1, x2, y1, y2 float64) error {
	logger.Debug("lattice x=[%g, %g] y=[%g, %g]", x1, x2, y1, y2)
	for _, v := range []float64{x1, x2, y1, y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("lattice: bounds must be finite, got x=[%g, %g] y=[%g, %g]", x1, x2, y1, y2)
		}
	}

	dx := x2 - x1
	width := math.Abs(dx)
	_, _, z := c.Position()

	if err := c.NewLine(); err != nil {
		return err
	}
	if err := c.MoveTo(x1, y1, z); err != nil {
		return err
	}
	for {
		_, y, _ := c.Position()
		if y >= y2 {
			break
		}
		if err := steps(
			func() error { return c.Move(dx, 0, 0, emitter.WithExtrusion(width)) },
			func() error { return c.Move(0, LatticeStep, 0, emitter.WithExtrusion(LatticeStep)) },
			func() error { return c.Move(-dx, 0, 0, emitter.WithExtrusion(width)) },
			func() error { return c.Move(0, LatticeStep, 0, emitter.WithExtrusion(LatticeStep)) },
		); err != nil {
			return err
		}
		if _, next, _ := c.Position(); next <= y {
			return fmt.Errorf("lattice: y=%g no longer advances by %g", y, 2*LatticeStep)
		}
	}
	return c.Home()
}

// Square outlines a width x height rectangle whose top-left corner is (x, y).
// The rectangle extends right and down (towards smaller Y).
func Square(c Cursor, x, y, width, height float64) error {
	_, _, z := c.Position()
	w, h := math.Abs(width), math.Abs(height)
	return steps(
		func() error { return c.MoveTo(x, y, z) },
		func() error { return c.Move(width, 0, 0, emitter.WithExtrusion(w)) },
		func() error { return c.Move(0, -height, 0, emitter.WithExtrusion(h)) },
		func() error { return c.Move(-width, 0, 0, emitter.WithExtrusion(w)) },
		func() error { return c.Move(0, height, 0, emitter.WithExtrusion(h)) },
	)
}

// Triangle outlines the triangle through three points.
func Triangle(c Cursor, x1, y1, x2, y2, x3, y3 float64) error {
	_, _, z := c.Position()
	edge := func(x, y float64) func() error {
		return func() error {
			px, py, _ := c.Position()
			return c.MoveTo(x, y, z, emitter.WithExtrusion(math.Hypot(x-px, y-py)))
		}
	}
	return steps(
		func() error { return c.MoveTo(x1, y1, z) },
		edge(x2, y2),
		edge(x3, y3),
		edge(x1, y1),
	)
}

// Circle draws the circle whose diameter runs from the left point (x1, y1)
// to the right point (x2, y2) as one full clockwise arc.
func Circle(c Cursor, x1, y1, x2, y2 float64) error {
	if x2 <= x1 {
		return fmt.Errorf("circle: right point x=%g is not right of left point x=%g", x2, x1)
	}
	_, _, z := c.Position()
	i, j := (x2-x1)/2, (y2-y1)/2
	circumference := 2 * math.Pi * math.Hypot(i, j)
	return steps(
		func() error { return c.MoveTo(x1, y1, z) },
		func() error {
			return c.Arc(emitter.Clockwise, 0, 0, i, j, emitter.WithExtrusion(circumference))
		},
	)
}

func steps(fns ...func() error) error {
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
