// G-code machine model
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import (
	"fmt"
	"math"
	"time"

	"cncgo/pkg/log"
)

// Position is a toolhead position with the extruder axis.
type Position struct {
	X, Y, Z, E float64
}

func (p Position) String() string {
	return fmt.Sprintf("X:%.3f Y:%.3f Z:%.3f E:%.3f", p.X, p.Y, p.Z, p.E)
}

// Box is an XY bounding box.
type Box struct {
	MinX, MinY float64
	MaxX, MaxY float64
	Valid      bool
}

func (b *Box) extend(x, y float64) {
	if !b.Valid {
		*b = Box{MinX: x, MinY: y, MaxX: x, MaxY: y, Valid: true}
		return
	}
	b.MinX = math.Min(b.MinX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxX = math.Max(b.MaxX, x)
	b.MaxY = math.Max(b.MaxY, y)
}

// Within reports whether the box lies inside [0, xMax] x [0, yMax].
func (b Box) Within(xMax, yMax float64) bool {
	if !b.Valid {
		return true
	}
	return b.MinX >= 0 && b.MinY >= 0 && b.MaxX <= xMax && b.MaxY <= yMax
}

// Machine tracks the state a Marlin printer would hold after executing a
// stream of commands. It models positions, modes and heater targets only.
type Machine struct {
	pos        Position
	absCoords  bool
	absExtrude bool
	metric     bool
	feedrate   float64 // as written, units per minute

	extruderTarget float64
	bedTarget      float64

	stats Summary
	log   *log.Logger
}

// NewMachine returns a machine in the Marlin power-on state.
func NewMachine() *Machine {
	return &Machine{
		absCoords:  true,
		absExtrude: true,
		metric:     true,
		stats:      Summary{Codes: make(map[string]int), Metric: true},
		log:        log.GetLogger("gcode"),
	}
}

// Position returns the current position.
func (m *Machine) Position() Position { return m.pos }

// Feedrate returns the last F value.
func (m *Machine) Feedrate() float64 { return m.feedrate }

// Targets returns the extruder and bed temperature targets.
func (m *Machine) Targets() (extruder, bed float64) {
	return m.extruderTarget, m.bedTarget
}

// IsAbsolute reports whether G90 (true) or G91 is active.
func (m *Machine) IsAbsolute() bool { return m.absCoords }

// Execute parses and applies one line. Blank and comment lines return a nil
// command and no error.
func (m *Machine) Execute(line string) (*Command, error) {
	cmd, err := Parse(line)
	if cmd == nil || err != nil {
		return cmd, err
	}
	return cmd, m.Apply(cmd)
}

// Apply executes a parsed command.
func (m *Machine) Apply(cmd *Command) error {
	m.stats.Commands++
	m.stats.Codes[cmd.Code]++

	switch cmd.Code {
	case "G0", "G1":
		m.move(cmd)
	case "G2", "G3":
		return m.arc(cmd)
	case "G4":
		ms := cmd.FloatOr('P', 0) + cmd.FloatOr('S', 0)*1000
		m.stats.Dwell += time.Duration(ms * float64(time.Millisecond))
	case "G20":
		m.metric = false
		m.stats.Metric = false
	case "G21":
		m.metric = true
		m.stats.Metric = true
	case "G28":
		m.home(cmd)
	case "G90":
		m.absCoords = true
	case "G91":
		m.absCoords = false
	case "G92":
		m.pos = m.target(cmd, true)
	case "M82":
		m.absExtrude = true
	case "M83":
		m.absExtrude = false
	case "M104", "M109":
		m.extruderTarget = cmd.FloatOr('S', m.extruderTarget)
		m.stats.ExtruderTarget = math.Max(m.stats.ExtruderTarget, m.extruderTarget)
	case "M140", "M190":
		m.bedTarget = cmd.FloatOr('S', m.bedTarget)
		m.stats.BedTarget = math.Max(m.stats.BedTarget, m.bedTarget)
	case "G29", "M110", "M114":
		// No state change.
	default:
		m.log.Debug("unhandled command %s", cmd.Code)
	}
	return nil
}

// target computes the position a move or G92 would produce. G92 always
// takes absolute values.
func (m *Machine) target(cmd *Command, absolute bool) Position {
	next := m.pos
	axis := func(letter byte, cur *float64, abs bool) {
		if v, ok := cmd.Float(letter); ok {
			if abs {
				*cur = v
			} else {
				*cur += v
			}
		}
	}
	axis('X', &next.X, absolute || m.absCoords)
	axis('Y', &next.Y, absolute || m.absCoords)
	axis('Z', &next.Z, absolute || m.absCoords)
	axis('E', &next.E, absolute || m.absExtrude)
	return next
}

func (m *Machine) move(cmd *Command) {
	next := m.target(cmd, false)
	m.feedrate = cmd.FloatOr('F', m.feedrate)

	dist := math.Sqrt(sq(next.X-m.pos.X) + sq(next.Y-m.pos.Y) + sq(next.Z-m.pos.Z))
	m.account(dist, next.E-m.pos.E)
	m.stats.Box.extend(next.X, next.Y)
	m.pos = next
}

func (m *Machine) arc(cmd *Command) error {
	if !cmd.Has('I') && !cmd.Has('J') {
		return fmt.Errorf("%w: %s without I or J", ErrSyntax, cmd.Code)
	}
	next := m.target(cmd, false)
	m.feedrate = cmd.FloatOr('F', m.feedrate)

	cx := m.pos.X + cmd.FloatOr('I', 0)
	cy := m.pos.Y + cmd.FloatOr('J', 0)
	r := math.Hypot(m.pos.X-cx, m.pos.Y-cy)
	a0 := math.Atan2(m.pos.Y-cy, m.pos.X-cx)
	a1 := math.Atan2(next.Y-cy, next.X-cx)
	clockwise := cmd.Code == "G2"

	sweep := a1 - a0
	if clockwise {
		sweep = a0 - a1
	}
	if sweep <= 1e-9 {
		sweep += 2 * math.Pi
	}

	m.account(r*sweep, next.E-m.pos.E)
	m.stats.Box.extend(m.pos.X, m.pos.Y)
	m.stats.Box.extend(next.X, next.Y)
	for _, theta := range []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2} {
		d := theta - a0
		if clockwise {
			d = a0 - theta
		}
		d = math.Mod(d+4*math.Pi, 2*math.Pi)
		if d <= sweep {
			m.stats.Box.extend(cx+r*math.Cos(theta), cy+r*math.Sin(theta))
		}
	}
	m.pos = next
	return nil
}

func (m *Machine) account(dist, de float64) {
	if de > 0 {
		m.stats.ExtrudeDistance += dist
	} else {
		m.stats.TravelDistance += dist
	}
}

// home zeroes the named axes, or all of X, Y and Z when none are named.
func (m *Machine) home(cmd *Command) {
	all := !cmd.Has('X') && !cmd.Has('Y') && !cmd.Has('Z')
	if all || cmd.Has('X') {
		m.pos.X = 0
	}
	if all || cmd.Has('Y') {
		m.pos.Y = 0
	}
	if all || cmd.Has('Z') {
		m.pos.Z = 0
	}
}

func sq(v float64) float64 { return v * v }
