// G-code emitter
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package emitter writes Marlin-flavoured G-code while tracking the position
// and cumulative extrusion of the print head.
package emitter

import (
	"bufio"
	"io"
	"math"
	"os"
	"strings"

	"cncgo/pkg/errors"
	"cncgo/pkg/log"
	"cncgo/pkg/metrics"
	"cncgo/pkg/safety"
)

// PreambleLines is the number of lines written at construction.
const PreambleLines = 8

// ArcDirection selects between G2 and G3.
type ArcDirection int

const (
	Clockwise ArcDirection = iota
	CounterClockwise
)

func (d ArcDirection) code() string {
	if d == CounterClockwise {
		return "G3"
	}
	return "G2"
}

func (d ArcDirection) String() string {
	if d == CounterClockwise {
		return "counter-clockwise"
	}
	return "clockwise"
}

// Emitter writes G-code to a single destination.
//
// An Emitter is not safe for concurrent use. Callers sharing one between
// goroutines must serialize access themselves.
type Emitter struct {
	name   string
	w      *bufio.Writer
	closer io.Closer

	metric    bool
	safety    bool
	validator safety.Validator

	// Tracked state. Only changed after a command has been written.
	x, y, z   float64
	extrusion float64
	ratio     float64

	lines  int
	closed bool

	log     *log.Logger
	metrics *metrics.EmitterMetrics
}

// Create truncates or creates dest, appending Suffix when missing, and
// writes the preamble.
func Create(dest string, cfg Config) (*Emitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	name := dest
	if !strings.HasSuffix(name, Suffix) {
		name += Suffix
	}

	f, err := os.Create(name)
	if err != nil {
		return nil, errors.IOError("create", name, err)
	}

	e, err := New(f, name, cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return e, nil
}

// New writes the preamble to w and returns an Emitter owning it. name is
// recorded in the preamble. If w is an io.Closer it is closed by Close.
func New(w io.Writer, name string, cfg Config) (*Emitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Emitter{
		name:      name,
		w:         bufio.NewWriter(w),
		metric:    cfg.Metric,
		safety:    cfg.SafetyMode,
		validator: safety.NewValidator(cfg.Bounds()),
		z:         1,
		ratio:     cfg.ExtrusionRatio,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
	}
	if c, ok := w.(io.Closer); ok {
		e.closer = c
	}
	if e.log == nil {
		e.log = log.GetLogger("emitter")
	}

	if err := e.writePreamble(cfg.Comment); err != nil {
		return nil, err
	}
	e.metrics.RecordState(e.x, e.y, e.z, e.extrusion)

	e.log.WithFields(log.Fields{
		"bed":    e.validator.Bounds().String(),
		"safety": e.safety,
		"metric": e.metric,
	}).Info("opened " + name)
	return e, nil
}

func (e *Emitter) writePreamble(comment string) error {
	units := "G21"
	if !e.metric {
		units = "G20"
	}
	lift := newCommand("G0").coord('Z', 1).whole('F', 2000).String()

	for _, step := range []func() error{
		func() error { return e.Comment("FLAVOR:Marlin") },
		func() error { return e.Comment(e.name) },
		func() error { return e.Comment(comment) },
		func() error { return e.Raw("G90") },
		func() error { return e.Raw("G29") },
		func() error { return e.Raw(lift) },
		func() error { return e.Raw(units) },
		e.Home,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Accessors

// Position returns the tracked head position.
func (e *Emitter) Position() (x, y, z float64) {
	return e.x, e.y, e.z
}

func (e *Emitter) X() float64 { return e.x }
func (e *Emitter) Y() float64 { return e.y }
func (e *Emitter) Z() float64 { return e.z }

// ExtrusionTotal returns the cumulative E value written so far.
func (e *Emitter) ExtrusionTotal() float64 { return e.extrusion }

// ExtrusionRatio returns the current extrusion multiplier.
func (e *Emitter) ExtrusionRatio() float64 { return e.ratio }

// Bounds returns the work area.
func (e *Emitter) Bounds() safety.Bounds { return e.validator.Bounds() }

// Name returns the destination name written in the preamble.
func (e *Emitter) Name() string { return e.name }

// SafetyMode reports whether bounds and thermal checks are enabled.
func (e *Emitter) SafetyMode() bool { return e.safety }

// Closed reports whether Close has been called.
func (e *Emitter) Closed() bool { return e.closed }

// Lines returns the number of lines written, preamble included.
func (e *Emitter) Lines() int { return e.lines }

// Sink

// write appends line to the sink. It is the only place output is produced.
func (e *Emitter) write(op, line string) error {
	if e.closed {
		return e.reject(op, errors.ClosedError(op))
	}
	if _, err := e.w.WriteString(line + "\n"); err != nil {
		ioErr := errors.IOError("write", e.name, err)
		e.log.WithError(err).Error("write failed")
		return ioErr
	}
	e.lines++

	if code := commandCode(line); code != "" {
		e.metrics.RecordCommand(code)
		if e.log.Enabled(log.DEBUG) {
			e.log.WithField("line", e.lines).Debug(line)
		}
	}
	return nil
}

// commandCode returns the G/M word a line starts with, or "" for comments
// and blank lines.
func commandCode(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0][0] {
	case 'G', 'M', 'T', 'g', 'm', 't':
		return strings.ToUpper(fields[0])
	}
	return ""
}

func (e *Emitter) reject(op string, err error) error {
	if ee, ok := errors.As(err); ok {
		if ee.Op == "" {
			ee.SetOp(op)
		}
		e.metrics.RecordRejection(string(ee.Code))
	}
	e.log.WithError(err).Warn("rejected " + op)
	return err
}

// Raw writes line followed by a newline, unedited.
func (e *Emitter) Raw(line string) error {
	return e.write("raw", line)
}

// Comment writes "; text".
func (e *Emitter) Comment(text string) error {
	return e.write("comment", "; "+text)
}

// NewLine writes an empty separator line.
func (e *Emitter) NewLine() error {
	return e.write("newline", "")
}

// Flush pushes buffered output to the destination.
func (e *Emitter) Flush() error {
	if e.closed {
		return errors.ClosedError("flush")
	}
	if err := e.w.Flush(); err != nil {
		return errors.IOError("flush", e.name, err)
	}
	return nil
}

// Device commands

// Home writes G28. The tracked position is left as it is; only explicit
// moves change it.
func (e *Emitter) Home() error {
	return e.write("home", "G28")
}

// Center moves to the middle of the bed at CenterSpeed, keeping Z.
func (e *Emitter) Center() error {
	cx, cy := e.validator.Bounds().Center()
	return e.moveTo("center", cx, cy, e.z, moveOptions{speed: CenterSpeed})
}

// Pause writes a dwell of the given number of seconds.
func (e *Emitter) Pause(seconds float64) error {
	return e.write("pause", newCommand("G4").whole('P', seconds*1000).String())
}

// HeatExtruder sets the hotend target. Blocking waits for the temperature
// (M109), otherwise the printer continues immediately (M104).
func (e *Emitter) HeatExtruder(temp float64, blocking bool) error {
	code := "M104"
	if blocking {
		code = "M109"
	}
	return e.heat("heat_extruder", safety.ZoneExtruder, code, temp)
}

// HeatBed sets the bed target with M190 (blocking) or M140.
func (e *Emitter) HeatBed(temp float64, blocking bool) error {
	code := "M140"
	if blocking {
		code = "M190"
	}
	return e.heat("heat_bed", safety.ZoneBed, code, temp)
}

func (e *Emitter) heat(op string, zone safety.Zone, code string, temp float64) error {
	if e.closed {
		return e.reject(op, errors.ClosedError(op))
	}
	if e.safety {
		if err := e.validator.CheckHeat(zone, temp); err != nil {
			return e.reject(op, err)
		}
	}
	return e.write(op, newCommand(code).whole('S', temp).String())
}

// SetExtrusionRatio changes the multiplier applied to later extrusions.
// Negative values are ignored.
func (e *Emitter) SetExtrusionRatio(v float64) {
	if v >= 0 {
		e.ratio = v
		return
	}
	e.log.Debug("ignored extrusion ratio %g", v)
}

// Motion

// Move moves relative to the tracked position.
func (e *Emitter) Move(dx, dy, dz float64, opts ...MoveOption) error {
	return e.moveTo("move", e.x+dx, e.y+dy, e.z+dz, applyOptions(opts))
}

// MoveTo moves to an absolute position. Every coordinate is a real target,
// zero included.
func (e *Emitter) MoveTo(x, y, z float64, opts ...MoveOption) error {
	return e.moveTo("move_to", x, y, z, applyOptions(opts))
}

func (e *Emitter) moveTo(op string, x, y, z float64, o moveOptions) error {
	if e.closed {
		return e.reject(op, errors.ClosedError(op))
	}
	if e.safety {
		if err := e.validator.CheckPosition(x, y); err != nil {
			return e.reject(op, err)
		}
		if err := safety.CheckFinite(z, safety.AxisZ); err != nil {
			return e.reject(op, err)
		}
		if err := safety.CheckExtrusion(o.extrusion); err != nil {
			return e.reject(op, err)
		}
	}

	extrusion := e.extrusion
	kind := "travel"
	var line string
	if o.extrusion == 0 {
		line = newCommand("G0").
			coord('X', x).coord('Y', y).coord('Z', z).
			whole('F', o.speed*1000).String()
	} else {
		kind = "extrude"
		extrusion += o.extrusion * e.ratio
		line = newCommand("G1").
			coord('X', x).coord('Y', y).coord('Z', z).
			coord('E', extrusion).
			whole('F', o.speed*1000).String()
	}

	if err := e.write(op, line); err != nil {
		return err
	}
	e.metrics.ObserveMove(kind, math.Hypot(x-e.x, y-e.y))
	e.commit(x, y, z, extrusion)
	return nil
}

// Arc writes a G2 or G3 arc ending at (x+dx, y+dy). centerX and centerY are
// the offset of the arc center from the start point.
func (e *Emitter) Arc(dir ArcDirection, dx, dy, centerX, centerY float64, opts ...MoveOption) error {
	const op = "arc"
	o := applyOptions(opts)

	if e.closed {
		return e.reject(op, errors.ClosedError(op))
	}
	x, y := e.x+dx, e.y+dy
	if e.safety {
		if err := e.validator.CheckArcCenter(centerX, centerY); err != nil {
			return e.reject(op, err)
		}
		if err := e.validator.CheckPosition(x, y); err != nil {
			return e.reject(op, err)
		}
		if err := safety.CheckExtrusion(o.extrusion); err != nil {
			return e.reject(op, err)
		}
	}

	extrusion := e.extrusion + o.extrusion*e.ratio
	line := newCommand(dir.code()).
		coord('X', x).coord('Y', y).
		coord('I', centerX).coord('J', centerY).
		coord('E', extrusion).
		whole('F', o.speed*1000).String()

	if err := e.write(op, line); err != nil {
		return err
	}
	e.metrics.ObserveMove("arc", math.Hypot(dx, dy))
	e.commit(x, y, e.z, extrusion)
	return nil
}

// ClockwiseArc is Arc(Clockwise, ...).
func (e *Emitter) ClockwiseArc(dx, dy, centerX, centerY float64, opts ...MoveOption) error {
	return e.Arc(Clockwise, dx, dy, centerX, centerY, opts...)
}

// CounterClockwiseArc is Arc(CounterClockwise, ...).
func (e *Emitter) CounterClockwiseArc(dx, dy, centerX, centerY float64, opts ...MoveOption) error {
	return e.Arc(CounterClockwise, dx, dy, centerX, centerY, opts...)
}

func (e *Emitter) commit(x, y, z, extrusion float64) {
	e.x, e.y, e.z = x, y, z
	e.extrusion = extrusion
	e.metrics.RecordState(x, y, z, extrusion)
}

// Close flushes and releases the destination. Any later call fails with a
// CLOSED error, Close included.
func (e *Emitter) Close() error {
	if e.closed {
		return errors.ClosedError("close")
	}
	e.closed = true

	var err error
	if ferr := e.w.Flush(); ferr != nil {
		err = errors.IOError("flush", e.name, ferr)
	}
	if e.closer != nil {
		if cerr := e.closer.Close(); cerr != nil && err == nil {
			err = errors.IOError("close", e.name, cerr)
		}
	}
	if err != nil {
		e.log.WithError(err).Error("close failed")
		return err
	}

	e.log.WithFields(log.Fields{
		"lines":     e.lines,
		"extrusion": e.extrusion,
	}).Info("closed " + e.name)
	return nil
}
