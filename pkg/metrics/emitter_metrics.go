// Emitter-specific metrics definitions
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

// EmitterMetrics holds the metrics recorded while generating and streaming
// G-code. All methods are safe to call on a nil receiver, which records nothing.
type EmitterMetrics struct {
	Registry *Registry

	// Generation
	CommandsTotal   *Counter
	RejectionsTotal *Counter
	Position        *Gauge
	ExtrusionTotal  *Gauge
	MoveLength      *Histogram

	// Streaming
	LinesSent   *Counter
	LinesResent *Counter
}

// NewEmitterMetrics creates the emitter metrics in a fresh registry.
func NewEmitterMetrics() *EmitterMetrics {
	m := &EmitterMetrics{
		Registry: NewRegistry(),

		CommandsTotal:   NewCounter("cncgo_commands_total", "G-code commands written, by command code"),
		RejectionsTotal: NewCounter("cncgo_rejections_total", "Emitter calls rejected, by error code"),
		Position:        NewGauge("cncgo_position_mm", "Tracked toolhead position, by axis"),
		ExtrusionTotal:  NewGauge("cncgo_extrusion_total_mm", "Cumulative extrusion written to the E axis"),
		MoveLength:      NewHistogram("cncgo_move_length_mm", "XY length of emitted moves, by kind", LinearBuckets(5, 5, 10)),

		LinesSent:   NewCounter("cncgo_stream_lines_total", "Lines acknowledged by the printer"),
		LinesResent: NewCounter("cncgo_stream_resends_total", "Lines the printer asked to resend"),
	}

	for _, metric := range []Metric{
		m.CommandsTotal, m.RejectionsTotal, m.Position, m.ExtrusionTotal,
		m.MoveLength, m.LinesSent, m.LinesResent,
	} {
		m.Registry.MustRegister(metric)
	}
	return m
}

// RecordCommand counts one written command.
func (m *EmitterMetrics) RecordCommand(code string) {
	if m == nil {
		return
	}
	m.CommandsTotal.Inc(Labels{"code": code})
}

// RecordRejection counts one rejected call.
func (m *EmitterMetrics) RecordRejection(code string) {
	if m == nil {
		return
	}
	m.RejectionsTotal.Inc(Labels{"code": code})
}

// RecordState publishes the tracked position and extrusion.
func (m *EmitterMetrics) RecordState(x, y, z, extrusion float64) {
	if m == nil {
		return
	}
	m.Position.Set(Labels{"axis": "x"}, x)
	m.Position.Set(Labels{"axis": "y"}, y)
	m.Position.Set(Labels{"axis": "z"}, z)
	m.ExtrusionTotal.Set(nil, extrusion)
}

// ObserveMove records the XY length of a move of the given kind
// ("travel", "extrude" or "arc").
func (m *EmitterMetrics) ObserveMove(kind string, length float64) {
	if m == nil {
		return
	}
	m.MoveLength.Observe(Labels{"kind": kind}, length)
}

// RecordStreamLine counts an acknowledged line.
func (m *EmitterMetrics) RecordStreamLine() {
	if m == nil {
		return
	}
	m.LinesSent.Inc(nil)
}

// RecordResend counts a resend request.
func (m *EmitterMetrics) RecordResend() {
	if m == nil {
		return
	}
	m.LinesResent.Inc(nil)
}

// Gather returns the metrics in Prometheus text format.
func (m *EmitterMetrics) Gather() string {
	if m == nil {
		return ""
	}
	return m.Registry.Gather()
}
