// Unit tests for Prometheus metrics implementation
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"strings"
	"sync"
	"testing"
)

// TestCounterBasic tests basic counter operations
func TestCounterBasic(t *testing.T) {
	c := NewCounter("test_counter", "A test counter")

	if v := c.Get(nil); v != 0 {
		t.Errorf("expected 0, got %d", v)
	}

	c.Inc(nil)
	c.Add(nil, 4)
	if v := c.Get(nil); v != 5 {
		t.Errorf("expected 5, got %d", v)
	}

	c.Inc(Labels{"code": "G1"})
	if v := c.Get(Labels{"code": "G1"}); v != 1 {
		t.Errorf("expected 1 for G1, got %d", v)
	}
	if v := c.Get(Labels{"code": "G0"}); v != 0 {
		t.Errorf("expected 0 for unseen label, got %d", v)
	}
}

func TestCounterConcurrency(t *testing.T) {
	c := NewCounter("concurrent_counter", "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Inc(Labels{"code": "G1"})
			}
		}()
	}
	wg.Wait()

	if v := c.Get(Labels{"code": "G1"}); v != 1000 {
		t.Errorf("expected 1000, got %d", v)
	}
}

func TestGaugeBasic(t *testing.T) {
	g := NewGauge("test_gauge", "A test gauge")

	g.Set(nil, 42.5)
	if v := g.Get(nil); v != 42.5 {
		t.Errorf("expected 42.5, got %f", v)
	}
	g.Add(nil, -2.5)
	if v := g.Get(nil); v != 40 {
		t.Errorf("expected 40, got %f", v)
	}

	g.Set(Labels{"axis": "x"}, 10)
	g.Set(Labels{"axis": "y"}, 20)
	if g.Get(Labels{"axis": "x"}) != 10 || g.Get(Labels{"axis": "y"}) != 20 {
		t.Error("labelled gauges should be independent")
	}
}

func TestHistogramBasic(t *testing.T) {
	h := NewHistogram("test_histogram", "", []float64{10, 1, 5})

	for _, v := range []float64{0.5, 3, 3, 7, 50} {
		h.Observe(nil, v)
	}

	if c := h.Count(nil); c != 5 {
		t.Errorf("expected count 5, got %d", c)
	}
	if s := h.Sum(nil); s != 63.5 {
		t.Errorf("expected sum 63.5, got %f", s)
	}

	var sb strings.Builder
	h.Write(&sb)
	out := sb.String()

	// Buckets are sorted and cumulative.
	for _, want := range []string{
		`test_histogram_bucket{le="1"} 1`,
		`test_histogram_bucket{le="5"} 3`,
		`test_histogram_bucket{le="10"} 4`,
		`test_histogram_bucket{le="+Inf"} 5`,
		`test_histogram_sum 63.5`,
		`test_histogram_count 5`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestLinearBuckets(t *testing.T) {
	got := LinearBuckets(5, 5, 4)
	want := []float64{5, 10, 15, 20}
	if len(got) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	c := NewCounter("a_total", "first")
	g := NewGauge("b_value", "second")

	if err := r.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	r.MustRegister(g)
	if err := r.Register(NewCounter("a_total", "dup")); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if r.Get("b_value") != g {
		t.Error("Get should return the registered metric")
	}
	if r.Get("missing") != nil {
		t.Error("Get should return nil for unknown metrics")
	}

	c.Inc(Labels{"code": "G1"})
	g.Set(nil, 1.5)

	out := r.Gather()
	if strings.Index(out, "a_total") > strings.Index(out, "b_value") {
		t.Error("Gather should keep registration order")
	}
	for _, want := range []string{
		"# HELP a_total first",
		"# TYPE a_total counter",
		`a_total{code="G1"} 1`,
		"# TYPE b_value gauge",
		"b_value 1.5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestGatherIsDeterministic(t *testing.T) {
	c := NewCounter("cmds_total", "")
	for _, code := range []string{"G1", "M104", "G0", "G28"} {
		c.Inc(Labels{"code": code})
	}

	var first, second strings.Builder
	c.Write(&first)
	c.Write(&second)
	if first.String() != second.String() {
		t.Error("output should not depend on map iteration order")
	}
	if strings.Index(first.String(), `"G0"`) > strings.Index(first.String(), `"M104"`) {
		t.Errorf("series should be sorted by label set:\n%s", first.String())
	}
}

func TestLabels(t *testing.T) {
	a := Labels{"b": "2", "a": "1"}
	b := Labels{"a": "1", "b": "2"}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	if got := (Labels{"msg": `say "hi"`}).String(); got != `{msg="say \"hi\""}` {
		t.Errorf("unexpected escaping: %s", got)
	}
	if Labels(nil).String() != "" {
		t.Error("empty labels should render as empty string")
	}
}

func TestEmitterMetrics(t *testing.T) {
	m := NewEmitterMetrics()

	m.RecordCommand("G1")
	m.RecordCommand("G1")
	m.RecordRejection("OUT_OF_BOUNDS")
	m.RecordState(10, 20, 1, 3.5)
	m.ObserveMove("extrude", 12)
	m.RecordStreamLine()
	m.RecordResend()

	if v := m.CommandsTotal.Get(Labels{"code": "G1"}); v != 2 {
		t.Errorf("expected 2 G1 commands, got %d", v)
	}
	if v := m.RejectionsTotal.Get(Labels{"code": "OUT_OF_BOUNDS"}); v != 1 {
		t.Errorf("expected 1 rejection, got %d", v)
	}
	if v := m.Position.Get(Labels{"axis": "y"}); v != 20 {
		t.Errorf("expected y=20, got %f", v)
	}
	if v := m.ExtrusionTotal.Get(nil); v != 3.5 {
		t.Errorf("expected extrusion 3.5, got %f", v)
	}
	if v := m.MoveLength.Count(Labels{"kind": "extrude"}); v != 1 {
		t.Errorf("expected 1 move observation, got %d", v)
	}

	out := m.Gather()
	if !strings.Contains(out, `cncgo_commands_total{code="G1"} 2`) {
		t.Errorf("unexpected gather output:\n%s", out)
	}
	if !strings.Contains(out, "cncgo_stream_resends_total 1") {
		t.Errorf("expected resend counter in output:\n%s", out)
	}
}

func TestNilEmitterMetrics(t *testing.T) {
	var m *EmitterMetrics
	m.RecordCommand("G1")
	m.RecordRejection("CLOSED")
	m.RecordState(0, 0, 0, 0)
	m.ObserveMove("arc", 1)
	m.RecordStreamLine()
	m.RecordResend()
	if m.Gather() != "" {
		t.Error("nil metrics should gather nothing")
	}
}
