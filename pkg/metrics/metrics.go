// Metrics collection for cncgo
//
// Provides Prometheus-compatible metrics with support for:
// - Counter: monotonically increasing values
// - Gauge: values that can go up and down
// - Histogram: distribution of observations in buckets
//
// Output is Prometheus text format with series sorted by label set, so two
// runs of the same job gather byte-identical text.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MetricType represents the type of metric
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
	TypeHistogram
)

func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Labels represents metric labels as key-value pairs
type Labels map[string]string

// Key generates a unique, order-independent key for a label set
func (l Labels) Key() string {
	if len(l) == 0 {
		return ""
	}
	keys := l.sortedKeys()
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(l[k])
	}
	return sb.String()
}

// String returns labels in Prometheus format
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range l.sortedKeys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(escapeLabel(l[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

func (l Labels) sortedKeys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l Labels) clone() Labels {
	out := make(Labels, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Metric is the interface for all metric types
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	Write(sb *strings.Builder)
}

// series is the label-keyed storage shared by all metric types.
type series[T any] struct {
	mu     sync.Mutex
	labels map[string]Labels
	values map[string]*T
}

func newSeries[T any]() *series[T] {
	return &series[T]{labels: make(map[string]Labels), values: make(map[string]*T)}
}

// update runs fn on the value for labels, creating it on first use.
func (s *series[T]) update(labels Labels, fn func(v *T)) {
	key := labels.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		v = new(T)
		s.values[key] = v
		s.labels[key] = labels.clone()
	}
	fn(v)
}

// read runs fn on the value for labels if it exists.
func (s *series[T]) read(labels Labels, fn func(v *T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[labels.Key()]; ok {
		fn(v)
	}
}

// each visits every series in sorted label-key order.
func (s *series[T]) each(fn func(labels Labels, v *T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn(s.labels[k], s.values[k])
	}
}

func writeHeader(sb *strings.Builder, m Metric) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s %s\n", m.Name(), m.Help(), m.Name(), m.Type())
}

// Counter is a monotonically increasing metric
type Counter struct {
	name string
	help string
	s    *series[uint64]
}

// NewCounter creates a new counter metric
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help, s: newSeries[uint64]()}
}

func (c *Counter) Name() string     { return c.name }
func (c *Counter) Help() string     { return c.help }
func (c *Counter) Type() MetricType { return TypeCounter }

// Inc increments the counter by 1
func (c *Counter) Inc(labels Labels) {
	c.Add(labels, 1)
}

// Add increments the counter by the given value
func (c *Counter) Add(labels Labels, delta uint64) {
	c.s.update(labels, func(v *uint64) { *v += delta })
}

// Get returns the current counter value for labels
func (c *Counter) Get(labels Labels) uint64 {
	var out uint64
	c.s.read(labels, func(v *uint64) { out = *v })
	return out
}

func (c *Counter) Write(sb *strings.Builder) {
	writeHeader(sb, c)
	c.s.each(func(labels Labels, v *uint64) {
		fmt.Fprintf(sb, "%s%s %d\n", c.name, labels, *v)
	})
}

// Gauge is a metric that can go up and down
type Gauge struct {
	name string
	help string
	s    *series[float64]
}

// NewGauge creates a new gauge metric
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help, s: newSeries[float64]()}
}

func (g *Gauge) Name() string     { return g.name }
func (g *Gauge) Help() string     { return g.help }
func (g *Gauge) Type() MetricType { return TypeGauge }

// Set sets the gauge to the given value
func (g *Gauge) Set(labels Labels, value float64) {
	g.s.update(labels, func(v *float64) { *v = value })
}

// Add adds the given value to the gauge
func (g *Gauge) Add(labels Labels, delta float64) {
	g.s.update(labels, func(v *float64) { *v += delta })
}

// Get returns the current gauge value for labels
func (g *Gauge) Get(labels Labels) float64 {
	var out float64
	g.s.read(labels, func(v *float64) { out = *v })
	return out
}

func (g *Gauge) Write(sb *strings.Builder) {
	writeHeader(sb, g)
	g.s.each(func(labels Labels, v *float64) {
		fmt.Fprintf(sb, "%s%s %s\n", g.name, labels, formatFloat(*v))
	})
}

// Histogram tracks the distribution of observations
type Histogram struct {
	name    string
	help    string
	buckets []float64
	s       *series[histogramValue]
}

type histogramValue struct {
	counts []uint64 // non-cumulative, one per bucket plus +Inf
	count  uint64
	sum    float64
}

// NewHistogram creates a histogram with the given upper bounds.
func NewHistogram(name, help string, buckets []float64) *Histogram {
	b := append([]float64(nil), buckets...)
	sort.Float64s(b)
	return &Histogram{name: name, help: help, buckets: b, s: newSeries[histogramValue]()}
}

// LinearBuckets returns count buckets starting at start, width apart.
func LinearBuckets(start, width float64, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = start + float64(i)*width
	}
	return out
}

func (h *Histogram) Name() string     { return h.name }
func (h *Histogram) Help() string     { return h.help }
func (h *Histogram) Type() MetricType { return TypeHistogram }

// Observe records one value
func (h *Histogram) Observe(labels Labels, value float64) {
	idx := sort.SearchFloat64s(h.buckets, value)
	h.s.update(labels, func(v *histogramValue) {
		if v.counts == nil {
			v.counts = make([]uint64, len(h.buckets)+1)
		}
		v.counts[idx]++
		v.count++
		v.sum += value
	})
}

// Count returns the number of observations for labels
func (h *Histogram) Count(labels Labels) uint64 {
	var out uint64
	h.s.read(labels, func(v *histogramValue) { out = v.count })
	return out
}

// Sum returns the sum of observations for labels
func (h *Histogram) Sum(labels Labels) float64 {
	var out float64
	h.s.read(labels, func(v *histogramValue) { out = v.sum })
	return out
}

func (h *Histogram) Write(sb *strings.Builder) {
	writeHeader(sb, h)
	h.s.each(func(labels Labels, v *histogramValue) {
		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += v.counts[i]
			le := labels.clone()
			le["le"] = formatFloat(bound)
			fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, le, cumulative)
		}
		le := labels.clone()
		le["le"] = "+Inf"
		fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, le, v.count)
		fmt.Fprintf(sb, "%s_sum%s %s\n", h.name, labels, formatFloat(v.sum))
		fmt.Fprintf(sb, "%s_count%s %d\n", h.name, labels, v.count)
	})
}

// Registry holds all registered metrics
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
	order   []string
}

// NewRegistry creates a new metrics registry
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// Register adds a metric to the registry
func (r *Registry) Register(metric Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := metric.Name()
	if _, exists := r.metrics[name]; exists {
		return fmt.Errorf("metric %q already registered", name)
	}
	r.metrics[name] = metric
	r.order = append(r.order, name)
	return nil
}

// MustRegister adds a metric and panics on error
func (r *Registry) MustRegister(metric Metric) {
	if err := r.Register(metric); err != nil {
		panic(err)
	}
}

// Get returns a metric by name
func (r *Registry) Get(name string) Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics[name]
}

// Gather collects all metrics in Prometheus text format, in registration order
func (r *Registry) Gather() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, name := range r.order {
		r.metrics[name].Write(&sb)
	}
	return sb.String()
}
