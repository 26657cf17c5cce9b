// Package metrics is a small Prometheus-compatible registry: counters, gauges
// and histograms keyed by name and label pairs, rendered in the text
// exposition format.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuckets are the default histogram buckets (in seconds).
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Counter is a monotonically increasing counter.
type Counter struct{ val atomic.Int64 }

func (c *Counter) Inc() { c.val.Add(1) }

// Add increases the counter; negative n is ignored.
func (c *Counter) Add(n int64) {
	if n > 0 {
		c.val.Add(n)
	}
}

func (c *Counter) Value() int64 { return c.val.Load() }

// Gauge can go up and down.
type Gauge struct{ val atomic.Int64 }

func (g *Gauge) Set(n int64)  { g.val.Store(n) }
func (g *Gauge) Inc()         { g.val.Add(1) }
func (g *Gauge) Dec()         { g.val.Add(-1) }
func (g *Gauge) Value() int64 { return g.val.Load() }

// Histogram tracks the distribution of observed values using fixed buckets.
type Histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64 // per bucket, not cumulative
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *Histogram {
	b := append([]float64(nil), buckets...)
	sort.Float64s(b)
	return &Histogram{buckets: b, counts: make([]uint64, len(b))}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	if i := sort.SearchFloat64s(h.buckets, v); i < len(h.buckets) {
		h.counts[i]++
	}
}

// Since observes the seconds elapsed since t.
func (h *Histogram) Since(t time.Time) {
	h.Observe(time.Since(t).Seconds())
}

func (h *Histogram) snapshot() (counts []uint64, sum float64, count uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint64(nil), h.counts...), h.sum, h.count
}

type kind string

const (
	kindCounter   kind = "counter"
	kindGauge     kind = "gauge"
	kindHistogram kind = "histogram"
)

// family is every series sharing a metric name.
type family struct {
	name   string
	help   string
	kind   kind
	series map[string]any // label string -> *Counter, *Gauge or *Histogram
}

// Registry holds named metrics. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	families map[string]*family
	order    []string
}

// New creates a new Registry.
func New() *Registry {
	return &Registry{families: make(map[string]*family)}
}

// lookup returns the series for name and labels, creating it with mk.
// Registering a name twice with different kinds panics.
func (r *Registry) lookup(name, help string, k kind, kvs []string, mk func() any) any {
	labels := labelString(kvs)
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.families[name]
	if !ok {
		f = &family{name: name, help: help, kind: k, series: make(map[string]any)}
		r.families[name] = f
		r.order = append(r.order, name)
	}
	if f.kind != k {
		panic(fmt.Sprintf("metrics: %s registered as %s, requested as %s", name, f.kind, k))
	}
	if f.help == "" {
		f.help = help
	}
	m, ok := f.series[labels]
	if !ok {
		m = mk()
		f.series[labels] = m
	}
	return m
}

// Counter returns (or creates) the counter for name and label pairs.
func (r *Registry) Counter(name, help string, kvs ...string) *Counter {
	return r.lookup(name, help, kindCounter, kvs, func() any { return &Counter{} }).(*Counter)
}

// Gauge returns (or creates) the gauge for name and label pairs.
func (r *Registry) Gauge(name, help string, kvs ...string) *Gauge {
	return r.lookup(name, help, kindGauge, kvs, func() any { return &Gauge{} }).(*Gauge)
}

// Histogram returns (or creates) the histogram for name and label pairs.
// Nil buckets means DefaultBuckets.
func (r *Registry) Histogram(name, help string, buckets []float64, kvs ...string) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	return r.lookup(name, help, kindHistogram, kvs, func() any { return newHistogram(buckets) }).(*Histogram)
}

// labelString renders label pairs as k1="v1",k2="v2". An odd trailing key is
// dropped.
func labelString(kvs []string) string {
	var b strings.Builder
	for i := 0; i+1 < len(kvs); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", kvs[i], kvs[i+1])
	}
	return b.String()
}

func braced(labels string) string {
	if labels == "" {
		return ""
	}
	return "{" + labels + "}"
}

// Render returns the Prometheus text exposition format output.
func (r *Registry) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, name := range r.order {
		f := r.families[name]
		if f.help != "" {
			fmt.Fprintf(&b, "# HELP %s %s\n", name, f.help)
		}
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, f.kind)

		keys := make([]string, 0, len(f.series))
		for k := range f.series {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, labels := range keys {
			switch m := f.series[labels].(type) {
			case *Counter:
				fmt.Fprintf(&b, "%s%s %d\n", name, braced(labels), m.Value())
			case *Gauge:
				fmt.Fprintf(&b, "%s%s %d\n", name, braced(labels), m.Value())
			case *Histogram:
				renderHistogram(&b, name, labels, m)
			}
		}
	}
	return b.String()
}

func renderHistogram(b *strings.Builder, name, labels string, h *Histogram) {
	counts, sum, count := h.snapshot()
	extra := ""
	if labels != "" {
		extra = "," + labels
	}
	var cumulative uint64
	for i, le := range h.buckets {
		cumulative += counts[i]
		fmt.Fprintf(b, "%s_bucket{le=\"%g\"%s} %d\n", name, le, extra, cumulative)
	}
	fmt.Fprintf(b, "%s_bucket{le=\"+Inf\"%s} %d\n", name, extra, count)
	fmt.Fprintf(b, "%s_sum%s %g\n", name, braced(labels), sum)
	fmt.Fprintf(b, "%s_count%s %d\n", name, braced(labels), count)
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(r.Render()))
	})
}
