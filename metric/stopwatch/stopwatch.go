package stopwatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	meterStageLabel = "stage"
	stageSeparator  = ">"
)

type Metric interface {
	Stop()
}

// Stopwatch measures the time spent in named, possibly nested, stages of one operation.
// Repeated stages with the same path accumulate their durations and counts.
// Measurements stay in memory until exported.
type Stopwatch struct {
	root   *stage
	metric *stage

	nowFn   func() time.Time
	sinceFn func(time.Time) time.Duration
}

func New() *Stopwatch {
	sw := &Stopwatch{
		nowFn:   time.Now,
		sinceFn: time.Since,
	}
	sw.Reset()
	return sw
}

func (s *Stopwatch) Reset() {
	s.root = newStage(s, nil, "")
	s.metric = s.root
}

// Start begins a stage nested in the stage started last and not yet stopped.
func (s *Stopwatch) Start(name string) Metric {
	m := s.metric.nested(name)
	m.begin = s.nowFn()
	s.metric = m
	return m
}

// GetValues returns the accumulated duration of every stage by its path, e.g. "refill>drain".
func (s *Stopwatch) GetValues() map[string]time.Duration {
	res := map[string]time.Duration{}
	s.root.walk("", func(path string, m *stage) {
		res[path] = m.total
	})
	return res
}

func (s *Stopwatch) GetCounts() map[string]uint32 {
	res := map[string]uint32{}
	s.root.walk("", func(path string, m *stage) {
		res[path] = m.count
	})
	return res
}

type ExportOption func(prometheus.Labels) prometheus.Labels

func SetLabel(name, value string) ExportOption {
	return func(labels prometheus.Labels) prometheus.Labels {
		labels[name] = value
		return labels
	}
}

func (s *Stopwatch) Export(m *prometheus.HistogramVec, options ...ExportOption) {
	labels := prometheus.Labels{}
	for _, o := range options {
		labels = o(labels)
	}

	for name, val := range s.GetValues() {
		labels[meterStageLabel] = name
		m.With(labels).Observe(val.Seconds())
	}
	s.Reset()
}

type stage struct {
	sw     *Stopwatch
	parent *stage
	name   string

	begin    time.Time
	total    time.Duration
	count    uint32
	children []*stage
}

func newStage(sw *Stopwatch, parent *stage, name string) *stage {
	return &stage{sw: sw, parent: parent, name: name}
}

func (m *stage) nested(name string) *stage {
	for _, c := range m.children {
		if c.name == name {
			return c
		}
	}
	c := newStage(m.sw, m, name)
	m.children = append(m.children, c)
	return c
}

func (m *stage) Stop() {
	m.total += m.sw.sinceFn(m.begin)
	m.count++
	m.sw.metric = m.parent
}

func (m *stage) walk(prefix string, fn func(string, *stage)) {
	for _, c := range m.children {
		path := c.name
		if prefix != "" {
			path = prefix + stageSeparator + c.name
		}
		fn(path, c)
		c.walk(path, fn)
	}
}
