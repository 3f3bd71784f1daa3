package engine

import (
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/fiber"
)

const metricsNamespace = "fiber"

// Metrics records render activity as prometheus metrics. It implements
// fiber.Observer.
type Metrics struct {
	units       *prometheus.CounterVec
	yields      prometheus.Counter
	discards    prometheus.Counter
	commits     prometheus.Counter
	failures    *prometheus.CounterVec
	effects     *prometheus.CounterVec
	renderTime  prometheus.Histogram
	commitTime  prometheus.Histogram
	generation  prometheus.Gauge
	unitsPerGen prometheus.Histogram
}

var _ fiber.Observer = (*Metrics)(nil)

// NewMetrics creates the render metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		units: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "render",
				Name:      "units_total",
				Help:      "Units of work performed, by unit kind.",
			},
			[]string{"kind"},
		),
		yields: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "render",
			Name:      "yields_total",
			Help:      "Times a render stopped because its time slice ran out.",
		}),
		discards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "render",
			Name:      "discarded_total",
			Help:      "In-progress generations abandoned before commit.",
		}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "render",
			Name:      "commits_total",
			Help:      "Generations applied to the host.",
		}),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "render",
				Name:      "failures_total",
				Help:      "Renders aborted by an error, by error kind.",
			},
			[]string{"kind"},
		),
		effects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "commit",
				Name:      "effects_total",
				Help:      "Host effects applied at commit, by effect.",
			},
			[]string{"effect"},
		),
		renderTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Time from render start to commit.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		commitTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "commit",
			Name:      "duration_seconds",
			Help:      "Time spent applying a generation to the host.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "render",
			Name:      "committed_generation",
			Help:      "Number of the most recently committed generation.",
		}),
		unitsPerGen: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "render",
			Name:      "units_per_generation",
			Help:      "Units performed by each committed generation.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.units, m.yields, m.discards, m.commits, m.failures,
			m.effects, m.renderTime, m.commitTime, m.generation, m.unitsPerGen,
		)
	}
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (m *Metrics) UnitPerformed(kind string) {
	m.units.WithLabelValues(kind).Inc()
}

func (m *Metrics) Yielded() {
	m.yields.Inc()
}

func (m *Metrics) Discarded(uint64) {
	m.discards.Inc()
}

func (m *Metrics) Committed(stats fiber.RenderStats) {
	m.commits.Inc()
	m.effects.WithLabelValues(fiber.EffectPlace.String()).Add(float64(stats.Placements))
	m.effects.WithLabelValues(fiber.EffectUpdate.String()).Add(float64(stats.Updates))
	m.effects.WithLabelValues(fiber.EffectDelete.String()).Add(float64(stats.Deletions))
	m.renderTime.Observe(stats.Render.Seconds())
	m.commitTime.Observe(stats.Commit.Seconds())
	m.generation.Set(float64(stats.Generation))
	m.unitsPerGen.Observe(float64(stats.Units))
}

func (m *Metrics) Failed(err error) {
	kind := errors.KindUnknown
	var fe *errors.FiberError
	if stderrors.As(err, &fe) {
		kind = fe.Kind
	}
	m.failures.WithLabelValues(kind.String()).Inc()
}
