package suite

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of a test run. A nil *Metrics
// records nothing.
type Metrics struct {
	// Counters (cumulative values)
	TestsTotal       *prometheus.CounterVec
	SuitesTotal      prometheus.Counter
	GroupsTotal      prometheus.Counter
	HookCallsTotal   prometheus.Counter
	DiscoveriesTotal prometheus.Counter

	// Histograms (distributions)
	TestDuration prometheus.Histogram
}

// NewMetrics creates the run metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	if namespace == "" {
		namespace = "matchstick"
	}
	if subsystem == "" {
		subsystem = "runner"
	}
	factory := promauto.With(reg)

	return &Metrics{
		TestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tests_total",
			Help:      "Total number of tests run by result",
		}, []string{"result"}),
		SuitesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "suites_total",
			Help:      "Total number of test suites run",
		}),
		GroupsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "groups_total",
			Help:      "Total number of describe groups entered",
		}),
		HookCallsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hook_calls_total",
			Help:      "Total number of hook invocations",
		}),
		DiscoveriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "describe_discoveries_total",
			Help:      "Total number of describe blocks discovered on a fresh instance",
		}),
		TestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "test_duration_seconds",
			Help:      "Wall-clock duration of test bodies",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}
}

// RecordTest records one test outcome
func (m *Metrics) RecordTest(passed bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "fail"
	if passed {
		result = "pass"
	}
	m.TestsTotal.WithLabelValues(result).Inc()
	m.TestDuration.Observe(d.Seconds())
}

// RecordSuite records one suite run
func (m *Metrics) RecordSuite() {
	if m == nil {
		return
	}
	m.SuitesTotal.Inc()
}

// RecordGroup records entering one describe group
func (m *Metrics) RecordGroup() {
	if m == nil {
		return
	}
	m.GroupsTotal.Inc()
}

// RecordHooks records n hook invocations
func (m *Metrics) RecordHooks(n int) {
	if m == nil || n == 0 {
		return
	}
	m.HookCallsTotal.Add(float64(n))
}

// RecordDiscovery records one describe discovery
func (m *Metrics) RecordDiscovery() {
	if m == nil {
		return
	}
	m.DiscoveriesTotal.Inc()
}
