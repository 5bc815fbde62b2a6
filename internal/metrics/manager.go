package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests    *prometheus.CounterVec
	CounterPlanSaves   *prometheus.CounterVec
	CounterCompletions *prometheus.CounterVec
	CounterReports     prometheus.Counter

	// histograms
	HistRequestDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("coach", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("coach", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterPlanSaves := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "plan_saves_total",
		Help:      "The total number of plan saves by plan kind and result",
	}, []string{"kind", "result"})
	counterCompletions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "completions_total",
		Help:      "The total number of recorded completions",
	}, []string{"kind"})
	counterReports := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reports_total",
		Help:      "The total number of built progress reports",
	})

	histReqDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
		},
	)

	return &Manager{
		CounterRequests:     counterRequests,
		CounterPlanSaves:    counterPlanSaves,
		CounterCompletions:  counterCompletions,
		CounterReports:      counterReports,
		HistRequestDuration: histReqDuration,
	}
}

// PlanSaved counts a plan save; result is "ok", "invalid" or "error".
func (m *Manager) PlanSaved(kind, result string) {
	if m == nil {
		return
	}
	m.CounterPlanSaves.WithLabelValues(kind, result).Inc()
}

func (m *Manager) CompletionRecorded(kind string) {
	if m == nil {
		return
	}
	m.CounterCompletions.WithLabelValues(kind).Inc()
}

func (m *Manager) ReportsBuilt(n int) {
	if m == nil {
		return
	}
	m.CounterReports.Add(float64(n))
}
