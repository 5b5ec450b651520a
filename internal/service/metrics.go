package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/creamcroissant/boxbuild/internal/builder"
)

// BuildMetrics holds the Prometheus collectors of the build service.
type BuildMetrics struct {
	builds     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	alerts     prometheus.Counter
	helperHops prometheus.Counter
}

// NewBuildMetrics registers the build collectors on reg. A nil reg uses the
// default registerer.
func NewBuildMetrics(reg prometheus.Registerer, namespace string) *BuildMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "boxbuild"
	}
	factory := promauto.With(reg)
	return &BuildMetrics{
		builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "builder",
				Name:      "builds_total",
				Help:      "Total number of configuration builds by mode and result.",
			},
			[]string{"mode", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "builder",
				Name:      "build_duration_seconds",
				Help:      "Configuration build latency in seconds.",
				Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"mode"},
		),
		alerts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "alerts_total",
			Help:      "Non-fatal alerts raised by successful builds.",
		}),
		helperHops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "helper_hops_total",
			Help:      "Hops delegated to external helper processes.",
		}),
	}
}

func (m *BuildMetrics) observe(mode builder.Mode, elapsed time.Duration, result *builder.ConfigBuildResult, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.builds.WithLabelValues(mode.String(), outcome).Inc()
	m.duration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
	if result == nil {
		return
	}
	m.alerts.Add(float64(len(result.Alerts)))
	for _, chain := range result.ExternalIndex {
		m.helperHops.Add(float64(len(chain.Hops)))
	}
}
