package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — Prometheus метрики выполнения планов.
type Metrics struct {
	// StepDuration — длительность шага в миллисекундах, по label шага.
	StepDuration *prometheus.HistogramVec

	// StepsTotal — выполненные шаги по label и статусу.
	StepsTotal *prometheus.CounterVec

	// RunsTotal — завершённые run по статусу.
	RunsTotal *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в reg.
// nil reg — prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perftool_step_duration_ms",
			Help:    "Step execution time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}, []string{"label"}),
		StepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "perftool_steps_total",
			Help: "Executed steps by label and status",
		}, []string{"label", "status"}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "perftool_runs_total",
			Help: "Finished runs by status",
		}, []string{"status"}),
	}
}
