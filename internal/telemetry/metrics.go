package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/Flagship/internal/events"
)

// Исходы вызова для flagship_step_invocations_total.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Metrics — Prometheus метрики вызовов шагов.
type Metrics struct {
	Events      *prometheus.CounterVec
	Invocations *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// NewMetrics регистрирует метрики в reg.
// nil означает prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flagship_step_events_total",
			Help: "Step events by kind, action and failure reason",
		}, []string{"kind", "action", "reason"}),

		Invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flagship_step_invocations_total",
			Help: "Step invocations by action and outcome",
		}, []string{"action", "outcome"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flagship_step_invoke_duration_seconds",
			Help:    "Step invocation duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
	}
}

// HandleEvent считает событие. Подписывается на events.Bus.
func (m *Metrics) HandleEvent(_ context.Context, e events.Event) {
	m.Events.WithLabelValues(string(e.Kind), e.Action, e.Reason).Inc()
}

// ObserveInvocation учитывает завершённый вызов.
func (m *Metrics) ObserveInvocation(action string, failed bool, d time.Duration) {
	outcome := OutcomeSucceeded
	if failed {
		outcome = OutcomeFailed
	}
	m.Invocations.WithLabelValues(action, outcome).Inc()
	m.Duration.WithLabelValues(action).Observe(d.Seconds())
}
