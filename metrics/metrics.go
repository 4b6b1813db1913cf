package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fognode"

// Metrics holds the node's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ticks         prometheus.Counter
	samplesMissed prometheus.Counter
	tickOverruns  prometheus.Counter
	actuations    prometheus.Counter
	windowFill    prometheus.Gauge
	health        *prometheus.GaugeVec

	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec

	forwardDropped *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks executed.",
		}),
		samplesMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_missed_total",
			Help:      "Sensor fetches that returned no sample.",
		}),
		tickOverruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_overruns_total",
			Help:      "Ticks that finished after the next scheduled tick.",
		}),
		actuations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actuations_total",
			Help:      "Ticks whose assessment required local actuation.",
		}),
		windowFill: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_samples",
			Help:      "Samples currently held in the telemetry window.",
		}),
		health: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_score",
			Help:      "Latest derived health scores.",
		}, []string{"score"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Outbound sends by target and outcome.",
		}, []string{"target", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Outbound send latency by target.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"target"}),
		forwardDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forward_dropped_total",
			Help:      "Status updates skipped because a forwarder was busy.",
		}, []string{"forwarder"}),
	}
	reg.MustRegister(
		m.ticks,
		m.samplesMissed,
		m.tickOverruns,
		m.actuations,
		m.windowFill,
		m.health,
		m.dispatches,
		m.dispatchDuration,
		m.forwardDropped,
	)
	return m
}

func (m *Metrics) Tick(windowLen int) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.windowFill.Set(float64(windowLen))
}

func (m *Metrics) SampleMissed() {
	if m == nil {
		return
	}
	m.samplesMissed.Inc()
}

func (m *Metrics) TickOverrun() {
	if m == nil {
		return
	}
	m.tickOverruns.Inc()
}

func (m *Metrics) Health(thermalStress, brakeHealth, vehicleHealth, vibrationRisk float64, actuation bool) {
	if m == nil {
		return
	}
	m.health.WithLabelValues("thermal_stress").Set(thermalStress)
	m.health.WithLabelValues("brake_health").Set(brakeHealth)
	m.health.WithLabelValues("vehicle_health").Set(vehicleHealth)
	m.health.WithLabelValues("vibration_risk").Set(vibrationRisk)
	if actuation {
		m.actuations.Inc()
	}
}

func (m *Metrics) Dispatch(target, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(target, outcome).Inc()
	m.dispatchDuration.WithLabelValues(target).Observe(took.Seconds())
}

func (m *Metrics) ForwardDropped(forwarder string) {
	if m == nil {
		return
	}
	m.forwardDropped.WithLabelValues(forwarder).Inc()
}
