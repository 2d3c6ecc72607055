package gpuboot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the collectors of one Manager. With a nil registerer the
// collectors still count but are not exported.
type metrics struct {
	state        prometheus.Gauge
	stepDuration *prometheus.HistogramVec
	deviceLost   *prometheus.CounterVec
	uncaptured   *prometheus.CounterVec
	workDone     *prometheus.CounterVec
}

// newMetrics creates the collectors, labelled with the session id so that
// several managers can share one registry.
func newMetrics(reg prometheus.Registerer, session string) *metrics {
	if reg != nil {
		reg = prometheus.WrapRegistererWith(prometheus.Labels{"session": session}, reg)
	}
	f := promauto.With(reg)
	return &metrics{
		state: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "gpuboot",
			Name:      "lifecycle_state",
			Help:      "Current lifecycle state of the GPU context manager",
		}),
		stepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gpuboot",
			Name:      "init_step_seconds",
			Help:      "Duration of GPU context acquisition steps",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"step"}),
		deviceLost: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gpuboot",
			Name:      "device_lost_total",
			Help:      "Device-lost notifications by reason",
		}, []string{"reason"}),
		uncaptured: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gpuboot",
			Name:      "uncaptured_errors_total",
			Help:      "Uncaptured device errors by kind",
		}, []string{"kind"}),
		workDone: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gpuboot",
			Name:      "work_done_total",
			Help:      "Queue work-done notifications by status",
		}, []string{"status"}),
	}
}

func (m *metrics) setState(s State) {
	m.state.Set(float64(s))
}
