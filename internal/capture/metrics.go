// Package capture implements the companion process that records live
// microphone audio and publishes it into the shared-memory ring the driver
// core reads from.
package capture

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains Prometheus metrics for the capture pipeline.
type Metrics struct {
	framesWritten   prometheus.Counter
	framesDropped   prometheus.Counter
	stagingOverruns prometheus.Counter
	ringUtilization prometheus.Gauge
	audioLevel      prometheus.Gauge
	clippingTotal   prometheus.Counter
	deviceRestarts  prometheus.Counter
}

// NewMetrics creates and registers the capture metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		framesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rightmic_frames_written_total",
			Help: "Total audio frames published into the shared ring",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rightmic_frames_dropped_total",
			Help: "Total audio frames dropped because the shared ring was full",
		}),
		stagingOverruns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rightmic_staging_overruns_total",
			Help: "Total device callbacks that found the staging buffer full",
		}),
		ringUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rightmic_ring_utilization_ratio",
			Help: "Fraction of the shared ring holding unread frames",
		}),
		audioLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rightmic_audio_level",
			Help: "Current capture audio level, 0-100",
		}),
		clippingTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rightmic_clipping_total",
			Help: "Total callback blocks where clipping was detected",
		}),
		deviceRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rightmic_device_restarts_total",
			Help: "Total capture device restarts after unexpected stops",
		}),
	}

	collectors := []prometheus.Collector{
		m.framesWritten, m.framesDropped, m.stagingOverruns,
		m.ringUtilization, m.audioLevel, m.clippingTotal, m.deviceRestarts,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
