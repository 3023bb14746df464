package spdy3

import (
	"time"

	"github.com/mkch/spdy3/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives operational counters from a Connection. Callers
// who don't care about metrics use the default noopRecorder; callers
// who want prometheus collectors call NewPrometheusRecorder and pass
// it via WithMetrics.
type Recorder interface {
	FrameSent(frameType string)
	FrameReceived(frameType string)
	StreamOpened()
	StreamClosed(reason string)
	PingRTT(d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) FrameSent(string)       {}
func (noopRecorder) FrameReceived(string)   {}
func (noopRecorder) StreamOpened()          {}
func (noopRecorder) StreamClosed(string)    {}
func (noopRecorder) PingRTT(time.Duration)  {}

// PrometheusRecorder adapts internal/metrics.Set to the Recorder
// interface.
type PrometheusRecorder struct {
	set *metrics.Set
}

// NewPrometheusRecorder registers a fresh metric set on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	return &PrometheusRecorder{set: metrics.NewSet(reg)}
}

func (r *PrometheusRecorder) FrameSent(frameType string) {
	r.set.FramesSent.WithLabelValues(frameType).Inc()
}

func (r *PrometheusRecorder) FrameReceived(frameType string) {
	r.set.FramesReceived.WithLabelValues(frameType).Inc()
}

func (r *PrometheusRecorder) StreamOpened() { r.set.StreamsOpened.Inc() }

func (r *PrometheusRecorder) StreamClosed(reason string) {
	r.set.StreamsClosed.WithLabelValues(reason).Inc()
}

func (r *PrometheusRecorder) PingRTT(d time.Duration) {
	r.set.PingRTT.Observe(d.Seconds())
}
