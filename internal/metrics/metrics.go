// Package metrics wraps the prometheus collectors this module
// exposes for a running Connection. Callers who don't need metrics
// never import this package directly; spdy3.Connection talks to it
// only through the spdy3.Recorder interface.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set is one connection's worth of prometheus collectors. Register
// creates a Set bound to a given registry so multiple connections in
// one process can share or isolate their metrics as the caller likes.
type Set struct {
	FramesSent     *prometheus.CounterVec
	FramesReceived *prometheus.CounterVec
	StreamsOpened  prometheus.Counter
	StreamsClosed  *prometheus.CounterVec
	PingRTT        prometheus.Histogram
}

// NewSet registers a fresh collector set on reg and returns it.
func NewSet(reg prometheus.Registerer) *Set {
	s := &Set{
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spdy3",
			Name:      "frames_sent_total",
			Help:      "Frames written to the transport, by frame type.",
		}, []string{"type"}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spdy3",
			Name:      "frames_received_total",
			Help:      "Frames parsed from the transport, by frame type.",
		}, []string{"type"}),
		StreamsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spdy3",
			Name:      "streams_opened_total",
			Help:      "Streams created by new_stream.",
		}),
		StreamsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spdy3",
			Name:      "streams_closed_total",
			Help:      "Streams that reached the Closed state, by reason.",
		}, []string{"reason"}),
		PingRTT: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "spdy3",
			Name:      "ping_rtt_seconds",
			Help:      "Observed round-trip time of client-initiated pings.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(s.FramesSent, s.FramesReceived, s.StreamsOpened, s.StreamsClosed, s.PingRTT)
	return s
}
