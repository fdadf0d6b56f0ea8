package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "docsync",
		Name:      "active_connections",
		Help:      "Current number of live editor connections",
	})

	FramesIn = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docsync",
		Name:      "frames_in_total",
		Help:      "Inbound frames received, by type",
	}, []string{"type"})

	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docsync",
		Name:      "frames_dropped_total",
		Help:      "Outbound frames dropped because a connection's send queue overflowed",
	})

	Broadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docsync",
		Name:      "broadcast_frames_total",
		Help:      "Frames fanned out to room peers, by type",
	}, []string{"type"})

	SaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docsync",
		Name:      "store_save_duration_seconds",
		Help:      "Duration of document store writes",
		Buckets:   prometheus.DefBuckets,
	})

	SaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docsync",
		Name:      "store_save_failures_total",
		Help:      "Document store writes that failed or timed out",
	})
)

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
