package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glimpse_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// ActiveWebSockets tracks currently open websocket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "glimpse_active_websockets",
		Help: "Number of active websocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client's
	// send buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glimpse_websocket_backpressure_drops_total",
		Help: "Total number of websocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// ProjectorEventsProcessed counts outbox events applied by the projector,
	// labelled by event kind.
	ProjectorEventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glimpse_projector_events_total",
		Help: "Total number of projection events processed",
	}, []string{"kind"})

	// ProjectorLag observes the age of events at processing time.
	ProjectorLag = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "glimpse_projector_lag_seconds",
		Help:    "Delay between event creation and projection",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)

var (
	promOnce sync.Once
	promMW   *fiberprometheus.FiberPrometheus
)

// InitMetrics sets up the Prometheus HTTP middleware for the service. The
// middleware registers collectors in the default registry, so the instance is
// created once and shared (tests construct multiple servers per process).
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMW = fiberprometheus.New(serviceName)
	})
	return promMW
}
