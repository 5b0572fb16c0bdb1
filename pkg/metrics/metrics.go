package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mvxswap"

var (
	FeedLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feed_latency_seconds",
		Help:      "Time to obtain a price, fee or amount quote from a venue",
		Buckets:   prometheus.DefBuckets,
	}, []string{"venue", "kind"})

	FeedErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_errors_total",
		Help:      "Number of failed venue lookups",
	}, []string{"venue", "kind"})

	VenueSelected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "venue_selected_total",
		Help:      "Number of swaps routed to a venue",
	}, []string{"venue"})

	Swaps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swaps_total",
		Help:      "Swap executions by final status",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(
		FeedLatency,
		FeedErrors,
		VenueSelected,
		Swaps,
	)
}

// Handler exposes the default registry in the OpenMetrics format
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
