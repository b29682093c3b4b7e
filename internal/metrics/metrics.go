package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wfm_tracker"

var (
	// Registry holds the tracker's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the market API.",
		},
		[]string{"endpoint", "status"},
	)

	rateLimitWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time callers spent waiting on the request rate limiter.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
	)

	itemPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "items_total",
			Help:      "Items processed by poll cycles, by outcome.",
		},
		[]string{"outcome"},
	)

	pricePoints = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "price_points_total",
			Help:      "Price history points recorded.",
		},
	)

	cycleDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "last_cycle_duration_seconds",
			Help:      "Duration of the most recent poll cycle.",
		},
	)

	catalogSynced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "items_synced_total",
			Help:      "Catalog items upserted by sync runs.",
		},
	)
)

func init() {
	Registry.MustRegister(
		upstreamRequests,
		rateLimitWait,
		itemPolls,
		pricePoints,
		cycleDuration,
		catalogSynced,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordUpstreamRequest counts a request to the market API. A status of 0
// means the request failed before a response arrived.
func RecordUpstreamRequest(endpoint string, status int) {
	upstreamRequests.WithLabelValues(endpoint, statusClass(status)).Inc()
}

// ObserveRateLimitWait records how long a caller was held by the limiter.
func ObserveRateLimitWait(d time.Duration) {
	rateLimitWait.Observe(d.Seconds())
}

// RecordItemPoll counts one item processed by a poll cycle.
func RecordItemPoll(ok bool) {
	if ok {
		itemPolls.WithLabelValues("polled").Inc()
		return
	}
	itemPolls.WithLabelValues("failed").Inc()
}

// RecordPricePoint counts one recorded price history point.
func RecordPricePoint() {
	pricePoints.Inc()
}

// ObservePollCycle records the duration of a completed poll cycle.
func ObservePollCycle(d time.Duration) {
	cycleDuration.Set(d.Seconds())
}

// RecordCatalogSync counts items upserted by one catalog sync run.
func RecordCatalogSync(synced int) {
	catalogSynced.Add(float64(synced))
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
