package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Guard chain and notification pipeline metrics.
var (
	authRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Requests rejected by the guard chain, by reason.",
		},
		[]string{"reason"},
	)

	messagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_consumed_total",
			Help: "Broker messages read by the notification consumer, by outcome.",
		},
		[]string{"outcome"},
	)

	notificationsPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_persisted_total",
		Help: "Notification records written to durable storage.",
	})

	livePushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_pushes_total",
			Help: "Live push attempts toward bound connections, by outcome.",
		},
		[]string{"outcome"},
	)

	liveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "live_connections",
		Help: "Currently bound live connections.",
	})
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		authRejections, messagesConsumed, notificationsPersisted,
		livePushes, liveConnections,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// AuthRejected counts a guard rejection by reason.
func AuthRejected(reason string) {
	authRejections.WithLabelValues(reason).Inc()
}

// MessageConsumed counts a consumed broker message: "ok", "invalid" or "failed".
func MessageConsumed(outcome string) {
	messagesConsumed.WithLabelValues(outcome).Inc()
}

// NotificationPersisted counts a durable notification write.
func NotificationPersisted() {
	notificationsPersisted.Inc()
}

// LivePush counts a point-to-point push attempt: "delivered", "failed" or "offline".
func LivePush(outcome string) {
	livePushes.WithLabelValues(outcome).Inc()
}

// SetLiveConnections reports the current registry size.
func SetLiveConnections(n int) {
	liveConnections.Set(float64(n))
}

// Instrument wraps a handler with request rate, latency and in-flight tracking.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for instrumentation.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer; connection
// upgrades hijack through it.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
