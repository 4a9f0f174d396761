package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	commandsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cmdclient",
			Subsystem: "transmit",
			Name:      "commands_total",
			Help:      "Commands handed to the transmitter, by outcome.",
		},
		[]string{"network", "kind", "success"},
	)
	sendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cmdclient",
			Subsystem: "transmit",
			Name:      "failures_total",
			Help:      "Failed sends by the wire field that failed.",
		},
		[]string{"network", "field"},
	)
	bytesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cmdclient",
			Subsystem: "transmit",
			Name:      "bytes_total",
			Help:      "Command bytes fully written and flushed.",
		},
		[]string{"network"},
	)
	guardWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cmdclient",
			Subsystem: "transmit",
			Name:      "guard_wait_seconds",
			Help:      "Time spent waiting to acquire the send guard.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"network"},
	)
	sendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cmdclient",
			Subsystem: "transmit",
			Name:      "send_duration_seconds",
			Help:      "Encode-and-write duration while holding the send guard.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"network", "kind"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cmdclient",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served by the metrics listener.",
		},
		[]string{"network", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cmdclient",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Metrics listener request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"network", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			commandsSent, sendFailures, bytesWritten, guardWait, sendDuration,
			httpRequests, httpDuration,
		)
	})
}

// Handler serves the default registry, registering send metrics first.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordGuardWait(network string, wait time.Duration) {
	RegisterMetrics()
	guardWait.WithLabelValues(network).Observe(wait.Seconds())
}

// RecordSend records one finished send. field is the failing wire field and
// is ignored on success.
func RecordSend(network, kind, field string, bytes int, duration time.Duration, success bool) {
	RegisterMetrics()
	commandsSent.WithLabelValues(network, kind, strconv.FormatBool(success)).Inc()
	sendDuration.WithLabelValues(network, kind).Observe(duration.Seconds())
	if success {
		bytesWritten.WithLabelValues(network).Add(float64(bytes))
		return
	}
	sendFailures.WithLabelValues(network, field).Inc()
}

func RecordHTTPRequest(network, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(network, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(network, method, path, statusLabel).Observe(duration.Seconds())
}
