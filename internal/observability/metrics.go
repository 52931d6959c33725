package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesAssembled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legacyctl",
			Subsystem: "stream",
			Name:      "frames_total",
			Help:      "Byte groups successfully framed and decoded.",
		},
		[]string{"family"},
	)
	decodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legacyctl",
			Subsystem: "stream",
			Name:      "decode_failures_total",
			Help:      "Byte groups dropped because decode failed.",
		},
		[]string{"family"},
	)
	discardedBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legacyctl",
			Subsystem: "stream",
			Name:      "discarded_bytes_total",
			Help:      "Stray bytes discarded while resynchronizing.",
		},
		[]string{"family"},
	)
	dispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legacyctl",
			Subsystem: "dispatch",
			Name:      "published_total",
			Help:      "Per-subscriber command deliveries.",
		},
		[]string{"scope"},
	)
	serialWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legacyctl",
			Subsystem: "serial",
			Name:      "writes_total",
			Help:      "Physical serial writes by outcome.",
		},
		[]string{"outcome"},
	)
	writeGap = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "legacyctl",
			Subsystem: "serial",
			Name:      "write_gap_seconds",
			Help:      "Elapsed time between consecutive serial writes.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
	proxySessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "legacyctl",
			Subsystem: "proxy",
			Name:      "sessions_total",
			Help:      "Remote proxy connections accepted.",
		},
	)
	proxyBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "legacyctl",
			Subsystem: "proxy",
			Name:      "bytes_total",
			Help:      "Raw bytes relayed into the outbound queue.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legacyctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legacyctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesAssembled, decodeFailures, discardedBytes, dispatched,
			serialWrites, writeGap, proxySessions, proxyBytes,
			httpRequests, httpDuration,
		)
	})
}

func CountFrame(family string) {
	RegisterMetrics()
	framesAssembled.WithLabelValues(family).Inc()
}

func CountDecodeFailure(family string) {
	RegisterMetrics()
	decodeFailures.WithLabelValues(family).Inc()
}

func CountDiscardedByte(family string) {
	RegisterMetrics()
	discardedBytes.WithLabelValues(family).Inc()
}

// DiscardedByteCounter exposes the resync discard counter for one
// family so tests can read its value.
func DiscardedByteCounter(family string) prometheus.Counter {
	RegisterMetrics()
	return discardedBytes.WithLabelValues(family)
}

func CountDispatch(scope string) {
	RegisterMetrics()
	dispatched.WithLabelValues(scope).Inc()
}

func CountSerialWrite(err error, gap time.Duration) {
	RegisterMetrics()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	serialWrites.WithLabelValues(outcome).Inc()
	if gap > 0 {
		writeGap.Observe(gap.Seconds())
	}
}

func CountProxySession() {
	RegisterMetrics()
	proxySessions.Inc()
}

func CountProxyBytes(n int) {
	RegisterMetrics()
	proxyBytes.Add(float64(n))
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
