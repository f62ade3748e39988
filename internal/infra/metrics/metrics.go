// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		verificationAttempts, codesRegistered, codesRevoked,
		storeFlushTotal, storeFlushSeconds,
	)
}

var (
	verificationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickup_verification_attempts_total",
			Help: "Checkout verification attempts by result.",
		},
		[]string{"result"}, // matched, unknown_code, revoked, rate_limited
	)

	codesRegistered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickup_codes_registered_total",
			Help: "Codes inserted into the verification store by origin.",
		},
		[]string{"origin"}, // canonical, variant
	)

	codesRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pickup_codes_revoked_total",
			Help: "Codes moved from active to revoked.",
		},
	)

	storeFlushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickup_store_flush_total",
			Help: "Store flushes by outcome.",
		},
		[]string{"success"},
	)

	storeFlushSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pickup_store_flush_duration_seconds",
			Help:    "Time spent saving a store snapshot.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncVerification(result string) {
	verificationAttempts.WithLabelValues(norm(result)).Inc()
}

// AddCodesRegistered counts n new records. Any origin other than canonical is
// reported as "variant" to keep label cardinality fixed.
func AddCodesRegistered(origin string, n int) {
	if n <= 0 {
		return
	}
	if norm(origin) != "canonical" {
		origin = "variant"
	}
	codesRegistered.WithLabelValues(norm(origin)).Add(float64(n))
}

func IncCodesRevoked() { codesRevoked.Inc() }

func ObserveStoreFlush(success bool, d time.Duration) {
	storeFlushTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
	storeFlushSeconds.Observe(d.Seconds())
}
