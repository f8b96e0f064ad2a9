package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	spinTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spin_requests_total",
			Help: "Total spin requests by result and bet kind",
		},
		[]string{"result", "kind"},
	)

	spinDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spin_request_duration_ms",
			Help:    "Spin resolution duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"result", "kind"},
	)

	payoutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spin_payout_minor_units_total",
		Help: "Sum of credited payouts in minor currency units",
	})

	wageredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spin_wagered_minor_units_total",
		Help: "Sum of charged stakes in minor currency units",
	})
)

// RecordSpin records a spin call. result is recorded, rejected, not_found or
// failed. kind is normalized to lower-case.
func RecordSpin(result, kind string, started time.Time) {
	k := strings.ToLower(kind)
	if k == "" {
		k = "unknown"
	}
	spinTotal.WithLabelValues(result, k).Inc()
	spinDuration.WithLabelValues(result, k).Observe(float64(time.Since(started).Microseconds()) / 1000)
}

// RecordMoney tracks house turnover for a recorded round.
func RecordMoney(wagered, paid int64) {
	wageredTotal.Add(float64(wagered))
	payoutTotal.Add(float64(paid))
}
