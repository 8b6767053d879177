package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var checkins = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hostelms",
	Subsystem: "attendance",
	Name:      "checkins_total",
	Help:      "Check-in attempts by outcome (accepted or rejection kind).",
}, []string{"outcome"})

var embedSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "hostelms",
	Subsystem: "attendance",
	Name:      "embed_seconds",
	Help:      "Latency of embedding generation calls.",
	Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
})

// CheckIn records one check-in attempt outcome.
func CheckIn(outcome string) {
	checkins.WithLabelValues(outcome).Inc()
}

// ObserveEmbed records the duration of one embedding call.
func ObserveEmbed(d time.Duration) {
	embedSeconds.Observe(d.Seconds())
}
