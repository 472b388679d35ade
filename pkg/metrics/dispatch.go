package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics counts notification fan-out outcomes per channel.
type DispatchMetrics struct {
	sent     *prometheus.CounterVec
	failed   *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_sent_total",
		Help: "Notifications delivered per channel.",
	}, []string{"channel"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_failed_total",
		Help: "Notification delivery failures per channel.",
	}, []string{"channel"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_skipped_total",
		Help: "Notifications skipped because the channel could not address the order.",
	}, []string{"channel"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_send_duration_seconds",
		Help:    "Duration of channel sends in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	reg.MustRegister(sent, failed, skipped, duration)
	return &DispatchMetrics{
		sent:     sent,
		failed:   failed,
		skipped:  skipped,
		duration: duration,
	}
}

// IncSent increments the delivered counter for the channel.
func (d *DispatchMetrics) IncSent(channel string) {
	if d == nil || d.sent == nil {
		return
	}
	d.sent.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncFailed increments the failure counter for the channel.
func (d *DispatchMetrics) IncFailed(channel string) {
	if d == nil || d.failed == nil {
		return
	}
	d.failed.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncSkipped increments the skip counter for the channel.
func (d *DispatchMetrics) IncSkipped(channel string) {
	if d == nil || d.skipped == nil {
		return
	}
	d.skipped.WithLabelValues(normalizeLabel(channel)).Inc()
}

// ObserveSend records how long a channel send took.
func (d *DispatchMetrics) ObserveSend(channel string, duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.WithLabelValues(normalizeLabel(channel)).Observe(duration.Seconds())
}
