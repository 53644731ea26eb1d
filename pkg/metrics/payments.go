package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records payment reconciliation outcomes.
type PaymentMetrics struct {
	webhookDuration *prometheus.HistogramVec
	eventsProcessed *prometheus.CounterVec
	eventsDuplicate *prometheus.CounterVec
	eventsRejected  *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Duration of webhook event handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_processed",
		Help: "Provider events that mutated payment state.",
	}, []string{"event_type"})
	duplicate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_duplicate",
		Help: "Provider events skipped as already processed.",
	}, []string{"event_type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_rejected",
		Help: "Provider events rejected before processing.",
	}, []string{"reason"})
	reg.MustRegister(duration, processed, duplicate, rejected)
	return &PaymentMetrics{
		webhookDuration: duration,
		eventsProcessed: processed,
		eventsDuplicate: duplicate,
		eventsRejected:  rejected,
	}
}

// ObserveWebhookDuration records the handling duration for an event type.
func (p *PaymentMetrics) ObserveWebhookDuration(eventType string, duration time.Duration) {
	if p == nil || p.webhookDuration == nil {
		return
	}
	p.webhookDuration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncProcessed increments the processed counter for the event type.
func (p *PaymentMetrics) IncProcessed(eventType string) {
	if p == nil || p.eventsProcessed == nil {
		return
	}
	p.eventsProcessed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDuplicate increments the duplicate counter for the event type.
func (p *PaymentMetrics) IncDuplicate(eventType string) {
	if p == nil || p.eventsDuplicate == nil {
		return
	}
	p.eventsDuplicate.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncRejected increments the rejected counter for the given reason.
func (p *PaymentMetrics) IncRejected(reason string) {
	if p == nil || p.eventsRejected == nil {
		return
	}
	p.eventsRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
