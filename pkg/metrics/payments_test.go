package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPaymentMetrics(reg)

	m.IncProcessed("checkout.session.completed")
	m.IncProcessed("checkout.session.completed")
	m.IncDuplicate("checkout.session.completed")
	m.IncRejected("invalid_signature")
	m.ObserveWebhookDuration("checkout.session.completed", 250*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, float64(2), fetchCounterValue(t, families, "webhook_events_processed", "event_type", "checkout.session.completed"))
	assert.Equal(t, float64(1), fetchCounterValue(t, families, "webhook_events_duplicate", "event_type", "checkout.session.completed"))
	assert.Equal(t, float64(1), fetchCounterValue(t, families, "webhook_events_rejected", "reason", "invalid_signature"))
	assert.InDelta(t, 0.25, fetchHistogramSum(t, families, "webhook_duration_seconds", "event_type", "checkout.session.completed"), 0.001)
}

func TestPaymentMetricsNormalizesEmptyLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPaymentMetrics(reg)

	m.IncRejected("")

	families, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, float64(1), fetchCounterValue(t, families, "webhook_events_rejected", "reason", "unknown"))
}

func TestPaymentMetricsNilSafe(t *testing.T) {
	var m *PaymentMetrics

	assert.NotPanics(t, func() {
		m.IncProcessed("checkout.session.completed")
		m.IncDuplicate("checkout.session.completed")
		m.IncRejected("invalid_signature")
		m.ObserveWebhookDuration("checkout.session.completed", time.Second)
	})

	unregistered := NewPaymentMetrics(nil)
	assert.NotPanics(t, func() {
		unregistered.IncProcessed("checkout.session.completed")
	})
}

func fetchCounterValue(t *testing.T, families []*dto.MetricFamily, name, labelName, labelValue string) float64 {
	t.Helper()
	family := findMetricFamily(families, name)
	require.NotNil(t, family, "metric family %s not found", name)
	for _, metric := range family.GetMetric() {
		if matchesLabel(metric, labelName, labelValue) {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("no metric in %s with %s=%s", name, labelName, labelValue)
	return 0
}

func fetchHistogramSum(t *testing.T, families []*dto.MetricFamily, name, labelName, labelValue string) float64 {
	t.Helper()
	family := findMetricFamily(families, name)
	require.NotNil(t, family, "metric family %s not found", name)
	for _, metric := range family.GetMetric() {
		if matchesLabel(metric, labelName, labelValue) {
			return metric.GetHistogram().GetSampleSum()
		}
	}
	t.Fatalf("no metric in %s with %s=%s", name, labelName, labelValue)
	return 0
}

func findMetricFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func matchesLabel(metric *dto.Metric, name, value string) bool {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
