package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncOutcome("OK")
		m.ObserveTx(time.Now())
		m.IncNotificationSent()
		m.IncNotificationFailure()
		m.IncCacheLookup("hit")
	})
}

func TestMetrics_Counts(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncOutcome("OK")
	m.IncOutcome("OK")
	m.IncOutcome("ALREADY_REGISTERED")
	m.IncNotificationFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("ALREADY_REGISTERED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailures))
}
