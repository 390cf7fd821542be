package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("audit:access_denied").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("audit:access_denied").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("audit:access_denied", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("audit:access_denied", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("audit:access_denied")))
}

func TestAddPrunedIgnoresEmptyRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.AddPruned("audit:prune", 0)
	m.AddPruned("audit:prune", 7)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.pruned.WithLabelValues("audit:prune")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddPruned("audit:prune", 3)
		_ = m.Track("audit:prune").End(nil)
	})
}
