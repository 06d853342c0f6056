package agent

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RateLimited()
	m.RateLimited()
	m.failed(StagePersist)
	m.cycle(0.75)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RateLimitRetries))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TaskFailures.WithLabelValues(StagePersist)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CycleDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "taskagent_rate_limit_retries_total")
	assert.Contains(t, names, "taskagent_task_failures_total")
	assert.Contains(t, names, "taskagent_cycle_duration_seconds")

	assert.Panics(t, func() { NewMetrics(reg) }, "duplicate registration")
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.completed()
		m.failed(StageExecute)
		m.created(2)
		m.skippedWrite()
		m.RateLimited()
		m.queueLength(3)
		m.cycle(1.5)
	})
}
