package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure stages used as the "stage" label.
const (
	StageExecute    = "execute"
	StageEmbed      = "embed"
	StagePersist    = "persist"
	StageCreate     = "create"
	StagePrioritize = "prioritize"
)

// Metrics holds Prometheus metrics for the task loop. A nil *Metrics is
// valid and records nothing.
//
// Metrics:
//   - taskagent_tasks_completed_total - tasks whose execution succeeded
//   - taskagent_task_failures_total{stage} - cycle failures by stage
//   - taskagent_tasks_created_total - tasks proposed by task creation
//   - taskagent_memory_writes_skipped_total - results not stored in memory
//   - taskagent_rate_limit_retries_total - rate-limited LLM calls retried
//   - taskagent_queue_length - tasks currently queued
//   - taskagent_cycle_duration_seconds - duration of one cycle
type Metrics struct {
	TasksCompleted      prometheus.Counter
	TaskFailures        *prometheus.CounterVec
	TasksCreated        prometheus.Counter
	MemoryWritesSkipped prometheus.Counter
	RateLimitRetries    prometheus.Counter
	QueueLength         prometheus.Gauge
	CycleDuration       prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TasksCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "taskagent_tasks_completed_total",
			Help: "Total number of tasks executed successfully",
		}),
		TaskFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taskagent_task_failures_total",
			Help: "Total number of cycle failures by stage",
		}, []string{"stage"}),
		TasksCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "taskagent_tasks_created_total",
			Help: "Total number of tasks proposed by task creation",
		}),
		MemoryWritesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "taskagent_memory_writes_skipped_total",
			Help: "Total number of results not stored because no embedding was available",
		}),
		RateLimitRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "taskagent_rate_limit_retries_total",
			Help: "Total number of rate-limited LLM calls that were retried",
		}),
		QueueLength: f.NewGauge(prometheus.GaugeOpts{
			Name: "taskagent_queue_length",
			Help: "Number of tasks currently queued",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskagent_cycle_duration_seconds",
			Help:    "Duration of one execute, store, create and prioritize cycle",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

func (m *Metrics) completed() {
	if m != nil {
		m.TasksCompleted.Inc()
	}
}

func (m *Metrics) failed(stage string) {
	if m != nil {
		m.TaskFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) created(n int) {
	if m != nil {
		m.TasksCreated.Add(float64(n))
	}
}

func (m *Metrics) skippedWrite() {
	if m != nil {
		m.MemoryWritesSkipped.Inc()
	}
}

// RateLimited records one retried rate limit. Call it from the LLM retry
// policy's OnRetry hook.
func (m *Metrics) RateLimited() {
	if m != nil {
		m.RateLimitRetries.Inc()
	}
}

func (m *Metrics) queueLength(n int) {
	if m != nil {
		m.QueueLength.Set(float64(n))
	}
}

func (m *Metrics) cycle(seconds float64) {
	if m != nil {
		m.CycleDuration.Observe(seconds)
	}
}
