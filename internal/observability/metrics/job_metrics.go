package metrics

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/apotek/pkg/db"
)

const (
	JobErrorTypeDeadlineExceeded = "deadline_exceeded"
	JobErrorTypeDB               = "db"
	JobErrorTypeUnknown          = "unknown"
)

// JobMetrics tracks background jobs through the prometheus registry that
// /metrics serves.
type JobMetrics struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	errors    *prometheus.CounterVec
	lockSkips *prometheus.CounterVec
}

var (
	jobMetricsOnce sync.Once
	jobMetrics     *JobMetrics
)

// Jobs returns the process-wide job metrics registered on the default registry.
func Jobs() *JobMetrics {
	jobMetricsOnce.Do(func() {
		jobMetrics = NewJobMetrics(prometheus.DefaultRegisterer)
	})
	return jobMetrics
}

func NewJobMetrics(registerer prometheus.Registerer) *JobMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &JobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apotek",
			Subsystem: "job",
			Name:      "runs_total",
			Help:      "Background job runs.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "apotek",
			Subsystem: "job",
			Name:      "duration_seconds",
			Help:      "Background job duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apotek",
			Subsystem: "job",
			Name:      "errors_total",
			Help:      "Background job failures by error type.",
		}, []string{"job", "error_type"}),
		lockSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apotek",
			Subsystem: "job",
			Name:      "lock_skips_total",
			Help:      "Runs skipped because another instance held the job lock.",
		}, []string{"job"}),
	}

	m.runs = registerCollector(registerer, m.runs)
	m.duration = registerCollector(registerer, m.duration)
	m.errors = registerCollector(registerer, m.errors)
	m.lockSkips = registerCollector(registerer, m.lockSkips)
	return m
}

func registerCollector[T prometheus.Collector](registerer prometheus.Registerer, c T) T {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *JobMetrics) IncRun(job string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(normalizeJob(job)).Inc()
}

func (m *JobMetrics) ObserveDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(normalizeJob(job)).Observe(d.Seconds())
}

func (m *JobMetrics) IncError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.errors.WithLabelValues(normalizeJob(job), ClassifyJobError(err)).Inc()
}

func (m *JobMetrics) IncLockSkip(job string) {
	if m == nil {
		return
	}
	m.lockSkips.WithLabelValues(normalizeJob(job)).Inc()
}

func ClassifyJobError(err error) string {
	switch {
	case err == nil:
		return ""
	case db.IsTimeoutErr(err):
		return JobErrorTypeDeadlineExceeded
	case db.IsUnavailableErr(err), db.IsSerializationErr(err):
		return JobErrorTypeDB
	default:
		return JobErrorTypeUnknown
	}
}

func normalizeJob(job string) string {
	job = strings.TrimSpace(job)
	if job == "" {
		return "unknown"
	}
	return job
}
