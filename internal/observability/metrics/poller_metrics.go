package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	PollReasonDeadlineExceeded    = "deadline_exceeded"
	PollReasonUnsupportedPlatform = "unsupported_platform"
	PollReasonDB                  = "db"
	PollReasonUnknown             = "unknown"
)

// PollerMetrics captures detection poll loop health signals.
type PollerMetrics struct {
	runs            *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	timeouts        *prometheus.CounterVec
	jobErrors       *prometheus.CounterVec
	accountsPolled  *prometheus.CounterVec
	accountsSkipped *prometheus.CounterVec
	runLoopLag      prometheus.Observer
}

var (
	pollerMetricsOnce sync.Once
	pollerMetrics     *PollerMetrics
)

// Poller returns the singleton poller metrics registry.
func Poller() *PollerMetrics {
	return PollerWithConfig(Config{})
}

// PollerWithConfig returns the singleton poller metrics registry using config labels.
func PollerWithConfig(cfg Config) *PollerMetrics {
	pollerMetricsOnce.Do(func() {
		pollerMetrics = newPollerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return pollerMetrics
}

// ResetPollerMetricsForTest resets the poller metrics singleton for tests.
func ResetPollerMetricsForTest() {
	pollerMetricsOnce = sync.Once{}
	pollerMetrics = nil
}

func newPollerMetrics(registerer prometheus.Registerer, cfg Config) *PollerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "adwatch"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "adwatch_poller_runs_total",
		Help:        "Poll runs by job name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "adwatch_poller_run_duration_seconds",
		Help:        "Poll run latency to keep change detection within its freshness window.",
		Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		ConstLabels: constLabels,
	}, []string{"job"})
	timeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "adwatch_poller_timeouts_total",
		Help:        "Poll runs that exceeded the per-account job timeout.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "adwatch_poller_errors_total",
		Help:        "Poll errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"job", "reason"})
	accountsPolled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "adwatch_poller_accounts_polled_total",
		Help:        "Ad accounts polled per platform.",
		ConstLabels: constLabels,
	}, []string{"platform"})
	accountsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "adwatch_poller_accounts_skipped_total",
		Help:        "Ad accounts skipped because another replica holds the poll lock.",
		ConstLabels: constLabels,
	}, []string{"platform"})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "adwatch_poller_runloop_lag_seconds",
		Help:        "Poll loop lag beyond the configured interval.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		runs,
		duration,
		timeouts,
		jobErrors,
		accountsPolled,
		accountsSkipped,
		runLoopLag,
	)

	return &PollerMetrics{
		runs:            runs,
		duration:        duration,
		timeouts:        timeouts,
		jobErrors:       jobErrors,
		accountsPolled:  accountsPolled,
		accountsSkipped: accountsSkipped,
		runLoopLag:      runLoopLag,
	}
}

// IncRun increments the run counter for a poll job.
func (m *PollerMetrics) IncRun(job string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(job).Inc()
}

// ObserveRunDuration records poll run latency in seconds.
func (m *PollerMetrics) ObserveRunDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(job).Observe(duration.Seconds())
}

// IncTimeout increments the timeout counter for a poll job.
func (m *PollerMetrics) IncTimeout(job string) {
	if m == nil || m.timeouts == nil {
		return
	}
	m.timeouts.WithLabelValues(job).Inc()
}

// IncError increments the poll error counter with classification.
func (m *PollerMetrics) IncError(job string, err error) {
	if m == nil || m.jobErrors == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyPollReason(err)).Inc()
}

// IncAccountPolled increments the polled account counter for a platform.
func (m *PollerMetrics) IncAccountPolled(platformName string) {
	if m == nil || m.accountsPolled == nil {
		return
	}
	m.accountsPolled.WithLabelValues(platformName).Inc()
}

// IncAccountSkipped increments the lock-skip counter for a platform.
func (m *PollerMetrics) IncAccountSkipped(platformName string) {
	if m == nil || m.accountsSkipped == nil {
		return
	}
	m.accountsSkipped.WithLabelValues(platformName).Inc()
}

// ObserveRunLoopLag records lag between the scheduled tick and actual run start.
func (m *PollerMetrics) ObserveRunLoopLag(duration time.Duration) {
	if m == nil || m.runLoopLag == nil {
		return
	}
	lag := duration
	if lag < 0 {
		lag = 0
	}
	m.runLoopLag.Observe(lag.Seconds())
}

// ClassifyPollReason maps poll errors to low-cardinality reasons.
func ClassifyPollReason(err error) string {
	if err == nil {
		return PollReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return PollReasonDeadlineExceeded
	}
	if errors.Is(err, platform.ErrUnsupportedPlatform) {
		return PollReasonUnsupportedPlatform
	}
	if isDBError(err) {
		return PollReasonDB
	}
	return PollReasonUnknown
}

func isDBError(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrMissingWhereClause) ||
		errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
