package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config configures metric labels.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics exposes domain-level prometheus instruments.
type Metrics struct {
	syncRecords     *prometheus.CounterVec
	syncFailures    *prometheus.CounterVec
	invoicesCreated *prometheus.CounterVec
	digestSends     *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	jobErrors       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

// New registers the domain instruments on the given registerer.
func New(cfg Config, registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabelsFor(cfg)

	m := &Metrics{
		syncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "hullbook_sync_records_total",
			Help:        "Records upserted into local caches by provider sync.",
			ConstLabels: constLabels,
		}, []string{"provider"}),
		syncFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "hullbook_sync_failures_total",
			Help:        "Provider sync runs aborted by a configuration or upstream error.",
			ConstLabels: constLabels,
		}, []string{"provider", "reason"}),
		invoicesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "hullbook_invoices_created_total",
			Help:        "Invoices and orders created upstream.",
			ConstLabels: constLabels,
		}, []string{"provider", "kind"}),
		digestSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "hullbook_digest_notifications_total",
			Help:        "Daily digest notifications by outcome.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "hullbook_scheduler_job_runs_total",
			Help:        "Scheduler job runs by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "hullbook_scheduler_job_errors_total",
			Help:        "Scheduler job errors by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "hullbook_scheduler_job_duration_seconds",
			Help:        "Scheduler job latency.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			ConstLabels: constLabels,
		}, []string{"job"}),
	}

	collectors := []prometheus.Collector{
		m.syncRecords, m.syncFailures, m.invoicesCreated, m.digestSends,
		m.jobRuns, m.jobErrors, m.jobDuration,
	}
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordSync counts records upserted by a provider sync.
func (m *Metrics) RecordSync(provider string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.syncRecords.WithLabelValues(label(provider)).Add(float64(count))
}

// RecordSyncFailure counts an aborted sync.
func (m *Metrics) RecordSyncFailure(provider, reason string) {
	if m == nil {
		return
	}
	m.syncFailures.WithLabelValues(label(provider), label(reason)).Inc()
}

// RecordInvoiceCreated counts invoices created upstream; kind is template or custom.
func (m *Metrics) RecordInvoiceCreated(provider, kind string) {
	if m == nil {
		return
	}
	m.invoicesCreated.WithLabelValues(label(provider), label(kind)).Inc()
}

// RecordDigest counts a digest outcome. Per-owner results are sent, skipped
// and failed; whole runs may be locked or missed.
func (m *Metrics) RecordDigest(result string) {
	if m == nil {
		return
	}
	m.digestSends.WithLabelValues(label(result)).Inc()
}

// ObserveJob records a scheduler job run.
func (m *Metrics) ObserveJob(job string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	job = label(job)
	m.jobRuns.WithLabelValues(job).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		m.jobErrors.WithLabelValues(job).Inc()
	}
}

func constLabelsFor(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "hullbook"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}

func label(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "unknown"
	}
	return value
}
