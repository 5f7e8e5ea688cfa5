// Package metrics records pipeline counters for node-exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics owns a private registry so repeated construction never collides.
// All methods are safe on a nil receiver.
type Metrics struct {
	Registry *prometheus.Registry

	messagesParsed prometheus.Counter
	records        *prometheus.CounterVec
	drops          *prometheus.CounterVec
	runDuration    prometheus.Histogram
	lastRun        prometheus.Gauge
	storeInserted  prometheus.Counter
}

// New registers every pipeline metric in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		messagesParsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "momo_messages_parsed_total",
			Help: "Messages read from SMS backups.",
		}),
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momo_records_total",
				Help: "Transaction records produced, by category.",
			},
			[]string{"category"},
		),
		drops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momo_messages_dropped_total",
				Help: "Messages dropped during extraction, by reason.",
			},
			[]string{"reason"},
		),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "momo_run_duration_seconds",
			Help:    "Wall time of one pipeline run.",
			Buckets: prometheus.DefBuckets,
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "momo_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run.",
		}),
		storeInserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "momo_store_inserted_total",
			Help: "Rows newly inserted into the transaction store.",
		}),
	}
}

// ObserveParsed counts messages read from a backup.
func (m *Metrics) ObserveParsed(n int) {
	if m == nil {
		return
	}
	m.messagesParsed.Add(float64(n))
}

// ObserveRecords counts records per category.
func (m *Metrics) ObserveRecords(counts map[string]int) {
	if m == nil {
		return
	}
	for category, n := range counts {
		m.records.WithLabelValues(category).Add(float64(n))
	}
}

// ObserveDrop counts one dropped message.
func (m *Metrics) ObserveDrop(reason string) {
	if m == nil {
		return
	}
	m.drops.WithLabelValues(reason).Inc()
}

// ObserveInserted counts new store rows.
func (m *Metrics) ObserveInserted(n int) {
	if m == nil {
		return
	}
	m.storeInserted.Add(float64(n))
}

// ObserveRun records a completed run.
func (m *Metrics) ObserveRun(duration time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.runDuration.Observe(duration.Seconds())
	m.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile dumps the registry in text exposition format. The write is
// atomic so the collector never reads a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
