package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "benin_etl"

// Metrics holds the Prometheus counters and histograms for the ETL pipelines.
type Metrics struct {
	// Fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: source, outcome={success,error}
	FetchBytes    *prometheus.CounterVec   // labels: source
	FetchDuration *prometheus.HistogramVec // labels: source
	FetchCache    *prometheus.CounterVec   // labels: result={hit,miss}

	// Pipeline metrics.
	RowsWritten       *prometheus.CounterVec   // labels: dataset
	IndicatorsSkipped *prometheus.CounterVec   // labels: pipeline
	RastersAggregated prometheus.Counter
	StageDuration     *prometheus.HistogramVec // labels: pipeline, stage
	MessagesPublished prometheus.Counter

	gatherer prometheus.Gatherer
}

func newMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "HTTP fetches by source host and outcome.",
		}, []string{"source", "outcome"}),
		FetchBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_bytes_total",
			Help:      "Bytes downloaded by source host.",
		}, []string{"source"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "HTTP fetch duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"source"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      "Fetch cache lookups by result.",
		}, []string{"result"}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Table rows written by dataset.",
		}, []string{"dataset"}),
		IndicatorsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indicators_skipped_total",
			Help:      "Indicators dropped under the skip failure policy.",
		}, []string{"pipeline"}),
		RastersAggregated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rasters_aggregated_total",
			Help:      "Population rasters summed over all departments.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of a pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"pipeline", "stage"}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "Table rows published to the Kafka sink.",
		}),
		gatherer: gatherer,
	}

	reg.MustRegister(
		m.FetchRequests,
		m.FetchBytes,
		m.FetchDuration,
		m.FetchCache,
		m.RowsWritten,
		m.IndicatorsSkipped,
		m.RastersAggregated,
		m.StageDuration,
		m.MessagesPublished,
	)
	return m
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	reg := prometheus.NewRegistry()
	return newMetrics(reg, reg)
}

// Gatherer returns the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// WriteTextfile exports the registry in the node-exporter textfile format,
// the usual hand-off for batch jobs. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.gatherer)
}
