package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Crawler cursor metrics
	CrawlerForwardBlock = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fluence_crawler_forward_block",
			Help: "Next block number the forward cursor will try to persist",
		},
	)

	CrawlerBackfillBlock = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fluence_crawler_backfill_block",
			Help: "Lowest block number the backfill cursor has persisted",
		},
	)

	CrawlerInCooldown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fluence_crawler_in_cooldown",
			Help: "Whether the crawler is currently backed off after a bad request (1) or not (0)",
		},
	)

	BlocksPersistedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluence_blocks_persisted_total",
			Help: "Total number of blocks persisted by direction",
		},
		[]string{"direction"}, // forward|backfill
	)

	BlocksPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fluence_blocks_purged_total",
			Help: "Total number of blocks deleted during reorg repair",
		},
	)

	// Interpreter metrics
	InterpreterBlockCounter = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fluence_interpreter_block_counter",
			Help: "Current block_counter cursor per contract",
		},
		[]string{"contract_address"},
	)

	TransactionsInterpretedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluence_transactions_interpreted_total",
			Help: "Total number of transactions dispatched to a handler, by selector name",
		},
		[]string{"selector"},
	)

	HandlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluence_handler_errors_total",
			Help: "Total number of handler invocations that failed, by selector name",
		},
		[]string{"selector"},
	)

	// Enrichment metrics
	MetadataFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluence_metadata_fetch_total",
			Help: "Total number of metadata enrichment attempts by outcome",
		},
		[]string{"outcome"}, // ok|timeout|invalid|http_error
	)

	// Durations
	BlockFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluence_block_fetch_duration_seconds",
			Help:    "Time taken to fetch a block from the feeder gateway",
			Buckets: prometheus.DefBuckets,
		},
	)

	BlockApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluence_block_apply_duration_seconds",
			Help:    "Time taken to persist one block and its transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	InterpretTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluence_interpret_tick_duration_seconds",
			Help:    "Time taken to interpret one block for one contract",
			Buckets: prometheus.DefBuckets,
		},
	)

	PurgeCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluence_purge_cycle_duration_seconds",
			Help:    "Time taken for one purge batch of up to 20 blocks",
			Buckets: prometheus.DefBuckets,
		},
	)

	MetadataFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluence_metadata_fetch_duration_seconds",
			Help:    "Time taken for a metadata enrichment HTTP round trip",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(CrawlerForwardBlock)
	prometheus.MustRegister(CrawlerBackfillBlock)
	prometheus.MustRegister(CrawlerInCooldown)
	prometheus.MustRegister(BlocksPersistedTotal)
	prometheus.MustRegister(BlocksPurgedTotal)
	prometheus.MustRegister(InterpreterBlockCounter)
	prometheus.MustRegister(TransactionsInterpretedTotal)
	prometheus.MustRegister(HandlerErrorsTotal)
	prometheus.MustRegister(MetadataFetchTotal)

	prometheus.MustRegister(BlockFetchDuration)
	prometheus.MustRegister(BlockApplyDuration)
	prometheus.MustRegister(InterpretTickDuration)
	prometheus.MustRegister(PurgeCycleDuration)
	prometheus.MustRegister(MetadataFetchDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
