package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var defaultHistogramBucketsSeconds = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

// Collectors are created eagerly so recording works before Init; Init only
// registers them and exposes the endpoint.
var (
	once          sync.Once
	metricsRouter *chi.Mux

	// client requests are the ones sending to other service
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	btcClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "btc_client_latency_seconds",
			Help:    "Histogram of btc client durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	priceSubmissionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_submissions_total",
			Help: "Number of price submissions by source exchange and outcome",
		},
		[]string{"source", "status"},
	)

	aggregationRejectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_rejections_total",
			Help: "Number of aggregation attempts that withheld a price, by reason",
		},
		[]string{"reason"},
	)

	aggregatedPriceGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aggregated_price",
			Help: "Last published aggregate price",
		},
	)

	activeNodesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_oracle_nodes",
			Help: "Number of oracle nodes seen within the liveness window",
		},
	)

	btcTipHeightGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "btc_tip_height",
			Help: "Last value of btc height retrieved",
		},
	)

	pendingSettlementsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_settlements",
			Help: "Number of settlements waiting for execution",
		},
	)

	settlementProofDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_proof_duration_seconds",
			Help:    "Settlement proof generation duration in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"kind", "status"},
	)

	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

func registerMetrics() {
	prometheus.MustRegister(
		clientRequestDurationHistogram,
		btcClientLatency,
		pollerDurationHistogram,
		dbLatency,
		priceSubmissionCounter,
		aggregationRejectionCounter,
		aggregatedPriceGauge,
		activeNodesGauge,
		btcTipHeightGauge,
		pendingSettlementsGauge,
		settlementProofDuration,
		queueSendErrorCounter,
	)
}

func statusOf(failure bool) Outcome {
	if failure {
		return Error
	}
	return Success
}

func RecordBTCClientLatency(d time.Duration, method string, failure bool) {
	btcClientLatency.WithLabelValues(method, statusOf(failure).String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	dbLatency.WithLabelValues(method, statusOf(failure).String()).Observe(d.Seconds())
}

func RecordPriceSubmission(source string, accepted bool) {
	priceSubmissionCounter.WithLabelValues(source, statusOf(!accepted).String()).Inc()
}

func RecordAggregationRejection(reason string) {
	aggregationRejectionCounter.WithLabelValues(reason).Inc()
}

func RecordAggregatedPrice(price float64) {
	aggregatedPriceGauge.Set(price)
}

func RecordActiveNodes(count int) {
	activeNodesGauge.Set(float64(count))
}

func RecordBtcTipHeight(height uint64) {
	btcTipHeightGauge.Set(float64(height))
}

func RecordPendingSettlements(count int) {
	pendingSettlementsGauge.Set(float64(count))
}

func RecordSettlementProofDuration(d time.Duration, kind string, failure bool) {
	settlementProofDuration.WithLabelValues(kind, statusOf(failure).String()).Observe(d.Seconds())
}

// StartClientRequestDurationTimer starts a timer to measure outgoing client request duration.
func StartClientRequestDurationTimer(baseUrl, method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		clientRequestDurationHistogram.WithLabelValues(
			baseUrl,
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
