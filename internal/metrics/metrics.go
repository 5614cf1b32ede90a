package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for RecommendationsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	// Catalog Metrics
	CatalogBooks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookrec_catalog_books",
			Help: "Number of books in the loaded catalog",
		},
	)

	// Similarity Index Metrics
	IndexBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookrec_index_build_duration_seconds",
			Help:    "Time spent building the description similarity index",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"weighting"},
	)

	IndexVocabularySize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookrec_index_vocabulary_size",
			Help: "Number of distinct terms in the similarity index",
		},
		[]string{"weighting"},
	)

	DegenerateCorpusTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookrec_degenerate_corpus_total",
			Help: "Queries answered with genre-only scoring because the description vocabulary is empty",
		},
	)

	// Recommendation Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrec_recommendations_total",
			Help: "Total number of recommendation queries",
		},
		[]string{"outcome"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookrec_recommendation_duration_seconds",
			Help:    "Recommendation query duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)
)

// RecordRecommendation records the outcome and latency of one query.
func RecordRecommendation(outcome string, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordIndexBuild records an index build for the given weighting.
func RecordIndexBuild(weighting string, vocabulary int, duration time.Duration) {
	IndexBuildDuration.WithLabelValues(weighting).Observe(duration.Seconds())
	IndexVocabularySize.WithLabelValues(weighting).Set(float64(vocabulary))
}
