package metrics

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genre_predictions_total",
			Help: "Total number of prediction requests",
		},
		[]string{"model", "status"},
	)

	PredictionConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genre_prediction_confidence",
			Help:    "Confidence of returned predictions",
			Buckets: []float64{0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"model"},
	)

	TrainingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genre_training_runs_total",
			Help: "Total number of simulated training runs",
		},
		[]string{"model"},
	)

	TrainingAccuracy = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genre_training_accuracy",
			Help:    "Accuracy reported by simulated training runs",
			Buckets: []float64{0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95},
		},
		[]string{"model"},
	)

	TrainingHistoryLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "genre_training_history_length",
			Help: "Number of persisted training results",
		},
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genre_feedback_total",
			Help: "Total feedback submissions",
		},
		[]string{"verdict"},
	)

	MockLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genre_mock_latency_seconds",
			Help:    "Simulated latency observed per operation",
			Buckets: []float64{0, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	RemoteCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genre_remote_calls_total",
			Help: "Calls made to the real classification backend",
		},
		[]string{"endpoint", "status"},
	)

	UploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "genre_upload_bytes",
			Help:    "Size of uploaded audio files",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 10),
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(PredictionsTotal)
		prometheus.MustRegister(PredictionConfidence)
		prometheus.MustRegister(TrainingRuns)
		prometheus.MustRegister(TrainingAccuracy)
		prometheus.MustRegister(TrainingHistoryLength)
		prometheus.MustRegister(FeedbackTotal)
		prometheus.MustRegister(MockLatency)
		prometheus.MustRegister(RemoteCalls)
		prometheus.MustRegister(UploadBytes)
	})
}

func ObserveMockLatency(operation string, d time.Duration) {
	MockLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
