package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandler_ExposesRegisteredCollectors(t *testing.T) {
	Init()
	Init()

	FeedbackTotal.WithLabelValues("correct").Inc()
	ObserveMockLatency("feedback", 1200*time.Millisecond)

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `genre_feedback_total{verdict="correct"}`)
	assert.Contains(t, string(body), "genre_mock_latency_seconds_bucket")
	assert.GreaterOrEqual(t, testutil.ToFloat64(FeedbackTotal.WithLabelValues("correct")), 1.0)
}
