package api

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/dataset"
	"github.com/genre-tester/backend/internal/feedback"
	"github.com/genre-tester/backend/internal/history"
	"github.com/genre-tester/backend/internal/remote"
	"github.com/genre-tester/backend/internal/training"
	"github.com/genre-tester/backend/pkg/clock"
	"github.com/genre-tester/backend/pkg/randx"
)

type stubPredictor struct{ err error }

func (s stubPredictor) Predict(_ context.Context, req classifier.PredictRequest) (*classifier.PredictionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &classifier.PredictionResult{ModelName: string(req.Model), FileID: "id.wav"}, nil
}

type stubSubmitter struct{ err error }

func (s stubSubmitter) Submit(_ context.Context, fileID string, _ bool) (*feedback.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &feedback.Result{Message: feedback.MessageCorrect, FileID: fileID}, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(deps Dependencies) *fiber.App {
	if deps.Trainer == nil {
		deps.Trainer = training.NewSimulator(clock.Instant{}, randx.Fixed{Value: 0.5}, 0, classifier.DefaultTuning(), training.NewMemoryStore())
	}
	if deps.History == nil {
		deps.History = history.NewService(nil, clock.Instant{}, randx.New(3), history.SourceRecords, 0)
	}
	if deps.Catalog == nil {
		deps.Catalog = dataset.NewMockCatalog("")
	}
	deps.Tuning = classifier.DefaultTuning()

	app := fiber.New()
	Register(app, deps)
	return app
}

func status(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}

func TestRegister_RemoteErrorsMapToBadGateway(t *testing.T) {
	upstream := &remote.StatusError{StatusCode: 503, Body: "down"}
	app := newTestServer(Dependencies{
		Predictor: stubPredictor{err: upstream},
		Feedback:  stubSubmitter{err: upstream},
	})

	code, body := status(t, app, "POST", "/api/feedback/correct/", `{"file_id":"x"}`)
	assert.Equal(t, 502, code)
	assert.Contains(t, body, "server error: 503 - down")
}

func TestRegister_FeedbackInvalidBody(t *testing.T) {
	app := newTestServer(Dependencies{Predictor: stubPredictor{}, Feedback: stubSubmitter{}})

	code, _ := status(t, app, "POST", "/api/feedback/incorrect/", `{not json`)
	assert.Equal(t, 400, code)

	code, body := status(t, app, "POST", "/api/feedback/correct/", `{"file_id":"abc.wav"}`)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `"file_id":"abc.wav"`)
}

func TestRegister_EmptyHistories(t *testing.T) {
	app := newTestServer(Dependencies{Predictor: stubPredictor{}, Feedback: stubSubmitter{}})

	code, body := status(t, app, "GET", "/api/train/history", "")
	assert.Equal(t, 200, code)
	assert.JSONEq(t, `{"history":[]}`, body)

	code, body = status(t, app, "GET", "/api/history", "")
	assert.Equal(t, 200, code)
	assert.JSONEq(t, `{"source":"records","history":[]}`, body)

	code, _ = status(t, app, "GET", "/api/history?limit=-1", "")
	assert.Equal(t, 400, code)
}

func TestRegister_ReadyReportsFailingChecks(t *testing.T) {
	app := newTestServer(Dependencies{
		Predictor: stubPredictor{},
		Feedback:  stubSubmitter{},
		Checks:    map[string]Pinger{"redis": failingPinger{}},
	})

	code, body := status(t, app, "GET", "/api/ready", "")
	assert.Equal(t, 503, code)
	assert.Contains(t, body, "connection refused")
}

func TestRegister_WebsocketRequiresUpgrade(t *testing.T) {
	app := newTestServer(Dependencies{Predictor: stubPredictor{}, Feedback: stubSubmitter{}})

	code, _ := status(t, app, "GET", "/ws/train", "")
	assert.Equal(t, fiber.StatusUpgradeRequired, code)
}

func TestRegister_TrainingStream(t *testing.T) {
	store := training.NewMemoryStore()
	app := newTestServer(Dependencies{
		Predictor: stubPredictor{},
		Feedback:  stubSubmitter{},
		Trainer:   training.NewSimulator(clock.Instant{}, randx.Fixed{Value: 0.5}, time.Second, classifier.DefaultTuning(), store),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)
	defer app.Shutdown()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/train", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":   "train",
		"config": map[string]any{"model": "svm", "datasetPath": "/datasets/gtzan", "trainSplitPercent": 90},
	}))

	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "status", msg["type"])
	assert.Contains(t, msg["content"], "1000 samples")

	msg = nil
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "complete", msg["type"], msg)
	result := msg["result"].(map[string]any)
	assert.Equal(t, "SVM", result["model"])
	assert.Equal(t, "90/10", result["trainTestSplit"])
	assert.EqualValues(t, 900, result["samplesUsed"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "train", "config": map[string]any{"model": "gpt"}}))
	msg = nil
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg["type"])

	n, err := store.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegister_TrainIgnoresPathsOutsideDatasetRoots(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	app := newTestServer(Dependencies{
		Predictor: stubPredictor{},
		Feedback:  stubSubmitter{},
		Catalog:   dataset.NewRestricted(dataset.NewMockCatalog(""), "/datasets/gtzan", root),
	})

	code, body := status(t, app, "POST", "/api/train", `{"model":"svm","datasetPath":"/datasets/gtzan/blues","trainSplitPercent":60}`)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `"samplesUsed":60`)

	for _, p := range []string{"/", "/datasets", other} {
		code, body = status(t, app, "POST", "/api/train", `{"model":"svm","datasetPath":"`+p+`"}`)
		assert.Equal(t, 200, code, p)
		assert.Contains(t, body, `"samplesUsed":0`, p)
	}
}
