// Package remote talks to a real classification backend that exposes the
// per-model predict endpoints and the feedback endpoints.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/feedback"
	"github.com/genre-tester/backend/internal/metrics"
	"github.com/genre-tester/backend/pkg/circuitbreaker"
	"github.com/genre-tester/backend/pkg/logger"
	"github.com/genre-tester/backend/pkg/retry"
	"github.com/genre-tester/backend/pkg/utils"
)

// StatusError is a non-2xx answer from the backend. Its message carries both
// the status and the response body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	// Retry overrides the backoff policy; MaxAttempts still applies.
	Retry   *retry.Config
	Breaker circuitbreaker.Config
}

type Client struct {
	baseURL string
	http    *http.Client
	retry   retry.Config
	breaker *circuitbreaker.CircuitBreaker
}

type predictResponse struct {
	ModelName            string  `json:"model_name"`
	PredictedLabel       string  `json:"predicted_label"`
	ModelOverallAccuracy float64 `json:"model_overall_accuracy"`
	PredictionConfidence float64 `json:"prediction_confidence"`
	FileID               string  `json:"file_id"`
}

type feedbackRequest struct {
	FileID string `json:"file_id"`
}

type feedbackResponse struct {
	Message     string `json:"message"`
	FileID      string `json:"file_id"`
	FileDeleted bool   `json:"file_deleted"`
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	rc := retry.DefaultConfig()
	if cfg.Retry != nil {
		rc = *cfg.Retry
	}
	if cfg.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.MaxAttempts
	}
	rc.RetryIf = isTransient
	rc.Logger = logger.Named("remote")

	bc := cfg.Breaker
	if bc.IsFailure == nil {
		bc.IsFailure = countsAgainstBreaker
	}
	if bc.Logger == nil {
		bc.Logger = logger.Named("breaker")
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		retry:   rc,
		breaker: circuitbreaker.New("classification-backend", bc),
	}
}

func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

func (c *Client) Predict(ctx context.Context, req classifier.PredictRequest) (*classifier.PredictionResult, error) {
	if len(req.Data) == 0 {
		return nil, classifier.ErrNoFile
	}
	model, err := classifier.ParseModel(string(req.Model))
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	endpoint := "/api/predict/" + model.Slug() + "/"
	var resp predictResponse
	err = c.call(ctx, endpoint, mw.FormDataContentType(), body.Bytes(), &resp)
	if err != nil {
		return nil, err
	}

	name := resp.ModelName
	if parsed, err := classifier.ParseModel(name); err == nil {
		name = string(parsed)
	} else if name == "" {
		name = string(model)
	}

	accuracy := asRatio(resp.ModelOverallAccuracy)
	confidence := asRatio(resp.PredictionConfidence)
	return &classifier.PredictionResult{
		ModelName:       name,
		Accuracy:        utils.Percent(accuracy, 2),
		Confidence:      utils.Percent(confidence, 2),
		PredictedLabel:  resp.PredictedLabel,
		FileID:          resp.FileID,
		AccuracyValue:   accuracy,
		ConfidenceValue: confidence,
	}, nil
}

func (c *Client) Submit(ctx context.Context, fileID string, correct bool) (*feedback.Result, error) {
	if fileID == "" {
		return nil, feedback.ErrMissingFileID
	}

	payload, err := json.Marshal(feedbackRequest{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feedback: %w", err)
	}

	endpoint := "/api/feedback/incorrect/"
	if correct {
		endpoint = "/api/feedback/correct/"
	}

	var resp feedbackResponse
	if err := c.call(ctx, endpoint, "application/json", payload, &resp); err != nil {
		return nil, err
	}
	if resp.FileID == "" {
		resp.FileID = fileID
	}
	return &feedback.Result{
		Message:     resp.Message,
		FileID:      resp.FileID,
		FileDeleted: resp.FileDeleted,
	}, nil
}

// call posts body to endpoint and decodes a 2xx JSON answer into out.
func (c *Client) call(ctx context.Context, endpoint, contentType string, body []byte, out any) error {
	raw, err := retry.DoWithResult(ctx, c.retry, func() ([]byte, error) {
		var raw []byte
		err := c.breaker.Execute(func() error {
			var err error
			raw, err = c.post(ctx, endpoint, contentType, body)
			return err
		})
		return raw, err
	})
	if err == nil {
		if err = json.Unmarshal(raw, out); err != nil {
			err = fmt.Errorf("failed to decode backend response: %w", err)
		}
	}

	status := "ok"
	var se *StatusError
	switch {
	case err == nil:
	case errors.As(err, &se):
		status = strconv.Itoa(se.StatusCode)
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		status = "circuit_open"
	default:
		status = "error"
	}
	metrics.RemoteCalls.WithLabelValues(endpoint, status).Inc()

	if err != nil {
		logger.Error("Backend call failed",
			zap.String("endpoint", endpoint),
			zap.String("breaker", c.breaker.Name()),
			zap.Error(err),
		)
	}
	return err
}

func (c *Client) post(ctx context.Context, endpoint, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// isTransient retries transport failures only. Any HTTP answer, including a
// 5xx, is final.
func isTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return false
	}
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// countsAgainstBreaker ignores client errors; a 4xx says nothing about the
// backend's health.
func countsAgainstBreaker(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	return true
}

// asRatio accepts either a ratio or a percentage.
func asRatio(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}
