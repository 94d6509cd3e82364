package classifier

import (
	"context"
	"errors"
)

var ErrNoFile = errors.New("no file provided")

type PredictRequest struct {
	Model    ModelID
	Filename string
	Data     []byte
}

// PredictionResult is the contract the upload page renders. Accuracy and
// Confidence are formatted percentages; the raw ratios travel alongside for
// storage and metrics.
type PredictionResult struct {
	ModelName      string `json:"model_name"`
	Accuracy       string `json:"accuracy"`
	Confidence     string `json:"confidence"`
	PredictedLabel string `json:"predicted_label"`
	FileID         string `json:"file_id"`

	AccuracyValue   float64 `json:"-"`
	ConfidenceValue float64 `json:"-"`
}

// Predictor classifies one uploaded file. The mock and the remote backend
// client both satisfy it.
type Predictor interface {
	Predict(ctx context.Context, req PredictRequest) (*PredictionResult, error)
}
