// Package prediction runs an upload through the configured predictor and
// records the outcome.
package prediction

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/metrics"
	"github.com/genre-tester/backend/internal/storage/models"
	"github.com/genre-tester/backend/pkg/clock"
	"github.com/genre-tester/backend/pkg/logger"
	"github.com/genre-tester/backend/pkg/utils"
)

type MediaSaver interface {
	Save(fileID string, data []byte) error
}

type RecordStore interface {
	InsertPrediction(ctx context.Context, rec *models.PredictionRecord) error
}

type Service struct {
	predictor classifier.Predictor
	media     MediaSaver
	records   RecordStore
	clock     clock.Clock
}

// NewService wires the predictor with optional media and record stores.
func NewService(predictor classifier.Predictor, media MediaSaver, records RecordStore, c clock.Clock) *Service {
	return &Service{
		predictor: predictor,
		media:     media,
		records:   records,
		clock:     c,
	}
}

func (s *Service) Predict(ctx context.Context, req classifier.PredictRequest) (*classifier.PredictionResult, error) {
	start := s.clock.Now()
	res, err := s.predictor.Predict(ctx, req)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(modelLabel(req.Model), statusLabel(err)).Inc()
		return nil, err
	}
	metrics.ObserveMockLatency("predict", s.clock.Now().Sub(start))
	metrics.UploadBytes.Observe(float64(len(req.Data)))

	if s.media != nil {
		if err := s.media.Save(res.FileID, req.Data); err != nil {
			metrics.PredictionsTotal.WithLabelValues(res.ModelName, "error").Inc()
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
	}

	if s.records != nil {
		rec := &models.PredictionRecord{
			FileID:         res.FileID,
			Filename:       req.Filename,
			Model:          res.ModelName,
			PredictedLabel: res.PredictedLabel,
			Confidence:     res.ConfidenceValue,
			ModelAccuracy:  res.AccuracyValue,
			Checksum:       utils.Checksum(req.Data),
			SizeBytes:      int64(len(req.Data)),
			Feedback:       models.FeedbackNone,
			CreatedAt:      s.clock.Now(),
		}
		if err := s.records.InsertPrediction(ctx, rec); err != nil {
			// The prediction itself succeeded; a missing history row is not
			// worth failing the upload over.
			logger.Error("Failed to record prediction", zap.String("file_id", res.FileID), zap.Error(err))
		}
	}

	metrics.PredictionsTotal.WithLabelValues(res.ModelName, "ok").Inc()
	metrics.PredictionConfidence.WithLabelValues(res.ModelName).Observe(res.ConfidenceValue)

	logger.Info("Prediction served",
		zap.String("model", res.ModelName),
		zap.String("label", res.PredictedLabel),
		zap.String("confidence", res.Confidence),
		zap.String("file_id", res.FileID),
	)
	return res, nil
}

func modelLabel(m classifier.ModelID) string {
	if id, err := classifier.ParseModel(string(m)); err == nil {
		return string(id)
	}
	return "unknown"
}

func statusLabel(err error) string {
	switch {
	case errors.Is(err, classifier.ErrNoFile):
		return "no_file"
	case errors.Is(err, classifier.ErrUnknownModel):
		return "unknown_model"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
