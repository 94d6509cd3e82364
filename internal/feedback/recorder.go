// Package feedback records the user's verdict on a shown prediction.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/metrics"
	"github.com/genre-tester/backend/internal/storage/models"
	"github.com/genre-tester/backend/pkg/clock"
	"github.com/genre-tester/backend/pkg/logger"
)

const DefaultFeedbackDelay = 1200 * time.Millisecond

// ErrMissingFileID is returned, without any delay, when there is no
// prediction to give feedback on.
var ErrMissingFileID = errors.New("file_id missing")

const (
	MessageCorrect          = "Prediction confirmed as correct."
	MessageIncorrectDeleted = "Prediction marked incorrect. File deleted."
	MessageIncorrectMissing = "Prediction marked incorrect. File not found."
)

type Result struct {
	Message     string `json:"message"`
	FileID      string `json:"file_id"`
	FileDeleted bool   `json:"file_deleted"`
}

// Submitter is satisfied by the local Recorder and by the remote backend client.
type Submitter interface {
	Submit(ctx context.Context, fileID string, correct bool) (*Result, error)
}

type PredictionStore interface {
	SetFeedback(ctx context.Context, fileID string, feedback models.Feedback, at time.Time) (bool, error)
}

type FileRemover interface {
	Remove(fileID string) (bool, error)
}

type Recorder struct {
	clock   clock.Clock
	delay   time.Duration
	records PredictionStore
	files   FileRemover
}

// NewRecorder builds a recorder. records and files may be nil, in which case
// the verdict is only acknowledged.
func NewRecorder(c clock.Clock, delay time.Duration, records PredictionStore, files FileRemover) *Recorder {
	return &Recorder{
		clock:   c,
		delay:   delay,
		records: records,
		files:   files,
	}
}

func (r *Recorder) Submit(ctx context.Context, fileID string, correct bool) (*Result, error) {
	if fileID == "" {
		return nil, ErrMissingFileID
	}

	start := r.clock.Now()
	if err := clock.Sleep(ctx, r.clock, r.delay); err != nil {
		return nil, fmt.Errorf("feedback interrupted: %w", err)
	}
	metrics.ObserveMockLatency("feedback", r.clock.Now().Sub(start))

	verdict := models.FeedbackFor(correct)
	if r.records != nil {
		found, err := r.records.SetFeedback(ctx, fileID, verdict, r.clock.Now())
		if err != nil {
			return nil, err
		}
		if !found {
			logger.Warn("Feedback for unknown prediction", zap.String("file_id", fileID))
		}
	}

	result := &Result{FileID: fileID}
	switch {
	case correct:
		result.Message = MessageCorrect
	case r.files == nil:
		result.Message = MessageIncorrectMissing
	default:
		deleted, err := r.files.Remove(fileID)
		if err != nil {
			return nil, err
		}
		result.FileDeleted = deleted
		result.Message = MessageIncorrectMissing
		if deleted {
			result.Message = MessageIncorrectDeleted
		}
	}

	metrics.FeedbackTotal.WithLabelValues(string(verdict)).Inc()
	logger.Info("Feedback recorded",
		zap.String("file_id", fileID),
		zap.String("verdict", string(verdict)),
		zap.Bool("file_deleted", result.FileDeleted),
	)

	return result, nil
}
