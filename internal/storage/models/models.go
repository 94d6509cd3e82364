package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no prediction has the given file id.
var ErrNotFound = errors.New("record not found")

type Feedback string

const (
	FeedbackNone      Feedback = "none"
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

func FeedbackFor(correct bool) Feedback {
	if correct {
		return FeedbackCorrect
	}
	return FeedbackIncorrect
}

// PredictionRecord is one uploaded file and the verdict returned for it.
type PredictionRecord struct {
	FileID         string
	Filename       string
	Model          string
	PredictedLabel string
	Confidence     float64
	ModelAccuracy  float64
	Checksum       string
	SizeBytes      int64
	Feedback       Feedback
	CreatedAt      time.Time
	FeedbackAt     *time.Time
}

// ModelFeedbackStats aggregates feedback for one model.
type ModelFeedbackStats struct {
	Model          string
	Total          int
	Correct        int
	Incorrect      int
	NoFeedback     int
	MeanConfidence float64
}
