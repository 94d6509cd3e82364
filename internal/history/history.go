// Package history builds the rows of the prediction history table.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/storage/models"
	"github.com/genre-tester/backend/pkg/clock"
	"github.com/genre-tester/backend/pkg/randx"
)

const (
	DefaultMockRows = 75
	TimestampLayout = "2006-01-02 15:04:05"
)

type Source string

const (
	// SourceRecords reads stored predictions.
	SourceRecords Source = "records"
	// SourceMock fabricates an illustrative table.
	SourceMock Source = "mock"
)

func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceRecords:
		return SourceRecords, nil
	case SourceMock:
		return SourceMock, nil
	}
	return "", fmt.Errorf("unknown history source %q", s)
}

type Item struct {
	ID             string          `json:"id"`
	Filename       string          `json:"filename"`
	Model          string          `json:"model"`
	PredictedLabel string          `json:"predictedLabel"`
	Confidence     float64         `json:"confidence"`
	Feedback       models.Feedback `json:"feedback"`
	CreatedAt      string          `json:"createdAt"`
}

var ErrNotFound = models.ErrNotFound

type RecordLister interface {
	ListPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error)
	GetPrediction(ctx context.Context, fileID string) (*models.PredictionRecord, error)
}

type Service struct {
	records  RecordLister
	clock    clock.Clock
	rand     randx.Source
	mockRows int
	source   Source
}

func NewService(records RecordLister, c clock.Clock, src randx.Source, defaultSource Source, mockRows int) *Service {
	if mockRows <= 0 {
		mockRows = DefaultMockRows
	}
	if defaultSource == "" {
		defaultSource = SourceRecords
	}
	return &Service{
		records:  records,
		clock:    c,
		rand:     src,
		mockRows: mockRows,
		source:   defaultSource,
	}
}

func (s *Service) DefaultSource() Source {
	return s.source
}

// List returns history rows, newest first. An empty source uses the
// configured default; limit <= 0 means no limit.
func (s *Service) List(ctx context.Context, source Source, limit int) ([]Item, error) {
	if source == "" {
		source = s.source
	}

	switch source {
	case SourceMock:
		items := GenerateMock(s.mockRows, s.rand, s.clock.Now())
		if limit > 0 && limit < len(items) {
			items = items[:limit]
		}
		return items, nil
	case SourceRecords:
		if s.records == nil {
			return []Item{}, nil
		}
		recs, err := s.records.ListPredictions(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load prediction history: %w", err)
		}
		items := make([]Item, 0, len(recs))
		for _, rec := range recs {
			items = append(items, FromRecord(rec))
		}
		return items, nil
	}
	return nil, fmt.Errorf("unknown history source %q", source)
}

// Get returns the stored row for one file id. Mock rows are never stored, so
// only recorded predictions can be looked up.
func (s *Service) Get(ctx context.Context, fileID string) (*Item, error) {
	if s.records == nil || fileID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	rec, err := s.records.GetPrediction(ctx, fileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to load prediction: %w", err)
	}
	item := FromRecord(*rec)
	return &item, nil
}

func FromRecord(rec models.PredictionRecord) Item {
	feedback := rec.Feedback
	if feedback == "" {
		feedback = models.FeedbackNone
	}
	return Item{
		ID:             rec.FileID,
		Filename:       rec.Filename,
		Model:          rec.Model,
		PredictedLabel: rec.PredictedLabel,
		Confidence:     rec.Confidence,
		Feedback:       feedback,
		CreatedAt:      rec.CreatedAt.Local().Format(TimestampLayout),
	}
}

// GenerateMock fabricates n rows. Feedback follows confidence: above 0.8 is
// correct, below 0.65 incorrect, anything between has none.
func GenerateMock(n int, src randx.Source, now time.Time) []Item {
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		confidence := randx.Uniform(src, 0.55, 0.99)
		age := time.Duration(src.Float64() * float64(24*time.Hour))
		items = append(items, Item{
			ID:             fmt.Sprintf("%d", i+1),
			Filename:       fmt.Sprintf("song_%03d.wav", i+1),
			Model:          string(classifier.Models[src.IntN(len(classifier.Models))]),
			PredictedLabel: classifier.Labels[src.IntN(len(classifier.Labels))],
			Confidence:     confidence,
			Feedback:       mockFeedback(confidence),
			CreatedAt:      now.Add(-age).Format(TimestampLayout),
		})
	}
	return items
}

func mockFeedback(confidence float64) models.Feedback {
	switch {
	case confidence > 0.8:
		return models.FeedbackCorrect
	case confidence < 0.65:
		return models.FeedbackIncorrect
	default:
		return models.FeedbackNone
	}
}
