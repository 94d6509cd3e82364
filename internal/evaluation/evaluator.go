// Package evaluation turns user feedback into an observed-accuracy report.
package evaluation

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/history"
	"github.com/genre-tester/backend/internal/storage/models"
	"github.com/genre-tester/backend/pkg/logger"
)

type StatsSource interface {
	FeedbackStats(ctx context.Context) ([]models.ModelFeedbackStats, error)
}

type Evaluator struct {
	stats StatsSource
}

type ModelReport struct {
	Model            string  `json:"model"`
	Total            int     `json:"total"`
	Correct          int     `json:"correct"`
	Incorrect        int     `json:"incorrect"`
	NoFeedback       int     `json:"noFeedback"`
	AvgConfidence    float64 `json:"avgConfidence"`
	ObservedAccuracy float64 `json:"observedAccuracy"`
	FeedbackCoverage float64 `json:"feedbackCoverage"`
}

type Report struct {
	TotalPredictions     int           `json:"totalPredictions"`
	CorrectCount         int           `json:"correctCount"`
	IncorrectCount       int           `json:"incorrectCount"`
	NoFeedbackCount      int           `json:"noFeedbackCount"`
	AvgConfidence        float64       `json:"avgConfidence"`
	ObservedAccuracy     float64       `json:"observedAccuracy"`
	CorrectPercentage    float64       `json:"correctPercentage"`
	IncorrectPercentage  float64       `json:"incorrectPercentage"`
	NoFeedbackPercentage float64       `json:"noFeedbackPercentage"`
	Models               []ModelReport `json:"models"`
}

func NewEvaluator(stats StatsSource) *Evaluator {
	return &Evaluator{stats: stats}
}

func (e *Evaluator) Report(ctx context.Context) (*Report, error) {
	stats, err := e.stats.FeedbackStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback stats: %w", err)
	}

	report := Build(stats)

	logger.Info("Feedback evaluation completed",
		zap.Int("total", report.TotalPredictions),
		zap.Int("correct", report.CorrectCount),
		zap.Int("incorrect", report.IncorrectCount),
		zap.Float64("observed_accuracy", report.ObservedAccuracy),
	)

	return report, nil
}

// Summarize evaluates already loaded history rows, e.g. the mock table.
func Summarize(items []history.Item) *Report {
	byModel := make(map[string]*models.ModelFeedbackStats)
	for _, it := range items {
		s, ok := byModel[it.Model]
		if !ok {
			s = &models.ModelFeedbackStats{Model: it.Model}
			byModel[it.Model] = s
		}
		s.MeanConfidence = (s.MeanConfidence*float64(s.Total) + it.Confidence) / float64(s.Total+1)
		s.Total++
		switch it.Feedback {
		case models.FeedbackCorrect:
			s.Correct++
		case models.FeedbackIncorrect:
			s.Incorrect++
		default:
			s.NoFeedback++
		}
	}

	stats := make([]models.ModelFeedbackStats, 0, len(byModel))
	for _, s := range byModel {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Model < stats[j].Model })
	return Build(stats)
}

func Build(stats []models.ModelFeedbackStats) *Report {
	report := &Report{Models: make([]ModelReport, 0, len(stats))}

	var totalConfidence float64
	for _, s := range stats {
		report.TotalPredictions += s.Total
		report.CorrectCount += s.Correct
		report.IncorrectCount += s.Incorrect
		report.NoFeedbackCount += s.NoFeedback
		totalConfidence += s.MeanConfidence * float64(s.Total)

		mr := ModelReport{
			Model:            s.Model,
			Total:            s.Total,
			Correct:          s.Correct,
			Incorrect:        s.Incorrect,
			NoFeedback:       s.NoFeedback,
			AvgConfidence:    round(s.MeanConfidence),
			ObservedAccuracy: ratio(s.Correct, s.Correct+s.Incorrect),
			FeedbackCoverage: ratio(s.Correct+s.Incorrect, s.Total),
		}
		report.Models = append(report.Models, mr)
	}

	if report.TotalPredictions > 0 {
		report.AvgConfidence = round(totalConfidence / float64(report.TotalPredictions))
		report.CorrectPercentage = round(float64(report.CorrectCount) / float64(report.TotalPredictions) * 100)
		report.IncorrectPercentage = round(float64(report.IncorrectCount) / float64(report.TotalPredictions) * 100)
		report.NoFeedbackPercentage = round(float64(report.NoFeedbackCount) / float64(report.TotalPredictions) * 100)
	}
	report.ObservedAccuracy = ratio(report.CorrectCount, report.CorrectCount+report.IncorrectCount)

	return report
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return round(float64(num) / float64(den))
}

func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}
