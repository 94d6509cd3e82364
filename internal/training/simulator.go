package training

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/metrics"
	"github.com/genre-tester/backend/pkg/clock"
	"github.com/genre-tester/backend/pkg/logger"
	"github.com/genre-tester/backend/pkg/randx"
	"github.com/genre-tester/backend/pkg/utils"
)

const DefaultTrainDelay = 5 * time.Second

// Simulator pretends to retrain a model.
type Simulator struct {
	clock  clock.Clock
	rand   randx.Source
	delay  time.Duration
	tuning classifier.Tuning
	store  HistoryStore
}

func NewSimulator(c clock.Clock, src randx.Source, delay time.Duration, tuning classifier.Tuning, store HistoryStore) *Simulator {
	return &Simulator{
		clock:  c,
		rand:   src,
		delay:  delay,
		tuning: tuning,
		store:  store,
	}
}

func (s *Simulator) Train(ctx context.Context, cfg Config, sampleCount int) (*Result, error) {
	model, err := classifier.ParseModel(string(cfg.Model))
	if err != nil {
		return nil, err
	}
	cfg.Model = model
	cfg.TrainSplitPercent = ClampSplit(cfg.TrainSplitPercent)

	logger.Info("Starting simulated training",
		zap.String("model", string(model)),
		zap.String("dataset", cfg.DatasetPath),
		zap.Int("split", cfg.TrainSplitPercent),
		zap.Bool("shuffle", cfg.Shuffle),
		zap.Bool("augment", cfg.Augment),
	)

	start := s.clock.Now()
	if err := clock.Sleep(ctx, s.clock, s.delay); err != nil {
		return nil, fmt.Errorf("training interrupted: %w", err)
	}
	metrics.ObserveMockLatency("train", s.clock.Now().Sub(start))

	acc := Accuracy(s.tuning, cfg, s.rand)
	result := Result{
		Model:          model,
		Accuracy:       utils.Percent(acc, 2),
		Dataset:        cfg.DatasetPath,
		TrainTestSplit: SplitLabel(cfg.TrainSplitPercent),
		Shuffle:        cfg.Shuffle,
		Augmentation:   cfg.Augment,
		SamplesUsed:    SamplesUsed(sampleCount, cfg.TrainSplitPercent),
		TrainedAt:      s.clock.Now().Format(TimestampLayout),
		AccuracyValue:  acc,
	}

	if err := s.store.Prepend(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to persist training result: %w", err)
	}

	metrics.TrainingRuns.WithLabelValues(string(model)).Inc()
	metrics.TrainingAccuracy.WithLabelValues(string(model)).Observe(acc)
	if n, err := s.store.Len(ctx); err == nil {
		metrics.TrainingHistoryLength.Set(float64(n))
	}

	logger.Info("Simulated training finished",
		zap.String("model", string(model)),
		zap.String("accuracy", result.Accuracy),
		zap.Int("samples_used", result.SamplesUsed),
	)

	return &result, nil
}

// History returns the persisted results, newest first.
func (s *Simulator) History(ctx context.Context) ([]Result, error) {
	results, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load training history: %w", err)
	}
	return results, nil
}
