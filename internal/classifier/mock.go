package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/pkg/clock"
	"github.com/genre-tester/backend/pkg/logger"
	"github.com/genre-tester/backend/pkg/randx"
	"github.com/genre-tester/backend/pkg/utils"
)

const DefaultPredictDelay = 5 * time.Second

// MockPredictor fabricates a prediction after a fixed simulated latency.
type MockPredictor struct {
	clock  clock.Clock
	rand   randx.Source
	delay  time.Duration
	tuning Tuning
	newID  func() string
}

func NewMockPredictor(c clock.Clock, src randx.Source, delay time.Duration, tuning Tuning) *MockPredictor {
	return &MockPredictor{
		clock:  c,
		rand:   src,
		delay:  delay,
		tuning: tuning,
		newID:  func() string { return uuid.New().String() },
	}
}

func (p *MockPredictor) Predict(ctx context.Context, req PredictRequest) (*PredictionResult, error) {
	if len(req.Data) == 0 {
		return nil, ErrNoFile
	}
	model, err := ParseModel(string(req.Model))
	if err != nil {
		return nil, err
	}

	logger.Debug("Simulating prediction",
		zap.String("model", string(model)),
		zap.String("filename", req.Filename),
		zap.Duration("delay", p.delay),
	)

	if err := clock.Sleep(ctx, p.clock, p.delay); err != nil {
		return nil, fmt.Errorf("prediction interrupted: %w", err)
	}

	confidence := randx.Uniform(p.rand, p.tuning.MinConfidence, p.tuning.MaxConfidence)
	accuracy := p.tuning.Base(model)

	return &PredictionResult{
		ModelName:       string(model),
		Accuracy:        utils.Percent(accuracy, 2),
		Confidence:      utils.Percent(confidence, 2),
		PredictedLabel:  Labels[p.rand.IntN(len(Labels))],
		FileID:          p.newID() + utils.SafeExt(req.Filename),
		AccuracyValue:   accuracy,
		ConfidenceValue: confidence,
	}, nil
}
