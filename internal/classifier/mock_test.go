package classifier

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genre-tester/backend/pkg/clock"
	"github.com/genre-tester/backend/pkg/config"
	"github.com/genre-tester/backend/pkg/randx"
)

func configTuning(base map[string]float64, band, ceiling float64) config.TuningConfig {
	return config.TuningConfig{BaseAccuracy: base, NoiseBand: &band, Ceiling: ceiling}
}

func TestMockPredictor_Predict(t *testing.T) {
	p := NewMockPredictor(clock.Instant{}, randx.Fixed{Value: 0.5, Index: 5}, DefaultPredictDelay, DefaultTuning())

	res, err := p.Predict(context.Background(), PredictRequest{
		Model:    "cnn",
		Filename: "track01.WAV",
		Data:     []byte("RIFF...."),
	})
	require.NoError(t, err)

	assert.Equal(t, "CNN", res.ModelName)
	assert.Equal(t, "83.00%", res.Accuracy)
	assert.Equal(t, "77.00%", res.Confidence)
	assert.Equal(t, "jazz", res.PredictedLabel)
	assert.NotEmpty(t, res.FileID)
	assert.True(t, strings.HasSuffix(res.FileID, ".wav"))
}

func TestMockPredictor_ConfidenceAlwaysInUnitRange(t *testing.T) {
	p := NewMockPredictor(clock.Instant{}, randx.New(11), 0, DefaultTuning())
	for i := 0; i < 200; i++ {
		res, err := p.Predict(context.Background(), PredictRequest{Model: KNN, Data: []byte{1}})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.ConfidenceValue, 0.0)
		assert.LessOrEqual(t, res.ConfidenceValue, 1.0)
		assert.Contains(t, Labels, res.PredictedLabel)
	}
}

func TestMockPredictor_NoFileIsNoop(t *testing.T) {
	manual := clock.NewManual(time.Now())
	p := NewMockPredictor(manual, randx.New(1), time.Hour, DefaultTuning())

	_, err := p.Predict(context.Background(), PredictRequest{Model: CNN})
	assert.ErrorIs(t, err, ErrNoFile)
	assert.Equal(t, 0, manual.Pending(), "no timer is started without a file")
}

func TestMockPredictor_UnknownModel(t *testing.T) {
	p := NewMockPredictor(clock.Instant{}, randx.New(1), 0, DefaultTuning())
	_, err := p.Predict(context.Background(), PredictRequest{Model: "gpt", Data: []byte{1}})
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestMockPredictor_Cancelable(t *testing.T) {
	manual := clock.NewManual(time.Now())
	p := NewMockPredictor(manual, randx.New(1), DefaultPredictDelay, DefaultTuning())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Predict(ctx, PredictRequest{Model: SVM, Data: []byte{1}})
		done <- err
	}()

	require.Eventually(t, func() bool { return manual.Pending() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("prediction did not observe cancellation")
	}
}
