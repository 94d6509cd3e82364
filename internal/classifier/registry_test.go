package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genre-tester/backend/pkg/config"
)

func TestParseModel(t *testing.T) {
	tcs := []struct {
		in   string
		want ModelID
		ok   bool
	}{
		{"CNN", CNN, true},
		{"crnn", CRNN, true},
		{" Knn ", KNN, true},
		{"RandomForest", RF, true},
		{"svm", SVM, true},
		{"lstm", "", false},
		{"", "", false},
	}
	for _, tc := range tcs {
		got, err := ParseModel(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrUnknownModel, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestModelID_SlugAndValid(t *testing.T) {
	assert.Equal(t, "rf", RF.Slug())
	assert.True(t, CRNN.Valid())
	assert.False(t, ModelID("cnn").Valid())
}

func TestTuningFromConfig_Overlay(t *testing.T) {
	tuning := TuningFromConfig(configTuning(map[string]float64{"cnn": 0.9}, 0.03, 1.2))

	assert.InDelta(t, 0.9, tuning.Base(CNN), 1e-9)
	assert.InDelta(t, 0.86, tuning.Base(CRNN), 1e-9)
	assert.InDelta(t, 0.03, tuning.NoiseBand, 1e-9)
	assert.InDelta(t, 0.95, tuning.Ceiling, 1e-9, "ceiling never exceeds 0.95")
	assert.Equal(t, 80, tuning.SplitBonusAbove)
}

func TestTuningFromConfig_ExplicitZeroDisablesAdjustments(t *testing.T) {
	zero := 0.0
	negative := -0.1
	tuning := TuningFromConfig(config.TuningConfig{
		NoiseBand:        &zero,
		SplitBonus:       &zero,
		AugmentBonus:     &zero,
		ShuffleBonus:     &zero,
		NoShufflePenalty: &negative,
	})

	assert.Zero(t, tuning.NoiseBand)
	assert.Zero(t, tuning.SplitBonus)
	assert.Zero(t, tuning.AugmentBonus)
	assert.Zero(t, tuning.ShuffleBonus)
	assert.InDelta(t, 0.005, tuning.NoShufflePenalty, 1e-9, "negative values are ignored")

	unset := TuningFromConfig(config.TuningConfig{})
	assert.Equal(t, DefaultTuning(), unset)
}
