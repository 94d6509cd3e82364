package classifier

import (
	"github.com/genre-tester/backend/pkg/config"
)

// Tuning holds the arbitrary constants used to fabricate plausible numbers.
// None of them has statistical meaning.
type Tuning struct {
	BaseAccuracy     map[ModelID]float64
	NoiseBand        float64
	SplitBonusAbove  int
	SplitBonus       float64
	AugmentBonus     float64
	ShuffleBonus     float64
	NoShufflePenalty float64
	Ceiling          float64
	Floor            float64
	MinConfidence    float64
	MaxConfidence    float64
}

func DefaultTuning() Tuning {
	return Tuning{
		BaseAccuracy: map[ModelID]float64{
			CNN:  0.83,
			CRNN: 0.86,
			SVM:  0.78,
			RF:   0.75,
			KNN:  0.70,
		},
		NoiseBand:        0.02,
		SplitBonusAbove:  80,
		SplitBonus:       0.01,
		AugmentBonus:     0.015,
		ShuffleBonus:     0.005,
		NoShufflePenalty: 0.005,
		Ceiling:          0.95,
		Floor:            0.01,
		MinConfidence:    0.55,
		MaxConfidence:    0.99,
	}
}

// TuningFromConfig overlays configured values on DefaultTuning. Unset
// adjustments keep the default and may be set to 0; the bounds and confidence
// range only take positive values.
func TuningFromConfig(cfg config.TuningConfig) Tuning {
	t := DefaultTuning()
	for name, acc := range cfg.BaseAccuracy {
		if id, err := ParseModel(name); err == nil && acc > 0 {
			t.BaseAccuracy[id] = acc
		}
	}

	setIfNonNegative(&t.NoiseBand, cfg.NoiseBand)
	setIfNonNegative(&t.SplitBonus, cfg.SplitBonus)
	setIfNonNegative(&t.AugmentBonus, cfg.AugmentBonus)
	setIfNonNegative(&t.ShuffleBonus, cfg.ShuffleBonus)
	setIfNonNegative(&t.NoShufflePenalty, cfg.NoShufflePenalty)
	setIfPositive(&t.Ceiling, cfg.Ceiling)
	setIfPositive(&t.Floor, cfg.Floor)
	setIfPositive(&t.MinConfidence, cfg.MinConfidence)
	setIfPositive(&t.MaxConfidence, cfg.MaxConfidence)
	if cfg.SplitBonusAbove > 0 {
		t.SplitBonusAbove = cfg.SplitBonusAbove
	}

	if t.Ceiling > 0.95 {
		t.Ceiling = 0.95
	}
	if t.Floor <= 0 || t.Floor >= t.Ceiling {
		t.Floor = 0.01
	}
	if t.MaxConfidence > 1 {
		t.MaxConfidence = 1
	}
	if t.MinConfidence > t.MaxConfidence {
		t.MinConfidence = t.MaxConfidence
	}
	return t
}

func (t Tuning) Base(model ModelID) float64 {
	return t.BaseAccuracy[model]
}

func setIfPositive(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func setIfNonNegative(dst *float64, v *float64) {
	if v != nil && *v >= 0 {
		*dst = *v
	}
}
