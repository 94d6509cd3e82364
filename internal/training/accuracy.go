package training

import (
	"math"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/pkg/randx"
)

// Accuracy fabricates a training score: base accuracy for the model, uniform
// noise in [-band, +band), fixed bonuses for a training-heavy split and for
// augmentation, a signed adjustment for shuffling, then clamped to
// [Floor, Ceiling].
func Accuracy(t classifier.Tuning, cfg Config, src randx.Source) float64 {
	acc := t.Base(cfg.Model)
	acc += randx.Uniform(src, -t.NoiseBand, t.NoiseBand)

	if ClampSplit(cfg.TrainSplitPercent) > t.SplitBonusAbove {
		acc += t.SplitBonus
	}
	if cfg.Augment {
		acc += t.AugmentBonus
	}
	if cfg.Shuffle {
		acc += t.ShuffleBonus
	} else {
		acc -= t.NoShufflePenalty
	}

	return math.Max(t.Floor, math.Min(acc, t.Ceiling))
}

// SamplesUsed is the share of sampleCount that lands in the training split.
func SamplesUsed(sampleCount, split int) int {
	if sampleCount <= 0 {
		return 0
	}
	return int(math.Round(float64(sampleCount) * float64(split) / 100))
}
