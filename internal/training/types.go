package training

import (
	"fmt"

	"github.com/genre-tester/backend/internal/classifier"
)

const (
	MinSplit     = 60
	MaxSplit     = 90
	DefaultSplit = 80

	TimestampLayout = "2006-01-02 15:04:05"
)

type Config struct {
	Model             classifier.ModelID `json:"model"`
	DatasetPath       string             `json:"datasetPath"`
	TrainSplitPercent int                `json:"trainSplitPercent"`
	Shuffle           bool               `json:"shuffle"`
	Augment           bool               `json:"augment"`
}

// Result is immutable once produced; the history list only ever gains
// entries at its head.
type Result struct {
	Model          classifier.ModelID `json:"model"`
	Accuracy       string             `json:"accuracy"`
	Dataset        string             `json:"dataset"`
	TrainTestSplit string             `json:"trainTestSplit"`
	Shuffle        bool               `json:"shuffle"`
	Augmentation   bool               `json:"augmentation"`
	SamplesUsed    int                `json:"samplesUsed"`
	TrainedAt      string             `json:"trainedAt"`

	AccuracyValue float64 `json:"accuracyValue"`
}

// ClampSplit keeps a split inside the slider range.
func ClampSplit(split int) int {
	if split < MinSplit {
		return MinSplit
	}
	if split > MaxSplit {
		return MaxSplit
	}
	return split
}

func SplitLabel(split int) string {
	return fmt.Sprintf("%d/%d", split, 100-split)
}
