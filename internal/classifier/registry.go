// Package classifier holds the supported genre models, the fabricated
// prediction contract and the mock predictor behind it.
package classifier

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownModel = errors.New("unknown model")

type ModelID string

const (
	CNN  ModelID = "CNN"
	CRNN ModelID = "CRNN"
	KNN  ModelID = "KNN"
	RF   ModelID = "RF"
	SVM  ModelID = "SVM"
)

// Models lists the identifiers in the order the upload page offers them.
var Models = []ModelID{CNN, CRNN, KNN, RF, SVM}

// Labels are the GTZAN genres a prediction can fall into.
var Labels = []string{
	"blues",
	"classical",
	"country",
	"disco",
	"hiphop",
	"jazz",
	"metal",
	"pop",
	"reggae",
	"rock",
}

var aliases = map[string]ModelID{
	"cnn":          CNN,
	"crnn":         CRNN,
	"knn":          KNN,
	"k-nn":         KNN,
	"rf":           RF,
	"randomforest": RF,
	"svm":          SVM,
}

// ParseModel accepts any casing plus the long names the training backend
// reports ("RandomForest").
func ParseModel(s string) (ModelID, error) {
	if id, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// Slug is the lower-case form used in endpoint paths, e.g. /api/predict/cnn/.
func (m ModelID) Slug() string {
	return strings.ToLower(string(m))
}

// Valid reports whether m is one of Models in canonical form.
func (m ModelID) Valid() bool {
	for _, id := range Models {
		if id == m {
			return true
		}
	}
	return false
}
