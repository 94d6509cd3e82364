// Package dataset resolves how many audio samples a training dataset path
// holds. Datasets use the GTZAN layout: <path>/<genre>/<track>.au.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/pkg/logger"
)

const DefaultPath = "/datasets/gtzan"

// TracksPerGenre matches the GTZAN collection.
const TracksPerGenre = 100

var ErrNotFound = errors.New("dataset not found")

var audioExts = map[string]bool{
	".au":  true,
	".wav": true,
	".mp3": true,
}

type Catalog interface {
	Count(ctx context.Context, path string) (int, error)
}

// FSCatalog counts audio files on local disk.
type FSCatalog struct{}

func (FSCatalog) Count(ctx context.Context, root string) (int, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		return 0, fmt.Errorf("failed to stat dataset: %w", err)
	}
	if !info.IsDir() {
		if isAudio(root) {
			return 1, nil
		}
		return 0, fmt.Errorf("%w: %s is not a directory", ErrNotFound, root)
	}

	count := 0
	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() && isAudio(p) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk dataset: %w", err)
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: no audio files under %s", ErrNotFound, root)
	}
	return count, nil
}

func isAudio(p string) bool {
	return audioExts[strings.ToLower(filepath.Ext(p))]
}

// MockCatalog serves counts from a generated GTZAN file list so the demo
// works without the dataset mounted.
type MockCatalog struct {
	files []string
}

func NewMockCatalog(root string) *MockCatalog {
	if root == "" {
		root = DefaultPath
	}
	files := make([]string, 0, len(classifier.Labels)*TracksPerGenre)
	for _, genre := range classifier.Labels {
		for i := 0; i < TracksPerGenre; i++ {
			files = append(files, path.Join(root, genre, fmt.Sprintf("%s.%05d.au", genre, i)))
		}
	}
	return &MockCatalog{files: files}
}

func (m *MockCatalog) Files() []string {
	return m.files
}

func (m *MockCatalog) Count(_ context.Context, p string) (int, error) {
	prefix := path.Clean("/" + strings.TrimSpace(filepath.ToSlash(p)))
	count := 0
	for _, f := range m.files {
		if f == prefix || strings.HasPrefix(f, prefix+"/") || prefix == "/" {
			count++
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return count, nil
}

// Composite asks each catalog in turn and returns the first count found.
type Composite []Catalog

func (c Composite) Count(ctx context.Context, p string) (int, error) {
	var lastErr error = fmt.Errorf("%w: %s", ErrNotFound, p)
	for _, cat := range c {
		n, err := cat.Count(ctx, p)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return 0, err
		}
		lastErr = err
	}
	logger.Debug("Dataset not found in any catalog", zap.String("path", p))
	return 0, lastErr
}
