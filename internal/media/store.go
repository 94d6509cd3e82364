// Package media keeps uploaded audio files on local disk, keyed by file id.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/genre-tester/backend/pkg/logger"
)

var ErrInvalidFileID = errors.New("invalid file id")

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// path rejects ids that would escape the media directory.
func (s *Store) path(fileID string) (string, error) {
	if fileID == "" || fileID != filepath.Base(fileID) || strings.HasPrefix(fileID, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileID, fileID)
	}
	return filepath.Join(s.dir, fileID), nil
}

func (s *Store) Save(fileID string, data []byte) error {
	p, err := s.path(fileID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}
	logger.Debug("Upload saved", zap.String("file_id", fileID), zap.Int("bytes", len(data)))
	return nil
}

func (s *Store) Exists(fileID string) bool {
	p, err := s.path(fileID)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Remove deletes the upload and reports whether a file was there.
func (s *Store) Remove(fileID string) (bool, error) {
	p, err := s.path(fileID)
	if err != nil {
		return false, err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove upload: %w", err)
	}
	logger.Debug("Upload removed", zap.String("file_id", fileID))
	return true, nil
}
