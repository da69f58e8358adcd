package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get when no artifact exists for the key.
var ErrNotFound = errors.New("artifact not found")

// ExportStore persists finished export artifacts keyed by export id. Exists
// is the idempotency probe the export task runs before doing any work.
type ExportStore interface {
	Exists(ctx context.Context, exportID string) (bool, error)
	Put(ctx context.Context, exportID string, data []byte) error
	Get(ctx context.Context, exportID string) ([]byte, error)
}

// LocalExportStore keeps artifacts as JSON files in a directory.
type LocalExportStore struct {
	dir string
}

func NewLocalExportStore(dir string) (*LocalExportStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &LocalExportStore{dir: dir}, nil
}

func (s *LocalExportStore) path(exportID string) string {
	return filepath.Join(s.dir, exportID+".json")
}

func (s *LocalExportStore) Exists(ctx context.Context, exportID string) (bool, error) {
	_, err := os.Stat(s.path(exportID))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *LocalExportStore) Put(ctx context.Context, exportID string, data []byte) error {
	return os.WriteFile(s.path(exportID), data, 0o644)
}

func (s *LocalExportStore) Get(ctx context.Context, exportID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(exportID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}
