package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// FileStore keeps the snapshot in a single file on the local file system.
type FileStore struct {
	path        string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a file store writing to path, creating its directory if needed.
func NewFileStore(path string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &FileStore{
		path:        path,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", path),
	}, nil
}

// Load reads the snapshot. Returns ErrStateNotFound if the file doesn't exist.
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, interfaces.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	s.log.Debug("Loaded state from file",
		slog.String("path", s.path),
		slog.Int("size", len(data)))
	return data, nil
}

// Save writes the snapshot to a temporary file and renames it over the previous one.
func (s *FileStore) Save(ctx context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	s.log.Debug("Stored state in file",
		slog.String("path", s.path),
		slog.Int("size", len(data)))
	return nil
}

// Available checks that the state directory exists.
func (s *FileStore) Available(ctx context.Context) bool {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		s.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.path))
}

func (s *FileStore) LocationURI() string {
	return s.locationURI
}
