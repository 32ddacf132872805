// Package settings persists the operator-controlled UI flags.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/quotecast/quotecast/internal/model"
)

// Store reads and overwrites the settings document.
type Store interface {
	Get(ctx context.Context) (model.Settings, error)
	Toggle(ctx context.Context) (model.Settings, error)
}

// FileStore keeps settings as a single JSON object on disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore at path. The file is created on the
// first toggle.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get returns the persisted settings, or the defaults if the file is absent.
func (s *FileStore) Get(_ context.Context) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Toggle flips ShowSendToEmail and overwrites the file.
func (s *FileStore) Toggle(_ context.Context) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return model.Settings{}, err
	}
	current.ShowSendToEmail = !current.ShowSendToEmail

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return model.Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return model.Settings{}, fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return model.Settings{}, fmt.Errorf("write settings: %w", err)
	}
	return current, nil
}

func (s *FileStore) read() (model.Settings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("read settings: %w", err)
	}

	settings := model.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return model.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}
