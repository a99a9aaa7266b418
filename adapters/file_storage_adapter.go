package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// FileStorageAdapter is the default persistent storage adapter implementation using file system.
// Stores all keys as a single JSON object in a file.
type FileStorageAdapter struct {
	mu       sync.Mutex
	filepath string
}

// Ensure FileStorageAdapter implements KeyValueStore interface
var _ KeyValueStore = (*FileStorageAdapter)(nil)

// NewFileStorageAdapter creates a new FileStorageAdapter instance.
//
// Parameters:
//   - filepath: Path to the file where values will be stored
func NewFileStorageAdapter(filepath string) *FileStorageAdapter {
	return &FileStorageAdapter{filepath: filepath}
}

// GetInt reads key from the JSON file.
// A missing file reads as an empty store.
func (f *FileStorageAdapter) GetInt(_ context.Context, key string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return 0, false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// SetInt rewrites the JSON file with key set to value.
func (f *FileStorageAdapter) SetInt(_ context.Context, key string, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := json.Marshal(values)
	if err != nil {
		return err
	}

	// Write then rename so a crash never leaves a truncated file behind.
	tmp := f.filepath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.filepath)
}

func (f *FileStorageAdapter) load() (map[string]int, error) {
	data, err := os.ReadFile(f.filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]int{}, nil
		}
		return nil, err
	}
	values := map[string]int{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// Path returns the absolute location of the backing file.
func (f *FileStorageAdapter) Path() string {
	if abs, err := filepath.Abs(f.filepath); err == nil {
		return abs
	}
	return f.filepath
}
