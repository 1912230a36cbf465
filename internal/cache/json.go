// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultJSONPath is the default location of the JSON cache file.
const DefaultJSONPath = ".processed_pdfs.json"

// JSONStore persists the cache as one indented JSON object mapping identity
// to record.
type JSONStore struct {
	path string
}

// NewJSONStore returns a store backed by the JSON file at path.
func NewJSONStore(path string) *JSONStore {
	if path == "" {
		path = DefaultJSONPath
	}
	return &JSONStore{path: path}
}

// Location returns the cache file path.
func (s *JSONStore) Location() string { return s.path }

// Load reads the cache file. A missing file is an empty cache.
func (s *JSONStore) Load(ctx context.Context) (*Cache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading cache %s: %w", s.path, err)
	}

	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}

	c := New()
	for key, r := range records {
		c.records[key] = r
	}
	return c, nil
}

// Save writes the cache to a temporary file next to the target, syncs it,
// and renames it into place so a crash never leaves a partial cache.
func (s *JSONStore) Save(ctx context.Context, c *Cache) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing cache %s: %w", s.path, err)
	}
	return nil
}

// WriteFileAtomic writes data to path through a temporary file in the same
// directory followed by a rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
