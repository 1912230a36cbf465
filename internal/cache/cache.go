// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists per-file extraction results keyed by a stable hash
// of the file path, and answers whether a file on disk is unchanged since it
// was last extracted.
//
// Freshness is exact equality of byte size and modification time. Contents
// are never hashed, so a file rewritten to the same size with its original
// modification time restored is still considered fresh.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrCorrupt is returned by a Store when persisted state cannot be parsed.
var ErrCorrupt = errors.New("cache: persisted state is corrupt")

// Record is the cached extraction result for one file.
type Record struct {
	Path        string    `json:"path" yaml:"path"`
	Name        string    `json:"name" yaml:"name"`
	Size        int64     `json:"size" yaml:"size"`
	ModTimeNS   int64     `json:"mtime_ns" yaml:"mtime_ns"`
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`
	PageCount   int       `json:"page_count" yaml:"page_count"`
	Content     string    `json:"content" yaml:"-"`
}

// matches reports whether the record's fingerprint equals the file's.
func (r Record) matches(info fs.FileInfo) bool {
	return r.Size == info.Size() && r.ModTimeNS == info.ModTime().UnixNano()
}

// Identity returns the cache key for path: the hex MD5 of its absolute form.
// If the absolute path cannot be determined the cleaned path is hashed.
func Identity(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	sum := md5.Sum([]byte(abs))
	return hex.EncodeToString(sum[:])
}

// Cache maps file identities to records. It is not safe for concurrent use.
type Cache struct {
	records map[string]Record
	now     func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{records: make(map[string]Record), now: time.Now}
}

// Len returns the number of records.
func (c *Cache) Len() int { return len(c.records) }

// Lookup returns the record stored for path, if any.
func (c *Cache) Lookup(path string) (Record, bool) {
	r, ok := c.records[Identity(path)]
	return r, ok
}

// IsFresh reports whether path has a record whose size and modification
// time exactly match the file on disk. An error is returned only when the
// file cannot be stat'ed.
func (c *Cache) IsFresh(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	r, ok := c.records[Identity(path)]
	return ok && r.matches(info), nil
}

// Put inserts or overwrites the record for path with the fingerprint from
// info, the current time, and the extracted content.
func (c *Cache) Put(path string, info fs.FileInfo, content string, pageCount int) Record {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	r := Record{
		Path:        abs,
		Name:        info.Name(),
		Size:        info.Size(),
		ModTimeNS:   info.ModTime().UnixNano(),
		ProcessedAt: c.now().UTC(),
		PageCount:   pageCount,
		Content:     content,
	}
	c.records[Identity(path)] = r
	return r
}

// Prune removes records whose source path no longer exists according to
// exists, and returns the number removed. Records without a stored path are
// kept.
func (c *Cache) Prune(exists func(path string) bool) int {
	removed := 0
	for key, r := range c.records {
		if r.Path == "" || exists(r.Path) {
			continue
		}
		delete(c.records, key)
		removed++
	}
	return removed
}

// Records returns all records sorted by path.
func (c *Cache) Records() []Record {
	out := make([]Record, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// FileExists is the default existence check used by Prune.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Store loads and saves a Cache.
type Store interface {
	// Load returns the persisted cache. A missing store yields an empty cache
	// and no error; unparseable state yields an error wrapping ErrCorrupt.
	Load(ctx context.Context) (*Cache, error)

	// Save persists the full cache, replacing what was stored.
	Save(ctx context.Context, c *Cache) error

	// Location describes where the store persists (a file path).
	Location() string
}

// LoadOrEmpty loads the cache from s. A corrupt store is logged as a warning
// and an empty cache is returned in its place. Any other load failure is
// returned so the caller never overwrites a cache it could not read.
func LoadOrEmpty(ctx context.Context, s Store, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	c, err := s.Load(ctx)
	if errors.Is(err, ErrCorrupt) {
		log.Warn("cache unreadable, starting fresh", "path", s.Location(), "error", err)
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cache %s: %w", s.Location(), err)
	}
	log.Debug("cache loaded", "path", s.Location(), "records", c.Len())
	return c, nil
}
