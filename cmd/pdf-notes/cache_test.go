// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-notes/internal/cache"
	"github.com/pdiddy/pdf-notes/pkg/types"
)

var sampleRecords = []cache.Record{
	{
		Path:        "/papers/attention.pdf",
		Name:        "attention.pdf",
		Size:        2048,
		ModTimeNS:   1,
		ProcessedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		PageCount:   15,
		Content:     "\n\n# attention.pdf\n\nbody",
	},
	{
		Path:        "/papers/bert.pdf",
		Name:        "bert.pdf",
		Size:        3 * 1024 * 1024,
		ProcessedAt: time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC),
		PageCount:   16,
	},
}

func TestWriteRecords(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRecords(&buf, sampleRecords, "table"))
		out := buf.String()
		assert.Contains(t, out, "attention.pdf")
		assert.Contains(t, out, "2.00 KB")
		assert.Contains(t, out, "3.00 MB")
		assert.Contains(t, out, "2 documents")
		assert.NotContains(t, out, "body", "content is never listed")
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRecords(&buf, nil, ""))
		assert.Equal(t, "No cached documents.\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRecords(&buf, sampleRecords, "json"))

		var got []listEntry
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "bert.pdf", got[1].Name)
		assert.Equal(t, 16, got[1].Pages)
		assert.NotContains(t, buf.String(), "content")
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRecords(&buf, sampleRecords, "yaml"))

		var got []map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "attention.pdf", got[0]["name"])
		assert.Equal(t, 15, got[0]["pages"])
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, writeRecords(&bytes.Buffer{}, sampleRecords, "xml"))
	})
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "cache.json")
		s, closeFn, err := openStore(types.CacheConfig{Backend: types.CacheJSON, Path: path}, nil)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &cache.JSONStore{}, s)
		assert.Equal(t, path, s.Location())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(dir, "cache.db")
		s, closeFn, err := openStore(types.CacheConfig{Backend: types.CacheSQLite, Path: path}, nil)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &cache.SQLiteStore{}, s)
		assert.FileExists(t, path)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := openStore(types.CacheConfig{Backend: "redis"}, nil)
		assert.Error(t, err)
	})
}
