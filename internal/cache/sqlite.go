// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultSQLitePath is the default location of the SQLite cache database.
const DefaultSQLitePath = ".processed_pdfs.db"

// SQLiteStore persists the cache in a SQLite database with one row per file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens or creates the cache database at path and ensures
// the schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema in %s: %v", ErrCorrupt, path, err)
	}
	return s, nil
}

// OpenSQLiteStoreOrReset opens the cache database at path. If the existing
// file is not a usable database it is moved aside to path+".corrupt" and a
// fresh database is created in its place.
func OpenSQLiteStoreOrReset(path string, log *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	s, err := OpenSQLiteStore(path)
	if err == nil || !errors.Is(err, ErrCorrupt) {
		return s, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log.Warn("cache database unreadable, starting fresh", "path", path, "error", err)
	if err := os.Rename(path, path+".corrupt"); err != nil {
		return nil, fmt.Errorf("moving corrupt cache aside: %w", err)
	}
	return OpenSQLiteStore(path)
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Location returns the database path.
func (s *SQLiteStore) Location() string { return s.path }

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		mtime_ns INTEGER NOT NULL,
		processed_at TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		content TEXT NOT NULL
	)`)
	return err
}

// Load reads every row into a new cache. Rows with an unparseable
// timestamp make the whole state corrupt.
func (s *SQLiteStore) Load(ctx context.Context) (*Cache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, name, size, mtime_ns, processed_at, page_count, content FROM files`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", ErrCorrupt, s.path, err)
	}
	defer rows.Close()

	c := New()
	for rows.Next() {
		var (
			id, processedAt string
			r               Record
		)
		if err := rows.Scan(&id, &r.Path, &r.Name, &r.Size, &r.ModTimeNS, &processedAt, &r.PageCount, &r.Content); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %v", ErrCorrupt, err)
		}
		r.ProcessedAt, err = time.Parse(time.RFC3339Nano, processedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: record %s: %v", ErrCorrupt, id, err)
		}
		c.records[id] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading rows: %v", ErrCorrupt, err)
	}
	return c, nil
}

// Save replaces the table contents with the cache in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, c *Cache) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return fmt.Errorf("clearing cache table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO files (id, path, name, size, mtime_ns, processed_at, page_count, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for id, r := range c.records {
		_, err := stmt.ExecContext(ctx,
			id, r.Path, r.Name, r.Size, r.ModTimeNS,
			r.ProcessedAt.UTC().Format(time.RFC3339Nano), r.PageCount, r.Content,
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", r.Name, err)
		}
	}

	return tx.Commit()
}
