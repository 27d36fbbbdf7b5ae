// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sync pushes the local Markdown vault to the configured
// targets: threads, archives, and knowledge notes into the bitable
// workspace, archives additionally into the Notion database. A SQLite
// state store keeps content hashes so unchanged files are skipped.
package sync

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store records which vault files have been synced and with what
// content hash.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the sync-state database at path, creating
// parent directories as needed.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS synced_files (
		path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		synced_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Hash returns the stored content hash for a vault-relative path, or ""
// when the file has never been synced.
func (s *Store) Hash(ctx context.Context, path string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT content_hash FROM synced_files WHERE path = ?`, path,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying sync state: %w", err)
	}
	return hash, nil
}

// Mark records a successful sync of path at the given content hash.
func (s *Store) Mark(ctx context.Context, path, hash string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO synced_files (path, content_hash, synced_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET content_hash=excluded.content_hash, synced_at=excluded.synced_at`,
		path, hash, at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording sync state: %w", err)
	}
	return nil
}

// Forget drops the sync record for path, forcing a re-sync next run.
func (s *Store) Forget(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM synced_files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("forgetting sync state: %w", err)
	}
	return nil
}

// Count returns the number of files with sync records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM synced_files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sync state: %w", err)
	}
	return n, nil
}

// ContentHash hashes file contents for change detection.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
