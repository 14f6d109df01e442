/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "keymapeditor/internal/log"
	"keymapeditor/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// recentSchemaVersion tracks the local SQLite schema of the recent-documents index.
const recentSchemaVersion = 1

// RecentEntry is one row of the recent-documents index.
type RecentEntry struct {
	Path     string
	Nodes    int
	Opens    int
	LastUsed time.Time
}

// RecentIndex records keymap files opened or saved by the editor. It is disposable:
// deleting the database file only loses the history.
type RecentIndex struct {
	db   *sql.DB
	path string
}

// OpenRecentIndex opens or creates the index database at path, enables WAL mode and
// ensures the schema exists.
func OpenRecentIndex(path string) (*RecentIndex, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "recent_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureRecentSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("recent index ready")
	return &RecentIndex{db: db, path: path}, nil
}

func ensureRecentSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS recent (
			path      TEXT    PRIMARY KEY,
			nodes     INTEGER NOT NULL DEFAULT 0,
			opens     INTEGER NOT NULL DEFAULT 0,
			seq       INTEGER NOT NULL,
			used_at   INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_recent_seq ON recent(seq);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, recentSchemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	case cur > recentSchemaVersion:
		return fmt.Errorf("recent index schema %d is newer than supported %d", cur, recentSchemaVersion)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// Path returns the database file.
func (ri *RecentIndex) Path() string { return ri.path }

// Touch marks path as used now, recording its node count.
func (ri *RecentIndex) Touch(ctx context.Context, path string, nodes int) error {
	if ri == nil || ri.db == nil {
		return errors.New("recent index is closed")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	_, err = ri.db.ExecContext(ctx, `
		INSERT INTO recent (path, nodes, opens, seq, used_at)
		VALUES (?, ?, 1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM recent), ?)
		ON CONFLICT(path) DO UPDATE SET
			nodes = excluded.nodes,
			opens = recent.opens + 1,
			seq = excluded.seq,
			used_at = excluded.used_at`,
		abs, nodes, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("touch recent: %w", err)
	}
	return nil
}

// List returns up to limit entries, most recently used first. A limit <= 0 means all.
func (ri *RecentIndex) List(ctx context.Context, limit int) ([]RecentEntry, error) {
	if ri == nil || ri.db == nil {
		return nil, errors.New("recent index is closed")
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := ri.db.QueryContext(ctx, `SELECT path, nodes, opens, used_at FROM recent ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []RecentEntry
	for rows.Next() {
		var e RecentEntry
		var usedAt int64
		if err := rows.Scan(&e.Path, &e.Nodes, &e.Opens, &usedAt); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		e.LastUsed = time.Unix(0, usedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Forget removes path from the index.
func (ri *RecentIndex) Forget(ctx context.Context, path string) error {
	if ri == nil || ri.db == nil {
		return errors.New("recent index is closed")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := ri.db.ExecContext(ctx, `DELETE FROM recent WHERE path = ?`, abs); err != nil {
		return fmt.Errorf("forget recent: %w", err)
	}
	return nil
}

func (ri *RecentIndex) Close() error {
	if ri == nil || ri.db == nil {
		return nil
	}
	err := ri.db.Close()
	ri.db = nil
	return err
}
