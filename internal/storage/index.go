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

	"gocollage/internal/domain"
	applog "gocollage/internal/log"
	"gocollage/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexDirName  = ".gcl"
	IndexFileName = "index.sqlite"

	// schemaVersion is bumped together with a new case in runMigrations.
	schemaVersion = 2
)

// IndexPath returns the index database path of a collage.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDirName, IndexFileName)
}

// InitOrOpenIndex opens (creating if needed) the collage index in WAL mode and
// brings its schema up to date. Callers close the returned DB.
func InitOrOpenIndex(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(slog.String("root", root))
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("collage root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", IndexDirName, err)
	}

	path := IndexPath(root)
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
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id         INTEGER PRIMARY KEY CHECK(id=1),
			schema     INTEGER NOT NULL,
			app        TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS assets (
			id       TEXT PRIMARY KEY,
			hash     TEXT    NOT NULL,
			path     TEXT    NOT NULL,
			width    INTEGER NOT NULL,
			height   INTEGER NOT NULL,
			source   TEXT,
			added_at TEXT    NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			id     INTEGER PRIMARY KEY,
			ts     TEXT    NOT NULL,
			reason TEXT    NOT NULL,
			items  INTEGER NOT NULL,
			blob   BLOB    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_ts ON history(ts);`,
		`CREATE INDEX IF NOT EXISTS idx_assets_hash ON assets(hash);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental steps up to schemaVersion. Newer databases are left alone.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_history_ts ON history(ts);`,
				`CREATE INDEX IF NOT EXISTS idx_assets_hash ON assets(hash);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// language=SQL
// dialect=SQLite
const upsertAssetSQL = `INSERT INTO assets(id, hash, path, width, height, source, added_at) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET hash=excluded.hash, path=excluded.path, width=excluded.width, height=excluded.height, source=excluded.source`

// language=SQL
// dialect=SQLite
const listAssetsSQL = `SELECT id, hash, path, width, height, COALESCE(source, '') FROM assets ORDER BY added_at, id`

// language=SQL
// dialect=SQLite
const findAssetByHashSQL = `SELECT id, hash, path, width, height, COALESCE(source, '') FROM assets WHERE hash = ? LIMIT 1`

// RegisterAsset records an asset in the catalog.
func RegisterAsset(ctx context.Context, ph *CollageHandle, a Asset) error {
	if ph == nil {
		return errors.New("nil CollageHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return registerAsset(ctx, db, a)
}

func registerAsset(ctx context.Context, db *sql.DB, a Asset) error {
	_, err := db.ExecContext(ctx, upsertAssetSQL, a.ID, a.Hash, a.Path, a.Width, a.Height, a.Source, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("register asset %s: %w", a.ID, err)
	}
	return nil
}

// ListAssets returns the catalog in insertion order.
func ListAssets(ctx context.Context, ph *CollageHandle) ([]Asset, error) {
	if ph == nil {
		return nil, errors.New("nil CollageHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listAssetsSQL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.Hash, &a.Path, &a.Width, &a.Height, &a.Source); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FindAssetByHash looks up an existing asset with identical bytes. ok is false when none exists.
func FindAssetByHash(ctx context.Context, ph *CollageHandle, hash string) (a Asset, ok bool, err error) {
	if ph == nil {
		return Asset{}, false, errors.New("nil CollageHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return Asset{}, false, err
	}
	defer func() { _ = db.Close() }()
	err = db.QueryRowContext(ctx, findAssetByHashSQL, hash).Scan(&a.ID, &a.Hash, &a.Path, &a.Width, &a.Height, &a.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, false, nil
	}
	if err != nil {
		return Asset{}, false, err
	}
	return a, true, nil
}

// DetectAndRebuildIndex rebuilds the catalog when the index cannot be opened,
// fails quick_check or lacks its tables. It reports whether a rebuild happened.
func DetectAndRebuildIndex(ctx context.Context, root string, c domain.Collage) (bool, error) {
	path := IndexPath(root)
	db, err := InitOrOpenIndex(root)
	if err != nil {
		backupIndexFile(path)
		removeIndexFiles(path)
		if rbErr := RebuildIndex(ctx, root, c); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM assets LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	removeIndexFiles(path)
	if err := RebuildIndex(ctx, root, c); err != nil {
		return false, err
	}
	return true, nil
}

// RebuildIndex recreates the asset catalog from the manifest and the files under assets/.
// History is kept.
func RebuildIndex(ctx context.Context, root string, c domain.Collage) error {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if _, err := db.ExecContext(ctx, `DELETE FROM assets;`); err != nil {
		return fmt.Errorf("clear assets: %w", err)
	}
	ph := &CollageHandle{Root: root}
	for _, it := range c.Items {
		rel := it.Asset
		if rel == "" {
			rel = domain.AssetPath(it.ID)
		}
		h, err := hashFile(ph.Abs(rel))
		if err != nil {
			applog.WithComponent("storage").Warn("asset missing during rebuild", slog.String("id", it.ID), slog.Any("err", err))
			continue
		}
		a := Asset{ID: it.ID, Path: rel, Hash: h, Width: int(it.Width), Height: int(it.Height), Source: it.Source}
		if err := registerAsset(ctx, db, a); err != nil {
			return err
		}
	}
	return nil
}

func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), time.Now().Format(backupStamp)))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

func removeIndexFiles(indexPath string) {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(indexPath + suffix)
	}
}
