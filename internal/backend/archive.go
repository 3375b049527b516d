/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend publishes collage layouts to a shared Postgres archive and
// serves them read-only over HTTP.
package backend

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gocollage/internal/domain"
	applog "gocollage/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a collage has never been published.
var ErrNotFound = errors.New("backend: collage not published")

// Summary is one row of the collage listing.
type Summary struct {
	StableID  string    `json:"stable_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// Published is one archived layout version.
type Published struct {
	StableID  string          `json:"stable_id"`
	Name      string          `json:"name"`
	Version   int64           `json:"version"`
	Items     int             `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	Manifest  json.RawMessage `json:"manifest"`
}

// Collage decodes the archived manifest.
func (p Published) Collage() (domain.Collage, error) {
	var c domain.Collage
	if err := json.Unmarshal(p.Manifest, &c); err != nil {
		return domain.Collage{}, fmt.Errorf("decode manifest %s v%d: %w", p.StableID, p.Version, err)
	}
	return c, nil
}

// Store is the read side used by the HTTP server.
type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]Summary, error)
	Latest(ctx context.Context, stableID string) (Published, error)
}

// Archive is the Postgres-backed Store.
type Archive struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects to dsn and applies the embedded migrations.
func Open(ctx context.Context, dsn string) (*Archive, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("backend: empty DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	a := &Archive{db: db, log: applog.WithComponent("backend")}
	if err := a.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return a, nil
}

func (a *Archive) Close() error { return a.db.Close() }

func (a *Archive) Ping(ctx context.Context) error { return a.db.PingContext(ctx) }

// language=SQL
// dialect=PostgreSQL
const upsertCollageSQL = `INSERT INTO collages (stable_id, name, version, updated_at)
VALUES ($1, $2, 1, now())
ON CONFLICT (stable_id) DO UPDATE
SET name = EXCLUDED.name, version = collages.version + 1, updated_at = now()
RETURNING id, version`

// language=SQL
// dialect=PostgreSQL
const insertLayoutSQL = `INSERT INTO layouts (collage_id, version, items, manifest)
VALUES ($1, $2, $3, $4)
RETURNING created_at`

// Publish stores the manifest as the next version of the collage.
func (a *Archive) Publish(ctx context.Context, c domain.Collage) (Published, error) {
	if c.ID == "" {
		return Published{}, errors.New("publish: collage has no id; save it first")
	}
	manifest, err := json.Marshal(c)
	if err != nil {
		return Published{}, fmt.Errorf("publish: marshal: %w", err)
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return Published{}, fmt.Errorf("publish: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		rowID   int64
		version int64
		created time.Time
	)
	if err := tx.QueryRowContext(ctx, upsertCollageSQL, c.ID, c.Name).Scan(&rowID, &version); err != nil {
		return Published{}, fmt.Errorf("publish: upsert collage: %w", err)
	}
	if err := tx.QueryRowContext(ctx, insertLayoutSQL, rowID, version, len(c.Items), string(manifest)).Scan(&created); err != nil {
		return Published{}, fmt.Errorf("publish: insert layout: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Published{}, fmt.Errorf("publish: commit: %w", err)
	}
	a.log.Info("published", slog.String("collage", c.ID), slog.Int64("version", version), slog.Int("items", len(c.Items)))
	return Published{StableID: c.ID, Name: c.Name, Version: version, Items: len(c.Items), CreatedAt: created, Manifest: manifest}, nil
}

// language=SQL
// dialect=PostgreSQL
const listCollagesSQL = `SELECT stable_id, name, updated_at, version FROM collages ORDER BY updated_at DESC`

// List returns every published collage, most recently updated first.
func (a *Archive) List(ctx context.Context) ([]Summary, error) {
	rows, err := a.db.QueryContext(ctx, listCollagesSQL)
	if err != nil {
		return nil, fmt.Errorf("list collages: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.StableID, &s.Name, &s.UpdatedAt, &s.Version); err != nil {
			return nil, fmt.Errorf("scan collage: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// language=SQL
// dialect=PostgreSQL
const latestLayoutSQL = `SELECT c.name, l.version, l.items, l.created_at, l.manifest
FROM layouts l JOIN collages c ON c.id = l.collage_id
WHERE c.stable_id = $1
ORDER BY l.version DESC, l.id DESC LIMIT 1`

// Latest returns the newest published version of a collage.
func (a *Archive) Latest(ctx context.Context, stableID string) (Published, error) {
	p := Published{StableID: stableID}
	var manifest []byte
	err := a.db.QueryRowContext(ctx, latestLayoutSQL, stableID).Scan(&p.Name, &p.Version, &p.Items, &p.CreatedAt, &manifest)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Published{}, ErrNotFound
	case err != nil:
		return Published{}, fmt.Errorf("latest %s: %w", stableID, err)
	}
	p.Manifest = json.RawMessage(manifest)
	return p, nil
}

// applyMigrations applies embedded SQL migrations in filename order.
func (a *Archive) applyMigrations(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := a.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := a.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		a.log.Info("applying migration", slog.String("file", fname))
		if _, err := a.db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := a.db.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, version, fname); err != nil {
			return fmt.Errorf("record %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, _ := strings.Cut(base, "_")
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
