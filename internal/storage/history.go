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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gocollage/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertHistorySQL = `INSERT INTO history(ts, reason, items, blob) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listHistorySQL = `SELECT id, ts, reason, items FROM history ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const selectHistorySQL = `SELECT blob FROM history WHERE id = ?`

// language=SQL
// dialect=SQLite
const pruneHistorySQL = `DELETE FROM history WHERE id NOT IN (
	SELECT id FROM history ORDER BY ts DESC, id DESC LIMIT ?
)`

// HistoryEntry summarises one recorded layout.
type HistoryEntry struct {
	ID     int64
	TS     time.Time
	Reason string
	Items  int
}

// ErrNoHistory is returned when a history id does not exist.
var ErrNoHistory = errors.New("history entry not found")

// RecordHistory stores the collage layout with a short reason such as "paste" or "drag".
func RecordHistory(ctx context.Context, ph *CollageHandle, reason string, c domain.Collage) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil CollageHandle")
	}
	blob, err := json.Marshal(c)
	if err != nil {
		return 0, fmt.Errorf("marshal history: %w", err)
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, insertHistorySQL, time.Now().UTC().Format(time.RFC3339Nano), reason, len(c.Items), blob)
	if err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return res.LastInsertId()
}

// ListHistory returns up to limit entries, newest first.
func ListHistory(ctx context.Context, ph *CollageHandle, limit int) ([]HistoryEntry, error) {
	if ph == nil {
		return nil, errors.New("nil CollageHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listHistorySQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Reason, &e.Items); err != nil {
			return nil, err
		}
		e.TS, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// LoadHistory decodes the collage stored under id.
func LoadHistory(ctx context.Context, ph *CollageHandle, id int64) (domain.Collage, error) {
	if ph == nil {
		return domain.Collage{}, errors.New("nil CollageHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return domain.Collage{}, err
	}
	defer func() { _ = db.Close() }()
	var blob []byte
	err = db.QueryRowContext(ctx, selectHistorySQL, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Collage{}, fmt.Errorf("history %d: %w", id, ErrNoHistory)
	}
	if err != nil {
		return domain.Collage{}, err
	}
	var c domain.Collage
	if err := json.Unmarshal(blob, &c); err != nil {
		return domain.Collage{}, fmt.Errorf("decode history %d: %w", id, err)
	}
	return c, nil
}

// PruneHistory keeps the newest keep entries and returns how many were deleted.
func PruneHistory(ctx context.Context, ph *CollageHandle, keep int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil CollageHandle")
	}
	if keep <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneHistorySQL, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
