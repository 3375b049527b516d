/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session ties an open collage directory to its interactive board:
// it loads the manifest and assets, stores new images and saves layouts with
// a history row. The CLI and the desktop shell both work through it.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gocollage/internal/board"
	"gocollage/internal/clipboard"
	"gocollage/internal/domain"
	"gocollage/internal/layout"
	applog "gocollage/internal/log"
	"gocollage/internal/storage"
)

// Options configures a Session.
type Options struct {
	Board        board.Options
	HistoryDepth int // layout history rows kept, default 200
	KeepBackups  int // manifest backups kept, default 20
}

func (o *Options) normalize() {
	if o.HistoryDepth <= 0 {
		o.HistoryDepth = 200
	}
	if o.KeepBackups <= 0 {
		o.KeepBackups = 20
	}
}

// Session is one open collage.
type Session struct {
	Handle *storage.CollageHandle
	Board  *board.Board
	opts   Options
	log    *slog.Logger
	dirty  bool
	// known holds asset and source metadata for every item seen this
	// session, so items brought back by redo keep their asset reference.
	known map[string]domain.Item
}

// Open loads the collage at dir, creating it when no manifest exists yet.
// name is used only for new collages and defaults to the directory name.
func Open(ctx context.Context, dir, name string, opts Options) (*Session, error) {
	opts.normalize()
	l := applog.WithComponent("session").With(slog.String("collage", dir))
	var ph *storage.CollageHandle
	_, err := os.Stat(filepath.Join(dir, storage.ManifestFileName))
	switch {
	case err == nil:
		ph, err = storage.Open(dir)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
		if strings.TrimSpace(name) == "" {
			name = filepath.Base(filepath.Clean(dir))
		}
		ph, err = storage.InitCollage(dir, domain.New(name, opts.Board.Layout.Boundary, opts.Board.InitialScale))
		if err != nil {
			return nil, err
		}
		l.Info("collage created", slog.String("name", name))
	default:
		return nil, fmt.Errorf("stat manifest: %w", err)
	}
	if rebuilt, err := storage.DetectAndRebuildIndex(ctx, ph.Root, ph.Collage); err != nil {
		l.Warn("index check failed", slog.Any("err", err))
	} else if rebuilt {
		l.Warn("index rebuilt from manifest")
	}
	s := &Session{Handle: ph, opts: opts, log: l, known: make(map[string]domain.Item)}
	if err := s.load(ph.Collage); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) load(c domain.Collage) error {
	b, err := board.Load(c, s.opts.Board, func(it domain.Item) (image.Image, error) {
		return storage.ReadAsset(s.Handle, it)
	})
	if err != nil {
		return err
	}
	s.Board = b
	s.remember(c.Items...)
	return nil
}

func (s *Session) remember(items ...domain.Item) {
	for _, it := range items {
		s.known[it.ID] = it
	}
}

// AddImage places img like a paste and stores it as an asset. Images whose
// bytes already exist in the catalog share the existing asset file.
func (s *Session) AddImage(ctx context.Context, img image.Image, origin string, at *layout.Pt) (layout.Handle, layout.Report, error) {
	id := storage.NewItemID()
	a, err := storage.WriteAsset(s.Handle, id, img, origin)
	if err != nil {
		return -1, layout.Report{}, err
	}
	if prev, ok, err := storage.FindAssetByHash(ctx, s.Handle, a.Hash); err != nil {
		s.log.Warn("asset lookup failed", slog.Any("err", err))
	} else if ok && prev.Path != a.Path {
		if err := os.Remove(s.Handle.Abs(a.Path)); err != nil {
			s.log.Warn("duplicate asset not removed", slog.Any("err", err))
		}
		a.Path = prev.Path
	} else if err := storage.RegisterAsset(ctx, s.Handle, a); err != nil {
		s.log.Warn("asset not catalogued", slog.Any("err", err))
	}

	b := img.Bounds()
	h, rep := s.Board.PasteItem(id, layout.Size{W: float64(b.Dx()), H: float64(b.Dy())}, at)
	s.Board.AttachImage(h, img)
	it := domain.Item{ID: id, Asset: a.Path, Width: float64(b.Dx()), Height: float64(b.Dy()), Source: origin}
	s.remember(it)
	s.Handle.Collage.Items = append(s.Handle.Collage.Items, it)
	s.dirty = true
	s.logReport("add", rep)
	return h, rep, nil
}

// AddFile decodes an image file and adds it.
func (s *Session) AddFile(ctx context.Context, path string, at *layout.Pt) (layout.Handle, layout.Report, error) {
	img, err := clipboard.DecodeFile(path)
	if err != nil {
		return -1, layout.Report{}, err
	}
	return s.AddImage(ctx, img, clipboard.OriginFile, at)
}

// SetBoundary switches boundary mode and runs one pass.
func (s *Session) SetBoundary(on bool) layout.Report {
	s.Board.Engine().SetBoundary(on)
	rep := s.Board.Resolve()
	s.dirty = true
	s.logReport("boundary", rep)
	return rep
}

// MarkDirty flags changes made directly on the board.
func (s *Session) MarkDirty() { s.dirty = true }

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool { return s.dirty }

// Sync copies the board layout into the handle and returns it. Items the
// board holds are matched against everything known this session, including
// items a previous save dropped because they were undone at the time.
func (s *Session) Sync() *storage.CollageHandle {
	items := make([]domain.Item, 0, len(s.known))
	for _, it := range s.known {
		items = append(items, it)
	}
	s.Handle.Collage.Items = items
	s.Board.SaveTo(&s.Handle.Collage)
	return s.Handle
}

// Save writes the manifest and records a history row. History and pruning
// failures are logged; the index can be rebuilt from the manifest.
func (s *Session) Save(ctx context.Context, reason string) error {
	ph := s.Sync()
	if err := storage.Save(ph); err != nil {
		return fmt.Errorf("save collage: %w", err)
	}
	s.dirty = false
	l := applog.WithOperation(s.log, "save")
	if _, err := storage.RecordHistory(ctx, ph, reason, ph.Collage); err != nil {
		l.Warn("history not recorded", slog.Any("err", err))
	} else if _, err := storage.PruneHistory(ctx, ph, s.opts.HistoryDepth); err != nil {
		l.Warn("history not pruned", slog.Any("err", err))
	}
	if _, err := storage.PruneBackups(ph.Root, s.opts.KeepBackups); err != nil {
		l.Warn("backups not pruned", slog.Any("err", err))
	}
	l.Debug("saved", slog.String("reason", reason), slog.Int("items", len(ph.Collage.Items)))
	return nil
}

// Revert replaces the layout with a history entry. The result is unsaved.
func (s *Session) Revert(ctx context.Context, id int64) error {
	c, err := storage.LoadHistory(ctx, s.Handle, id)
	if err != nil {
		return err
	}
	c.ID = s.Handle.Collage.ID
	if err := s.load(c); err != nil {
		return err
	}
	s.Handle.Collage = c
	s.dirty = true
	return nil
}

func (s *Session) logReport(op string, rep layout.Report) {
	l := applog.WithOperation(s.log, op)
	if !rep.OK() {
		l.Warn("layout left overlaps", slog.Int("unresolved", len(rep.Unresolved)))
		return
	}
	l.Debug("layout resolved", slog.Int("moved", len(rep.Moved)), slog.Int("attempts", rep.Attempts))
}
