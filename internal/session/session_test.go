/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gocollage/internal/board"
	"gocollage/internal/layout"
	"gocollage/internal/storage"
)

func testOptions() Options {
	o := Options{Board: board.DefaultOptions()}
	o.Board.InitialScale = 1
	return o
}

func filled(n int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func itemPos(t *testing.T, s *Session, h layout.Handle) layout.Pt {
	t.Helper()
	it, err := s.Board.Engine().Item(h)
	if err != nil {
		t.Fatalf("item %d: %v", h, err)
	}
	return it.Pos
}

func TestOpen_CreatesCollage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Holiday")
	s, err := Open(context.Background(), dir, "", testOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Handle.Collage.Name != "Holiday" {
		t.Fatalf("name = %q", s.Handle.Collage.Name)
	}
	if _, err := os.Stat(filepath.Join(dir, storage.ManifestFileName)); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	if s.Dirty() {
		t.Fatalf("fresh session should be clean")
	}
}

func TestAddSaveReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "c")
	s, err := Open(ctx, dir, "trip", testOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ha, _, err := s.AddImage(ctx, filled(100, color.RGBA{R: 255, A: 255}), "image/png", &layout.Pt{X: 50, Y: 50})
	if err != nil {
		t.Fatalf("add a: %v", err)
	}
	hb, rep, err := s.AddImage(ctx, filled(100, color.RGBA{B: 255, A: 255}), "image/png", &layout.Pt{X: 60, Y: 60})
	if err != nil {
		t.Fatalf("add b: %v", err)
	}
	if !rep.OK() {
		t.Fatalf("report: %+v", rep)
	}
	if got := itemPos(t, s, hb); got != (layout.Pt{X: 60, Y: 150}) {
		t.Fatalf("B at %+v, want (60,150)", got)
	}
	if !s.Dirty() {
		t.Fatalf("expected dirty after add")
	}
	if err := s.Save(ctx, "paste"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Dirty() || s.Handle.Collage.ID == "" {
		t.Fatalf("dirty=%v id=%q", s.Dirty(), s.Handle.Collage.ID)
	}

	r, err := Open(ctx, dir, "", testOptions())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if n := r.Board.Engine().Len(); n != 2 {
		t.Fatalf("items = %d", n)
	}
	if got := itemPos(t, r, ha); got != (layout.Pt{X: 50, Y: 50}) {
		t.Fatalf("A at %+v", got)
	}
	if got := itemPos(t, r, hb); got != (layout.Pt{X: 60, Y: 150}) {
		t.Fatalf("B at %+v", got)
	}
	if r.Board.Image(hb) == nil {
		t.Fatalf("image not reloaded")
	}
	if r.Handle.Collage.Items[1].Source != "image/png" {
		t.Fatalf("source lost: %+v", r.Handle.Collage.Items[1])
	}
	hist, err := storage.ListHistory(ctx, r.Handle, 10)
	if err != nil || len(hist) != 1 || hist[0].Reason != "paste" {
		t.Fatalf("history = %+v, %v", hist, err)
	}
}

func TestAddImage_DeduplicatesAssets(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "c"), "dup", testOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	img := filled(20, color.RGBA{G: 200, A: 255})
	if _, _, err := s.AddImage(ctx, img, "image/png", nil); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.AddImage(ctx, img, "image/png", nil); err != nil {
		t.Fatal(err)
	}
	items := s.Handle.Collage.Items
	if len(items) != 2 || items[0].Asset != items[1].Asset {
		t.Fatalf("items = %+v", items)
	}
	entries, err := os.ReadDir(filepath.Join(s.Handle.Root, "assets"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("asset files = %d, want 1", len(entries))
	}
}

func TestAddFile(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "in.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, filled(30, color.White)); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	s, err := Open(ctx, filepath.Join(tmp, "c"), "files", testOptions())
	if err != nil {
		t.Fatal(err)
	}
	h, _, err := s.AddFile(ctx, path, nil)
	if err != nil {
		t.Fatalf("add file: %v", err)
	}
	it, _ := s.Board.Engine().Item(h)
	if it.Size != (layout.Size{W: 30, H: 30}) {
		t.Fatalf("size = %+v", it.Size)
	}
	if _, _, err := s.AddFile(ctx, filepath.Join(tmp, "missing.png"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRevert(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "c"), "rev", testOptions())
	if err != nil {
		t.Fatal(err)
	}
	_, _, _ = s.AddImage(ctx, filled(100, color.Black), "image/png", &layout.Pt{X: 50, Y: 50})
	if err := s.Save(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	hist, err := storage.ListHistory(ctx, s.Handle, 1)
	if err != nil || len(hist) != 1 {
		t.Fatalf("history: %+v %v", hist, err)
	}
	first := hist[0].ID
	id := s.Handle.Collage.ID

	_, _, _ = s.AddImage(ctx, filled(100, color.White), "image/png", &layout.Pt{X: 400, Y: 400})
	if err := s.Save(ctx, "second"); err != nil {
		t.Fatal(err)
	}
	if err := s.Revert(ctx, first); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if n := s.Board.Engine().Len(); n != 1 {
		t.Fatalf("items after revert = %d", n)
	}
	if s.Handle.Collage.ID != id || !s.Dirty() {
		t.Fatalf("id=%q dirty=%v", s.Handle.Collage.ID, s.Dirty())
	}
	if s.Board.Image(0) == nil {
		t.Fatalf("image not reloaded after revert")
	}
}

func TestSetBoundary(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "c"), "b", testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.SetBoundary(false)
	if s.Board.Engine().Options().Boundary {
		t.Fatalf("boundary still on")
	}
	s.Sync()
	if s.Handle.Collage.Settings.Boundary {
		t.Fatalf("setting not synced")
	}
}

func TestUndoSaveRedoSave_KeepsSharedAsset(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "c")
	s, err := Open(ctx, dir, "dup", testOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	img := filled(40, color.RGBA{R: 90, G: 10, A: 255})
	if _, _, err := s.AddImage(ctx, img, "image/png", nil); err != nil {
		t.Fatal(err)
	}
	hb, _, err := s.AddImage(ctx, img, "image/png", nil)
	if err != nil {
		t.Fatal(err)
	}
	want := s.Handle.Collage.Items[1]

	if !s.Board.Undo() {
		t.Fatalf("undo failed")
	}
	if err := s.Save(ctx, "undo"); err != nil {
		t.Fatalf("save after undo: %v", err)
	}
	if n := len(s.Handle.Collage.Items); n != 1 {
		t.Fatalf("items after undo = %d", n)
	}
	if !s.Board.Redo() {
		t.Fatalf("redo failed")
	}
	if err := s.Save(ctx, "redo"); err != nil {
		t.Fatalf("save after redo: %v", err)
	}
	items := s.Handle.Collage.Items
	if len(items) != 2 {
		t.Fatalf("items after redo = %+v", items)
	}
	if items[1].ID != want.ID || items[1].Asset != want.Asset || items[1].Source != "image/png" {
		t.Fatalf("item 1 = %+v, want asset %s", items[1], want.Asset)
	}

	r, err := Open(ctx, dir, "", testOptions())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if r.Board.Image(hb) == nil {
		t.Fatalf("redone item lost its image after reopen")
	}
	if _, err := os.Stat(r.Handle.Abs(r.Handle.Collage.Items[1].Asset)); err != nil {
		t.Fatalf("asset: %v", err)
	}
}
