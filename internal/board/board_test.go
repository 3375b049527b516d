/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"errors"
	"image"
	"math"
	"testing"

	"gocollage/internal/domain"
	"gocollage/internal/layout"
)

func unitBoard(t *testing.T) *Board {
	t.Helper()
	opts := DefaultOptions()
	opts.InitialScale = 1
	return New(opts)
}

func square(n int) image.Image { return image.NewRGBA(image.Rect(0, 0, n, n)) }

func pos(t *testing.T, b *Board, h layout.Handle) layout.Pt {
	t.Helper()
	it, err := b.Engine().Item(h)
	if err != nil {
		t.Fatalf("item %d: %v", h, err)
	}
	return it.Pos
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPaste_SecondYieldsDown(t *testing.T) {
	b := unitBoard(t)
	ha, _ := b.Paste(square(100), &layout.Pt{X: 50, Y: 50})
	hb, rep := b.Paste(square(100), &layout.Pt{X: 60, Y: 60})
	if got := pos(t, b, ha); got != (layout.Pt{X: 50, Y: 50}) {
		t.Fatalf("A moved to %+v", got)
	}
	if got := pos(t, b, hb); got != (layout.Pt{X: 60, Y: 150}) {
		t.Fatalf("B at %+v, want (60,150)", got)
	}
	if !rep.OK() || len(rep.Moved) != 1 {
		t.Fatalf("report: %+v", rep)
	}
	if b.Image(hb) == nil {
		t.Fatalf("image not attached")
	}
	if !b.Engine().CollisionFree() {
		t.Fatalf("overlaps remain: %v", b.Engine().Overlapping())
	}
}

func TestPaste_ViewportCentre(t *testing.T) {
	opts := DefaultOptions()
	opts.InitialScale = 0.5
	opts.Layout.Boundary = false
	b := New(opts)
	b.SetViewport(400, 200)
	h, _ := b.Paste(square(10), nil)
	if got := pos(t, b, h); got != (layout.Pt{X: 400, Y: 200}) {
		t.Fatalf("centre paste at %+v", got)
	}
}

func TestMapping_RoundTrip(t *testing.T) {
	b := unitBoard(t)
	b.SetScale(2)
	b.PanBy(-30, 10)
	p := layout.Pt{X: 12.5, Y: -7}
	back := b.ToLogical(b.ToDisplay(p))
	if !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Fatalf("round trip %+v -> %+v", p, back)
	}
	if d := b.ToDisplay(layout.Pt{}); d != (layout.Pt{X: -30, Y: 10}) {
		t.Fatalf("origin displayed at %+v", d)
	}
}

func TestDrag_ResolvesOnRelease(t *testing.T) {
	b := unitBoard(t)
	b.Paste(square(100), &layout.Pt{X: 50, Y: 50})
	hb, _ := b.Paste(square(100), &layout.Pt{X: 300, Y: 50})

	if b.BeginDrag(layout.Pt{X: 500, Y: 500}) {
		t.Fatalf("background should not start a drag")
	}
	if !b.BeginDrag(layout.Pt{X: 320, Y: 60}) {
		t.Fatalf("expected to grab B")
	}
	if h, ok := b.Dragging(); !ok || h != hb {
		t.Fatalf("dragging %d %v", h, ok)
	}
	b.DragTo(layout.Pt{X: 80, Y: 60})
	if got := pos(t, b, hb); got != (layout.Pt{X: 60, Y: 50}) {
		t.Fatalf("grab offset not kept: %+v", got)
	}
	if b.Engine().CollisionFree() {
		t.Fatalf("overlap should be tolerated while dragging")
	}
	rep := b.EndDrag()
	if got := pos(t, b, hb); got != (layout.Pt{X: 150, Y: 50}) {
		t.Fatalf("released at %+v, want (150,50)", got)
	}
	if !rep.OK() {
		t.Fatalf("unresolved: %+v", rep.Unresolved)
	}
	if _, ok := b.Dragging(); ok {
		t.Fatalf("drag not cleared")
	}

	if !b.Undo() {
		t.Fatalf("undo failed")
	}
	if got := pos(t, b, hb); got != (layout.Pt{X: 300, Y: 50}) {
		t.Fatalf("undo left B at %+v", got)
	}
	if !b.Redo() {
		t.Fatalf("redo failed")
	}
	if got := pos(t, b, hb); got != (layout.Pt{X: 150, Y: 50}) {
		t.Fatalf("redo left B at %+v", got)
	}
}

func TestDrag_ResolveWhileDragging(t *testing.T) {
	opts := DefaultOptions()
	opts.InitialScale = 1
	opts.ResolveWhileDragging = true
	b := New(opts)
	b.Paste(square(100), &layout.Pt{X: 50, Y: 50})
	hb, _ := b.Paste(square(100), &layout.Pt{X: 300, Y: 50})
	b.BeginDrag(layout.Pt{X: 300, Y: 50})
	b.DragTo(layout.Pt{X: 60, Y: 50})
	if got := pos(t, b, hb); got != (layout.Pt{X: 150, Y: 50}) {
		t.Fatalf("live resolve put B at %+v", got)
	}
}

func TestDrag_Snap(t *testing.T) {
	opts := DefaultOptions()
	opts.InitialScale = 1
	opts.SnapThreshold = 5
	b := New(opts)
	b.Paste(square(100), &layout.Pt{X: 50, Y: 50})
	hb, _ := b.Paste(square(100), &layout.Pt{X: 400, Y: 50})
	b.BeginDrag(layout.Pt{X: 400, Y: 50})
	b.DragTo(layout.Pt{X: 153, Y: 53})
	if got := pos(t, b, hb); got != (layout.Pt{X: 150, Y: 50}) {
		t.Fatalf("snapped to %+v", got)
	}
	if len(b.Guides()) != 2 {
		t.Fatalf("guides: %+v", b.Guides())
	}
	b.EndDrag()
	if len(b.Guides()) != 0 {
		t.Fatalf("guides survive release")
	}
	if got := pos(t, b, hb); got != (layout.Pt{X: 150, Y: 50}) {
		t.Fatalf("abutting box moved to %+v", got)
	}
}

func TestDrag_Cancel(t *testing.T) {
	b := unitBoard(t)
	h, _ := b.Paste(square(10), &layout.Pt{X: 20, Y: 20})
	b.BeginDrag(layout.Pt{X: 20, Y: 20})
	b.DragTo(layout.Pt{X: 200, Y: 200})
	b.CancelDrag()
	if got := pos(t, b, h); got != (layout.Pt{X: 20, Y: 20}) {
		t.Fatalf("cancel left item at %+v", got)
	}
}

func TestZoom_AnchorAndClamp(t *testing.T) {
	b := unitBoard(t)
	anchor := layout.Pt{X: 100, Y: 100}
	b.ZoomAt(1, anchor)
	if !near(b.Scale(), 1.1) {
		t.Fatalf("scale %v", b.Scale())
	}
	l := b.ToLogical(anchor)
	if math.Abs(l.X-100) > 1e-9 || math.Abs(l.Y-100) > 1e-9 {
		t.Fatalf("anchor drifted to %+v", l)
	}
	b.Zoom(1000)
	if b.Scale() != DefaultOptions().MaxScale {
		t.Fatalf("scale not clamped: %v", b.Scale())
	}
	b.Zoom(-5000)
	if b.Scale() != DefaultOptions().MinScale {
		t.Fatalf("scale not clamped: %v", b.Scale())
	}
}

func TestZoom_RunsPass(t *testing.T) {
	b := unitBoard(t)
	e := b.Engine()
	e.Add(layout.Item{ID: "a", Size: layout.Size{W: 100, H: 100}, Pos: layout.Pt{X: 50, Y: 50}})
	h := e.Add(layout.Item{ID: "b", Size: layout.Size{W: 100, H: 100}, Pos: layout.Pt{X: 60, Y: 60}})
	rep := b.Zoom(1)
	if len(rep.Moved) != 1 || pos(t, b, h) != (layout.Pt{X: 60, Y: 150}) {
		t.Fatalf("zoom pass: %+v at %+v", rep, pos(t, b, h))
	}
	if !b.CanUndo() {
		t.Fatalf("moving zoom pass should be undoable")
	}
}

func TestUndo_Paste(t *testing.T) {
	b := unitBoard(t)
	b.Paste(square(100), &layout.Pt{X: 50, Y: 50})
	hb, _ := b.Paste(square(100), &layout.Pt{X: 60, Y: 60})
	if !b.Undo() || b.Engine().Len() != 1 {
		t.Fatalf("undo paste: len %d", b.Engine().Len())
	}
	if len(b.Placements()) != 1 {
		t.Fatalf("placements after undo: %d", len(b.Placements()))
	}
	if !b.Redo() || pos(t, b, hb) != (layout.Pt{X: 60, Y: 150}) {
		t.Fatalf("redo paste")
	}
	if b.Image(hb) == nil {
		t.Fatalf("image lost across undo")
	}
	b.Undo()
	b.Undo()
	if b.Undo() {
		t.Fatalf("undo past the start")
	}
}

func TestPlacements(t *testing.T) {
	b := unitBoard(t)
	b.SetScale(0.5)
	b.Paste(square(100), &layout.Pt{X: 25, Y: 25})
	ps := b.Placements()
	if len(ps) != 1 {
		t.Fatalf("placements: %d", len(ps))
	}
	p := ps[0]
	if p.Index != 0 || p.Image == nil || p.ID == "" {
		t.Fatalf("placement: %+v", p)
	}
	if p.Logical != layout.R(0, 0, 100, 100) || p.Display != layout.R(0, 0, 50, 50) {
		t.Fatalf("rects: %+v / %+v", p.Logical, p.Display)
	}
	bb, ok := b.Bounds()
	if !ok || bb != p.Logical {
		t.Fatalf("bounds %+v %v", bb, ok)
	}
}

func TestLoadAndSave(t *testing.T) {
	c := domain.New("t", true, 0.5)
	c.View.PanX = 10
	c.Items = []domain.Item{
		{ID: "a", Asset: "assets/a.png", Width: 100, Height: 100, X: 50, Y: 50},
		{ID: "b", Asset: "assets/b.png", Width: 100, Height: 100, X: 60, Y: 60},
	}
	loaded := 0
	b, err := Load(c, DefaultOptions(), func(it domain.Item) (image.Image, error) {
		if it.ID == "b" {
			return nil, errors.New("missing")
		}
		loaded++
		return square(int(it.Width)), nil
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != 1 || b.Image(0) == nil || b.Image(1) != nil {
		t.Fatalf("images: loaded=%d", loaded)
	}
	if b.Scale() != 0.5 || b.Pan() != (layout.Pt{X: 10}) {
		t.Fatalf("view: %v %+v", b.Scale(), b.Pan())
	}
	b.Resolve()
	b.SaveTo(&c)
	if c.Items[1].X != 60 || c.Items[1].Y != 150 || c.Items[1].Asset != "assets/b.png" {
		t.Fatalf("saved b: %+v", c.Items[1])
	}
	if !c.Settings.Boundary || c.Settings.MaxAttempts != layout.DefaultMaxAttempts {
		t.Fatalf("settings: %+v", c.Settings)
	}
}
