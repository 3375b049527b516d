//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne canvas widget. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"image"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"gocollage/internal/board"
	"gocollage/internal/layout"
)

func unitBoard() *board.Board {
	opts := board.DefaultOptions()
	opts.InitialScale = 1
	return board.New(opts)
}

func square(n int) image.Image { return image.NewRGBA(image.Rect(0, 0, n, n)) }

func TestCollageCanvas_Defaults(t *testing.T) {
	cc := NewCollageCanvas()
	sz := cc.PreferredSize()
	if sz.Width != 800 || sz.Height != 600 {
		t.Fatalf("unexpected PreferredSize: %v", sz)
	}
	r := cc.CreateRenderer()
	r.Layout(fyne.NewSize(400, 300))
	if n := len(r.Objects()); n != 1 {
		t.Fatalf("empty canvas should hold only the background, got %d objects", n)
	}
}

func TestCollageCanvas_LayoutPlacesImages(t *testing.T) {
	b := unitBoard()
	b.Paste(square(100), &layout.Pt{X: 50, Y: 50})
	b.Paste(square(100), &layout.Pt{X: 60, Y: 60})
	cc := NewCollageCanvas()
	cc.board = b
	cc.markers = true
	r, ok := cc.CreateRenderer().(*collageRenderer)
	if !ok {
		t.Fatalf("expected collageRenderer, got %T", cc.CreateRenderer())
	}
	r.Layout(fyne.NewSize(800, 600))

	// background, two images, two discs, two labels
	if n := len(r.objects); n != 7 {
		t.Fatalf("objects = %d, want 7", n)
	}
	second, ok := r.objects[2].(*canvas.Image)
	if !ok {
		t.Fatalf("object 2 is %T", r.objects[2])
	}
	if p := second.Position(); p.X != 10 || p.Y != 100 {
		t.Fatalf("second image at %v, want (10,100)", p)
	}
	if s := second.Size(); s.Width != 100 || s.Height != 100 {
		t.Fatalf("second image size %v", s)
	}
	label, ok := r.objects[6].(*canvas.Text)
	if !ok || label.Text != "1" {
		t.Fatalf("last label = %#v", r.objects[6])
	}

	b.SetScale(0.5)
	r.Layout(fyne.NewSize(800, 600))
	if s := second.Size(); s.Width != 50 {
		t.Fatalf("scaled size %v, want 50", s)
	}
}

func TestCollageCanvas_DragMovesItem(t *testing.T) {
	b := unitBoard()
	b.Paste(square(100), &layout.Pt{X: 50, Y: 50})
	hb, _ := b.Paste(square(100), &layout.Pt{X: 300, Y: 300})
	cc := NewCollageCanvas()
	cc.board = b
	var ops []string
	cc.OnChange = func(op string, _ layout.Report) { ops = append(ops, op) }

	cc.drag(fyne.NewPos(310, 300), fyne.NewDelta(10, 0))
	if cc.mode != dragMove {
		t.Fatalf("mode = %v, want dragMove", cc.mode)
	}
	cc.drag(fyne.NewPos(400, 300), fyne.NewDelta(90, 0))
	cc.endDrag()
	it, _ := b.Engine().Item(hb)
	if it.Pos != (layout.Pt{X: 400, Y: 300}) {
		t.Fatalf("dragged item at %+v", it.Pos)
	}
	if len(ops) != 1 || ops[0] != "drag" || cc.mode != dragNone {
		t.Fatalf("ops = %v mode = %v", ops, cc.mode)
	}
}

func TestCollageCanvas_BackgroundDragPans(t *testing.T) {
	b := unitBoard()
	cc := NewCollageCanvas()
	cc.board = b
	cc.drag(fyne.NewPos(700, 500), fyne.NewDelta(-30, 10))
	if cc.mode != dragPan {
		t.Fatalf("mode = %v, want dragPan", cc.mode)
	}
	if got := b.ToDisplay(layout.Pt{}); got != (layout.Pt{X: -30, Y: 10}) {
		t.Fatalf("origin displayed at %+v", got)
	}
	cc.endDrag()
	if cc.mode != dragNone {
		t.Fatalf("mode not reset")
	}
}

func TestCollageCanvas_WheelZoomsAroundPointer(t *testing.T) {
	b := unitBoard()
	cc := NewCollageCanvas()
	cc.board = b
	anchor := layout.Pt{X: 200, Y: 100}
	before := b.ToLogical(anchor)
	cc.zoom(fyne.NewPos(200, 100), wheelNotch)
	if b.Scale() <= 1 {
		t.Fatalf("scale = %v, want > 1", b.Scale())
	}
	after := b.ToLogical(anchor)
	if d := after.X - before.X; d > 1e-9 || d < -1e-9 {
		t.Fatalf("anchor drifted from %+v to %+v", before, after)
	}
}
