//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"gocollage/internal/board"
	"gocollage/internal/export"
	"gocollage/internal/layout"
)

// wheelNotch is the scroll distance of one mouse wheel notch.
const wheelNotch = 10

var (
	backgroundColor  = color.RGBA{R: 30, G: 30, B: 34, A: 255}
	placeholderColor = color.RGBA{R: 90, G: 90, B: 96, A: 255}
	markerFill       = color.RGBA{R: 204, G: 204, B: 204, A: 255}
	markerStroke     = color.RGBA{R: 136, G: 136, B: 136, A: 255}
	guideColor       = color.RGBA{R: 0, G: 170, B: 255, A: 255}
)

// CollageCanvas draws a board and turns pointer input into board operations:
// dragging an item moves it, dragging the background pans and the wheel zooms
// around the pointer.
type CollageCanvas struct {
	widget.BaseWidget

	board   *board.Board
	markers bool
	mode    dragMode
	pointer *layout.Pt

	// OnChange is called after an operation ran a resolution pass.
	OnChange func(op string, rep layout.Report)
}

type dragMode int

const (
	dragNone dragMode = iota
	dragPan
	dragMove
)

func NewCollageCanvas() *CollageCanvas {
	c := &CollageCanvas{}
	c.ExtendBaseWidget(c)
	return c
}

// SetBoard replaces the displayed board; nil shows an empty canvas.
func (c *CollageCanvas) SetBoard(b *board.Board) {
	c.board = b
	c.mode = dragNone
	c.syncViewport(c.Size())
	c.Refresh()
}

func (c *CollageCanvas) Board() *board.Board { return c.board }

// SetMarkers toggles the order markers.
func (c *CollageCanvas) SetMarkers(on bool) {
	c.markers = on
	c.Refresh()
}

// Pointer is the last hover position in display coordinates, nil when outside.
func (c *CollageCanvas) Pointer() *layout.Pt {
	if c.pointer == nil {
		return nil
	}
	p := *c.pointer
	return &p
}

// PreferredSize sets a decent default size for the widget.
func (c *CollageCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

func (c *CollageCanvas) Resize(size fyne.Size) {
	c.syncViewport(size)
	c.BaseWidget.Resize(size)
}

func (c *CollageCanvas) syncViewport(size fyne.Size) {
	if c.board != nil {
		c.board.SetViewport(float64(size.Width), float64(size.Height))
	}
}

func (c *CollageCanvas) Dragged(e *fyne.DragEvent) {
	c.drag(e.Position, e.Dragged)
	c.Refresh()
}

func (c *CollageCanvas) drag(pos fyne.Position, d fyne.Delta) {
	if c.board == nil {
		return
	}
	if c.mode == dragNone {
		start := layout.Pt{X: float64(pos.X - d.DX), Y: float64(pos.Y - d.DY)}
		if c.board.BeginDrag(start) {
			c.mode = dragMove
		} else {
			c.mode = dragPan
		}
	}
	switch c.mode {
	case dragMove:
		c.board.DragTo(toPt(pos))
	case dragPan:
		c.board.PanBy(float64(d.DX), float64(d.DY))
	}
}

func (c *CollageCanvas) DragEnd() {
	c.endDrag()
	c.Refresh()
}

func (c *CollageCanvas) endDrag() {
	if c.mode == dragMove && c.board != nil {
		c.notify("drag", c.board.EndDrag())
	}
	c.mode = dragNone
}

// CancelDrag puts a dragged item back where the drag started.
func (c *CollageCanvas) CancelDrag() {
	if c.mode == dragMove && c.board != nil {
		c.board.CancelDrag()
	}
	c.mode = dragNone
	c.Refresh()
}

func (c *CollageCanvas) Scrolled(e *fyne.ScrollEvent) {
	c.zoom(e.Position, e.Scrolled.DY)
	c.Refresh()
}

func (c *CollageCanvas) zoom(pos fyne.Position, dy float32) {
	if c.board == nil || dy == 0 {
		return
	}
	c.notify("zoom", c.board.ZoomAt(float64(dy)/wheelNotch, toPt(pos)))
}

func (c *CollageCanvas) MouseIn(e *desktop.MouseEvent) { c.MouseMoved(e) }

func (c *CollageCanvas) MouseMoved(e *desktop.MouseEvent) {
	p := toPt(e.Position)
	c.pointer = &p
}

func (c *CollageCanvas) MouseOut() { c.pointer = nil }

func (c *CollageCanvas) notify(op string, rep layout.Report) {
	if c.OnChange != nil {
		c.OnChange(op, rep)
	}
}

func toPt(p fyne.Position) layout.Pt { return layout.Pt{X: float64(p.X), Y: float64(p.Y)} }

// CreateRenderer builds the canvas objects; they are positioned manually in Layout.
func (c *CollageCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(backgroundColor)
	return &collageRenderer{
		cc:      c,
		bg:      bg,
		images:  map[string]*canvas.Image{},
		frames:  map[string]*canvas.Rectangle{},
		discs:   map[string]*canvas.Circle{},
		labels:  map[string]*canvas.Text{},
		objects: []fyne.CanvasObject{bg},
	}
}

// collageRenderer keeps one image per item ID so rasters are not re-uploaded on every frame.
type collageRenderer struct {
	cc      *CollageCanvas
	bg      *canvas.Rectangle
	images  map[string]*canvas.Image
	frames  map[string]*canvas.Rectangle
	discs   map[string]*canvas.Circle
	labels  map[string]*canvas.Text
	objects []fyne.CanvasObject
}

func (r *collageRenderer) Destroy()                     {}
func (r *collageRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *collageRenderer) MinSize() fyne.Size           { return fyne.NewSize(200, 150) }
func (r *collageRenderer) Refresh()                     { r.Layout(r.cc.Size()); canvas.Refresh(r.cc) }

func (r *collageRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	objs := []fyne.CanvasObject{r.bg}
	b := r.cc.board
	if b == nil {
		r.objects = objs
		return
	}

	placements := b.Placements()
	seen := make(map[string]bool, len(placements))
	for _, p := range placements {
		seen[p.ID] = true
		objs = append(objs, r.itemObject(p))
	}
	if r.cc.markers {
		for _, p := range placements {
			disc, label := r.marker(p, b.Scale())
			objs = append(objs, disc, label)
		}
	}
	for _, g := range b.Guides() {
		objs = append(objs, guideLine(b, g))
	}
	r.forget(seen)
	r.objects = objs
}

func (r *collageRenderer) itemObject(p board.Placement) fyne.CanvasObject {
	d := p.Display
	pos := fyne.NewPos(float32(d.MinX), float32(d.MinY))
	sz := fyne.NewSize(float32(d.W()), float32(d.H()))
	if p.Image == nil {
		f := r.frames[p.ID]
		if f == nil {
			f = canvas.NewRectangle(placeholderColor)
			r.frames[p.ID] = f
		}
		f.Move(pos)
		f.Resize(sz)
		return f
	}
	img := r.images[p.ID]
	if img == nil || img.Image != p.Image {
		img = canvas.NewImageFromImage(p.Image)
		img.FillMode = canvas.ImageFillStretch
		img.ScaleMode = canvas.ImageScaleSmooth
		r.images[p.ID] = img
	}
	img.Move(pos)
	img.Resize(sz)
	return img
}

func (r *collageRenderer) marker(p board.Placement, scale float64) (*canvas.Circle, *canvas.Text) {
	disc := r.discs[p.ID]
	if disc == nil {
		disc = canvas.NewCircle(markerFill)
		disc.StrokeColor = markerStroke
		disc.StrokeWidth = 2
		r.discs[p.ID] = disc
	}
	label := r.labels[p.ID]
	if label == nil {
		label = canvas.NewText("", color.Black)
		label.Alignment = fyne.TextAlignCenter
		label.TextStyle = fyne.TextStyle{Bold: true}
		r.labels[p.ID] = label
	}
	rad := float32(export.MarkerRadius * scale)
	c := p.Display.Center()
	cx, cy := float32(c.X), float32(c.Y)
	disc.Move(fyne.NewPos(cx-rad, cy-rad))
	disc.Resize(fyne.NewSize(2*rad, 2*rad))
	label.Text = strconv.Itoa(p.Index)
	label.TextSize = rad * 0.7
	label.Move(fyne.NewPos(cx-rad, cy-label.TextSize*0.6))
	label.Resize(fyne.NewSize(2*rad, label.TextSize))
	return disc, label
}

func (r *collageRenderer) forget(seen map[string]bool) {
	for id := range r.images {
		if !seen[id] {
			delete(r.images, id)
		}
	}
	for id := range r.frames {
		if !seen[id] {
			delete(r.frames, id)
		}
	}
	for id := range r.discs {
		if !seen[id] {
			delete(r.discs, id)
			delete(r.labels, id)
		}
	}
}

func guideLine(b *board.Board, g layout.Guide) *canvas.Line {
	var a, z layout.Pt
	if g.Vertical {
		a, z = b.ToDisplay(layout.Pt{X: g.Pos, Y: g.From}), b.ToDisplay(layout.Pt{X: g.Pos, Y: g.To})
	} else {
		a, z = b.ToDisplay(layout.Pt{X: g.From, Y: g.Pos}), b.ToDisplay(layout.Pt{X: g.To, Y: g.Pos})
	}
	l := canvas.NewLine(guideColor)
	l.StrokeWidth = 1
	l.Position1 = fyne.NewPos(float32(a.X), float32(a.Y))
	l.Position2 = fyne.NewPos(float32(z.X), float32(z.Y))
	return l
}
