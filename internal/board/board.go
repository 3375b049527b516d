/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package board maps user interaction onto the layout engine: it owns the
// view transform (scale and pan), turns pastes, drags and zooms into engine
// calls and exposes the resolved placements for drawing. Like the engine it
// is driven from one goroutine.
package board

import (
	"image"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"gocollage/internal/layout"
	applog "gocollage/internal/log"
	"gocollage/internal/undo"
)

// Options configures a Board.
type Options struct {
	Layout       layout.Options
	ZoomStep     float64 // scale factor per wheel tick
	InitialScale float64
	MinScale     float64
	MaxScale     float64
	// ResolveWhileDragging runs a focused pass on every drag move instead of only on release.
	ResolveWhileDragging bool
	// SnapThreshold in display pixels; zero disables edge snapping while dragging.
	SnapThreshold float64
	Undo          undo.Config
}

func DefaultOptions() Options {
	return Options{
		Layout:       layout.DefaultOptions(),
		ZoomStep:     1.1,
		InitialScale: 0.25,
		MinScale:     0.01,
		MaxScale:     64,
	}
}

func (o *Options) normalize() {
	d := DefaultOptions()
	if o.ZoomStep <= 1 {
		o.ZoomStep = d.ZoomStep
	}
	if o.MinScale <= 0 {
		o.MinScale = d.MinScale
	}
	if o.MaxScale < o.MinScale {
		o.MaxScale = math.Max(d.MaxScale, o.MinScale)
	}
	if o.InitialScale <= 0 {
		o.InitialScale = d.InitialScale
	}
}

// Board is the interactive state of one collage.
type Board struct {
	opts     Options
	eng      *layout.Engine
	images   map[layout.Handle]image.Image
	scale    float64
	pan      layout.Pt // display offset of the logical origin, display = logical*scale - pan
	viewport layout.Size
	drag     *dragState
	guides   []layout.Guide
	hist     *undo.Manager
	log      *slog.Logger
}

type dragState struct {
	h      layout.Handle
	grab   layout.Pt // pointer minus item centre, logical
	before layout.State
	moved  bool
}

// New creates an empty board.
func New(opts Options) *Board {
	opts.normalize()
	return FromEngine(layout.New(opts.Layout), opts)
}

// FromEngine wraps an already populated engine, e.g. one loaded from a manifest.
func FromEngine(e *layout.Engine, opts Options) *Board {
	opts.normalize()
	return &Board{
		opts:   opts,
		eng:    e,
		images: make(map[layout.Handle]image.Image),
		scale:  clamp(opts.InitialScale, opts.MinScale, opts.MaxScale),
		hist:   undo.NewManager(opts.Undo),
		log:    applog.WithComponent("board"),
	}
}

// Engine exposes the underlying layout engine.
func (b *Board) Engine() *layout.Engine { return b.eng }

func (b *Board) Scale() float64 { return b.scale }

// SetScale sets the zoom without running a pass; used when restoring a saved view.
func (b *Board) SetScale(s float64) { b.scale = clamp(s, b.opts.MinScale, b.opts.MaxScale) }

func (b *Board) Pan() layout.Pt { return b.pan }

func (b *Board) SetPan(p layout.Pt) { b.pan = p }

// PanBy shifts the view by a display-space delta, as when dragging the background.
func (b *Board) PanBy(dx, dy float64) {
	b.pan.X -= dx
	b.pan.Y -= dy
}

// SetViewport records the display size used to find the centre for pastes.
func (b *Board) SetViewport(w, h float64) { b.viewport = layout.Size{W: w, H: h} }

// ToLogical maps a display point to logical units.
func (b *Board) ToLogical(p layout.Pt) layout.Pt {
	return layout.Pt{X: (p.X + b.pan.X) / b.scale, Y: (p.Y + b.pan.Y) / b.scale}
}

// ToDisplay maps a logical point to display units.
func (b *Board) ToDisplay(p layout.Pt) layout.Pt {
	return layout.Pt{X: p.X*b.scale - b.pan.X, Y: p.Y*b.scale - b.pan.Y}
}

// DisplayRect maps a logical rect to display units.
func (b *Board) DisplayRect(r layout.Rect) layout.Rect {
	return r.Scale(b.scale).Translate(-b.pan.X, -b.pan.Y)
}

// Image returns the raster attached to h, if any.
func (b *Board) Image(h layout.Handle) image.Image { return b.images[h] }

// AttachImage binds a raster to an existing item.
func (b *Board) AttachImage(h layout.Handle, img image.Image) { b.images[h] = img }

// Paste places img with its centre at the display point at, or at the
// viewport centre when at is nil, and resolves it with focus.
func (b *Board) Paste(img image.Image, at *layout.Pt) (layout.Handle, layout.Report) {
	bounds := img.Bounds()
	size := layout.Size{W: float64(bounds.Dx()), H: float64(bounds.Dy())}
	h, rep := b.PasteItem(uuid.NewString(), size, at)
	b.images[h] = img
	return h, rep
}

// PasteItem is Paste without a raster, for callers that manage images themselves.
func (b *Board) PasteItem(id string, size layout.Size, at *layout.Pt) (layout.Handle, layout.Report) {
	target := layout.Pt{X: b.viewport.W / 2, Y: b.viewport.H / 2}
	if at != nil {
		target = *at
	}
	b.hist.Record("paste", b.eng.Snapshot())
	h, rep := b.eng.Place(layout.Item{ID: id, Size: size, Pos: b.ToLogical(target)})
	b.log.Debug("paste", slog.String("id", id), slog.Int("moved", len(rep.Moved)), slog.Bool("ok", rep.OK()))
	return h, rep
}

// Zoom multiplies the scale by ZoomStep^ticks around the display origin and runs one pass.
func (b *Board) Zoom(ticks float64) layout.Report {
	return b.ZoomAt(ticks, layout.Pt{})
}

// ZoomAt zooms keeping the logical point under the display anchor fixed.
func (b *Board) ZoomAt(ticks float64, anchor layout.Pt) layout.Report {
	before := b.ToLogical(anchor)
	b.scale = clamp(b.scale*math.Pow(b.opts.ZoomStep, ticks), b.opts.MinScale, b.opts.MaxScale)
	b.pan = layout.Pt{X: before.X*b.scale - anchor.X, Y: before.Y*b.scale - anchor.Y}
	snap := b.eng.Snapshot()
	rep := b.eng.Resolve()
	if len(rep.Moved) > 0 {
		b.hist.Record("zoom", snap)
	}
	return rep
}

// Resolve runs one unfocused pass, e.g. after toggling boundary mode.
func (b *Board) Resolve() layout.Report {
	snap := b.eng.Snapshot()
	rep := b.eng.Resolve()
	if len(rep.Moved) > 0 {
		b.hist.Record("resolve", snap)
	}
	return rep
}

// Bounds is the union of all item boxes in logical units.
func (b *Board) Bounds() (layout.Rect, bool) { return b.eng.Bounds() }

// Undo restores the layout before the last change.
func (b *Board) Undo() bool {
	e, ok := b.hist.Undo(b.eng.Snapshot())
	if !ok {
		return false
	}
	if err := b.eng.Restore(e.State); err != nil {
		b.log.Error("undo restore failed", slog.Any("err", err))
		return false
	}
	return true
}

// Redo reapplies the last undone change.
func (b *Board) Redo() bool {
	e, ok := b.hist.Redo(b.eng.Snapshot())
	if !ok {
		return false
	}
	if err := b.eng.Restore(e.State); err != nil {
		b.log.Error("redo restore failed", slog.Any("err", err))
		return false
	}
	return true
}

func (b *Board) CanUndo() bool { return b.hist.CanUndo() }
func (b *Board) CanRedo() bool { return b.hist.CanRedo() }

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
