/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout keeps a set of axis-aligned image boxes free of overlap.
//
// Items live in an arena addressed by stable handles. Resolution priority is
// a separate permutation of those handles: earlier entries are anchors and
// later entries move out of their way. The engine is not safe for concurrent
// use; callers drive it from a single goroutine (the UI event loop or a CLI
// command).
package layout

import (
	"errors"
	"fmt"
	"log/slog"

	applog "gocollage/internal/log"
)

// DefaultMaxAttempts caps the nudges applied to one item in one pass.
const DefaultMaxAttempts = 50

// ErrUnknownHandle is returned when a handle does not name an item of the engine.
var ErrUnknownHandle = errors.New("layout: unknown item handle")

// Handle addresses an item in the engine arena. It stays valid for the engine's lifetime.
type Handle int

// Options configures an Engine.
type Options struct {
	// MaxAttempts bounds nudges per item per pass. Zero means DefaultMaxAttempts.
	MaxAttempts int
	// Boundary keeps every box inside the first quadrant (MinX >= 0, MinY >= 0).
	Boundary bool
	// Logger receives unresolved-collision warnings. Nil uses the app logger.
	Logger *slog.Logger
}

// DefaultOptions mirrors the desktop defaults: boundary on, 50 attempts.
func DefaultOptions() Options {
	return Options{MaxAttempts: DefaultMaxAttempts, Boundary: true}
}

// Engine owns the items of one collage and their resolution order.
type Engine struct {
	opts  Options
	log   *slog.Logger
	items []Item
	order []Handle
}

// New creates an empty engine.
func New(opts Options) *Engine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("layout")
	}
	return &Engine{opts: opts, log: l}
}

func (e *Engine) Options() Options { return e.opts }

// SetBoundary toggles first-quadrant containment for subsequent passes.
func (e *Engine) SetBoundary(on bool) { e.opts.Boundary = on }

// SetMaxAttempts changes the per-item cap; values <= 0 restore the default.
func (e *Engine) SetMaxAttempts(n int) {
	if n <= 0 {
		n = DefaultMaxAttempts
	}
	e.opts.MaxAttempts = n
}

// Len returns the number of items.
func (e *Engine) Len() int { return len(e.items) }

// Add appends an item to the arena and to the end of the order. No pass runs.
func (e *Engine) Add(it Item) Handle {
	h := Handle(len(e.items))
	e.items = append(e.items, it)
	e.order = append(e.order, h)
	return h
}

// Place adds an item at its intended position and resolves it with focus,
// so it yields to everything already on the board.
func (e *Engine) Place(it Item) (Handle, Report) {
	h := e.Add(it)
	rep, _ := e.ResolveFocus(h)
	return h, rep
}

func (e *Engine) valid(h Handle) bool { return h >= 0 && int(h) < len(e.items) }

// Item returns a copy of the item behind h.
func (e *Engine) Item(h Handle) (Item, error) {
	if !e.valid(h) {
		return Item{}, fmt.Errorf("item %d: %w", h, ErrUnknownHandle)
	}
	return e.items[h], nil
}

// SetPosition moves an item without resolving. Display sync is the caller's job.
func (e *Engine) SetPosition(h Handle, p Pt) error {
	if !e.valid(h) {
		return fmt.Errorf("set position %d: %w", h, ErrUnknownHandle)
	}
	e.items[h].Pos = p
	return nil
}

// Items returns copies of all items in resolution order.
func (e *Engine) Items() []Item {
	out := make([]Item, 0, len(e.order))
	for _, h := range e.order {
		out = append(out, e.items[h])
	}
	return out
}

// Order returns a copy of the resolution order.
func (e *Engine) Order() []Handle { return append([]Handle(nil), e.order...) }

// IndexOf returns the position of h in the resolution order.
func (e *Engine) IndexOf(h Handle) (int, bool) {
	for i, o := range e.order {
		if o == h {
			return i, true
		}
	}
	return -1, false
}

// SetOrder replaces the resolution order. It must be a permutation of all handles.
func (e *Engine) SetOrder(order []Handle) error {
	if len(order) != len(e.items) {
		return fmt.Errorf("set order: got %d handles, want %d", len(order), len(e.items))
	}
	seen := make([]bool, len(e.items))
	for _, h := range order {
		if !e.valid(h) {
			return fmt.Errorf("set order %d: %w", h, ErrUnknownHandle)
		}
		if seen[h] {
			return fmt.Errorf("set order: handle %d listed twice", h)
		}
		seen[h] = true
	}
	e.order = append(e.order[:0], order...)
	return nil
}

// Overlapping lists every pair of items whose boxes overlap, in order-index pairs (i < j).
func (e *Engine) Overlapping() [][2]Handle {
	var out [][2]Handle
	for i := 0; i < len(e.order); i++ {
		bi := e.items[e.order[i]].BBox()
		for j := i + 1; j < len(e.order); j++ {
			if Overlaps(bi, e.items[e.order[j]].BBox()) {
				out = append(out, [2]Handle{e.order[i], e.order[j]})
			}
		}
	}
	return out
}

// CollisionFree reports whether no two boxes overlap.
func (e *Engine) CollisionFree() bool { return len(e.Overlapping()) == 0 }

// Bounds is the union of all boxes. ok is false when the engine is empty.
func (e *Engine) Bounds() (r Rect, ok bool) {
	for i, it := range e.items {
		if i == 0 {
			r = it.BBox()
			continue
		}
		r = r.Union(it.BBox())
	}
	return r, len(e.items) > 0
}

// HitTest returns the top-most item under p. Later order entries draw on top.
func (e *Engine) HitTest(p Pt) (Handle, bool) {
	for i := len(e.order) - 1; i >= 0; i-- {
		h := e.order[i]
		if e.items[h].BBox().Contains(p) {
			return h, true
		}
	}
	return -1, false
}

// State is a value copy of the engine contents used for undo and persistence.
type State struct {
	Items []Item
	Order []Handle
}

// Snapshot captures the current items and order.
func (e *Engine) Snapshot() State {
	return State{Items: append([]Item(nil), e.items...), Order: e.Order()}
}

// Restore replaces the engine contents with s.
func (e *Engine) Restore(s State) error {
	if len(s.Order) != len(s.Items) {
		return fmt.Errorf("restore: %d items but %d order entries", len(s.Items), len(s.Order))
	}
	prevItems, prevOrder := e.items, e.order
	e.items = append([]Item(nil), s.Items...)
	e.order = make([]Handle, len(s.Items))
	if err := e.SetOrder(s.Order); err != nil {
		e.items, e.order = prevItems, prevOrder
		return fmt.Errorf("restore: %w", err)
	}
	return nil
}
