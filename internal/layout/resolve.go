/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"fmt"
	"log/slog"
	"math"
)

// Direction is one of the four axis-aligned pushes tried by Nudge.
type Direction int

// Enumeration order matters: on equal distance the later direction wins.
const (
	Right Direction = iota
	Left
	Down
	Up
)

func (d Direction) String() string {
	switch d {
	case Right:
		return "right"
	case Left:
		return "left"
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return "none"
	}
}

// Candidate is one push evaluated by Nudge.
type Candidate struct {
	Dir  Direction
	Step float64
	Pos  Pt
}

// Candidates computes the four pushes that bring the moving box edge-to-edge
// with the blocker, in enumeration order. Steps may be zero or negative.
func Candidates(size Size, intended Pt, blocker Rect) [4]Candidate {
	mv := BoxAt(size, intended)
	right := blocker.MaxX - mv.MinX
	left := mv.MaxX - blocker.MinX
	down := blocker.MaxY - mv.MinY
	up := mv.MaxY - blocker.MinY
	return [4]Candidate{
		{Dir: Right, Step: right, Pos: Pt{intended.X + right, intended.Y}},
		{Dir: Left, Step: left, Pos: Pt{intended.X - left, intended.Y}},
		{Dir: Down, Step: down, Pos: Pt{intended.X, intended.Y + down}},
		{Dir: Up, Step: up, Pos: Pt{intended.X, intended.Y - up}},
	}
}

// Nudge moves a box of the given size off one blocker along a single axis,
// choosing the surviving push with the smallest Manhattan distance. ok is
// false when every push is rejected; the intended position is then returned.
// A box that does not overlap the blocker is returned unchanged with ok=true.
func Nudge(size Size, intended Pt, blocker Rect, boundary bool) (Pt, bool) {
	pos, _, ok := nudge(size, intended, blocker, boundary)
	return pos, ok
}

func nudge(size Size, intended Pt, blocker Rect, boundary bool) (Pt, Direction, bool) {
	if !Overlaps(BoxAt(size, intended), blocker) {
		return intended, -1, true
	}
	best, dir := intended, Direction(-1)
	bestDist := math.Inf(1)
	for _, c := range Candidates(size, intended, blocker) {
		if !(c.Step > 0) {
			continue
		}
		if boundary && !InFirstQuadrant(BoxAt(size, c.Pos)) {
			continue
		}
		if d := manhattan(intended, c.Pos); d <= bestDist {
			best, dir, bestDist = c.Pos, c.Dir, d
		}
	}
	return best, dir, dir >= 0
}

// Clamp shifts pos by the negative excess so the box sits in the first quadrant.
// Boxes already inside are returned unchanged.
func Clamp(size Size, pos Pt) Pt {
	bb := BoxAt(size, pos)
	return Pt{X: pos.X - math.Min(0, bb.MinX), Y: pos.Y - math.Min(0, bb.MinY)}
}

// Unresolved describes an item left overlapping an earlier one after a pass.
type Unresolved struct {
	Handle   Handle
	ID       string
	Index    int // position in the pass order
	Blocker  Handle
	Attempts int
	// CapReached is true when MaxAttempts ran out; false means no push survived.
	CapReached bool
}

// Report summarises one or more resolution passes.
type Report struct {
	Passes     int
	Moved      []Handle
	Attempts   int
	Unresolved []Unresolved
}

// OK reports whether every item ended clear of the items before it.
func (r Report) OK() bool { return len(r.Unresolved) == 0 }

// Merge folds o into r.
func (r *Report) Merge(o Report) {
	r.Passes += o.Passes
	r.Attempts += o.Attempts
	r.Moved = append(r.Moved, o.Moved...)
	r.Unresolved = append(r.Unresolved, o.Unresolved...)
}

// Resolve runs one pass over the current order.
func (e *Engine) Resolve() Report { return e.pass(e.order) }

// ResolveFocus runs one pass with h moved to the end of a temporary view of
// the order, so only h yields to the others. The stored order is untouched.
func (e *Engine) ResolveFocus(h Handle) (Report, error) {
	if !e.valid(h) {
		return Report{}, fmt.Errorf("resolve focus %d: %w", h, ErrUnknownHandle)
	}
	view := make([]Handle, 0, len(e.order))
	for _, o := range e.order {
		if o != h {
			view = append(view, o)
		}
	}
	view = append(view, h)
	return e.pass(view), nil
}

func (e *Engine) firstOverlap(anchors []Handle, box Rect) Handle {
	for _, a := range anchors {
		if Overlaps(e.items[a].BBox(), box) {
			return a
		}
	}
	return -1
}

// pass walks view front to back. Each item is clamped (boundary mode) and then
// nudged off the first overlapping earlier item until clear, stuck or capped.
func (e *Engine) pass(view []Handle) Report {
	rep := Report{Passes: 1}
	for i, h := range view {
		it := &e.items[h]
		start := it.Pos
		if e.opts.Boundary {
			it.Pos = Clamp(it.Size, it.Pos)
		}
		attempts := 0
		blocker := Handle(-1)
		capped := false
		for i > 0 {
			blocker = e.firstOverlap(view[:i], it.BBox())
			if blocker < 0 {
				break
			}
			if attempts >= e.opts.MaxAttempts {
				capped = true
				break
			}
			next, dir, ok := nudge(it.Size, it.Pos, e.items[blocker].BBox(), e.opts.Boundary)
			if !ok || next == it.Pos {
				break
			}
			e.log.Debug("nudge", slog.String("id", it.ID), slog.String("dir", dir.String()), slog.Int("blocker", int(blocker)))
			it.Pos = next
			attempts++
		}
		rep.Attempts += attempts
		if it.Pos != start {
			rep.Moved = append(rep.Moved, h)
		}
		if blocker >= 0 {
			u := Unresolved{Handle: h, ID: it.ID, Index: i, Blocker: blocker, Attempts: attempts, CapReached: capped}
			rep.Unresolved = append(rep.Unresolved, u)
			e.log.Warn("unresolved collision",
				slog.Int("index", i),
				slog.String("id", it.ID),
				slog.Int("blocker", int(blocker)),
				slog.Int("attempts", attempts),
				slog.Bool("cap_reached", capped))
		}
	}
	return rep
}
