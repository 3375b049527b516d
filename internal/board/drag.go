/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import "gocollage/internal/layout"

// BeginDrag picks the top-most item under the display point. It returns false
// when the point hits the background.
func (b *Board) BeginDrag(display layout.Pt) bool {
	p := b.ToLogical(display)
	h, ok := b.eng.HitTest(p)
	if !ok {
		b.drag = nil
		return false
	}
	it, _ := b.eng.Item(h)
	b.drag = &dragState{
		h:      h,
		grab:   layout.Pt{X: p.X - it.Pos.X, Y: p.Y - it.Pos.Y},
		before: b.eng.Snapshot(),
	}
	return true
}

// Dragging reports the item being dragged.
func (b *Board) Dragging() (layout.Handle, bool) {
	if b.drag == nil {
		return -1, false
	}
	return b.drag.h, true
}

// DragTo moves the dragged item so the grab point follows the pointer.
// Collisions are tolerated until EndDrag unless ResolveWhileDragging is set.
func (b *Board) DragTo(display layout.Pt) layout.Report {
	if b.drag == nil {
		return layout.Report{}
	}
	p := b.ToLogical(display)
	it, err := b.eng.Item(b.drag.h)
	if err != nil {
		b.drag = nil
		return layout.Report{}
	}
	target := layout.Pt{X: p.X - b.drag.grab.X, Y: p.Y - b.drag.grab.Y}
	b.guides = nil
	if b.opts.SnapThreshold > 0 {
		anchors := make([]layout.Rect, 0, b.eng.Len())
		for _, h := range b.eng.Order() {
			if h == b.drag.h {
				continue
			}
			o, _ := b.eng.Item(h)
			anchors = append(anchors, o.BBox())
		}
		off, guides := layout.Snap(it.BBoxAt(target), anchors, b.opts.SnapThreshold/b.scale)
		target = layout.Pt{X: target.X + off.X, Y: target.Y + off.Y}
		b.guides = guides
	}
	_ = b.eng.SetPosition(b.drag.h, target)
	b.drag.moved = true
	if !b.opts.ResolveWhileDragging {
		return layout.Report{}
	}
	rep, _ := b.eng.ResolveFocus(b.drag.h)
	return rep
}

// Guides returns the snap guides of the last drag move, in logical units.
func (b *Board) Guides() []layout.Guide { return b.guides }

// EndDrag releases the item and resolves it with focus so it yields to the others.
func (b *Board) EndDrag() layout.Report {
	d := b.drag
	b.drag, b.guides = nil, nil
	if d == nil {
		return layout.Report{}
	}
	rep, err := b.eng.ResolveFocus(d.h)
	if err != nil {
		return layout.Report{}
	}
	if d.moved {
		b.hist.Record("drag", d.before)
	}
	return rep
}

// CancelDrag puts the dragged item back where it started.
func (b *Board) CancelDrag() {
	if b.drag == nil {
		return
	}
	_ = b.eng.Restore(b.drag.before)
	b.drag, b.guides = nil, nil
}
