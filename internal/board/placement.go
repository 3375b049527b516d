/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"image"

	"gocollage/internal/layout"
)

// Placement is what a renderer needs to draw one item.
type Placement struct {
	Handle  layout.Handle
	Index   int // position in resolution order, shown as the marker label
	ID      string
	Logical layout.Rect
	Display layout.Rect
	Image   image.Image
}

// Placements lists every item in resolution order. Later entries draw on top.
func (b *Board) Placements() []Placement {
	order := b.eng.Order()
	out := make([]Placement, 0, len(order))
	for i, h := range order {
		it, err := b.eng.Item(h)
		if err != nil {
			continue
		}
		bb := it.BBox()
		out = append(out, Placement{
			Handle:  h,
			Index:   i,
			ID:      it.ID,
			Logical: bb,
			Display: b.DisplayRect(bb),
			Image:   b.images[h],
		})
	}
	return out
}
