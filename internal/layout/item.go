/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

// Item is a placed image: a fixed size and a mutable logical centre.
type Item struct {
	ID   string
	Size Size
	Pos  Pt
}

// BBox is the item's box at its current position.
func (it Item) BBox() Rect { return BoxAt(it.Size, it.Pos) }

// BBoxAt evaluates the box at a hypothetical position without moving the item.
func (it Item) BBoxAt(p Pt) Rect { return BoxAt(it.Size, p) }
