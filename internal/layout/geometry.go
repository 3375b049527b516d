/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

// Axis-aligned geometry in logical (unscaled) units.
// Display coordinates are derived by the caller as logical * scale.

import "math"

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

// Size is a width/height pair.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle stored by its min and max corners.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func R(minX, minY, maxX, maxY float64) Rect {
	return Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

func (r Rect) W() float64 { return r.MaxX - r.MinX }
func (r Rect) H() float64 { return r.MaxY - r.MinY }

func (r Rect) Center() Pt { return Pt{(r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2} }

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.MaxX <= r.MinX || r.MaxY <= r.MinY }

// Contains uses the same half-open convention as Overlaps: the max edges are outside.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.MinX && p.Y >= r.MinY && p.X < r.MaxX && p.Y < r.MaxY
}

// Translate returns the rect moved by dx,dy.
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{MinX: r.MinX + dx, MinY: r.MinY + dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

// Scale multiplies every coordinate by s (logical -> display).
func (r Rect) Scale(s float64) Rect {
	return Rect{MinX: r.MinX * s, MinY: r.MinY * s, MaxX: r.MaxX * s, MaxY: r.MaxY * s}
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Overlaps reports whether two rects share interior area. Touching edges do
// not overlap, and an empty rect never overlaps anything, itself included.
func Overlaps(a, b Rect) bool {
	if a.Empty() || b.Empty() {
		return false
	}
	return !(a.MaxX <= b.MinX || a.MinX >= b.MaxX || a.MaxY <= b.MinY || a.MinY >= b.MaxY)
}

// BoxAt is the bounding box of an item of the given size centred at c.
func BoxAt(size Size, c Pt) Rect {
	hw, hh := size.W/2, size.H/2
	return Rect{MinX: c.X - hw, MinY: c.Y - hh, MaxX: c.X + hw, MaxY: c.Y + hh}
}

// InFirstQuadrant is the boundary predicate: both minima are non-negative.
func InFirstQuadrant(r Rect) bool { return r.MinX >= 0 && r.MinY >= 0 }

func manhattan(a, b Pt) float64 { return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y) }
