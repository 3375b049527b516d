/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import "testing"

func TestOverlaps_Symmetric(t *testing.T) {
	rects := []Rect{
		R(0, 0, 10, 10),
		R(10, 0, 20, 10),
		R(5, 5, 15, 15),
		R(-5, -5, 0, 0),
		R(2, 2, 3, 3),
		R(0, 10, 10, 20),
		R(4, 4, 4, 8), // zero width
	}
	for i, a := range rects {
		for j, b := range rects {
			if Overlaps(a, b) != Overlaps(b, a) {
				t.Fatalf("overlap not symmetric for %d/%d: %+v %+v", i, j, a, b)
			}
		}
	}
}

func TestOverlaps_TouchingEdgesDoNotOverlap(t *testing.T) {
	a := R(0, 0, 10, 10)
	if Overlaps(a, R(10, 0, 20, 10)) {
		t.Fatalf("shared vertical edge must not overlap")
	}
	if Overlaps(a, R(0, 10, 10, 20)) {
		t.Fatalf("shared horizontal edge must not overlap")
	}
	if Overlaps(a, R(10, 10, 20, 20)) {
		t.Fatalf("shared corner must not overlap")
	}
	if !Overlaps(a, R(9.5, 0, 20, 10)) {
		t.Fatalf("half a unit of shared area must overlap")
	}
}

func TestOverlaps_EmptyNeverOverlaps(t *testing.T) {
	empty := R(4, 4, 4, 8)
	if Overlaps(empty, empty) {
		t.Fatalf("empty rect overlaps itself")
	}
	if Overlaps(R(0, 0, 10, 10), empty) {
		t.Fatalf("empty rect inside another must not overlap")
	}
	inverted := R(8, 8, 2, 2)
	if Overlaps(inverted, R(0, 0, 10, 10)) {
		t.Fatalf("inverted rect must not overlap")
	}
}

func TestBoxAt(t *testing.T) {
	bb := BoxAt(Size{100, 50}, Pt{50, 60})
	if bb != R(0, 35, 100, 85) {
		t.Fatalf("unexpected bbox: %+v", bb)
	}
	odd := BoxAt(Size{3, 5}, Pt{0, 0})
	if odd.W() != 3 || odd.H() != 5 {
		t.Fatalf("odd sizes must keep exact extents: %+v", odd)
	}
	it := Item{Size: Size{10, 10}, Pos: Pt{5, 5}}
	if it.BBox() != R(0, 0, 10, 10) || it.BBoxAt(Pt{20, 5}) != R(15, 0, 25, 10) {
		t.Fatalf("item boxes wrong: %+v %+v", it.BBox(), it.BBoxAt(Pt{20, 5}))
	}
	if it.Pos != (Pt{5, 5}) {
		t.Fatalf("BBoxAt must not move the item")
	}
}

func TestRectHelpers(t *testing.T) {
	r := R(0, 0, 10, 20)
	if !r.Contains(Pt{0, 0}) || r.Contains(Pt{10, 5}) {
		t.Fatalf("contains must be half-open")
	}
	if r.Center() != (Pt{5, 10}) {
		t.Fatalf("center: %+v", r.Center())
	}
	if got := r.Scale(0.5); got != R(0, 0, 5, 10) {
		t.Fatalf("scale: %+v", got)
	}
	if got := r.Translate(1, 2); got != R(1, 2, 11, 22) {
		t.Fatalf("translate: %+v", got)
	}
	if got := r.Union(R(-5, 5, 3, 30)); got != R(-5, 0, 10, 30) {
		t.Fatalf("union: %+v", got)
	}
}
