/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

// Edge snapping for interactive drags. Snapping runs independently per axis
// and only ever aligns or abuts edges; it never resolves overlap.

import "math"

// Guide is a line to draw while a snap is active. Vertical guides sit at X=Pos
// and span From..To on Y; horizontal guides the other way round.
type Guide struct {
	Vertical bool
	Pos      float64
	From, To float64
}

// Snap returns the offset that aligns or abuts the moving box with the closest
// anchor edge within threshold, plus the guides for the chosen edges.
// A zero threshold disables snapping.
func Snap(moving Rect, anchors []Rect, threshold float64) (Pt, []Guide) {
	if threshold <= 0 || len(anchors) == 0 {
		return Pt{}, nil
	}
	bestX, bestY := math.Inf(1), math.Inf(1)
	var dx, dy float64
	var gx, gy Guide
	for _, a := range anchors {
		for _, p := range [][2]float64{
			{moving.MinX, a.MinX}, {moving.MaxX, a.MaxX},
			{moving.MinX, a.MaxX}, {moving.MaxX, a.MinX},
		} {
			d := p[1] - p[0]
			if ad := math.Abs(d); ad <= threshold && ad < bestX {
				bestX, dx = ad, d
				gx = Guide{Vertical: true, Pos: p[1], From: math.Min(moving.MinY, a.MinY), To: math.Max(moving.MaxY, a.MaxY)}
			}
		}
		for _, p := range [][2]float64{
			{moving.MinY, a.MinY}, {moving.MaxY, a.MaxY},
			{moving.MinY, a.MaxY}, {moving.MaxY, a.MinY},
		} {
			d := p[1] - p[0]
			if ad := math.Abs(d); ad <= threshold && ad < bestY {
				bestY, dy = ad, d
				gy = Guide{Pos: p[1], From: math.Min(moving.MinX, a.MinX), To: math.Max(moving.MaxX, a.MaxX)}
			}
		}
	}
	var guides []Guide
	if !math.IsInf(bestX, 1) {
		guides = append(guides, gx)
	}
	if !math.IsInf(bestY, 1) {
		guides = append(guides, gy)
	}
	return Pt{dx, dy}, guides
}
