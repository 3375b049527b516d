/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"strconv"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"

	"gocollage/internal/layout"
)

var (
	boldOnce sync.Once
	boldFont *opentype.Font
	boldErr  error
)

func markerFace(size float64) (font.Face, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = opentype.Parse(gobold.TTF)
	})
	if boldErr != nil {
		return nil, fmt.Errorf("parse marker font: %w", boldErr)
	}
	return opentype.NewFace(boldFont, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// drawMarkers paints a grey disc with the order index at every item centre.
func drawMarkers(dst *image.RGBA, pieces []Piece, bb layout.Rect, s float64) error {
	r := MarkerRadius * s
	dc := gg.NewContextForRGBA(dst)
	var face font.Face
	if r*0.7 >= 1 {
		f, err := markerFace(r * 0.7)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		face = f
		dc.SetFontFace(face)
	}
	for _, p := range pieces {
		c := p.Box.Center()
		cx, cy := (c.X-bb.MinX)*s, (c.Y-bb.MinY)*s
		dc.DrawCircle(cx, cy, r)
		dc.SetHexColor("#cccccc")
		dc.FillPreserve()
		dc.SetHexColor("#888888")
		dc.SetLineWidth(2)
		dc.Stroke()
		if face == nil {
			continue
		}
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(strconv.Itoa(p.Index), cx, cy, 0.5, 0.35)
	}
	return nil
}
