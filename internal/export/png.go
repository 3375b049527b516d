/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"gocollage/internal/clipboard"
	"gocollage/internal/storage"
)

// PNGOptions controls composite rendering.
// - Scale: output pixels per logical unit, 1 when zero
// - Markers: draw the order index of each item on a grey disc
// - Background: nil keeps the canvas transparent
type PNGOptions struct {
	Scale      float64
	Markers    bool
	Background color.Color
}

func (o PNGOptions) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// Composite draws every piece onto one canvas sized to the total bounding box.
// Each image lands with its top-left at its box minimum minus the bounds minimum.
func Composite(pieces []Piece, opt PNGOptions) (*image.RGBA, error) {
	bb, err := Bounds(pieces)
	if err != nil {
		return nil, err
	}
	s := opt.scale()
	w := int(bb.W() * s)
	h := int(bb.H() * s)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("composite: degenerate bounds %vx%v", bb.W(), bb.H())
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if opt.Background != nil {
		xdraw.Draw(dst, dst.Bounds(), &image.Uniform{C: opt.Background}, image.Point{}, xdraw.Src)
	}
	for _, p := range pieces {
		if p.Image == nil {
			continue
		}
		x0 := int(math.Floor((p.Box.MinX - bb.MinX) * s))
		y0 := int(math.Floor((p.Box.MinY - bb.MinY) * s))
		src := p.Image.Bounds()
		if s == 1 && float64(src.Dx()) == p.Box.W() && float64(src.Dy()) == p.Box.H() {
			xdraw.Draw(dst, image.Rect(x0, y0, x0+src.Dx(), y0+src.Dy()), p.Image, src.Min, xdraw.Over)
			continue
		}
		r := image.Rect(x0, y0, x0+int(math.Round(p.Box.W()*s)), y0+int(math.Round(p.Box.H()*s)))
		xdraw.CatmullRom.Scale(dst, r, p.Image, src, xdraw.Over, nil)
	}
	if opt.Markers {
		if err := drawMarkers(dst, pieces, bb, s); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// EncodePNG renders the composite to PNG bytes.
func EncodePNG(pieces []Piece, opt PNGOptions) ([]byte, error) {
	img, err := Composite(pieces, opt)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportPNG writes the composite of a stored collage and returns the file path.
// Relative paths are placed under the collage exports folder.
func ExportPNG(ph *storage.CollageHandle, outPath string, opt PNGOptions) (string, error) {
	pieces, err := Pieces(ph)
	if err != nil {
		return "", err
	}
	data, err := EncodePNG(pieces, opt)
	if err != nil {
		return "", err
	}
	outPath, err = resolveOut(ph, outPath, ".png")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write png: %w", err)
	}
	return outPath, nil
}

// CopyToClipboard puts the composite on the clipboard as image/png.
func CopyToClipboard(ctx context.Context, dst clipboard.Source, pieces []Piece, opt PNGOptions) error {
	data, err := EncodePNG(pieces, opt)
	if err != nil {
		return err
	}
	return dst.WriteImage(ctx, data)
}
