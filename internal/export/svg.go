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
	"encoding/base64"
	"fmt"
	"image/png"
	"os"

	"gocollage/internal/storage"
)

// SVGOptions controls SVG export.
type SVGOptions struct {
	Markers bool
}

// BuildSVG returns an SVG document whose viewBox is the bounds of pieces and
// whose images are embedded as base64 PNG data URIs at their logical boxes.
func BuildSVG(pieces []Piece, opt SVGOptions) ([]byte, error) {
	bb, err := Bounds(pieces)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"%g %g %g %g\">\n",
		bb.W(), bb.H(), bb.MinX, bb.MinY, bb.W(), bb.H())
	var img bytes.Buffer
	for _, p := range pieces {
		if p.Image == nil {
			continue
		}
		img.Reset()
		if err := png.Encode(&img, p.Image); err != nil {
			return nil, fmt.Errorf("encode item %d: %w", p.Index, err)
		}
		wf("  <image id=\"%s\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" xlink:href=\"data:image/png;base64,%s\"/>\n",
			escAttr(p.ID), p.Box.MinX, p.Box.MinY, p.Box.W(), p.Box.H(), base64.StdEncoding.EncodeToString(img.Bytes()))
	}
	if opt.Markers {
		for _, p := range pieces {
			c := p.Box.Center()
			wf("  <circle cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"#cccccc\" stroke=\"#888888\" stroke-width=\"2\"/>\n", c.X, c.Y, MarkerRadius)
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-weight=\"bold\" font-size=\"%g\" text-anchor=\"middle\" dominant-baseline=\"central\" fill=\"#000\">%d</text>\n",
				c.X, c.Y, MarkerRadius*0.7, p.Index)
		}
	}
	wf("</svg>\n")
	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

// ExportSVG writes a stored collage as SVG and returns the file path.
func ExportSVG(ph *storage.CollageHandle, outPath string, opt SVGOptions) (string, error) {
	pieces, err := Pieces(ph)
	if err != nil {
		return "", err
	}
	data, err := BuildSVG(pieces, opt)
	if err != nil {
		return "", err
	}
	outPath, err = resolveOut(ph, outPath, ".svg")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write svg: %w", err)
	}
	return outPath, nil
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n', '\r':
			out = append(out, ' ')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
