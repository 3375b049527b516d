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
	"math"
	"path/filepath"
	"strings"

	"gocollage/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// webMaxSide caps the longest raster side of the web preset.
const webMaxSide = 4096

// BatchOptions controls batch export across formats.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created under <collage>/exports/<preset>/.
//   - Each format gets its own subfolder: png/, pdf/, svg/, zip/.
//
// Scale applies to the PNG composite; zero means the preset default.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: png, pdf, svg, zip; empty means preset defaults
	Scale   float64
	Markers bool
	OutDir  string
}

// BatchExport runs exports according to the given preset and returns the written files.
func BatchExport(ph *storage.CollageHandle, opt BatchOptions) ([]string, error) {
	if ph == nil {
		return nil, fmt.Errorf("collage handle is nil")
	}
	if len(ph.Collage.Items) == 0 {
		return nil, ErrEmpty
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = PresetFormats(opt.Preset)
	}
	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
		if baseOut == "" {
			baseOut = "batch"
		}
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(ph.Root, storage.ExportsDirName, baseOut)
	}
	name := slug(ph)

	var pieces []Piece
	load := func() ([]Piece, error) {
		if pieces != nil {
			return pieces, nil
		}
		var err error
		pieces, err = Pieces(ph)
		return pieces, err
	}

	var written []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		out := filepath.Join(baseOut, f, name+"."+f)
		var err error
		switch f {
		case "png":
			var ps []Piece
			if ps, err = load(); err != nil {
				break
			}
			scale := opt.Scale
			if scale <= 0 {
				scale = presetScale(opt.Preset, ps)
			}
			out, err = ExportPNG(ph, out, PNGOptions{Scale: scale, Markers: opt.Markers})
		case "pdf":
			out, err = ExportPDF(ph, out, PDFOptions{Markers: opt.Markers})
		case "svg":
			out, err = ExportSVG(ph, out, SVGOptions{Markers: opt.Markers})
		case "zip":
			out, err = ExportBundle(ph, out)
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
		if err != nil {
			return written, fmt.Errorf("%s: %w", f, err)
		}
		written = append(written, out)
	}
	return written, nil
}

// PresetFormats lists the default formats of a preset.
func PresetFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"png"}
	}
}

func presetScale(p PresetName, pieces []Piece) float64 {
	if p != PresetWeb {
		return 1
	}
	bb, err := Bounds(pieces)
	if err != nil {
		return 1
	}
	side := math.Max(bb.W(), bb.H())
	if side <= webMaxSide {
		return 1
	}
	return webMaxSide / side
}
