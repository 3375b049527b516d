/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a collage to PNG, PDF and SVG and packs bundles.
// Everything is drawn in logical units relative to the total bounding box of
// the items, so an export reproduces the resolved layout at any view scale.
package export

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gocollage/internal/board"
	"gocollage/internal/layout"
	"gocollage/internal/storage"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("export: collage has no items")

// MarkerRadius is the order-index marker radius in logical units.
const MarkerRadius = 60.0

// Piece is one item ready to draw.
type Piece struct {
	Index int // resolution order, used as the marker label
	ID    string
	Box   layout.Rect
	Image image.Image // may be nil; the box still counts towards the bounds
}

// Pieces loads every item of a collage with its asset image.
func Pieces(ph *storage.CollageHandle) ([]Piece, error) {
	if ph == nil {
		return nil, fmt.Errorf("collage handle is nil")
	}
	out := make([]Piece, 0, len(ph.Collage.Items))
	for i, it := range ph.Collage.Items {
		img, err := storage.ReadAsset(ph, it)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, Piece{
			Index: i,
			ID:    it.ID,
			Box:   layout.BoxAt(layout.Size{W: it.Width, H: it.Height}, layout.Pt{X: it.X, Y: it.Y}),
			Image: img,
		})
	}
	return out, nil
}

// PiecesFromBoard takes the current placements of a live board.
func PiecesFromBoard(b *board.Board) []Piece {
	ps := b.Placements()
	out := make([]Piece, 0, len(ps))
	for _, p := range ps {
		out = append(out, Piece{Index: p.Index, ID: p.ID, Box: p.Logical, Image: p.Image})
	}
	return out
}

// Bounds is the union of all piece boxes.
func Bounds(pieces []Piece) (layout.Rect, error) {
	if len(pieces) == 0 {
		return layout.Rect{}, ErrEmpty
	}
	bb := pieces[0].Box
	for _, p := range pieces[1:] {
		bb = bb.Union(p.Box)
	}
	return bb, nil
}

// resolveOut places relative paths under the collage exports folder and
// makes sure the parent directory exists.
func resolveOut(ph *storage.CollageHandle, outPath, ext string) (string, error) {
	if outPath == "" {
		outPath = slug(ph) + ext
	}
	if !filepath.IsAbs(outPath) && ph != nil {
		outPath = filepath.Join(ph.Root, storage.ExportsDirName, outPath)
	}
	if !strings.HasSuffix(strings.ToLower(outPath), ext) {
		outPath += ext
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	return outPath, nil
}

// slug turns the collage name into a file name.
func slug(ph *storage.CollageHandle) string {
	if ph == nil {
		return "collage"
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(ph.Collage.Name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "collage"
	}
	return s
}
