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
	"fmt"
	"image/png"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"gocollage/internal/storage"
)

// PDFOptions controls PDF export. One logical unit maps to one point.
type PDFOptions struct {
	Markers bool
	Title   string
}

// WritePDF renders pieces onto a single page sized to their bounds.
func WritePDF(pieces []Piece, outPath string, opt PDFOptions) error {
	bb, err := Bounds(pieces)
	if err != nil {
		return err
	}
	size := gofpdf.SizeType{Wd: max(bb.W(), 1), Ht: max(bb.H(), 1)}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: size})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetCreator("gocollage", false)
	pdf.AddPageFormat("", size)

	imgOpt := gofpdf.ImageOptions{ImageType: "PNG"}
	var buf bytes.Buffer
	for _, p := range pieces {
		if p.Image == nil {
			continue
		}
		buf.Reset()
		if err := png.Encode(&buf, p.Image); err != nil {
			return fmt.Errorf("encode item %d: %w", p.Index, err)
		}
		name := "item-" + strconv.Itoa(p.Index)
		pdf.RegisterImageOptionsReader(name, imgOpt, bytes.NewReader(buf.Bytes()))
		pdf.ImageOptions(name, p.Box.MinX-bb.MinX, p.Box.MinY-bb.MinY, p.Box.W(), p.Box.H(), false, imgOpt, 0, "")
	}
	if opt.Markers {
		fs := MarkerRadius * 0.7
		pdf.SetFont("Helvetica", "B", fs)
		pdf.SetLineWidth(2)
		for _, p := range pieces {
			c := p.Box.Center()
			cx, cy := c.X-bb.MinX, c.Y-bb.MinY
			pdf.SetFillColor(204, 204, 204)
			pdf.SetDrawColor(136, 136, 136)
			pdf.Circle(cx, cy, MarkerRadius, "FD")
			label := strconv.Itoa(p.Index)
			pdf.SetTextColor(0, 0, 0)
			pdf.Text(cx-pdf.GetStringWidth(label)/2, cy+fs*0.35, label)
		}
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF writes a stored collage as PDF and returns the file path.
func ExportPDF(ph *storage.CollageHandle, outPath string, opt PDFOptions) (string, error) {
	pieces, err := Pieces(ph)
	if err != nil {
		return "", err
	}
	outPath, err = resolveOut(ph, outPath, ".pdf")
	if err != nil {
		return "", err
	}
	if opt.Title == "" {
		opt.Title = ph.Collage.Name
	}
	if err := WritePDF(pieces, outPath, opt); err != nil {
		return "", err
	}
	return outPath, nil
}
