/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/color"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls PDF export. Units are points; one canvas unit is one point.
type PDFOptions struct {
	// Author is written into the document metadata.
	Author string
	// NoHeaders skips the darker header strip on each note.
	NoHeaders bool
}

// CanvasPDF writes the layout as a single-page PDF at outPath.
// Text uses the built-in Helvetica, so characters outside cp1252 are dropped.
func CanvasPDF(l Layout, outPath string, opt PDFOptions) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: l.W, Ht: l.H},
	})
	pdf.SetTitle(l.Title, true)
	author := opt.Author
	if author == "" {
		author = "Sticky Board"
	}
	pdf.SetAuthor(author, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", fontSizePt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	lineH := fontSizePt * 1.25
	for _, n := range l.Notes {
		r := n.Rect
		setFillColor(pdf, n.Fill)
		pdf.SetDrawColor(160, 160, 160)
		pdf.SetLineWidth(0.5)
		pdf.Rect(r.X, r.Y, r.W, r.H, "FD")
		top := r.Y + notePad
		if !opt.NoHeaders {
			setFillColor(pdf, shade(n.Fill))
			pdf.Rect(r.X, r.Y, r.W, headerH, "F")
			top = r.Y + headerH + notePad/2
		}

		pdf.SetTextColor(33, 33, 33)
		y := top + fontSizePt
		for _, line := range wrap(tr(n.Text), r.W-2*notePad, pdf.GetStringWidth) {
			if y > r.Y+r.H-notePad/2 {
				break
			}
			pdf.Text(r.X+notePad, y, line)
			y += lineH
		}
	}

	if err := ensureDir(outPath); err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
