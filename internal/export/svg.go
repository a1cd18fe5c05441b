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
	"bytes"
	"fmt"
	"image/color"
	"os"
)

// svgCharW approximates the advance of the sans-serif text for wrapping.
const svgCharW = fontSizePt * 0.55

// CanvasSVG writes the layout as a standalone SVG document. The viewBox is in
// canvas units.
func CanvasSVG(l Layout, outPath string) error {
	if err := ensureDir(outPath); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, RenderSVG(l), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// RenderSVG returns the SVG markup for the layout.
func RenderSVG(l Layout) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.2f %.2f">`+"\n", l.W, l.H, l.W, l.H)
	if l.Title != "" {
		fmt.Fprintf(&b, "  <title>%s</title>\n", escText(l.Title))
	}
	b.WriteString(`  <rect x="0" y="0" width="100%" height="100%" fill="#ffffff"/>` + "\n")
	measure := func(s string) float64 { return float64(len([]rune(s))) * svgCharW }
	for _, n := range l.Notes {
		r := n.Rect
		fmt.Fprintf(&b, `  <g id="%s">`+"\n", escAttr(n.ID))
		fmt.Fprintf(&b, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="#a0a0a0" stroke-width="0.5"/>`+"\n",
			r.X, r.Y, r.W, r.H, hex(n.Fill))
		fmt.Fprintf(&b, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			r.X, r.Y, r.W, headerH, hex(shade(n.Fill)))
		y := r.Y + headerH + notePad/2 + fontSizePt
		for _, line := range wrap(n.Text, r.W-2*notePad, measure) {
			if y > r.Y+r.H-notePad/2 {
				break
			}
			fmt.Fprintf(&b, `    <text x="%.2f" y="%.2f" font-family="Helvetica, Arial, sans-serif" font-size="%.0f" fill="#212121">%s</text>`+"\n",
				r.X+notePad, y, fontSizePt, escText(line))
			y += fontSizePt * 1.25
		}
		b.WriteString("  </g>\n")
	}
	b.WriteString("</svg>\n")
	return b.Bytes()
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
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
		case '\n':
			out = append(out, ' ')
		case '\r':
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
