/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders a canvas snapshot to PDF, PNG or SVG. Notes are drawn in
// stacking order on a page sized to their bounding box.
package export

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"stickyboard/internal/domain"
	"stickyboard/internal/vector"
)

// DefaultMargin surrounds the notes on the exported page, in canvas units.
const DefaultMargin = 24.0

const (
	notePad    = 8.0
	headerH    = 12.0
	fontSizePt = 11.0
)

// Placed is one note positioned on the page.
type Placed struct {
	ID   string
	Rect vector.Rect
	Fill color.RGBA
	Text string
}

// Layout is a canvas arranged for output. Coordinates start at the page origin.
type Layout struct {
	Title string
	W, H  float64
	Notes []Placed
}

// NewLayout shifts the notes so their bounding box sits margin units from the page
// origin and sorts them bottom to top. An empty canvas yields a one-note-sized page.
func NewLayout(title string, notes []domain.StickyNote, margin float64) Layout {
	if margin < 0 {
		margin = 0
	}
	sorted := append([]domain.StickyNote(nil), notes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ZIndex < sorted[j].ZIndex })

	var box vector.Rect
	for i, n := range sorted {
		r := vector.R(n.X, n.Y, n.Width, n.Height)
		if i == 0 {
			box = r
			continue
		}
		box = box.Union(r)
	}
	if len(sorted) == 0 {
		box = vector.R(0, 0, domain.NoteDefaultWidth, domain.NoteDefaultHeight)
	}

	l := Layout{
		Title: title,
		W:     box.W + 2*margin,
		H:     box.H + 2*margin,
		Notes: make([]Placed, 0, len(sorted)),
	}
	shift := vector.Pt{X: margin - box.X, Y: margin - box.Y}
	for _, n := range sorted {
		l.Notes = append(l.Notes, Placed{
			ID:   n.ID,
			Rect: vector.R(n.X+shift.X, n.Y+shift.Y, n.Width, n.Height),
			Fill: ParseHex(n.Color),
			Text: n.Content,
		})
	}
	return l
}

// ParseHex reads "#RRGGBB". Anything else gives the default note colour.
func ParseHex(s string) color.RGBA {
	if c, ok := parseHex(s); ok {
		return c
	}
	c, _ := parseHex(domain.DefaultColor())
	return c
}

func parseHex(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}

// shade darkens c for the note header strip.
func shade(c color.RGBA) color.RGBA {
	return color.RGBA{R: uint8(float64(c.R) * 0.9), G: uint8(float64(c.G) * 0.9), B: uint8(float64(c.B) * 0.9), A: c.A}
}

// wrap breaks text into lines no wider than maxW according to measure.
// Explicit newlines are kept; a single word wider than maxW gets its own line.
func wrap(text string, maxW float64, measure func(string) float64) []string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if measure(line+" "+w) <= maxW {
				line += " " + w
				continue
			}
			out = append(out, line)
			line = w
		}
		out = append(out, line)
	}
	return out
}

func ensureDir(outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	return nil
}
