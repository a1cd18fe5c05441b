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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PNGOptions controls PNG export.
// Scale maps canvas units to pixels (default 1); Background defaults to white.
type PNGOptions struct {
	Scale      float64
	Background color.RGBA
}

// CanvasPNG rasterizes the layout to outPath. Text uses the fixed 7x13 bitmap face
// and is not scaled.
func CanvasPNG(l Layout, outPath string, opt PNGOptions) error {
	img := RenderImage(l, opt)
	if err := ensureDir(outPath); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// RenderImage draws the layout into a new RGBA image.
func RenderImage(l Layout, opt PNGOptions) *image.RGBA {
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	bg := opt.Background
	if bg == (color.RGBA{}) {
		bg = color.RGBA{255, 255, 255, 255}
	}
	px := func(v float64) int { return int(math.Round(v * scale)) }

	img := image.NewRGBA(image.Rect(0, 0, max(px(l.W), 1), max(px(l.H), 1)))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	measure := func(s string) float64 { return float64(font.MeasureString(face, s).Round()) }
	border := color.RGBA{160, 160, 160, 255}
	ink := image.NewUniform(color.RGBA{33, 33, 33, 255})

	for _, n := range l.Notes {
		x0, y0 := px(n.Rect.X), px(n.Rect.Y)
		x1, y1 := px(n.Rect.X+n.Rect.W)-1, px(n.Rect.Y+n.Rect.H)-1
		fillRect(img, x0, y0, x1, y1, n.Fill)
		fillRect(img, x0, y0, x1, y0+px(headerH)-1, shade(n.Fill))
		strokeRect(img, x0, y0, x1, y1, border)

		pad := px(notePad)
		d := &font.Drawer{Dst: img, Src: ink, Face: face}
		y := y0 + px(headerH) + pad/2 + face.Ascent
		for _, line := range wrap(n.Text, float64(x1-x0-2*pad), measure) {
			if y+face.Descent > y1 {
				break
			}
			d.Dot = fixed.P(x0+pad, y)
			d.DrawString(line)
			y += face.Height
		}
	}
	return img
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	draw.Draw(img, image.Rect(x0, y0, x1+1, y1+1), &image.Uniform{C: col}, image.Point{}, draw.Src)
}
