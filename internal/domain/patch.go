/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

// NotePatch carries a partial update for a live note. Nil fields are left untouched.
type NotePatch struct {
	Content *string
	Color   *string
	Width   *float64
	Height  *float64
	X       *float64
	Y       *float64
	ZIndex  *int
}

// MovePatch sets both coordinates.
func MovePatch(x, y float64) NotePatch { return NotePatch{X: &x, Y: &y} }

// SizePatch sets both dimensions.
func SizePatch(w, h float64) NotePatch { return NotePatch{Width: &w, Height: &h} }

// ContentPatch replaces the text.
func ContentPatch(s string) NotePatch { return NotePatch{Content: &s} }

// ColorPatch replaces the colour.
func ColorPatch(c string) NotePatch { return NotePatch{Color: &c} }

// IsEmpty reports whether the patch changes nothing.
func (p NotePatch) IsEmpty() bool {
	return p.Content == nil && p.Color == nil && p.Width == nil && p.Height == nil &&
		p.X == nil && p.Y == nil && p.ZIndex == nil
}

// Apply returns n with the patch merged in. Sizes are clamped to the minimum and
// colours outside the palette are ignored.
func (p NotePatch) Apply(n StickyNote) StickyNote {
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Color != nil && IsPaletteColor(*p.Color) {
		n.Color = *p.Color
	}
	if p.Width != nil {
		n.Width = ClampWidth(*p.Width)
	}
	if p.Height != nil {
		n.Height = ClampHeight(*p.Height)
	}
	if p.X != nil {
		n.X = *p.X
	}
	if p.Y != nil {
		n.Y = *p.Y
	}
	if p.ZIndex != nil {
		n.ZIndex = *p.ZIndex
	}
	return n
}
