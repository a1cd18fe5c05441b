/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"sort"

	"stickyboard/internal/domain"
	"stickyboard/internal/interaction"
	"stickyboard/internal/vector"
	"stickyboard/internal/viewport"
)

// Note chrome in screen pixels. Chrome does not scale with zoom.
const (
	HeaderHeight     = 24.0
	ButtonSize       = 18.0
	ButtonGap        = 4.0
	ResizeHandleSize = 14.0
	SwatchSize       = 20.0
)

// ScreenRect is the note's on-screen rectangle under view v.
func ScreenRect(n domain.StickyNote, v domain.ViewState) vector.Rect {
	p := viewport.CanvasToScreen(v, vector.Pt{X: n.X, Y: n.Y})
	return vector.R(p.X, p.Y, n.Width*v.Zoom, n.Height*v.Zoom)
}

// Chrome holds the control rectangles of one note on screen.
type Chrome struct {
	Note   vector.Rect
	Header vector.Rect
	Delete vector.Rect
	Color  vector.Rect
	Resize vector.Rect
	Menu   vector.Rect
}

// ChromeFor lays out the controls of a note whose screen rectangle is r.
func ChromeFor(r vector.Rect) Chrome {
	hh := min(HeaderHeight, r.H)
	c := Chrome{Note: r, Header: vector.R(r.X, r.Y, r.W, hh)}
	pad := (hh - ButtonSize) / 2
	c.Delete = vector.R(r.X+r.W-ButtonGap-ButtonSize, r.Y+pad, ButtonSize, ButtonSize)
	c.Color = vector.R(c.Delete.X-ButtonGap-ButtonSize, r.Y+pad, ButtonSize, ButtonSize)
	c.Resize = vector.R(r.X+r.W-ResizeHandleSize, r.Y+r.H-ResizeHandleSize, ResizeHandleSize, ResizeHandleSize)
	n := float64(len(domain.NoteColors))
	c.Menu = vector.R(r.X+r.W-n*SwatchSize-ButtonGap, r.Y+hh, n*SwatchSize, SwatchSize)
	return c
}

// SwatchAt returns the palette colour under p inside an open colour menu.
func (c Chrome) SwatchAt(p vector.Pt) (string, bool) {
	if !c.Menu.Contains(p) {
		return "", false
	}
	i := int((p.X - c.Menu.X) / SwatchSize)
	if i >= len(domain.NoteColors) {
		i = len(domain.NoteColors) - 1
	}
	return domain.NoteColors[i], true
}

// Hit is the result of resolving a screen point against the notes.
type Hit struct {
	NoteID string
	Target interaction.Target
	Chrome Chrome
}

// HitTest finds the topmost note under p and the part of it that was hit.
// Controls win over header and body, so a point on a control's edge is the control.
// menuFor names the note whose colour menu is open; its menu extends the hit area.
func HitTest(notes []domain.StickyNote, v domain.ViewState, p vector.Pt, menuFor string) (Hit, bool) {
	ordered := append([]domain.StickyNote(nil), notes...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ZIndex > ordered[j].ZIndex })
	for _, n := range ordered {
		c := ChromeFor(ScreenRect(n, v))
		if n.ID == menuFor && c.Menu.Contains(p) {
			return Hit{NoteID: n.ID, Target: interaction.TargetColorMenu, Chrome: c}, true
		}
		if !c.Note.Contains(p) {
			continue
		}
		h := Hit{NoteID: n.ID, Chrome: c}
		switch {
		case c.Delete.Contains(p):
			h.Target = interaction.TargetDeleteButton
		case c.Color.Contains(p):
			h.Target = interaction.TargetColorButton
		case c.Resize.Contains(p):
			h.Target = interaction.TargetResizeHandle
		case c.Header.Contains(p):
			h.Target = interaction.TargetHeader
		default:
			h.Target = interaction.TargetBody
		}
		return h, true
	}
	return Hit{}, false
}
