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

// NoteColors is the fixed palette. Notes store the literal value, never an index.
var NoteColors = []string{
	"#FFF9C4", // yellow
	"#FFE0B2", // peach
	"#C8E6C9", // green
	"#BBDEFB", // blue
	"#F8BBD0", // pink
	"#E1BEE7", // purple
	"#B2EBF2", // cyan
	"#FFCCBC", // coral
}

// DefaultColor is used for newly created notes.
func DefaultColor() string { return NoteColors[0] }

// IsPaletteColor reports whether c is one of NoteColors.
func IsPaletteColor(c string) bool {
	for _, pc := range NoteColors {
		if pc == c {
			return true
		}
	}
	return false
}

// Note geometry limits in canvas units.
const (
	NoteMinWidth      = 150.0
	NoteMinHeight     = 100.0
	NoteDefaultWidth  = 200.0
	NoteDefaultHeight = 150.0
)

// ClampWidth and ClampHeight enforce the minimum note size.
func ClampWidth(w float64) float64 {
	if w < NoteMinWidth {
		return NoteMinWidth
	}
	return w
}

func ClampHeight(h float64) float64 {
	if h < NoteMinHeight {
		return NoteMinHeight
	}
	return h
}
