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

// This file defines the persisted data model of the note board.
// Note content is stored once; each canvas keeps its own placements of notes,
// so the same note may appear on several canvases.

import "time"

// SchemaVersion tags the persisted AppData layout.
const SchemaVersion = "1.0.0"

// Note is the content record of a sticky note, independent of any canvas.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Color     string    `json:"color"` // literal palette value, e.g. "#FFF9C4"
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NotePosition places a note on one canvas.
type NotePosition struct {
	NoteID string  `json:"noteId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	ZIndex int     `json:"zIndex"`
}

// ViewState is the pan offset (screen pixels) and zoom of a canvas viewport.
type ViewState struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Canvas is a named board with its own note arrangement and viewport.
type Canvas struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	NotePositions []NotePosition `json:"notePositions"`
	ViewState     ViewState      `json:"viewState"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// AppData is the persisted root document.
type AppData struct {
	Version            string            `json:"version,omitempty"`
	Canvases           map[string]Canvas `json:"canvases"`
	Notes              map[string]Note   `json:"notes"`
	LastActiveCanvasID string            `json:"lastActiveCanvasId,omitempty"`
}

// NewAppData returns an empty document tagged with the current schema version.
func NewAppData() *AppData {
	return &AppData{
		Version:  SchemaVersion,
		Canvases: map[string]Canvas{},
		Notes:    map[string]Note{},
	}
}

// StickyNote is a note joined with its placement on the active canvas.
// This is the shape the live session works with.
type StickyNote struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	ZIndex  int     `json:"zIndex"`
}

// DefaultViewState is the identity transform.
func DefaultViewState() ViewState { return ViewState{X: 0, Y: 0, Zoom: 1} }
