/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stickyboard/internal/domain"
	"stickyboard/internal/editing"
	"stickyboard/internal/vector"
)

type fakeNotes struct {
	notes   map[string]domain.StickyNote
	fronts  int
	deletes []string
	updates int
}

func newFakeNotes(ns ...domain.StickyNote) *fakeNotes {
	f := &fakeNotes{notes: map[string]domain.StickyNote{}}
	for _, n := range ns {
		f.notes[n.ID] = n
	}
	return f
}

func (f *fakeNotes) Note(id string) (domain.StickyNote, bool) {
	n, ok := f.notes[id]
	return n, ok
}

func (f *fakeNotes) UpdateNote(id string, p domain.NotePatch) bool {
	n, ok := f.notes[id]
	if !ok {
		return false
	}
	f.updates++
	f.notes[id] = p.Apply(n)
	return true
}

func (f *fakeNotes) DeleteNote(id string) bool {
	if _, ok := f.notes[id]; !ok {
		return false
	}
	delete(f.notes, id)
	f.deletes = append(f.deletes, id)
	return true
}

func (f *fakeNotes) BringToFront(string) bool {
	f.fronts++
	return true
}

type rig struct {
	notes   *fakeNotes
	coord   *editing.Coordinator
	surface *Dispatcher
	m       *Machine
	zoom    float64
	trash   vector.Rect
	answer  bool
	asked   []string
	focused int
}

func newRig(t *testing.T, n domain.StickyNote) *rig {
	t.Helper()
	r := &rig{
		notes:   newFakeNotes(n),
		coord:   editing.New(nil),
		surface: NewDispatcher(),
		zoom:    1,
	}
	r.m = NewMachine(Config{
		NoteID:   n.ID,
		Commands: r.notes,
		Editing:  r.coord,
		Surface:  r.surface,
		Zoom:     func() float64 { return r.zoom },
		Trash: func() (vector.Rect, bool) {
			return r.trash, !r.trash.Empty()
		},
		Confirm: func(p string) bool {
			r.asked = append(r.asked, p)
			return r.answer
		},
		Hooks: Hooks{Focus: func() { r.focused++ }},
	})
	t.Cleanup(r.m.Close)
	return r
}

func note(id string, x, y float64) domain.StickyNote {
	return domain.StickyNote{ID: id, Content: "hello", Color: domain.DefaultColor(),
		Width: domain.NoteDefaultWidth, Height: domain.NoteDefaultHeight, X: x, Y: y, ZIndex: 1}
}

func (r *rig) drag(target Target, from, to vector.Pt) {
	r.m.PointerDown(target, from)
	r.surface.PointerMove(to)
	r.surface.PointerUp(to)
}

func TestClickOpensEditing(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	require.True(t, r.m.PointerDown(TargetBody, vector.Pt{X: 10, Y: 10}))
	assert.Equal(t, Pending, r.m.State())
	assert.Equal(t, 1, r.notes.fronts)
	assert.True(t, r.surface.Captured())

	r.surface.PointerMove(vector.Pt{X: 12, Y: 11})
	assert.Equal(t, Pending, r.m.State(), "below threshold stays pending")
	r.surface.PointerUp(vector.Pt{X: 12, Y: 11})

	assert.Equal(t, Idle, r.m.State())
	assert.True(t, r.coord.IsEditing("a"))
	assert.False(t, r.surface.Captured())
	assert.Equal(t, "hello", r.m.Draft())
	n, _ := r.notes.Note("a")
	assert.Equal(t, 0.0, n.X)
}

func TestHeaderClickDoesNotEdit(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.drag(TargetHeader, vector.Pt{X: 5, Y: 5}, vector.Pt{X: 5, Y: 5})
	assert.Equal(t, 1, r.notes.fronts)
	assert.False(t, r.coord.IsEditing("a"))
}

func TestControlsTakePriority(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	for _, tgt := range []Target{TargetColorButton, TargetColorMenu, TargetDeleteButton, TargetTextInput} {
		assert.False(t, r.m.PointerDown(tgt, vector.Pt{}), tgt.String())
	}
	assert.Zero(t, r.notes.fronts)
	assert.Equal(t, Idle, r.m.State())
	assert.False(t, r.surface.Captured())
}

func TestDragIsZoomCompensated(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.zoom = 2
	r.drag(TargetBody, vector.Pt{X: 100, Y: 100}, vector.Pt{X: 120, Y: 120})
	n, _ := r.notes.Note("a")
	assert.InDelta(t, 10, n.X, 1e-9)
	assert.InDelta(t, 10, n.Y, 1e-9)
	assert.False(t, r.coord.IsEditing("a"), "a drag never opens editing")
	assert.Equal(t, Idle, r.m.State())
}

func TestDragFollowsPointerFromOffsetNote(t *testing.T) {
	r := newRig(t, note("a", 50, 30))
	r.zoom = 0.5
	r.m.PointerDown(TargetBody, vector.Pt{X: 40, Y: 40})
	r.surface.PointerMove(vector.Pt{X: 50, Y: 40})
	assert.Equal(t, Dragging, r.m.State())
	n, _ := r.notes.Note("a")
	assert.InDelta(t, 70, n.X, 1e-9)
	assert.InDelta(t, 30, n.Y, 1e-9)
}

func TestEscapeRollsBackDrag(t *testing.T) {
	r := newRig(t, note("a", 50, 60))
	r.m.PointerDown(TargetBody, vector.Pt{X: 0, Y: 0})
	r.surface.PointerMove(vector.Pt{X: 30, Y: 40})
	n, _ := r.notes.Note("a")
	require.Equal(t, 80.0, n.X)

	require.True(t, r.surface.Escape())
	n, _ = r.notes.Note("a")
	assert.Equal(t, 50.0, n.X)
	assert.Equal(t, 60.0, n.Y)
	assert.Equal(t, Idle, r.m.State())
	assert.False(t, r.surface.Captured())
}

func TestDropOnTrashDeletes(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.trash = vector.R(500, 500, 80, 80)
	var trashed string
	r.m.cfg.Hooks.Trashed = func(id string) { trashed = id }

	r.drag(TargetBody, vector.Pt{X: 10, Y: 10}, vector.Pt{X: 500, Y: 580})
	assert.Equal(t, []string{"a"}, r.notes.deletes)
	assert.Equal(t, "a", trashed)
	assert.Empty(t, r.asked, "trash drop does not prompt")
}

func TestDropOutsideTrashCommits(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.trash = vector.R(500, 500, 80, 80)
	r.drag(TargetBody, vector.Pt{X: 10, Y: 10}, vector.Pt{X: 499, Y: 510})
	assert.Empty(t, r.notes.deletes)
	n, _ := r.notes.Note("a")
	assert.Equal(t, 489.0, n.X)
}

func TestResizeRespectsMinimum(t *testing.T) {
	r := newRig(t, note("a", 10, 20))
	require.True(t, r.m.PointerDown(TargetResizeHandle, vector.Pt{X: 200, Y: 200}))
	assert.Equal(t, Resizing, r.m.State())
	assert.Zero(t, r.notes.fronts, "resize does not go through the body press")

	r.surface.PointerMove(vector.Pt{X: -500, Y: -500})
	n, _ := r.notes.Note("a")
	assert.Equal(t, domain.NoteMinWidth, n.Width)
	assert.Equal(t, domain.NoteMinHeight, n.Height)
	assert.Equal(t, 10.0, n.X)
	assert.Equal(t, 20.0, n.Y)

	r.surface.PointerUp(vector.Pt{X: 230, Y: 210})
	n, _ = r.notes.Note("a")
	assert.Equal(t, 230.0, n.Width)
	assert.Equal(t, 160.0, n.Height)
	assert.Equal(t, Idle, r.m.State())
	assert.False(t, r.coord.IsEditing("a"))
}

func TestResizeEscapeKeepsPartialSize(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.m.PointerDown(TargetResizeHandle, vector.Pt{})
	r.surface.PointerMove(vector.Pt{X: 40, Y: 0})
	r.surface.Escape()
	n, _ := r.notes.Note("a")
	assert.Equal(t, 240.0, n.Width)
}

func TestCommitEditWritesDraft(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.m.StartEditing()
	r.m.SetDraft("new text")
	require.True(t, r.m.KeyDown(TargetTextInput, KeyEvent{Key: KeyEscape}))
	n, _ := r.notes.Note("a")
	assert.Equal(t, "new text", n.Content)
	assert.False(t, r.coord.IsEditing("a"))
	assert.Equal(t, 1, r.focused)
}

func TestBlurCommits(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.m.StartEditing()
	r.m.SetDraft("blurred")
	r.m.Blur()
	n, _ := r.notes.Note("a")
	assert.Equal(t, "blurred", n.Content)
	assert.False(t, r.coord.IsEditing("a"))
}

func TestAutoFocusIsOneShot(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.coord.SetAutoFocus("a")
	assert.True(t, r.m.ConsumeAutoFocus())
	assert.False(t, r.m.ConsumeAutoFocus())
	assert.True(t, r.coord.IsEditing("a"))
}

func TestColorMenu(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.m.ToggleColorMenu()
	require.True(t, r.m.MenuOpen())
	assert.False(t, r.m.SelectColor("#000000"))
	assert.False(t, r.m.MenuOpen())

	r.m.ToggleColorMenu()
	assert.True(t, r.m.SelectColor(domain.NoteColors[3]))
	n, _ := r.notes.Note("a")
	assert.Equal(t, domain.NoteColors[3], n.Color)
	assert.Equal(t, 2, r.focused)
}

func TestRequestDeleteUsesConfirmer(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	assert.False(t, r.m.RequestDelete())
	assert.Equal(t, []string{DeletePrompt}, r.asked)
	_, ok := r.notes.Note("a")
	assert.True(t, ok)

	r.answer = true
	assert.True(t, r.m.RequestDelete())
	_, ok = r.notes.Note("a")
	assert.False(t, ok)
}

func TestNewCaptureCancelsPrevious(t *testing.T) {
	r := newRig(t, note("a", 5, 5))
	other := NewMachine(Config{NoteID: "a", Commands: r.notes, Editing: r.coord, Surface: r.surface})
	r.m.PointerDown(TargetBody, vector.Pt{})
	r.surface.PointerMove(vector.Pt{X: 20})
	require.Equal(t, Dragging, r.m.State())

	other.PointerDown(TargetHeader, vector.Pt{})
	assert.Equal(t, Idle, r.m.State())
	n, _ := r.notes.Note("a")
	assert.Equal(t, 5.0, n.X, "cancelled drag rolled back")
	assert.True(t, r.surface.Captured())
	other.Close()
	assert.False(t, r.surface.Captured())
}
