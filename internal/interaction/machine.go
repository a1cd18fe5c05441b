/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package interaction turns the raw pointer and keyboard stream of one note into
// intent: click to edit, drag to move or trash, resize, and keyboard equivalents.
// A Machine is driven from the UI loop and is not safe for concurrent use.
package interaction

import (
	"log/slog"

	"stickyboard/internal/domain"
	"stickyboard/internal/editing"
	applog "stickyboard/internal/log"
	"stickyboard/internal/vector"
)

// DefaultDragThreshold is how far, in screen pixels, a press must travel to become a drag.
const DefaultDragThreshold = 5.0

// DeletePrompt is the question shown before a note is deleted.
const DeletePrompt = "Delete this note?"

// Commands is what the machine does to the live note list. *session.Session satisfies it.
type Commands interface {
	Note(id string) (domain.StickyNote, bool)
	UpdateNote(id string, patch domain.NotePatch) bool
	DeleteNote(id string) bool
	BringToFront(id string) bool
}

// Confirmer asks the user a yes/no question for destructive actions.
type Confirmer func(prompt string) bool

// TrashLocator returns the trash target's current screen rectangle; ok is false when
// no trash is shown.
type TrashLocator func() (r vector.Rect, ok bool)

// Hooks lets the UI react to machine transitions. Any field may be nil.
type Hooks struct {
	// Focus returns keyboard focus to the note container.
	Focus func()
	// StateChanged fires on every gesture state transition.
	StateChanged func(State)
	// Trashed fires after a drag ended on the trash and deleted the note.
	Trashed func(noteID string)
}

// State is the gesture state of a note.
type State int

const (
	Idle State = iota
	Pending
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return "idle"
}

// Config wires a Machine to its collaborators. Commands, Editing and Surface are required.
type Config struct {
	NoteID   string
	Commands Commands
	Editing  *editing.Coordinator
	Surface  *Dispatcher
	// Zoom returns the current view zoom; nil means 1.
	Zoom          func() float64
	Trash         TrashLocator
	Confirm       Confirmer
	DragThreshold float64
	Hooks         Hooks
	Logger        *slog.Logger
}

// Machine is the pointer/keyboard state machine for one note.
type Machine struct {
	cfg   Config
	log   *slog.Logger
	state State

	release func()

	// press
	down       vector.Pt
	fromHeader bool

	// drag
	anchor vector.Pt
	origin vector.Pt

	// resize
	resizeFrom vector.Pt
	startW     float64
	startH     float64

	menuOpen bool
	draft    *string
}

// NewMachine returns an idle machine for cfg.NoteID.
func NewMachine(cfg Config) *Machine {
	if cfg.DragThreshold <= 0 {
		cfg.DragThreshold = DefaultDragThreshold
	}
	l := cfg.Logger
	if l == nil {
		l = applog.WithComponent("interaction")
	}
	return &Machine{cfg: cfg, log: l.With(slog.String("note", cfg.NoteID))}
}

func (m *Machine) NoteID() string { return m.cfg.NoteID }
func (m *Machine) State() State   { return m.state }
func (m *Machine) MenuOpen() bool { return m.menuOpen }

func (m *Machine) zoom() float64 {
	if m.cfg.Zoom == nil {
		return 1
	}
	if z := m.cfg.Zoom(); z > 0 {
		return z
	}
	return 1
}

func (m *Machine) setState(s State) {
	if m.state == s {
		return
	}
	m.log.Debug("gesture", slog.String("from", m.state.String()), slog.String("to", s.String()))
	m.state = s
	if m.cfg.Hooks.StateChanged != nil {
		m.cfg.Hooks.StateChanged(s)
	}
}

func (m *Machine) focus() {
	if m.cfg.Hooks.Focus != nil {
		m.cfg.Hooks.Focus()
	}
}

func (m *Machine) capture() {
	m.releaseCapture()
	m.release = m.cfg.Surface.Capture(m)
}

func (m *Machine) releaseCapture() {
	if m.release != nil {
		m.release()
		m.release = nil
	}
}

func (m *Machine) editingSelf() bool { return m.cfg.Editing.IsEditing(m.cfg.NoteID) }

// PointerDown handles a press on the note at screen point p. It reports whether the
// press started a gesture; presses on controls and on the text input do not.
func (m *Machine) PointerDown(target Target, p vector.Pt) bool {
	if m.state != Idle || target.isControl() {
		return false
	}
	if target == TargetResizeHandle {
		return m.beginResize(p)
	}
	if m.menuOpen {
		m.menuOpen = false
	}
	m.cfg.Commands.BringToFront(m.cfg.NoteID)
	m.down = p
	m.fromHeader = target == TargetHeader
	m.capture()
	m.setState(Pending)
	return true
}

func (m *Machine) beginResize(p vector.Pt) bool {
	n, ok := m.cfg.Commands.Note(m.cfg.NoteID)
	if !ok {
		return false
	}
	m.resizeFrom = p
	m.startW, m.startH = n.Width, n.Height
	m.capture()
	m.setState(Resizing)
	return true
}

// PointerMove is normally delivered through the Dispatcher.
func (m *Machine) PointerMove(p vector.Pt) { m.capturedMove(p) }

// PointerUp is normally delivered through the Dispatcher.
func (m *Machine) PointerUp(p vector.Pt) { m.capturedUp(p) }

// Cancel aborts the current gesture. A drag rolls back to where it started;
// a resize keeps what it reached.
func (m *Machine) Cancel() { m.capturedCancel() }

func (m *Machine) capturedMove(p vector.Pt) {
	switch m.state {
	case Pending:
		if p.Dist(m.down) <= m.cfg.DragThreshold {
			return
		}
		n, ok := m.cfg.Commands.Note(m.cfg.NoteID)
		if !ok {
			m.finish()
			return
		}
		z := m.zoom()
		m.origin = vector.Pt{X: n.X, Y: n.Y}
		m.anchor = m.down.Sub(m.origin.Scale(z))
		m.setState(Dragging)
		m.moveTo(p)
	case Dragging:
		m.moveTo(p)
	case Resizing:
		d := p.Sub(m.resizeFrom).Scale(1 / m.zoom())
		m.cfg.Commands.UpdateNote(m.cfg.NoteID, domain.SizePatch(
			domain.ClampWidth(m.startW+d.X),
			domain.ClampHeight(m.startH+d.Y),
		))
	}
}

// moveTo places the note so it keeps its offset from the pointer at any zoom.
func (m *Machine) moveTo(p vector.Pt) {
	pos := p.Sub(m.anchor).Scale(1 / m.zoom())
	m.cfg.Commands.UpdateNote(m.cfg.NoteID, domain.MovePatch(pos.X, pos.Y))
}

func (m *Machine) capturedUp(p vector.Pt) {
	switch m.state {
	case Pending:
		fromHeader := m.fromHeader
		m.finish()
		if !fromHeader && !m.editingSelf() {
			m.StartEditing()
		}
	case Dragging:
		if m.overTrash(p) {
			m.finish()
			if m.cfg.Commands.DeleteNote(m.cfg.NoteID) {
				m.log.Info("note dropped on trash")
				if m.cfg.Hooks.Trashed != nil {
					m.cfg.Hooks.Trashed(m.cfg.NoteID)
				}
			}
			return
		}
		m.moveTo(p)
		m.finish()
	case Resizing:
		m.capturedMove(p)
		m.finish()
	}
}

func (m *Machine) overTrash(p vector.Pt) bool {
	if m.cfg.Trash == nil {
		return false
	}
	r, ok := m.cfg.Trash()
	return ok && !r.Empty() && r.Contains(p)
}

func (m *Machine) capturedCancel() {
	if m.state == Dragging {
		m.cfg.Commands.UpdateNote(m.cfg.NoteID, domain.MovePatch(m.origin.X, m.origin.Y))
	}
	m.finish()
}

func (m *Machine) finish() {
	m.releaseCapture()
	m.fromHeader = false
	m.setState(Idle)
}

// StartEditing opens text editing for this note, closing any other note's edit.
func (m *Machine) StartEditing() {
	if n, ok := m.cfg.Commands.Note(m.cfg.NoteID); ok {
		d := n.Content
		m.draft = &d
	}
	m.cfg.Editing.StartEditing(m.cfg.NoteID)
}

// ConsumeAutoFocus reports, once, that this note was just created and wants focus.
func (m *Machine) ConsumeAutoFocus() bool {
	if !m.cfg.Editing.ShouldAutoFocus(m.cfg.NoteID) {
		return false
	}
	m.cfg.Editing.ClearAutoFocus()
	if m.draft == nil {
		m.StartEditing()
	}
	return true
}

// SetDraft records the text input's current value.
func (m *Machine) SetDraft(text string) { m.draft = &text }

// Draft returns the uncommitted text, falling back to the stored content.
func (m *Machine) Draft() string {
	if m.draft != nil {
		return *m.draft
	}
	if n, ok := m.cfg.Commands.Note(m.cfg.NoteID); ok {
		return n.Content
	}
	return ""
}

// CommitEdit writes the draft and leaves edit mode. Blur and Escape both end here.
func (m *Machine) CommitEdit() {
	if m.draft != nil {
		m.cfg.Commands.UpdateNote(m.cfg.NoteID, domain.ContentPatch(*m.draft))
		m.draft = nil
	}
	m.cfg.Editing.StopEditingSpecific(m.cfg.NoteID)
	m.focus()
}

// Blur is the text input losing focus.
func (m *Machine) Blur() {
	if m.editingSelf() || m.draft != nil {
		m.CommitEdit()
	}
}

func (m *Machine) ToggleColorMenu() { m.menuOpen = !m.menuOpen }

// SelectColor applies a palette colour and closes the menu.
func (m *Machine) SelectColor(c string) bool {
	m.menuOpen = false
	defer m.focus()
	if !domain.IsPaletteColor(c) {
		return false
	}
	return m.cfg.Commands.UpdateNote(m.cfg.NoteID, domain.ColorPatch(c))
}

// RequestDelete asks the Confirmer and deletes on yes. Without a Confirmer nothing is deleted.
func (m *Machine) RequestDelete() bool {
	if m.cfg.Confirm == nil || !m.cfg.Confirm(DeletePrompt) {
		return false
	}
	m.cfg.Editing.StopEditingSpecific(m.cfg.NoteID)
	return m.cfg.Commands.DeleteNote(m.cfg.NoteID)
}

// Close detaches the machine: any capture is released and the gesture dropped.
func (m *Machine) Close() {
	m.releaseCapture()
	m.state = Idle
	m.menuOpen = false
}
