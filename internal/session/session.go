/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package session holds the live working set of the active canvas: its notes,
// the next z-index, the view state and a trailing-edge debounced flush to storage.
package session

import (
	"log/slog"
	"sync"
	"time"

	"stickyboard/internal/crash"
	"stickyboard/internal/domain"
	"stickyboard/internal/editing"
	"stickyboard/internal/events"
	applog "stickyboard/internal/log"
	"stickyboard/internal/vector"
)

// DefaultDebounce is the quiet period before changes are written.
const DefaultDebounce = 500 * time.Millisecond

// Store is the slice of the persistence layer the session needs.
type Store interface {
	GenerateID() string
	SaveCanvas(canvasID string, notes []domain.StickyNote, view domain.ViewState, name string) bool
}

// Options tunes a Session. Zero values pick defaults.
type Options struct {
	Debounce time.Duration
	Events   events.Publisher
	Logger   *slog.Logger
}

// Session is safe for concurrent use; the debounced flush runs on a timer goroutine.
// Store calls are never made while the state lock is held.
type Session struct {
	mu       sync.Mutex
	canvasID string
	notes    []domain.StickyNote
	view     domain.ViewState
	nextZ    int
	dirty    bool

	// saveMu orders snapshot+write pairs so an older snapshot never lands after a newer one.
	saveMu sync.Mutex

	store   Store
	editing *editing.Coordinator
	events  events.Publisher
	deb     *Debouncer
	log     *slog.Logger
}

// New returns an empty session with no active canvas.
func New(store Store, coord *editing.Coordinator, opts Options) *Session {
	s := &Session{
		store:   store,
		editing: coord,
		events:  opts.Events,
		log:     opts.Logger,
		view:    domain.DefaultViewState(),
		nextZ:   1,
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.log == nil {
		s.log = applog.WithComponent("session")
	}
	if s.editing == nil {
		s.editing = editing.New(s.events)
	}
	d := opts.Debounce
	if d <= 0 {
		d = DefaultDebounce
	}
	s.deb = NewDebouncer(d, func() {
		crash.Guard("session.flush", func() { s.flush() })
	})
	return s
}

// Reset swaps in a freshly loaded canvas. A pending flush for the previous canvas is
// dropped; callers that want it written call Flush first.
func (s *Session) Reset(canvasID string, notes []domain.StickyNote, view domain.ViewState) {
	s.deb.Cancel()
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.canvasID = canvasID
	s.notes = append([]domain.StickyNote(nil), notes...)
	if view.Zoom <= 0 {
		view.Zoom = 1
	}
	s.view = view
	s.nextZ = maxZ(s.notes) + 1
	dropped := s.dirty
	s.dirty = false
	s.mu.Unlock()
	if dropped {
		s.events.Publish(events.SaveStatusChanged{Saving: false})
	}
	s.log.Debug("session reset", slog.String("canvas", canvasID), slog.Int("notes", len(notes)))
}

// Snapshot is a copy of the live state, taken before a risky swap.
type Snapshot struct {
	CanvasID string
	Notes    []domain.StickyNote
	View     domain.ViewState
	NextZ    int
	Dirty    bool
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		CanvasID: s.canvasID,
		Notes:    append([]domain.StickyNote(nil), s.notes...),
		View:     s.view,
		NextZ:    s.nextZ,
		Dirty:    s.dirty,
	}
}

// Restore puts a snapshot back. Unsaved changes it carried are scheduled again.
func (s *Session) Restore(sn Snapshot) {
	s.Reset(sn.CanvasID, sn.Notes, sn.View)
	s.mu.Lock()
	if sn.NextZ > s.nextZ {
		s.nextZ = sn.NextZ
	}
	became := false
	if sn.Dirty {
		became = s.markDirtyLocked()
	}
	s.mu.Unlock()
	if sn.Dirty {
		s.changed(became)
	}
}

func maxZ(notes []domain.StickyNote) int {
	m := 0
	for _, n := range notes {
		if n.ZIndex > m {
			m = n.ZIndex
		}
	}
	return m
}

// markDirtyLocked flags a change; the caller schedules the flush after unlocking.
// It reports whether the session went from clean to dirty.
func (s *Session) markDirtyLocked() bool {
	was := s.dirty
	s.dirty = true
	return !was
}

func (s *Session) changed(becameDirty bool) {
	s.deb.Trigger()
	if becameDirty {
		s.events.Publish(events.SaveStatusChanged{Saving: true})
	}
}

// CreateNote places an empty default note at canvas point p on top of the stack and
// hands it to the editing coordinator for auto-focus. It returns the new note.
func (s *Session) CreateNote(p vector.Pt) domain.StickyNote {
	id := s.store.GenerateID()
	s.mu.Lock()
	n := domain.StickyNote{
		ID:      id,
		Content: "",
		Color:   domain.DefaultColor(),
		Width:   domain.NoteDefaultWidth,
		Height:  domain.NoteDefaultHeight,
		X:       p.X,
		Y:       p.Y,
		ZIndex:  s.nextZ,
	}
	s.nextZ++
	s.notes = append(s.notes, n)
	became := s.markDirtyLocked()
	s.mu.Unlock()

	s.changed(became)
	s.editing.SetAutoFocus(id)
	return n
}

func (s *Session) indexLocked(id string) int {
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

// UpdateNote merges patch into the note. Unknown ids and empty patches are no-ops.
func (s *Session) UpdateNote(id string, patch domain.NotePatch) bool {
	if patch.IsEmpty() {
		return false
	}
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	next := patch.Apply(s.notes[i])
	if next == s.notes[i] {
		s.mu.Unlock()
		return true
	}
	s.notes[i] = next
	if next.ZIndex >= s.nextZ {
		s.nextZ = next.ZIndex + 1
	}
	became := s.markDirtyLocked()
	s.mu.Unlock()
	s.changed(became)
	return true
}

// DeleteNote removes the note from the canvas. Unknown ids are a no-op.
func (s *Session) DeleteNote(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.notes = append(s.notes[:i], s.notes[i+1:]...)
	became := s.markDirtyLocked()
	s.mu.Unlock()

	s.editing.StopEditingSpecific(id)
	s.changed(became)
	return true
}

// BringToFront gives the note the next z-index unless it already is the topmost.
// It reports whether anything changed.
func (s *Session) BringToFront(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	top := true
	for j, n := range s.notes {
		if j != i && n.ZIndex > s.notes[i].ZIndex {
			top = false
			break
		}
	}
	if top {
		s.mu.Unlock()
		return false
	}
	s.notes[i].ZIndex = s.nextZ
	s.nextZ++
	became := s.markDirtyLocked()
	s.mu.Unlock()
	s.changed(became)
	return true
}

// Notes returns a copy of the live list in insertion order.
func (s *Session) Notes() []domain.StickyNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StickyNote(nil), s.notes...)
}

// Note returns one note by id.
func (s *Session) Note(id string) (domain.StickyNote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.notes[i], true
	}
	return domain.StickyNote{}, false
}

func (s *Session) CanvasID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvasID
}

func (s *Session) View() domain.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// SetView records a new view state and schedules a flush if it differs.
func (s *Session) SetView(v domain.ViewState) {
	s.mu.Lock()
	if v == s.view {
		s.mu.Unlock()
		return
	}
	s.view = v
	became := s.markDirtyLocked()
	s.mu.Unlock()
	s.changed(became)
}

// NextZIndex returns the z-index the next created or raised note will get.
func (s *Session) NextZIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextZ
}

// Dirty reports whether changes are waiting to be written.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush cancels the pending timer and writes now. It returns false only if a write was
// attempted and failed; in that case the state stays dirty and in memory.
func (s *Session) Flush() bool {
	s.deb.Cancel()
	return s.flush()
}

func (s *Session) flush() bool {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty || s.canvasID == "" {
		s.mu.Unlock()
		return true
	}
	id := s.canvasID
	notes := append([]domain.StickyNote(nil), s.notes...)
	view := s.view
	s.dirty = false
	s.mu.Unlock()

	start := time.Now()
	ok := s.store.SaveCanvas(id, notes, view, "")
	l := applog.WithCanvas(s.log, id)
	if !ok {
		s.mu.Lock()
		// keep the change for the next attempt unless the canvas was swapped meanwhile
		if s.canvasID == id {
			s.dirty = true
		}
		s.mu.Unlock()
		l.Warn("flush failed, keeping changes in memory", slog.Int("notes", len(notes)))
	} else {
		l.Debug("flushed", slog.Int("notes", len(notes)), slog.Duration("took", time.Since(start)))
	}
	s.events.Publish(events.SaveStatusChanged{Saving: false})
	return ok
}

// Close writes any pending change. The session stays usable.
func (s *Session) Close() bool {
	return s.Flush()
}
