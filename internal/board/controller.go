/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package board switches between canvases. It owns the Store, the active
// Session, the viewport Engine and the editing Coordinator, and keeps them in step:
// the previous canvas is always flushed before the next one is loaded.
package board

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"stickyboard/internal/domain"
	"stickyboard/internal/editing"
	"stickyboard/internal/events"
	"stickyboard/internal/interaction"
	applog "stickyboard/internal/log"
	"stickyboard/internal/session"
	"stickyboard/internal/storage"
	"stickyboard/internal/vector"
	"stickyboard/internal/viewport"
)

var (
	ErrLastCanvas    = errors.New("cannot delete the last canvas")
	ErrUnknownCanvas = errors.New("unknown canvas")
	ErrEmptyName     = errors.New("canvas name is empty")
	ErrNotMounted    = errors.New("board is not mounted")
	ErrStorage       = errors.New("storage write failed")
)

// Options tunes a Controller. Zero values pick defaults.
type Options struct {
	Debounce      time.Duration
	ZoomMin       float64
	ZoomMax       float64
	DragThreshold float64
	Events        *events.Bus
	Logger        *slog.Logger
}

// Controller is safe for concurrent use. Canvas switches are serialized.
type Controller struct {
	mu     sync.Mutex
	active string

	store   *storage.Store
	session *session.Session
	editing *editing.Coordinator
	view    *viewport.Engine
	surface *interaction.Dispatcher
	bus     *events.Bus
	drag    float64
	log     *slog.Logger
}

func New(store *storage.Store, opts Options) *Controller {
	bus := opts.Events
	if bus == nil {
		bus = events.NewBus()
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("board")
	}
	coord := editing.New(bus)
	c := &Controller{
		store:   store,
		editing: coord,
		view:    viewport.New(opts.ZoomMin, opts.ZoomMax),
		surface: interaction.NewDispatcher(),
		bus:     bus,
		drag:    opts.DragThreshold,
		log:     l,
	}
	c.session = session.New(store, coord, session.Options{Debounce: opts.Debounce, Events: bus, Logger: l.With(slog.String("component", "session"))})
	c.view.OnChange(c.session.SetView)
	return c
}

func (c *Controller) Session() *session.Session        { return c.session }
func (c *Controller) Editing() *editing.Coordinator    { return c.editing }
func (c *Controller) Viewport() *viewport.Engine       { return c.view }
func (c *Controller) Surface() *interaction.Dispatcher { return c.surface }
func (c *Controller) Events() *events.Bus              { return c.bus }
func (c *Controller) Store() *storage.Store            { return c.store }

// ActiveID returns the id of the mounted canvas, or "" before Mount.
func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Mount loads the last active canvas, else the most recently updated one, else
// creates and persists "Canvas 1". It returns the mounted canvas id.
func (c *Controller) Mount() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if data := c.store.Load(); data != nil {
		if id := data.LastActiveCanvasID; id != "" {
			if _, ok := data.Canvases[id]; ok {
				return id, c.activateLocked(id)
			}
			c.log.Debug("last active canvas missing, falling back", slog.String("canvas", id))
		}
		if all := c.store.GetAllCanvases(); len(all) > 0 {
			return all[0].ID, c.activateLocked(all[0].ID)
		}
	}
	cv := c.store.CreateCanvas("Canvas 1")
	if !c.store.SaveCanvas(cv.ID, nil, cv.ViewState, cv.Name) {
		// keep working in memory; the first change schedules another write
		c.log.Warn("could not persist the default canvas")
		c.load(cv.ID, cv, nil)
		return cv.ID, fmt.Errorf("bootstrap canvas: %w", ErrStorage)
	}
	c.log.Info("created default canvas", slog.String("canvas", cv.ID))
	return cv.ID, c.activateLocked(cv.ID)
}

// activateLocked loads id into the session without flushing the previous canvas.
func (c *Controller) activateLocked(id string) error {
	cv, notes, ok := c.store.LoadCanvas(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCanvas, id)
	}
	c.load(id, cv, notes)
	return nil
}

func (c *Controller) load(id string, cv domain.Canvas, notes []domain.StickyNote) {
	prev := c.active
	c.editing.Reset()
	c.surface.Escape()
	c.view.SetState(cv.ViewState)
	c.session.Reset(id, notes, c.view.State())
	c.active = id
	applog.WithCanvas(c.log, id).Debug("canvas loaded", slog.Int("notes", len(notes)))
	if prev != id {
		c.bus.Publish(events.CanvasSwitched{From: prev, To: id})
	}
}

// SelectCanvas flushes the active canvas synchronously, then loads id.
// Selecting the active canvas is a no-op.
func (c *Controller) SelectCanvas(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" {
		return ErrNotMounted
	}
	if id == c.active {
		return nil
	}
	if _, _, ok := c.store.LoadCanvas(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCanvas, id)
	}
	c.flushLocked()
	if err := c.activateLocked(id); err != nil {
		return err
	}
	c.store.SetLastActive(id)
	return nil
}

func (c *Controller) flushLocked() {
	if !c.session.Flush() {
		applog.WithCanvas(c.log, c.active).Warn("flush before switch failed; unsaved changes are dropped")
	}
}

// SelectByIndex selects the i-th canvas (0-based) in store order.
func (c *Controller) SelectByIndex(i int) error {
	all := c.store.GetAllCanvases()
	if i < 0 || i >= len(all) {
		return fmt.Errorf("%w: index %d", ErrUnknownCanvas, i)
	}
	return c.SelectCanvas(all[i].ID)
}

// CreateCanvas persists a new empty canvas and switches to it. A blank name
// becomes "Canvas N" where N is the new canvas count.
func (c *Controller) CreateCanvas(name string) (domain.Canvas, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Canvas %d", len(c.store.GetAllCanvases())+1)
	}
	if c.active != "" {
		c.flushLocked()
	}
	cv := c.store.CreateCanvas(name)
	if !c.store.SaveCanvas(cv.ID, nil, cv.ViewState, cv.Name) {
		return domain.Canvas{}, fmt.Errorf("create canvas: %w", ErrStorage)
	}
	c.log.Info("canvas created", slog.String("canvas", cv.ID), slog.String("name", cv.Name))
	if err := c.activateLocked(cv.ID); err != nil {
		return domain.Canvas{}, err
	}
	return cv, nil
}

// RenameCanvas renames any canvas.
func (c *Controller) RenameCanvas(id, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == c.active {
		// a pending flush must not write the old canvas state over the new name
		c.flushLocked()
	}
	if !c.store.RenameCanvas(id, name) {
		if _, _, ok := c.store.LoadCanvas(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCanvas, id)
		}
		return fmt.Errorf("rename canvas: %w", ErrStorage)
	}
	return nil
}

// DeleteCanvas removes a canvas. The last remaining canvas cannot be deleted.
// If the active canvas goes, the first remaining canvas in store order is loaded
// without writing the deleted one back.
func (c *Controller) DeleteCanvas(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.store.GetAllCanvases()
	found := false
	for _, cv := range all {
		if cv.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownCanvas, id)
	}
	if len(all) <= 1 {
		return ErrLastCanvas
	}
	wasActive := id == c.active
	var live session.Snapshot
	if wasActive {
		// detach first so a pending flush cannot write the canvas back
		live = c.session.Snapshot()
		c.session.Reset("", nil, domain.DefaultViewState())
	}
	if !c.store.DeleteCanvas(id) {
		if wasActive {
			c.session.Restore(live)
		}
		return fmt.Errorf("delete canvas: %w", ErrStorage)
	}
	c.log.Info("canvas deleted", slog.String("canvas", id))
	if !wasActive {
		return nil
	}
	rest := c.store.GetAllCanvases()
	if len(rest) == 0 {
		c.active = ""
		return nil
	}
	return c.activateLocked(rest[0].ID)
}

// Canvases lists every canvas in store order.
func (c *Controller) Canvases() []domain.Canvas { return c.store.GetAllCanvases() }

// NoteCount reports how many notes a canvas shows. The active canvas counts live notes.
func (c *Controller) NoteCount(id string) int {
	if id == c.ActiveID() {
		return len(c.session.Notes())
	}
	return c.store.GetNoteCount(id)
}

// CreateNoteAt creates a note at a screen point of the active canvas.
func (c *Controller) CreateNoteAt(screen vector.Pt) (domain.StickyNote, error) {
	if c.ActiveID() == "" {
		return domain.StickyNote{}, ErrNotMounted
	}
	return c.session.CreateNote(c.view.ScreenToCanvas(screen)), nil
}

// NewNoteMachine builds an interaction machine for a note on the active canvas.
func (c *Controller) NewNoteMachine(noteID string, trash interaction.TrashLocator, confirm interaction.Confirmer, hooks interaction.Hooks) *interaction.Machine {
	return interaction.NewMachine(interaction.Config{
		NoteID:        noteID,
		Commands:      c.session,
		Editing:       c.editing,
		Surface:       c.surface,
		Zoom:          func() float64 { return c.view.State().Zoom },
		Trash:         trash,
		Confirm:       confirm,
		DragThreshold: c.drag,
		Hooks:         hooks,
	})
}

// Close flushes pending changes. It reports whether everything was written.
func (c *Controller) Close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surface.Escape()
	return c.session.Close()
}

// Flush writes pending changes now.
func (c *Controller) Flush() bool { return c.session.Flush() }
