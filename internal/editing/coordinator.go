/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editing tracks which single note is in text-edit mode and which
// freshly created note should grab focus. One Coordinator is shared by every
// note on the board.
package editing

import (
	"log/slog"
	"sync"

	"stickyboard/internal/events"
	applog "stickyboard/internal/log"
)

// Coordinator is the single owner of the "who is editing" state.
// At most one note is editing at any time; starting another silently ends the previous one.
type Coordinator struct {
	mu        sync.Mutex
	editing   string
	autoFocus string
	events    events.Publisher
	log       *slog.Logger
}

// New returns a Coordinator publishing EditModeChanged on pub (nil is allowed).
func New(pub events.Publisher) *Coordinator {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Coordinator{events: pub, log: applog.WithComponent("editing")}
}

// StartEditing makes id the editing note. Last writer wins.
func (c *Coordinator) StartEditing(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	prev := c.editing
	c.editing = id
	c.mu.Unlock()
	if prev == id {
		return
	}
	c.log.Debug("start editing", slog.String("note", id), slog.String("prev", prev))
	if prev != "" {
		c.events.Publish(events.EditModeChanged{NoteID: prev, Editing: false})
	}
	c.events.Publish(events.EditModeChanged{NoteID: id, Editing: true})
}

// StopEditing ends whatever edit session is active.
func (c *Coordinator) StopEditing() {
	c.mu.Lock()
	prev := c.editing
	c.editing = ""
	c.mu.Unlock()
	if prev != "" {
		c.events.Publish(events.EditModeChanged{NoteID: prev, Editing: false})
	}
}

// StopEditingSpecific ends editing only if id is still the editing note, so a
// late stop from an old session cannot close a newer one. It reports whether it did.
func (c *Coordinator) StopEditingSpecific(id string) bool {
	c.mu.Lock()
	if id == "" || c.editing != id {
		c.mu.Unlock()
		return false
	}
	c.editing = ""
	c.mu.Unlock()
	c.events.Publish(events.EditModeChanged{NoteID: id, Editing: false})
	return true
}

// SetAutoFocus marks a just-created note for focus and puts it straight into edit mode.
func (c *Coordinator) SetAutoFocus(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	c.autoFocus = id
	c.mu.Unlock()
	c.StartEditing(id)
}

// ClearAutoFocus consumes the one-shot focus signal.
func (c *Coordinator) ClearAutoFocus() {
	c.mu.Lock()
	c.autoFocus = ""
	c.mu.Unlock()
}

func (c *Coordinator) IsEditing(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id != "" && c.editing == id
}

func (c *Coordinator) ShouldAutoFocus(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id != "" && c.autoFocus == id
}

// EditingID returns the editing note id or "".
func (c *Coordinator) EditingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

// Reset clears both the editing and the auto-focus state, e.g. on a canvas switch.
func (c *Coordinator) Reset() {
	c.ClearAutoFocus()
	c.StopEditing()
}
