/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package events carries the board's boundary notifications to whoever renders
// them: storage failures, edit-mode changes, the save-status flag and canvas switches.
package events

import (
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"

	applog "stickyboard/internal/log"
)

// Event is any notification published on a Bus.
type Event interface {
	Kind() string
}

// StorageFailed is published when a storage operation could not complete,
// after any local recovery was attempted.
type StorageFailed struct {
	Op  string
	Err error
}

func (StorageFailed) Kind() string { return "storage_failed" }

// EditModeChanged is published when a note enters or leaves text editing.
type EditModeChanged struct {
	NoteID  string
	Editing bool
}

func (EditModeChanged) Kind() string { return "edit_mode_changed" }

// SaveStatusChanged drives the "saving..." indicator.
type SaveStatusChanged struct {
	Saving bool
}

func (SaveStatusChanged) Kind() string { return "save_status_changed" }

// CanvasSwitched is published after the active canvas changed.
type CanvasSwitched struct {
	From string
	To   string
}

func (CanvasSwitched) Kind() string { return "canvas_switched" }

// Publisher is the write side of a Bus.
type Publisher interface {
	Publish(e Event)
}

// Bus delivers events synchronously, in subscription order, on the publisher's goroutine.
// A panicking handler is logged and skipped.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: map[int]func(Event){}}
}

// Subscribe registers fn and returns a func that removes it again.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// On subscribes a handler for a single event type.
func On[T Event](b *Bus, fn func(T)) (unsubscribe func()) {
	return b.Subscribe(func(e Event) {
		if v, ok := e.(T); ok {
			fn(v)
		}
	})
}

func (b *Bus) Publish(e Event) {
	if b == nil || e == nil {
		return
	}
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		deliver(h, e)
	}
}

func deliver(h func(Event), e Event) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponent("events").Error("event handler panicked",
				slog.String("event", e.Kind()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	h(e)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(Event) {}
