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
	"sync"

	"stickyboard/internal/vector"
)

// Captor receives pointer events from the whole surface while it holds the capture.
type Captor interface {
	capturedMove(p vector.Pt)
	capturedUp(p vector.Pt)
	capturedCancel()
}

// Dispatcher is the top-level input surface. A drag or resize registers itself here
// so movement outside the note's bounds is still tracked. At most one captor is
// registered; the UI forwards every surface pointer-move, pointer-up and Escape.
type Dispatcher struct {
	mu     sync.Mutex
	active Captor
	token  uint64
}

func NewDispatcher() *Dispatcher { return &Dispatcher{} }

// Capture registers c, cancelling a previous captor. The returned release is
// idempotent and only removes c if it is still the active captor.
func (d *Dispatcher) Capture(c Captor) (release func()) {
	d.mu.Lock()
	prev := d.active
	d.active = c
	d.token++
	tok := d.token
	d.mu.Unlock()
	if prev != nil && prev != c {
		prev.capturedCancel()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			if d.token == tok {
				d.active = nil
			}
			d.mu.Unlock()
		})
	}
}

// Captured reports whether a gesture currently holds the surface.
func (d *Dispatcher) Captured() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil
}

func (d *Dispatcher) current() Captor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// PointerMove forwards a surface move. It reports whether a captor took it.
func (d *Dispatcher) PointerMove(p vector.Pt) bool {
	c := d.current()
	if c == nil {
		return false
	}
	c.capturedMove(p)
	return true
}

// PointerUp forwards a surface release. The captor releases itself.
func (d *Dispatcher) PointerUp(p vector.Pt) bool {
	c := d.current()
	if c == nil {
		return false
	}
	c.capturedUp(p)
	return true
}

// Escape cancels the active gesture.
func (d *Dispatcher) Escape() bool {
	c := d.current()
	if c == nil {
		return false
	}
	c.capturedCancel()
	return true
}
