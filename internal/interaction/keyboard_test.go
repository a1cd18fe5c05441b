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

	"stickyboard/internal/domain"
	"stickyboard/internal/vector"
)

func TestArrowKeysMoveNote(t *testing.T) {
	r := newRig(t, note("a", 100, 100))
	assert.True(t, r.m.KeyDown(TargetBody, KeyEvent{Key: KeyRight}))
	assert.True(t, r.m.KeyDown(TargetBody, KeyEvent{Key: KeyUp, Shift: true}))
	n, _ := r.notes.Note("a")
	assert.Equal(t, 101.0, n.X)
	assert.Equal(t, 90.0, n.Y)
}

func TestArrowKeysResizeOnHandle(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.m.KeyDown(TargetResizeHandle, KeyEvent{Key: KeyRight, Shift: true})
	r.m.KeyDown(TargetResizeHandle, KeyEvent{Key: KeyDown})
	n, _ := r.notes.Note("a")
	assert.Equal(t, domain.NoteDefaultWidth+10, n.Width)
	assert.Equal(t, domain.NoteDefaultHeight+1, n.Height)
	assert.Equal(t, 0.0, n.X)

	for i := 0; i < 20; i++ {
		r.m.KeyDown(TargetResizeHandle, KeyEvent{Key: KeyUp, Shift: true})
	}
	n, _ = r.notes.Note("a")
	assert.Equal(t, domain.NoteMinHeight, n.Height)
}

func TestArrowsIgnoredWhileDragging(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.m.PointerDown(TargetBody, vector.Pt{})
	r.surface.PointerMove(vector.Pt{X: 10})
	before := r.notes.updates
	assert.False(t, r.m.KeyDown(TargetBody, KeyEvent{Key: KeyLeft}))
	assert.Equal(t, before, r.notes.updates)
}

func TestEnterOpensEditingAndKeysGoToInput(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	assert.True(t, r.m.KeyDown(TargetBody, KeyEvent{Key: KeyEnter}))
	assert.True(t, r.coord.IsEditing("a"))
	assert.False(t, r.m.KeyDown(TargetTextInput, KeyEvent{Key: KeyLeft}))
	n, _ := r.notes.Note("a")
	assert.Equal(t, 0.0, n.X)
}

func TestDeleteKeyConfirms(t *testing.T) {
	r := newRig(t, note("a", 0, 0))
	r.answer = true
	assert.True(t, r.m.KeyDown(TargetBody, KeyEvent{Key: KeyDelete}))
	assert.Equal(t, []string{"a"}, r.notes.deletes)
	assert.Len(t, r.asked, 1)
}
