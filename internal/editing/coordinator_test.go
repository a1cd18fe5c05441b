/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editing

import (
	"testing"

	"stickyboard/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecorded(t *testing.T) (*Coordinator, *[]events.EditModeChanged) {
	t.Helper()
	bus := events.NewBus()
	var got []events.EditModeChanged
	events.On(bus, func(e events.EditModeChanged) { got = append(got, e) })
	return New(bus), &got
}

func TestMutualExclusion(t *testing.T) {
	c, got := newRecorded(t)
	c.StartEditing("A")
	c.StartEditing("B")

	assert.False(t, c.IsEditing("A"))
	assert.True(t, c.IsEditing("B"))
	assert.False(t, c.StopEditingSpecific("A"), "stale stop must be a no-op")
	assert.Equal(t, "B", c.EditingID())

	require.Equal(t, []events.EditModeChanged{
		{NoteID: "A", Editing: true},
		{NoteID: "A", Editing: false},
		{NoteID: "B", Editing: true},
	}, *got)
}

func TestStopEditingSpecificMatching(t *testing.T) {
	c, _ := newRecorded(t)
	c.StartEditing("A")
	assert.True(t, c.StopEditingSpecific("A"))
	assert.Equal(t, "", c.EditingID())
	assert.False(t, c.StopEditingSpecific("A"))
}

func TestStartEditingSameNoteIsQuiet(t *testing.T) {
	c, got := newRecorded(t)
	c.StartEditing("A")
	c.StartEditing("A")
	assert.Len(t, *got, 1)
}

func TestAutoFocusIsOneShot(t *testing.T) {
	c, _ := newRecorded(t)
	c.SetAutoFocus("N")
	assert.True(t, c.ShouldAutoFocus("N"))
	assert.True(t, c.IsEditing("N"), "auto focus also opens editing")
	assert.False(t, c.ShouldAutoFocus("other"))

	c.ClearAutoFocus()
	assert.False(t, c.ShouldAutoFocus("N"))
	assert.True(t, c.IsEditing("N"), "clearing focus keeps the edit session")
}

func TestResetAndEmptyIDs(t *testing.T) {
	c, got := newRecorded(t)
	c.StartEditing("")
	c.SetAutoFocus("")
	assert.Empty(t, *got)
	assert.False(t, c.IsEditing(""))

	c.SetAutoFocus("X")
	c.Reset()
	assert.Equal(t, "", c.EditingID())
	assert.False(t, c.ShouldAutoFocus("X"))
	c.StopEditing()
	assert.Len(t, *got, 2)
}

func TestNilPublisher(t *testing.T) {
	c := New(nil)
	c.StartEditing("A")
	c.StopEditing()
	assert.False(t, c.IsEditing("A"))
}
