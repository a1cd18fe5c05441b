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

// Target is the part of a note a pointer event landed on. The UI resolves it by
// checking controls first, so an event on the edge of a header control reports
// that control and never TargetBody.
type Target int

const (
	TargetBody Target = iota
	TargetHeader
	TargetResizeHandle
	TargetColorButton
	TargetColorMenu
	TargetDeleteButton
	TargetTextInput
)

var targetNames = map[Target]string{
	TargetBody:         "body",
	TargetHeader:       "header",
	TargetResizeHandle: "resize",
	TargetColorButton:  "color-button",
	TargetColorMenu:    "color-menu",
	TargetDeleteButton: "delete-button",
	TargetTextInput:    "text",
}

func (t Target) String() string {
	if s, ok := targetNames[t]; ok {
		return s
	}
	return "unknown"
}

// isControl reports whether the target owns its own click handling.
func (t Target) isControl() bool {
	switch t {
	case TargetColorButton, TargetColorMenu, TargetDeleteButton, TargetTextInput:
		return true
	}
	return false
}

// Key is a keyboard key the machine reacts to.
type Key int

const (
	KeyUnknown Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeySpace
	KeyEscape
	KeyDelete
	KeyBackspace
)

// KeyEvent is one key press. Shift selects the fast step.
type KeyEvent struct {
	Key   Key
	Shift bool
}

// Step sizes for keyboard moves and resizes, in canvas units.
const (
	StepNormal = 1.0
	StepFast   = 10.0
)

func (e KeyEvent) step() float64 {
	if e.Shift {
		return StepFast
	}
	return StepNormal
}

// arrow returns the unit direction of an arrow key.
func (e KeyEvent) arrow() (dx, dy float64, ok bool) {
	switch e.Key {
	case KeyUp:
		return 0, -1, true
	case KeyDown:
		return 0, 1, true
	case KeyLeft:
		return -1, 0, true
	case KeyRight:
		return 1, 0, true
	}
	return 0, 0, false
}
