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

import "stickyboard/internal/domain"

// KeyDown handles a key press while the note (or, with TargetResizeHandle, its resize
// handle) has focus. It reports whether the key was consumed.
func (m *Machine) KeyDown(target Target, ev KeyEvent) bool {
	if ev.Key == KeyEscape && m.state != Idle {
		m.Cancel()
		return true
	}
	if m.editingSelf() {
		if ev.Key == KeyEscape {
			m.CommitEdit()
			return true
		}
		// the text input owns every other key
		return false
	}
	if m.state != Idle {
		return false
	}
	if dx, dy, ok := ev.arrow(); ok {
		n, found := m.cfg.Commands.Note(m.cfg.NoteID)
		if !found {
			return false
		}
		s := ev.step()
		if target == TargetResizeHandle {
			m.cfg.Commands.UpdateNote(m.cfg.NoteID, domain.SizePatch(
				domain.ClampWidth(n.Width+dx*s),
				domain.ClampHeight(n.Height+dy*s),
			))
			return true
		}
		m.cfg.Commands.UpdateNote(m.cfg.NoteID, domain.MovePatch(n.X+dx*s, n.Y+dy*s))
		return true
	}
	switch ev.Key {
	case KeyEnter, KeySpace:
		if target == TargetResizeHandle {
			return false
		}
		m.StartEditing()
		return true
	case KeyDelete, KeyBackspace:
		m.RequestDelete()
		return true
	case KeyEscape:
		if m.menuOpen {
			m.menuOpen = false
			m.focus()
			return true
		}
	}
	return false
}
