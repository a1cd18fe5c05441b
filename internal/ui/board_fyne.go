//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"stickyboard/internal/board"
	"stickyboard/internal/domain"
	"stickyboard/internal/export"
	"stickyboard/internal/interaction"
	"stickyboard/internal/vector"
)

// trashSize is the side of the trash drop target in the bottom-right corner.
const trashSize = 80

// BoardCanvas draws the active canvas and feeds pointer and keyboard input to the
// per-note interaction machines and the viewport.
type BoardCanvas struct {
	widget.BaseWidget

	ctl *board.Controller
	win fyne.Window

	machines map[string]*interaction.Machine
	focused  string // note with keyboard focus
	onHandle bool   // keyboard focus is on the focused note's resize handle
	menuFor  string

	shift   bool
	panning bool
	last    vector.Pt
	trash   vector.Rect

	entry     *noteEntry
	editing   string
	confirmed bool
}

func NewBoardCanvas(ctl *board.Controller, w fyne.Window) *BoardCanvas {
	b := &BoardCanvas{ctl: ctl, win: w, machines: map[string]*interaction.Machine{}}
	b.entry = newNoteEntry()
	b.entry.onEscape = b.commitEditor
	b.entry.onBlur = b.commitEditor
	b.entry.OnChanged = func(s string) {
		if m := b.machines[b.editing]; m != nil {
			m.SetDraft(s)
		}
	}
	b.entry.Hide()
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardCanvas) machine(id string) *interaction.Machine {
	if m, ok := b.machines[id]; ok {
		return m
	}
	m := b.ctl.NewNoteMachine(id, b.trashRect, b.confirm, interaction.Hooks{
		Focus: func() { b.focusSelf() },
	})
	b.machines[id] = m
	return m
}

func (b *BoardCanvas) trashRect() (vector.Rect, bool) {
	return b.trash, !b.trash.Empty()
}

// confirm answers the machine's question with the result of the dialog that
// preceded the call; see askDelete.
func (b *BoardCanvas) confirm(string) bool { return b.confirmed }

func (b *BoardCanvas) askDelete(m *interaction.Machine) {
	dialog.ShowConfirm("Delete note", interaction.DeletePrompt, func(ok bool) {
		if !ok {
			b.focusSelf()
			return
		}
		b.confirmed = true
		m.RequestDelete()
		b.confirmed = false
		b.Refresh()
	}, b.win)
}

func (b *BoardCanvas) focusSelf() {
	if b.win != nil {
		b.win.Canvas().Focus(b)
	}
}

func (b *BoardCanvas) canvasSwitched() {
	for id, m := range b.machines {
		m.Close()
		delete(b.machines, id)
	}
	b.focused, b.menuFor, b.editing = "", "", ""
	b.entry.Hide()
	b.Refresh()
}

func (b *BoardCanvas) addNoteAtCenter() {
	s := b.Size()
	b.createNote(vector.Pt{X: float64(s.Width) / 2, Y: float64(s.Height) / 2})
}

func (b *BoardCanvas) createNote(p vector.Pt) {
	b.commitEditor()
	n, err := b.ctl.CreateNoteAt(p)
	if err != nil {
		return
	}
	b.focused = n.ID
	b.machine(n.ID).ConsumeAutoFocus()
	b.syncEditor()
	b.Refresh()
}

// commitEditor ends text editing of the current note, if any.
func (b *BoardCanvas) commitEditor() {
	id := b.editing
	if id == "" {
		return
	}
	b.editing = ""
	b.entry.Hide()
	if m := b.machines[id]; m != nil {
		m.CommitEdit()
	}
	b.Refresh()
}

// syncEditor shows the text entry over whichever note the coordinator says is editing.
func (b *BoardCanvas) syncEditor() {
	id := b.ctl.Editing().EditingID()
	if id == b.editing {
		return
	}
	if b.editing != "" {
		b.commitEditor()
	}
	if id == "" {
		return
	}
	m := b.machine(id)
	b.editing = id
	b.entry.SetText(m.Draft())
	b.entry.Show()
	if b.win != nil {
		b.win.Canvas().Focus(b.entry)
	}
	b.Refresh()
}

func toPt(p fyne.Position) vector.Pt { return vector.Pt{X: float64(p.X), Y: float64(p.Y)} }

func (b *BoardCanvas) MouseDown(e *desktop.MouseEvent) {
	p := toPt(e.Position)
	b.last = p
	notes := b.ctl.Session().Notes()
	hit, ok := HitTest(notes, b.ctl.Viewport().State(), p, b.menuFor)
	if !ok {
		b.commitEditor()
		b.menuFor, b.focused = "", ""
		b.focusSelf()
		b.ctl.Viewport().BeginPan(p)
		b.panning = true
		return
	}
	if b.editing != "" && b.editing != hit.NoteID {
		b.commitEditor()
	}
	b.focusSelf()
	b.focused = hit.NoteID
	b.onHandle = false
	m := b.machine(hit.NoteID)
	switch hit.Target {
	case interaction.TargetColorMenu:
		if col, ok := hit.Chrome.SwatchAt(p); ok {
			m.SelectColor(col)
		}
		b.menuFor = ""
	case interaction.TargetColorButton:
		m.ToggleColorMenu()
		b.menuFor = ""
		if m.MenuOpen() {
			b.menuFor = hit.NoteID
		}
	case interaction.TargetDeleteButton:
		b.askDelete(m)
	default:
		b.menuFor = ""
		m.PointerDown(hit.Target, p)
	}
	b.Refresh()
}

func (b *BoardCanvas) MouseUp(e *desktop.MouseEvent) {
	b.release(toPt(e.Position))
}

func (b *BoardCanvas) Dragged(e *fyne.DragEvent) {
	p := toPt(e.Position)
	b.last = p
	if b.panning {
		b.ctl.Viewport().PanTo(p)
	} else {
		b.ctl.Surface().PointerMove(p)
	}
	b.Refresh()
}

func (b *BoardCanvas) DragEnd() { b.release(b.last) }

func (b *BoardCanvas) release(p vector.Pt) {
	if b.panning {
		b.ctl.Viewport().EndPan()
		b.panning = false
	} else {
		b.ctl.Surface().PointerUp(p)
	}
	b.syncEditor()
	b.Refresh()
}

func (b *BoardCanvas) DoubleTapped(e *fyne.PointEvent) {
	p := toPt(e.Position)
	if _, ok := HitTest(b.ctl.Session().Notes(), b.ctl.Viewport().State(), p, b.menuFor); ok {
		return
	}
	b.createNote(p)
}

func (b *BoardCanvas) Scrolled(e *fyne.ScrollEvent) {
	// fyne reports about one unit per notch, upwards positive
	b.ctl.Viewport().WheelZoom(toPt(e.Position), -float64(e.Scrolled.DY)*10)
	b.Refresh()
}

func (b *BoardCanvas) FocusGained() {}
func (b *BoardCanvas) FocusLost()   {}

func (b *BoardCanvas) TypedRune(r rune) {
	if (r == 'r' || r == 'R') && b.focused != "" {
		b.onHandle = !b.onHandle
		b.Refresh()
	}
}

func (b *BoardCanvas) KeyDown(e *fyne.KeyEvent) {
	if e.Name == desktop.KeyShiftLeft || e.Name == desktop.KeyShiftRight {
		b.shift = true
	}
}

func (b *BoardCanvas) KeyUp(e *fyne.KeyEvent) {
	if e.Name == desktop.KeyShiftLeft || e.Name == desktop.KeyShiftRight {
		b.shift = false
	}
}

var keyMap = map[fyne.KeyName]interaction.Key{
	fyne.KeyUp:        interaction.KeyUp,
	fyne.KeyDown:      interaction.KeyDown,
	fyne.KeyLeft:      interaction.KeyLeft,
	fyne.KeyRight:     interaction.KeyRight,
	fyne.KeyReturn:    interaction.KeyEnter,
	fyne.KeyEnter:     interaction.KeyEnter,
	fyne.KeySpace:     interaction.KeySpace,
	fyne.KeyEscape:    interaction.KeyEscape,
	fyne.KeyDelete:    interaction.KeyDelete,
	fyne.KeyBackspace: interaction.KeyBackspace,
}

func (b *BoardCanvas) TypedKey(e *fyne.KeyEvent) {
	k, ok := keyMap[e.Name]
	if !ok {
		return
	}
	if k == interaction.KeyEscape && b.ctl.Surface().Escape() {
		b.Refresh()
		return
	}
	if b.focused == "" {
		if k == interaction.KeyEscape {
			b.menuFor = ""
			b.Refresh()
		}
		return
	}
	m := b.machine(b.focused)
	if (k == interaction.KeyDelete || k == interaction.KeyBackspace) && m.State() == interaction.Idle {
		b.askDelete(m)
		return
	}
	target := interaction.TargetBody
	if b.onHandle {
		target = interaction.TargetResizeHandle
	}
	if k == interaction.KeyEscape {
		b.menuFor = ""
	}
	m.KeyDown(target, interaction.KeyEvent{Key: k, Shift: b.shift})
	b.syncEditor()
	b.Refresh()
}

func (b *BoardCanvas) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

func (b *BoardCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 245, G: 245, B: 240, A: 255})
	trash := canvas.NewRectangle(color.RGBA{R: 229, G: 57, B: 53, A: 60})
	trash.StrokeColor = color.RGBA{R: 229, G: 57, B: 53, A: 200}
	trash.StrokeWidth = 2
	trash.CornerRadius = 8
	trash.Hide()
	return &boardRenderer{b: b, bg: bg, trash: trash}
}

type boardRenderer struct {
	b       *BoardCanvas
	bg      *canvas.Rectangle
	trash   *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *boardRenderer) Destroy()                     {}
func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardRenderer) MinSize() fyne.Size           { return r.b.MinSize() }
func (r *boardRenderer) Refresh()                     { r.Layout(r.b.Size()); canvas.Refresh(r.b) }

func (r *boardRenderer) Layout(size fyne.Size) {
	b := r.b
	view := b.ctl.Viewport().State()
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	objs := []fyne.CanvasObject{r.bg}
	objs = append(objs, r.grid(size, view)...)

	b.trash = vector.R(float64(size.Width)-trashSize-16, float64(size.Height)-trashSize-16, trashSize, trashSize)
	r.trash.Move(fyne.NewPos(float32(b.trash.X), float32(b.trash.Y)))
	r.trash.Resize(fyne.NewSize(trashSize, trashSize))
	if b.ctl.Surface().Captured() {
		r.trash.Show()
	} else {
		r.trash.Hide()
	}

	notes := b.ctl.Session().Notes()
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].ZIndex < notes[j].ZIndex })
	live := make(map[string]bool, len(notes))
	for _, n := range notes {
		live[n.ID] = true
		objs = append(objs, r.note(n, view)...)
	}
	for id, m := range b.machines {
		if !live[id] {
			m.Close()
			delete(b.machines, id)
		}
	}
	objs = append(objs, r.trash, b.entry)
	r.objects = objs
}

func (r *boardRenderer) grid(size fyne.Size, v domain.ViewState) []fyne.CanvasObject {
	step := float32(r.b.ctl.Viewport().GridSize() * v.Zoom)
	if step < 4 {
		return nil
	}
	alpha := uint8(r.b.ctl.Viewport().GridOpacity() * 255)
	col := color.RGBA{R: 0, G: 0, B: 0, A: alpha}
	var out []fyne.CanvasObject
	ox := float32(v.X) - step*float32(int(float32(v.X)/step))
	oy := float32(v.Y) - step*float32(int(float32(v.Y)/step))
	for x := ox; x < size.Width; x += step {
		ln := canvas.NewLine(col)
		ln.Position1, ln.Position2 = fyne.NewPos(x, 0), fyne.NewPos(x, size.Height)
		out = append(out, ln)
	}
	for y := oy; y < size.Height; y += step {
		ln := canvas.NewLine(col)
		ln.Position1, ln.Position2 = fyne.NewPos(0, y), fyne.NewPos(size.Width, y)
		out = append(out, ln)
	}
	return out
}

func rectObj(rc vector.Rect, fill color.Color) *canvas.Rectangle {
	o := canvas.NewRectangle(fill)
	o.Move(fyne.NewPos(float32(rc.X), float32(rc.Y)))
	o.Resize(fyne.NewSize(float32(rc.W), float32(rc.H)))
	return o
}

func darker(c color.RGBA) color.RGBA {
	return color.RGBA{R: uint8(float64(c.R) * 0.9), G: uint8(float64(c.G) * 0.9), B: uint8(float64(c.B) * 0.9), A: 255}
}

func (r *boardRenderer) note(n domain.StickyNote, v domain.ViewState) []fyne.CanvasObject {
	b := r.b
	c := ChromeFor(ScreenRect(n, v))
	fill := export.ParseHex(n.Color)

	body := rectObj(c.Note, fill)
	body.StrokeWidth = 1
	body.StrokeColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	if n.ID == b.focused {
		body.StrokeWidth = 2
		body.StrokeColor = color.RGBA{R: 33, G: 150, B: 243, A: 255}
	}
	header := rectObj(c.Header, darker(fill))
	colorBtn := rectObj(c.Color, fill)
	colorBtn.StrokeWidth = 1
	colorBtn.StrokeColor = color.Gray{Y: 90}
	colorBtn.CornerRadius = float32(ButtonSize / 2)
	del := canvas.NewText("×", color.Gray{Y: 60})
	del.TextSize = float32(ButtonSize - 2)
	del.Move(fyne.NewPos(float32(c.Delete.X+4), float32(c.Delete.Y-2)))
	handle := rectObj(c.Resize, darker(darker(fill)))
	if n.ID == b.focused && b.onHandle {
		handle.StrokeWidth = 2
		handle.StrokeColor = color.RGBA{R: 33, G: 150, B: 243, A: 255}
	}
	objs := []fyne.CanvasObject{body, header, colorBtn, del, handle}

	if n.ID == b.editing {
		b.entry.Move(fyne.NewPos(float32(c.Note.X+4), float32(c.Note.Y+HeaderHeight+2)))
		b.entry.Resize(fyne.NewSize(float32(c.Note.W-8), float32(max(c.Note.H-HeaderHeight-ResizeHandleSize-4, 24))))
	} else if n.Content != "" {
		txt := widget.NewLabel(n.Content)
		txt.Wrapping = fyne.TextWrapWord
		txt.Truncation = fyne.TextTruncateClip
		txt.Move(fyne.NewPos(float32(c.Note.X), float32(c.Note.Y+HeaderHeight)))
		txt.Resize(fyne.NewSize(float32(c.Note.W), float32(max(c.Note.H-HeaderHeight-ResizeHandleSize, 0))))
		objs = append(objs, txt)
	}

	if n.ID == b.menuFor {
		menu := rectObj(c.Menu, color.White)
		menu.StrokeWidth = 1
		menu.StrokeColor = color.Gray{Y: 160}
		objs = append(objs, menu)
		for i, hex := range domain.NoteColors {
			sw := vector.R(c.Menu.X+float64(i)*SwatchSize+2, c.Menu.Y+2, SwatchSize-4, SwatchSize-4)
			so := rectObj(sw, export.ParseHex(hex))
			if hex == n.Color {
				so.StrokeWidth = 2
				so.StrokeColor = color.Gray{Y: 40}
			}
			objs = append(objs, so)
		}
	}
	return objs
}

// noteEntry is the multi-line text input of the editing note. Escape and losing
// focus both commit.
type noteEntry struct {
	widget.Entry
	onEscape func()
	onBlur   func()
}

func newNoteEntry() *noteEntry {
	e := &noteEntry{}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapWord
	e.ExtendBaseWidget(e)
	return e
}

func (e *noteEntry) TypedKey(k *fyne.KeyEvent) {
	if k.Name == fyne.KeyEscape && e.onEscape != nil {
		e.onEscape()
		return
	}
	e.Entry.TypedKey(k)
}

func (e *noteEntry) FocusLost() {
	e.Entry.FocusLost()
	if e.onBlur != nil {
		e.onBlur()
	}
}
