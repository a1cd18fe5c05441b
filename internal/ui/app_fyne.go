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
	"fmt"
	"log/slog"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"stickyboard/internal/board"
	"stickyboard/internal/config"
	"stickyboard/internal/crash"
	"stickyboard/internal/events"
	applog "stickyboard/internal/log"
	"stickyboard/internal/storage"
	"stickyboard/internal/version"
)

// Run opens the board window over the configured storage and blocks until it is closed.
func Run(cfg config.AppConfig) error {
	l := applog.WithComponent("ui")
	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	backend, closeBackend, err := storage.OpenBackend(cfg.Storage.Backend, dataDir, cfg.Storage.QuotaBytes)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := closeBackend(); err != nil {
			l.Warn("close storage", slog.Any("err", err))
		}
	}()

	bus := events.NewBus()
	store := storage.NewStore(backend, storage.Options{Events: bus, MaxBackups: cfg.Storage.MaxBackups})
	ctl := board.New(store, board.Options{
		Debounce:      cfg.Canvas.SaveDebounce(),
		ZoomMin:       cfg.Canvas.ZoomMin,
		ZoomMax:       cfg.Canvas.ZoomMax,
		DragThreshold: cfg.Canvas.DragThresholdPx,
		Events:        bus,
	})
	defer crash.Recover(dataDir, ctl)

	if _, err := ctl.Mount(); err != nil {
		l.Warn("mount finished with errors", slog.Any("err", err))
	}
	l.Info("starting UI", slog.String("data", dataDir), slog.String("backend", cfg.Storage.Backend))

	fyneApp := app.NewWithID("stickyboard")
	w := fyneApp.NewWindow("Sticky Board")
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1200), 640)
	winH := max(prefs.IntWithFallback("window.height", 800), 480)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	bc := NewBoardCanvas(ctl, w)
	status := widget.NewLabel("Saved")
	picker := newCanvasPicker(ctl, bc)

	bus.Subscribe(func(e events.Event) {
		switch ev := e.(type) {
		case events.SaveStatusChanged:
			text := "Saved"
			if ev.Saving {
				text = "Saving…"
			}
			fyne.Do(func() { status.SetText(text) })
		case events.StorageFailed:
			fyne.Do(func() {
				status.SetText("Not saved")
				dialog.ShowError(fmt.Errorf("could not save (%s): %w", ev.Op, ev.Err), w)
			})
		case events.CanvasSwitched:
			fyne.Do(func() {
				bc.canvasSwitched()
				picker.reload()
			})
		}
	})

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), func() {
			bc.addNoteAtCenter()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.FolderNewIcon(), func() {
			if _, err := ctl.CreateCanvas(""); err != nil {
				dialog.ShowError(err, w)
			}
		}),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { showRename(ctl, w) }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { confirmDeleteCanvas(ctl, w) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { ctl.Viewport().Reset(); bc.Refresh() }),
	)
	top := container.NewBorder(nil, nil, toolbar, nil, picker.sel)
	bottom := container.NewBorder(nil, nil, status, widget.NewLabel(version.String()))
	w.SetContent(container.NewBorder(top, bottom, nil, nil, bc))

	for i := 1; i <= 9; i++ {
		idx := i - 1
		key := fyne.KeyName(strconv.Itoa(i))
		w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
			if err := ctl.SelectByIndex(idx); err != nil {
				l.Debug("select by index", slog.Int("index", idx), slog.Any("err", err))
			}
		})
	}

	w.SetCloseIntercept(func() {
		size := w.Canvas().Size()
		prefs.SetInt("window.width", int(size.Width))
		prefs.SetInt("window.height", int(size.Height))
		bc.commitEditor()
		if !ctl.Close() {
			l.Warn("final flush failed")
		}
		w.Close()
	})
	w.Canvas().Focus(bc)
	w.ShowAndRun()
	return nil
}

// canvasPicker is the canvas switcher; options are rebuilt after every switch.
type canvasPicker struct {
	ctl      *board.Controller
	bc       *BoardCanvas
	sel      *widget.Select
	ids      []string
	updating bool
}

func newCanvasPicker(ctl *board.Controller, bc *BoardCanvas) *canvasPicker {
	p := &canvasPicker{ctl: ctl, bc: bc}
	p.sel = widget.NewSelect(nil, func(string) {
		if p.updating {
			return
		}
		i := p.sel.SelectedIndex()
		if i < 0 || i >= len(p.ids) {
			return
		}
		p.bc.commitEditor()
		if err := p.ctl.SelectCanvas(p.ids[i]); err != nil {
			applog.WithComponent("ui").Warn("select canvas", slog.Any("err", err))
		}
	})
	p.reload()
	return p
}

func (p *canvasPicker) reload() {
	all := p.ctl.Canvases()
	opts := make([]string, len(all))
	p.ids = make([]string, len(all))
	active := -1
	for i, c := range all {
		p.ids[i] = c.ID
		opts[i] = fmt.Sprintf("%s (%d)", c.Name, p.ctl.NoteCount(c.ID))
		if c.ID == p.ctl.ActiveID() {
			active = i
		}
	}
	p.updating = true
	p.sel.SetOptions(opts)
	if active >= 0 {
		p.sel.SetSelectedIndex(active)
	}
	p.updating = false
}

func showRename(ctl *board.Controller, w fyne.Window) {
	id := ctl.ActiveID()
	name := widget.NewEntry()
	for _, c := range ctl.Canvases() {
		if c.ID == id {
			name.SetText(c.Name)
		}
	}
	items := []*widget.FormItem{widget.NewFormItem("Name", name)}
	dialog.ShowForm("Rename canvas", "Rename", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		if err := ctl.RenameCanvas(id, name.Text); err != nil {
			dialog.ShowError(err, w)
		}
	}, w)
}

func confirmDeleteCanvas(ctl *board.Controller, w fyne.Window) {
	id := ctl.ActiveID()
	dialog.ShowConfirm("Delete canvas", "Delete this canvas and its notes?", func(ok bool) {
		if !ok {
			return
		}
		if err := ctl.DeleteCanvas(id); err != nil {
			dialog.ShowError(err, w)
		}
	}, w)
}
