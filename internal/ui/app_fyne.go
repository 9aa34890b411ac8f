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
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"inmyroom/internal/crash"
	"inmyroom/internal/domain"
	"inmyroom/internal/editor"
	applog "inmyroom/internal/log"
	"inmyroom/internal/manip"
	"inmyroom/internal/version"
)

// Run opens the desktop window over ed and blocks until it is closed. The
// room is saved when the window closes.
func Run(ed *editor.Editor) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	defer crash.Recover(ed)

	fyneApp := app.NewWithID("inmyroom")
	w := fyneApp.NewWindow("InMyRoom " + version.String())
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	room := NewRoomCanvas(ed)

	// Furniture palette (left): tapping a kind arms it for the next click.
	kinds := domain.Catalog()
	palette := widget.NewList(
		func() int { return len(kinds) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(kinds[i].Label) },
	)
	palette.OnSelected = func(id widget.ListItemID) {
		room.Arm(kinds[id].Kind)
		status.SetText(fmt.Sprintf("Click the room to place a %s", strings.ToLower(kinds[id].Label)))
		l.Debug("kind armed", slog.String("kind", string(kinds[id].Kind)))
	}
	left := container.NewBorder(widget.NewLabel("Furniture"), nil, nil, nil, palette)

	// History (right): selecting an entry restores it.
	var entries []string
	cursor := 0
	historyList := widget.NewList(
		func() int { return len(entries) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			prefix := "  "
			if int(i) == cursor {
				prefix = "> "
			}
			o.(*widget.Label).SetText(prefix + entries[i])
		},
	)
	restoring := false
	refreshHistory := func() {
		es, cur := ed.History()
		entries = entries[:0]
		for _, e := range es {
			entries = append(entries, e.Label)
		}
		cursor = cur
		restoring = true
		historyList.Select(cur)
		restoring = false
		historyList.Refresh()
	}
	historyList.OnSelected = func(id widget.ListItemID) {
		if restoring || int(id) == cursor {
			return
		}
		if err := ed.RestoreHistory(int(id)); err != nil {
			status.SetText(err.Error())
			return
		}
		room.Refresh()
		refreshHistory()
	}
	right := container.NewBorder(widget.NewLabel("History"), nil, nil, nil, historyList)

	refreshAll := func() {
		room.Refresh()
		refreshHistory()
	}
	room.OnChanged = refreshHistory

	sub := ed.Subscribe(func(ev editor.Event) {
		if ev.Kind == editor.EventNotice && ev.Notice != nil {
			status.SetText(ev.Notice.Message)
		}
	})
	defer sub.Close()

	act := func(fn func() (domain.Item, error)) func() {
		return func() {
			if _, err := fn(); err != nil {
				l.Debug("action rejected", slog.Any("err", err))
			}
			refreshAll()
		}
	}

	floorSelect := widget.NewSelect(domain.FloorPresets(), func(name string) {
		if p, _ := ed.Floor().Preset(); p == name {
			return
		}
		_ = ed.SetFloorPreset(name)
		refreshAll()
	})
	if p, ok := ed.Floor().Preset(); ok {
		floorSelect.SetSelected(p)
	}
	bgEntry := widget.NewEntry()
	bgEntry.SetPlaceHolder("#rrggbb")
	bgApply := widget.NewButton("Set background", func() {
		_ = ed.SetBackgroundColor(strings.TrimSpace(bgEntry.Text))
		refreshAll()
	})

	upload := func(apply func(*editor.Editor, context.Context, fyne.URIReadCloser) error) func() {
		return func() {
			dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
				if err != nil || rc == nil {
					return
				}
				defer rc.Close()
				if err := apply(ed, context.Background(), rc); err != nil {
					l.Warn("upload failed", slog.Any("err", err))
				}
				refreshAll()
			}, w).Show()
		}
	}
	uploadBg := upload(func(ed *editor.Editor, ctx context.Context, r fyne.URIReadCloser) error {
		return ed.UploadBackground(ctx, r)
	})
	uploadFloor := upload(func(ed *editor.Editor, ctx context.Context, r fyne.URIReadCloser) error {
		return ed.UploadFloor(ctx, r)
	})

	alignSelect := widget.NewSelect([]string{"left", "center", "right", "top", "middle", "bottom"}, nil)
	alignSelect.PlaceHolder = "Align"
	alignSelect.OnChanged = func(s string) {
		if s == "" {
			return
		}
		act(func() (domain.Item, error) { return ed.Align(manip.Edge(s)) })()
		alignSelect.ClearSelected()
	}

	tools := container.NewHBox(
		widget.NewButton("Forward", act(ed.BringForward)),
		widget.NewButton("Backward", act(ed.SendBackward)),
		widget.NewButton("⟲", act(ed.RotateLeft)),
		widget.NewButton("⟳", act(ed.RotateRight)),
		widget.NewButton("+", act(ed.ResizeBigger)),
		widget.NewButton("−", act(ed.ResizeSmaller)),
		alignSelect,
		widget.NewButton("Delete", act(ed.DeleteSelected)),
		widget.NewSeparator(),
		widget.NewButton("Undo", func() { _, _ = ed.Undo(); refreshAll() }),
		widget.NewButton("Redo", func() { _, _ = ed.Redo(); refreshAll() }),
		widget.NewButton("Reset", func() {
			dialog.ShowConfirm("Reset room", "Remove all furniture?", func(ok bool) {
				if ok {
					_ = ed.Reset()
					refreshAll()
				}
			}, w)
		}),
	)
	styles := container.NewHBox(
		widget.NewLabel("Floor"), floorSelect,
		widget.NewButton("Floor image…", uploadFloor),
		bgEntry, bgApply,
		widget.NewButton("Background image…", uploadBg),
		widget.NewSeparator(),
		widget.NewButton("Capture", func() {
			if _, err := ed.Capture(context.Background(), true); err != nil {
				dialog.ShowError(err, w)
			}
		}),
		widget.NewButton("Save", func() {
			if err := ed.Save(context.Background()); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Saved")
		}),
	)

	// Keyboard: arrows nudge (shift for 10px), Delete removes the selection.
	// A held arrow key produces one history entry, written on key-up.
	shift := false
	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(e *fyne.KeyEvent) {
			switch e.Name {
			case desktop.KeyShiftLeft, desktop.KeyShiftRight:
				shift = true
			case fyne.KeyLeft:
				_, _ = ed.Nudge(-1, 0, shift)
			case fyne.KeyRight:
				_, _ = ed.Nudge(1, 0, shift)
			case fyne.KeyUp:
				_, _ = ed.Nudge(0, -1, shift)
			case fyne.KeyDown:
				_, _ = ed.Nudge(0, 1, shift)
			case fyne.KeyDelete, fyne.KeyBackspace:
				_, _ = ed.DeleteSelected()
				refreshAll()
				return
			case fyne.KeyEscape:
				room.Arm("")
				ed.ClickEmpty()
			default:
				return
			}
			room.Refresh()
		})
		dc.SetOnKeyUp(func(e *fyne.KeyEvent) {
			switch e.Name {
			case desktop.KeyShiftLeft, desktop.KeyShiftRight:
				shift = false
			case fyne.KeyLeft, fyne.KeyRight, fyne.KeyUp, fyne.KeyDown:
				if ed.EndNudge() {
					refreshHistory()
				}
			}
		})
	}

	top := container.NewVBox(tools, styles)
	w.SetContent(container.NewBorder(top, status, left, right, room))
	refreshHistory()

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		ed.EndNudge()
		if err := ed.Save(context.Background()); err != nil {
			l.Error("save on exit failed", slog.Any("err", err))
		}
		w.Close()
	})
	w.ShowAndRun()
	return nil
}
